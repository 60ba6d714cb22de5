package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/response"
	"github.com/xxxsen/mvector/internal/service"
)

type EmbedHandler struct {
	ingest *service.IngestService
}

func NewEmbedHandler(ingest *service.IngestService) *EmbedHandler {
	return &EmbedHandler{ingest: ingest}
}

type embedRequest struct {
	DocID   string      `json:"doc_id"`
	DocType string      `json:"doc_type"`
	Title   string      `json:"title"`
	Text    interface{} `json:"text"`
	Content interface{} `json:"content"`
}

// Embed chunks and embeds content synchronously, returning the stored
// chunk rows.
func (h *EmbedHandler) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.DocID == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "doc_id required")
		return
	}
	content := req.Text
	if content == nil {
		content = req.Content
	}
	chunks, err := h.ingest.IngestText(c.Request.Context(), req.DocID, req.DocType, req.Title, content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"doc_id": req.DocID,
		"count":  len(chunks),
		"chunks": chunks,
	})
}

type vectorRequest struct {
	DocID      string          `json:"doc_id"`
	DocType    string          `json:"doc_type"`
	Model      string          `json:"model"`
	ChunkIndex int             `json:"chunk_id"`
	ChunkText  string          `json:"chunk_content"`
	Embedding  []float32       `json:"embedding"`
	Summary    string          `json:"summary"`
	Meta       json.RawMessage `json:"meta"`
}

// InsertVector stores a pre-computed vector.
func (h *EmbedHandler) InsertVector(c *gin.Context) {
	var req vectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	id, err := h.ingest.InsertVector(c.Request.Context(), &model.EmbeddingRecord{
		DocID:      req.DocID,
		DocType:    req.DocType,
		Model:      req.Model,
		ChunkIndex: req.ChunkIndex,
		ChunkText:  req.ChunkText,
		Embedding:  req.Embedding,
		Summary:    req.Summary,
		Meta:       req.Meta,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
