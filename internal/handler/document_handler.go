package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mvector/internal/chunk"
	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/response"
	"github.com/xxxsen/mvector/internal/queue"
	"github.com/xxxsen/mvector/internal/repo"
)

type DocumentHandler struct {
	docs  *repo.DocumentRepo
	queue *queue.Dispatcher
}

func NewDocumentHandler(docs *repo.DocumentRepo, q *queue.Dispatcher) *DocumentHandler {
	return &DocumentHandler{docs: docs, queue: q}
}

type documentRequest struct {
	DocID   string      `json:"doc_id"`
	DocType string      `json:"doc_type"`
	Title   string      `json:"title"`
	Content interface{} `json:"content"`
}

// Create stores a document and enqueues it for embedding.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	content := chunk.Coerce(req.Content)
	if req.DocID == "" || content == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "doc_id and content required")
		return
	}
	ctx := c.Request.Context()
	if err := h.docs.Upsert(ctx, &model.Document{
		DocID:   req.DocID,
		DocType: req.DocType,
		Title:   req.Title,
		Content: content,
	}); err != nil {
		handleError(c, err)
		return
	}
	if err := h.queue.Push(ctx, model.QueueItem{DocID: req.DocID}); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"doc_id": req.DocID,
		"queued": true,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit := 50
	offset := 0
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	docs, err := h.docs.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

type reembedRequest struct {
	DocID    string `json:"doc_id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Reembed enqueues one document, or every stored document when no
// doc_id is given. Items pushed with an explicit provider/model pin that
// pair; otherwise the active selection at processing time applies.
func (h *DocumentHandler) Reembed(c *gin.Context) {
	var req reembedRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	ctx := c.Request.Context()
	if req.DocID != "" {
		if err := h.queue.Push(ctx, model.QueueItem{
			DocID:    req.DocID,
			Provider: req.Provider,
			Model:    req.Model,
		}); err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, gin.H{"queued": 1})
		return
	}
	ids, err := h.docs.AllIDs(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]model.QueueItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, model.QueueItem{
			DocID:    id,
			Provider: req.Provider,
			Model:    req.Model,
		})
	}
	if err := h.queue.PushBatch(ctx, items); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"queued": len(items)})
}
