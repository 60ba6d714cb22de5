package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mvector/internal/model"
	"github.com/xxxsen/mvector/internal/pkg/response"
	"github.com/xxxsen/mvector/internal/service"
)

type QueryHandler struct {
	search *service.SearchService
	caps   service.CapabilitySource
}

func NewQueryHandler(search *service.SearchService, caps service.CapabilitySource) *QueryHandler {
	return &QueryHandler{search: search, caps: caps}
}

type queryRequest struct {
	Query  string    `json:"query_text"`
	Vector []float32 `json:"embedding"`
	TopK   int       `json:"k"`
}

type queryDebugInfo struct {
	Engine          string `json:"engine"`
	HasNativeVector bool   `json:"has_native_vector"`
}

type queryResult struct {
	model.SearchResult
	DebugInfo queryDebugInfo `json:"debug_info"`
}

// Query ranks stored chunks against a text query or a raw vector.
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	ctx := c.Request.Context()
	if req.Query != "" && len(req.Vector) > 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "give either query_text or embedding, not both")
		return
	}
	var results []model.SearchResult
	var err error
	switch {
	case len(req.Vector) > 0:
		results, err = h.search.Search(ctx, req.Vector, req.TopK)
	case req.Query != "":
		results, err = h.search.SearchText(ctx, req.Query, req.TopK)
	default:
		response.Error(c, http.StatusBadRequest, "invalid", "query_text or embedding required")
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	cap := h.caps.Detect(ctx)
	debug := queryDebugInfo{
		Engine:          cap.Family.String(),
		HasNativeVector: cap.HasNativeVector,
	}
	rows := make([]queryResult, 0, len(results))
	for _, result := range results {
		rows = append(rows, queryResult{SearchResult: result, DebugInfo: debug})
	}
	response.Success(c, gin.H{"results": rows})
}
