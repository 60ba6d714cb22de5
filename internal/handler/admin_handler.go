package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mvector/internal/db"
	"github.com/xxxsen/mvector/internal/pkg/response"
	"github.com/xxxsen/mvector/internal/queue"
	"github.com/xxxsen/mvector/internal/service"
)

type AdminHandler struct {
	migrate    *service.MigrationService
	schema     *db.SchemaManager
	durable    *queue.DurableQueue
	fallback   *queue.FallbackQueue
	dimensions int
	drainLimit int
}

func NewAdminHandler(migrate *service.MigrationService, schema *db.SchemaManager, durable *queue.DurableQueue, fallback *queue.FallbackQueue, dimensions, drainLimit int) *AdminHandler {
	return &AdminHandler{
		migrate:    migrate,
		schema:     schema,
		durable:    durable,
		fallback:   fallback,
		dimensions: dimensions,
		drainLimit: drainLimit,
	}
}

type providerRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (h *AdminHandler) ConfigureProvider(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	state, err := h.migrate.Configure(c.Request.Context(), req.Provider, req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *AdminHandler) ProviderState(c *gin.Context) {
	state, err := h.migrate.State(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *AdminHandler) ApplyProvider(c *gin.Context) {
	state, err := h.migrate.Apply(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, state)
}

func (h *AdminHandler) CancelProvider(c *gin.Context) {
	state, err := h.migrate.Cancel(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, state)
}

type indexRequest struct {
	M      int    `json:"m"`
	Metric string `json:"metric"`
}

func (h *AdminHandler) AddIndex(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := h.schema.AddVectorIndex(c.Request.Context(), req.M, db.ParseMetric(req.Metric)); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *AdminHandler) Optimize(c *gin.Context) {
	if err := h.schema.Optimize(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Recreate drops and rebuilds the embeddings table. All vectors are
// lost.
func (h *AdminHandler) Recreate(c *gin.Context) {
	if err := h.schema.RecreateTable(c.Request.Context(), h.dimensions); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// DrainQueue runs both queue backends on demand.
func (h *AdminHandler) DrainQueue(c *gin.Context) {
	limit := h.drainLimit
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	ctx := c.Request.Context()
	total := 0
	if h.durable.Available(ctx) {
		n, err := h.durable.Drain(ctx, limit)
		if err != nil {
			handleError(c, err)
			return
		}
		total += n
	}
	n, err := h.fallback.Drain(ctx, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	total += n
	response.Success(c, gin.H{"processed": total})
}
