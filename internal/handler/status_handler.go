package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/mvector/internal/ai"
	"github.com/xxxsen/mvector/internal/pkg/response"
	"github.com/xxxsen/mvector/internal/service"
)

type StatusHandler struct {
	status *service.StatusService
}

func NewStatusHandler(status *service.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

func (h *StatusHandler) Metadata(c *gin.Context) {
	meta, err := h.status.Metadata(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, meta)
}

// Providers lists the selectable providers and their known models.
func (h *StatusHandler) Providers(c *gin.Context) {
	providers := ai.Providers()
	out := make([]gin.H, 0, len(providers))
	for _, p := range providers {
		out = append(out, gin.H{
			"name":   p.Name,
			"label":  p.Label,
			"models": ai.ModelsFor(p.Name),
		})
	}
	response.Success(c, out)
}
