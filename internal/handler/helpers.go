package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mvector/internal/pkg/errdefs"
	"github.com/xxxsen/mvector/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch errdefs.KindOf(err) {
	case errdefs.KindConfiguration:
		response.Error(c, http.StatusBadRequest, "configuration_error", err.Error())
	case errdefs.KindTransport, errdefs.KindProviderResponse:
		response.Error(c, http.StatusBadGateway, "provider_error", err.Error())
	case errdefs.KindChunkingDegenerate:
		response.Error(c, http.StatusUnprocessableEntity, "chunking_error", err.Error())
	case errdefs.KindStorage:
		response.Error(c, http.StatusInternalServerError, "storage_error", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
