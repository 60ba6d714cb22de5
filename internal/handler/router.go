package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Embed     *EmbedHandler
	Query     *QueryHandler
	Status    *StatusHandler
	Documents *DocumentHandler
	Admin     *AdminHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/embed", deps.Embed.Embed)
	api.POST("/vectors", deps.Embed.InsertVector)
	api.POST("/query", deps.Query.Query)
	api.GET("/metadata", deps.Status.Metadata)
	api.GET("/providers", deps.Status.Providers)

	api.POST("/documents", deps.Documents.Create)
	api.GET("/documents", deps.Documents.List)
	api.POST("/reembed", deps.Documents.Reembed)

	admin := api.Group("/admin")
	admin.GET("/provider", deps.Admin.ProviderState)
	admin.POST("/provider", deps.Admin.ConfigureProvider)
	admin.POST("/provider/apply", deps.Admin.ApplyProvider)
	admin.POST("/provider/cancel", deps.Admin.CancelProvider)
	admin.POST("/index", deps.Admin.AddIndex)
	admin.POST("/optimize", deps.Admin.Optimize)
	admin.POST("/recreate", deps.Admin.Recreate)
	admin.POST("/queue/drain", deps.Admin.DrainQueue)
}
