package server

import (
	"github.com/gin-gonic/gin"
)

// Router builds the gin engine with every route of the API.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.Observe())

	r.GET("/healthz", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)

		authed := api.Group("")
		authed.Use(h.RequireSession())

		authed.POST("/logout", h.Logout)

		entries := authed.Group("/entries")
		{
			entries.GET("", h.ListEntries)
			entries.POST("", h.AddEntry)
			entries.GET("/:id", h.GetEntry)
			entries.PUT("/:id", h.UpdateEntry)
			entries.DELETE("/:id", h.DeleteEntry)
		}

		authed.GET("/export/json", h.ExportJSON)
		authed.GET("/backups", h.ListBackups)
		authed.PUT("/admin/credentials", h.UpdateCredentials)
	}

	return r
}
