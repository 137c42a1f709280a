package http

import "github.com/gin-gonic/gin"

// Register mounts the studio flow under the given group.
func Register(rg *gin.RouterGroup, h *Handler) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.getSession)
	sessions.POST("/:id/briefing", h.completeBriefing)
	sessions.POST("/:id/proposals", h.generateProposals)
	sessions.POST("/:id/synthesis", h.synthesize)
	sessions.POST("/:id/select", h.selectOption)
	sessions.POST("/:id/refine", h.refine)
	sessions.POST("/:id/restore", h.restore)
	sessions.POST("/:id/finalize", h.finalize)
	sessions.POST("/:id/angles", h.angles)
	sessions.GET("/:id/export", h.exportDossier)
	sessions.POST("/:id/new-project", h.newProject)
	sessions.POST("/:id/load/:project_id", h.loadProject)

	rg.GET("/projects", h.listProjects)
}
