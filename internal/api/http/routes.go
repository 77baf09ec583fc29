package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register attaches every route. The event stream and the Prometheus
// endpoint ride alongside the JSON API.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/stream", h.hub.Serve)

	r.GET("/windows", h.ListWindows)
	r.POST("/windows", h.CreateWindow)
	r.GET("/windows/:id", h.GetWindow)
	r.PATCH("/windows/:id", h.UpdateWindow)
	r.DELETE("/windows/:id", h.DeleteWindow)

	r.POST("/workspace/export", h.ExportWorkspace)
	r.POST("/workspace/import", h.ImportWorkspace)
	r.GET("/workspace/stats", h.WorkspaceStats)

	r.GET("/library", h.ListLibrary)
	r.GET("/library/:name", h.GetLibraryNotebook)
	r.PUT("/library/:name", h.SaveLibraryNotebook)
	r.DELETE("/library/:name", h.DeleteLibraryNotebook)
	r.POST("/library/archive", h.ArchiveLibrary)

	r.POST("/remote/connect", h.ConnectRemote)
	r.GET("/remote/status", h.RemoteStatus)
	r.GET("/remote/notebooks", h.ListRemoteNotebooks)
	r.POST("/remote/notebooks/import", h.ImportRemoteNotebook)
	r.POST("/remote/kernel/start", h.StartKernel)
	r.POST("/remote/kernel/stop", h.StopKernel)
	r.POST("/remote/execute", h.ExecuteCell)
	r.GET("/remote/sessions", h.ListSessions)
	r.GET("/remote/sessions/:cell", h.GetSession)
}
