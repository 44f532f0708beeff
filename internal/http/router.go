// Package http exposes the REST API: import endpoints, collection
// browsing, and import-session history/cancellation.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mlevchik/mnemo/internal/auth"
	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/database/users"
	"github.com/mlevchik/mnemo/internal/services"
	"github.com/mlevchik/mnemo/internal/tasks"
)

// RouterConfig carries the dependencies the router needs, keeping the
// constructor signature stable as handlers grow.
type RouterConfig struct {
	Config        *config.Config
	Notes         *notes.Repository
	Sessions      *sessions.Repository
	Users         *users.Repository
	ImportService *services.ImportService
	TaskClient    *tasks.Client // nil when the task queue is disabled
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	if cfg.Config.Import.MaxUpload > 0 {
		router.MaxMultipartMemory = cfg.Config.Import.MaxUpload
	}

	healthController := NewHealthController(cfg.Notes)
	router.GET("/health", healthController.Health)

	authController := NewAuthController(cfg.Users)
	router.POST("/api/auth/token", authController.IssueToken)

	api := router.Group("/api")
	if cfg.Config.Auth.Mode == config.AuthModeToken {
		api.Use(auth.TokenMiddleware(cfg.Users))
	}

	importController := NewImportController(cfg.Config, cfg.ImportService, cfg.TaskClient)
	api.POST("/import/text", importController.ImportText)
	api.POST("/import/pack", importController.ImportPack)

	notesController := NewNotesController(cfg.Notes)
	api.GET("/notetypes", notesController.ListNoteTypes)
	api.GET("/notes", notesController.ListNotes)
	api.GET("/notes/:id", notesController.GetNote)

	sessionsController := NewSessionsController(cfg.Sessions, cfg.ImportService)
	api.GET("/sessions", sessionsController.List)
	api.GET("/sessions/:id", sessionsController.Get)
	api.DELETE("/sessions/:id/cancel", sessionsController.Cancel)

	return router
}
