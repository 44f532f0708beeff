// Package entrypoint boots the server process: logging, database,
// background machinery and the HTTP router, with graceful shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mlevchik/mnemo/internal/config"
	"github.com/mlevchik/mnemo/internal/database"
	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/database/sessions"
	"github.com/mlevchik/mnemo/internal/database/users"
	http_controllers "github.com/mlevchik/mnemo/internal/http"
	"github.com/mlevchik/mnemo/internal/scheduler"
	"github.com/mlevchik/mnemo/internal/services"
	"github.com/mlevchik/mnemo/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background machinery before closing the listener.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole server process together and blocks until shutdown.
func Run(cfg *config.Config, version string) {
	setupLogging(cfg.Log)
	log.Printf("Starting mnemo v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	noteRepo := notes.NewRepository(db.DB)
	sessionRepo := sessions.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)
	importService := services.NewImportService(noteRepo, sessionRepo)

	// Task queue for async imports, if enabled.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			MaxRetries:      cfg.Tasks.MaxRetries,
			RetryDelay:      cfg.Tasks.RetryDelay,
			TaskTimeout:     cfg.Tasks.TaskTimeout,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportFileQueue(importService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Inbox watcher: periodic scan of a drop directory for import files.
	inbox := scheduler.NewInboxScheduler(cfg.Inbox, taskClient)
	if err := inbox.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start inbox watcher: %v", err)
	}

	if cfg.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token")
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Config:        cfg,
		Notes:         noteRepo,
		Sessions:      sessionRepo,
		Users:         userRepo,
		ImportService: importService,
		TaskClient:    taskClient,
	})

	onShutdown := func(ctx context.Context) {
		inbox.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// setupLogging routes the standard logger through a rotating file when
// LOG_FILE is set; stderr remains the default.
func setupLogging(cfg config.Log) {
	if cfg.File == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
