package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-upload-engine/internal/config"
	"go-upload-engine/internal/event"
	"go-upload-engine/internal/handler"
	"go-upload-engine/internal/router"
	"go-upload-engine/internal/service"
	"go-upload-engine/internal/session"
	"go-upload-engine/internal/sink"
	"go-upload-engine/internal/storage"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.New(cfg.UploadsDir, cfg.CompletedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunk store: %w", err)
	}

	catalog, err := sink.NewCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	bus := event.NewBus()

	registry := session.NewRegistry()
	uploadService := service.NewUploadService(store, registry, cfg.ChunkSize, bus)
	pipeline := sink.Default(catalog, bus)
	uploadHandler := handler.NewUploadHandler(uploadService, pipeline, cfg.MaxChunkSize)

	appRouter := router.New(cfg, uploadHandler)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go uploadService.StartCleanupTicker(cleanupCtx, cfg.SweepInterval, cfg.SessionExpiry)
	go runJobDispatcher(cleanupCtx, bus)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			cleanupCancel,
		},
	}, nil
}

// runJobDispatcher drains downstream job-request events. It stands in for
// the pipeline worker that would pick these up from a real queue.
func runJobDispatcher(ctx context.Context, bus event.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}

			switch e.Type {
			case event.TypeFineTuneRequested, event.TypeCurationRequested:
				slog.Info("dispatching downstream job", "event_type", e.Type, "event_id", e.ID)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
