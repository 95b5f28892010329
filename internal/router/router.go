package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-upload-engine/internal/config"
	"go-upload-engine/internal/handler"
	"go-upload-engine/internal/middleware"
)

func New(cfg *config.Config, upload *handler.UploadHandler) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"resumable upload engine","endpoints":{` +
			`"init":"POST /api/upload/init",` +
			`"chunk":"POST /api/upload/chunk",` +
			`"status":"GET /api/upload/status/{uploadId}",` +
			`"complete":"POST /api/upload/complete/{uploadId}",` +
			`"abort":"DELETE /api/upload/{uploadId}"}}`))
	})

	r.Route("/api/upload", func(api chi.Router) {
		// Chunk intake spends its time reading the multipart body, so it
		// gets the idle-aware upload timeout instead of the buffering
		// http.TimeoutHandler.
		transfer := middleware.UploadTimeout(cfg.TransferTimeout, cfg.TransferIdleTimeout)
		api.With(transfer).Post("/chunk", upload.UploadChunk)

		// Lightweight JSON control endpoints.
		api.Group(func(std chi.Router) {
			std.Use(middleware.Timeout(cfg.RequestTimeout))

			std.Post("/init", upload.Init)
			std.Get("/status/{uploadId}", upload.Status)
			std.Post("/complete/{uploadId}", upload.Complete)
			std.Delete("/{uploadId}", upload.Abort)
		})
	})

	return r
}
