package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets browser upload clients call the engine directly. The surface is
// deliberately narrow: JSON control calls (POST/GET), the multipart chunk
// POST, and DELETE for abort. The API carries no auth headers and no
// cookies, so credentials stay disabled.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,    // status
			http.MethodPost,   // init, chunk, complete
			http.MethodDelete, // abort
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		MaxAge:           3600,
		AllowCredentials: false,
	})

	return handler.Handler
}
