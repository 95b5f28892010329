package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go-upload-engine/internal/model"
)

// Recovery converts handler panics into a 500 error envelope. The panic log
// carries the upload id when the route or a parsed multipart form has one,
// so a crash can be tied back to its session.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				attrs := []any{
					"error", fmt.Sprintf("%v", recovered),
					"method", r.Method,
					"path", r.URL.Path,
				}
				if id := requestUploadID(r); id != "" {
					attrs = append(attrs, "upload_id", id)
				}
				attrs = append(attrs, "stack", string(debug.Stack()))

				slog.Error("panic recovered", attrs...)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(model.APIResponse{
					Success: false,
					Error: &model.APIError{
						Code:    "INTERNAL_ERROR",
						Message: "Unexpected server error",
					},
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
