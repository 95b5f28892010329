package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go-upload-engine/internal/model"
)

// Timeout bounds the short JSON control endpoints (init, status, complete,
// abort) with http.TimeoutHandler; their responses are small enough that its
// in-memory buffering is harmless. Chunk intake must not go through this,
// see UploadTimeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    "REQUEST_TIMEOUT",
			Message: "request timed out",
		},
	})

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
