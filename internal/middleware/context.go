package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// requestUploadID recovers the upload id a request was addressed to: from
// the route pattern for status/complete/abort, or from the multipart form
// the chunk handler already parsed. Empty when neither is available (init,
// or a chunk request that died before the form was read).
func requestUploadID(r *http.Request) string {
	if id := chi.URLParam(r, "uploadId"); id != "" {
		return id
	}

	if r.MultipartForm != nil {
		if vals := r.MultipartForm.Value["uploadId"]; len(vals) > 0 {
			return vals[0]
		}
	}

	return ""
}

// requestChunkIndex recovers the chunk index field from an already parsed
// multipart form, or "" for non-chunk requests.
func requestChunkIndex(r *http.Request) string {
	if r.MultipartForm == nil {
		return ""
	}

	if vals := r.MultipartForm.Value["chunkIndex"]; len(vals) > 0 {
		return vals[0]
	}

	return ""
}
