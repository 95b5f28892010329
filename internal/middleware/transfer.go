package middleware

import (
	"context"
	"io"
	"net/http"
	"time"
)

// UploadTimeout bounds the chunk intake route, where the long-running work
// is reading the multipart body, without the response buffering of
// http.TimeoutHandler. It enforces:
//   - maxDuration: absolute maximum time for one chunk request.
//   - idleTimeout: maximum gap between consecutive body reads; a client
//     that stalls mid-chunk is cut off instead of holding the connection
//     until the absolute deadline.
func UploadTimeout(maxDuration, idleTimeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			// Connection-level deadlines unblock reads stuck in the kernel
			// when the transfer goes quiet.
			rc := http.NewResponseController(w)
			deadline := time.Now().Add(maxDuration)
			_ = rc.SetWriteDeadline(deadline)
			_ = rc.SetReadDeadline(time.Now().Add(idleTimeout))

			r.Body = &idleBody{body: r.Body, rc: rc, idleTimeout: idleTimeout, absolute: deadline}

			// The handler parses the chunk form on the derived request; hand
			// it back so outer middleware (logging, recovery) can read the
			// upload id and chunk index, also when the handler panics.
			inner := r.WithContext(ctx)
			defer func() { r.MultipartForm = inner.MultipartForm }()

			next.ServeHTTP(w, inner)
		})
	}
}

// idleBody wraps the request body and pushes the read deadline forward on
// every successful read, so the effective deadline is min(absolute,
// last-progress + idleTimeout).
type idleBody struct {
	body        io.ReadCloser
	rc          *http.ResponseController
	idleTimeout time.Duration
	absolute    time.Time
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if n > 0 {
		next := time.Now().Add(b.idleTimeout)
		if next.After(b.absolute) {
			next = b.absolute
		}
		_ = b.rc.SetReadDeadline(next)
	}
	return n, err
}

func (b *idleBody) Close() error {
	return b.body.Close()
}
