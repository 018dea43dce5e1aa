package httpserver

import (
	"net/http"
	"runtime/debug"

	"artsync/internal/artsync"
)

// recoverer turns a panicking handler into a 500 response and logs the
// panic with its stack.
func recoverer(logger artsync.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("handler panicked", "method", r.Method, "path", r.URL.Path, "panic", v, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
