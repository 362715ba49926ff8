package mwrequestid

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const Header = "X-Request-Id"

type ctxKey struct{}

// New tags every request with an id, reusing a well formed one sent by the
// client, and logs the request once it has been served.
func New(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(Header)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
			logger.DebugContext(r.Context(), "request served", "method", r.Method, "path", r.URL.Path, "request_id", id)
		})
	}
}

// FromContext returns the request id stored by New.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
