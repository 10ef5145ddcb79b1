package middleware

import (
	"log/slog"
	"net/http"

	"github.com/lucasncamargo/gorestaurant/pkg/logger"
)

// RequestLogger stores a logger enriched with the request's correlation,
// user and trace ids in the context (see logger.FromContext). Mount it after
// RequestLogging, Tracing and any middleware that resolves the user.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
