package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/YaganovValera/reddit-collector/pkg/logger"
)

// RequestIDHeader — заголовок, в котором принимается и возвращается request-ID.
const RequestIDHeader = "X-Request-ID"

// RequestID берёт request-ID из заголовка или генерирует новый и кладёт его
// в контекст запроса для logger.WithContext.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ctx := logger.ContextWithRequestID(r.Context(), reqID)
			w.Header().Set(RequestIDHeader, reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
