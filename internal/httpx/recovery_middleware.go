package httpx

import (
	"net/http"

	"go.uber.org/zap"
)

func RecoveryMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						zap.String("request_id", RequestIDFrom(r)),
						zap.Any("panic", rec),
						zap.Stack("stack"),
					)
					if !rw.wroteHeader() {
						JSONError(rw, r, http.StatusInternalServerError, internalErrorMessage, nil)
					}
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
