package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"streamvault/internal/services"
)

// RequestLogger returns chi-compatible middleware that logs each request with
// method, path, status, duration, and response size. The chi request id, when
// present, is stored on the request context as the correlation id.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	logger = NewComponentLogger(logger, "api")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if rid := middleware.GetReqID(ctx); rid != "" {
				ctx = services.WithRequestID(ctx, rid)
				r = r.WithContext(ctx)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelDebug
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			WithContext(ctx, logger).Log(ctx, level, "request",
				String("method", r.Method),
				String("path", r.URL.Path),
				Int("status", status),
				Int64("duration_ms", time.Since(start).Milliseconds()),
				Int("size", ww.BytesWritten()),
			)
		})
	}
}
