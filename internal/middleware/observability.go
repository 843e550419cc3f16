package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vaulthook/internal/httputil"
	"vaulthook/internal/metrics"
	"vaulthook/internal/tracing"
)

// responseWrapper captures the status code written by downstream handlers.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Observability wraps handlers with request ids, an OpenTelemetry span,
// request/response logging and latency metrics.
func Observability(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := tracing.GenerateRequestID()

			ctx := tracing.WithRequestID(r.Context(), requestID)
			ctx = tracing.WithStartTime(ctx, start)

			ctx, span := tracing.WithOtelTracing(ctx, "http."+r.Method+" "+r.URL.Path)
			defer span.End()
			tracing.AddSpanAttributes(ctx,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("request.id", requestID),
			)

			wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			labels := map[string]string{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": strconv.Itoa(wrapped.statusCode),
			}
			metrics.IncrementCounter("http_requests_total", labels, "HTTP requests processed")
			metrics.RecordTimer("http_request_duration", duration, map[string]string{
				"method": r.Method,
				"path":   r.URL.Path,
			}, "HTTP request latency")

			if wrapped.statusCode >= 400 {
				tracing.SetSpanStatus(ctx, codes.Error, http.StatusText(wrapped.statusCode))
			}

			logger.WithFields(logrus.Fields{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"client_ip":   httputil.GetClientIP(r),
				"trace_id":    tracing.GetOtelTraceID(ctx),
			}).Info("Request completed")
		})
	}
}
