package httpapi

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitaliisemenov/moldctl/pkg/moldlog"
)

// securityHeaders sets the same hardening headers the teacher's
// pkg/middleware/security_headers.go set for the alert-history HTTP
// surface; moldserve carries them verbatim since they are ambient HTTP
// hygiene, not alert-history-specific behavior.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
		w.Header().Del("Server")
	})
}

// requestID assigns a google/uuid request ID (spec.md Part C.8) to every
// inbound request, carried in the response header and the operation-scoped
// logger via moldlog.WithOperationID.
func requestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set("X-Request-Id", id)
			ctx := moldlog.WithOperationID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recoverPanic turns a handler panic into a 500 instead of killing the
// server, adapted from the teacher's internal/middleware/builder.go
// applyRecovery.
func recoverPanic(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("httpapi: panic recovered", "error", err, "path", r.URL.Path)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs method/path/status/duration through the operation-scoped
// logger, mirroring pkg/moldlog's correlation model.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("http request",
				"method", r.Method,
				"path", normalizePath(r.URL.Path),
				"status", rec.status,
				"duration", time.Since(start),
				"operation_id", moldlog.OperationID(r.Context()))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

var (
	uuidSegment    = regexp.MustCompile(`/[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	numericSegment = regexp.MustCompile(`/\d+`)
)

// normalizePath collapses UUID/numeric path segments before they hit the
// access log or a metrics label, the same cardinality-control idea as the
// teacher's pkg/middleware/path_normalization.go PathNormalizer.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return path
	}
	normalized := uuidSegment.ReplaceAllString(path, "/:id")
	normalized = numericSegment.ReplaceAllString(normalized, "/:id")
	return strings.TrimSuffix(normalized, "/")
}
