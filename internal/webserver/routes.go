package webserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eomgitae/care-console/internal/webapi"
)

// registerRoutes mounts the history API behind the CORS middleware.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	api := http.NewServeMux()
	webapi.RegisterRoutes(api, cfg.Store)
	mux.Handle("/api/", webapi.CORSMiddleware(api, cfg.AllowedOrigins...))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs each request at debug level.
func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
