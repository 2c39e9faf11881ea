// Package httpapi implements moldserve, the HTTP surface over the core
// operation surface: POST /validate, POST /diff, GET /elements/{path},
// GET /watch (websocket), POST/GET /archive/{group}/{entry}[/...] over
// the archive.Store backend, and GET /metrics. Adapted from the teacher's
// internal/middleware/builder.go middleware stack and pkg/middleware's
// security headers / path normalization, rewired around
// github.com/gorilla/mux instead of the teacher's bare net/http mux and
// validating request DTOs with github.com/go-playground/validator/v10
// instead of the teacher's hand-rolled field checks.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldcache"
	"github.com/vitaliisemenov/moldctl/pkg/moldmetrics"
)

// Server is moldserve's HTTP handler set.
type Server struct {
	router   *mux.Router
	plugin   *jsonplugin.Plugin
	store    archive.Store
	cache    *moldcache.Cache
	validate *validator.Validate
	upgrader websocket.Upgrader
	metrics  *moldmetrics.Metrics
	log      *slog.Logger
}

// New builds a Server. reg receives the Prometheus collectors served at
// /metrics; pass nil to have New create a fresh private registry. store and
// cache are both optional: a nil store disables the /archive endpoints, a
// nil cache leaves resolved_default out of /elements responses.
func New(plugin *jsonplugin.Plugin, store archive.Store, cache *moldcache.Cache, metrics *moldmetrics.Metrics, reg *prometheus.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = moldmetrics.New()
	}

	s := &Server{
		plugin:   plugin,
		store:    store,
		cache:    cache,
		validate: validator.New(),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		metrics:  metrics,
		log:      log,
	}

	r := mux.NewRouter()
	r.Use(securityHeaders, requestID(log), recoverPanic(log), accessLog(log))
	r.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/diff", s.handleDiff).Methods(http.MethodPost)
	r.HandleFunc("/elements/{path}", s.handleElements).Methods(http.MethodGet)
	r.HandleFunc("/watch", s.handleWatch).Methods(http.MethodGet)
	r.HandleFunc("/archive/{group}/{entry}", s.handleArchivePut).Methods(http.MethodPost)
	r.HandleFunc("/archive/{group}/{entry}/latest", s.handleArchiveLatest).Methods(http.MethodGet)
	r.HandleFunc("/archive/{group}/{entry}/versions", s.handleArchiveList).Methods(http.MethodGet)
	r.HandleFunc("/archive/{group}/{entry}/{version}", s.handleArchiveGet).Methods(http.MethodGet)

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics.MustRegister(reg)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
