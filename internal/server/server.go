// Package server exposes the swagger cache and event map over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreamfactory/dspdocs/internal/eventbus"
	"github.com/dreamfactory/dspdocs/internal/logging"
	"github.com/dreamfactory/dspdocs/internal/metrics"
	"github.com/dreamfactory/dspdocs/internal/service"
	"github.com/dreamfactory/dspdocs/internal/swagger"
)

// Server serves the documentation and event routes.
type Server struct {
	manager  *swagger.Manager
	factory  *service.Factory
	services service.Lister
	metrics  *metrics.Metrics
	bus      *eventbus.Bus
	log      *logging.Logger
	recovery *logging.RecoveryHandler

	srv *http.Server
	ln  net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics sets the metrics exposed on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithBus exposes the bus's retained cache events on /api_docs/cache/events.
func WithBus(b *eventbus.Bus) Option {
	return func(s *Server) { s.bus = b }
}

// New creates a server. services resolves request paths for event lookups.
func New(addr string, manager *swagger.Manager, factory *service.Factory, services service.Lister, opts ...Option) *Server {
	s := &Server{
		manager:  manager,
		factory:  factory,
		services: services,
		metrics:  metrics.Global(),
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recovery = &logging.RecoveryHandler{Logger: s.log}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with request ID, logging and panic
// recovery applied. Every route is also served under /rest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api_docs", s.handleListing)
	mux.HandleFunc("GET /api_docs/{service}", s.handleService)
	mux.HandleFunc("GET /api_docs/{service}/openapi", s.handleOpenAPI)
	mux.HandleFunc("DELETE /api_docs/cache", s.handleClear)
	mux.HandleFunc("GET /api_docs/cache/events", s.handleCacheEvents)
	mux.HandleFunc("GET /system/event", s.handleEvents)
	mux.HandleFunc("GET /system/event/lookup", s.handleLookup)
	mux.HandleFunc("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	root := http.NewServeMux()
	root.Handle("/rest/", http.StripPrefix("/rest", mux))
	root.Handle("/", mux)
	return s.middleware(root)
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http_serve_failed", map[string]interface{}{"addr": s.srv.Addr}, err)
		}
	}()
	s.log.Info("http_listening", map[string]interface{}{"addr": ln.Addr().String()})
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithRequestID(r.Context(), r.Header.Get(logging.RequestIDHeader))
		id := logging.GetRequestID(ctx)
		w.Header().Set(logging.RequestIDHeader, id)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		err := s.recovery.WrapError(func() error {
			next.ServeHTTP(sw, r.WithContext(ctx))
			return nil
		})
		if err != nil {
			sw.status = writeError(w, err).Code.HTTPStatus()
		}

		s.log.TimedEvent("http_request", start, map[string]interface{}{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     sw.status,
		})
	})
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := writeError(w, err)
	if e.Code == CodeInternal {
		s.log.Error("request_failed", map[string]interface{}{
			"request_id": logging.GetRequestID(r.Context()),
			"path":       r.URL.Path,
		}, err)
	}
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	data, err := s.manager.CombinedListing(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeRaw(w, data)
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	data, err := s.manager.ServiceListing(r.Context(), r.PathValue("service"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeRaw(w, data)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := s.manager.ExportOpenAPI(r.Context(), r.PathValue("service"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := s.manager.ClearCache(r.Context())
	writeJSON(w, map[string]any{"success": true, "removed": removed})
}

// handleCacheEvents lists recent rebuild and clear notifications, oldest
// first.
func (s *Server) handleCacheEvents(w http.ResponseWriter, r *http.Request) {
	record := []eventbus.Event{}
	if s.bus != nil {
		record = append(record, s.bus.History()...)
	}
	writeJSON(w, map[string]any{"record": record})
}

// handleEvents lists every known event with all_events, else the event
// cube keyed by event name.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if queryBool(r, "all_events") {
		writeJSON(w, s.manager.AllEvents(r.Context(), queryBool(r, "as_cached")))
		return
	}
	writeJSON(w, map[string]any{"record": s.manager.EventCube(r.Context())})
}

// handleLookup resolves ?path=&method= to the event the request would fire.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if strings.Trim(path, "/") == "" {
		s.fail(w, r, &Error{Code: CodeInvalidArgument, Message: "path is required"})
		return
	}
	method := q.Get("method")
	if method == "" {
		method = http.MethodGet
	}

	svc, err := s.factory.Resolve(r.Context(), s.services, path)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := map[string]any{
		"api_name": svc.APIName(),
		"resource": svc.Resource(),
		"method":   strings.ToLower(method),
	}
	if event := q.Get("event"); event != "" {
		out["event"] = event
		out["found"] = s.manager.HasEvent(r.Context(), svc, method, event)
		writeJSON(w, out)
		return
	}

	event, ok := s.manager.FindEvent(r.Context(), svc, method)
	out["found"] = ok
	if ok {
		out["event"] = event
	}
	writeJSON(w, out)
}
