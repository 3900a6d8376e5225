// Package metrics provides a simple Prometheus-compatible metrics endpoint.
package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime metrics for the swagger cache.
type Metrics struct {
	// Rebuilds
	Rebuilds            atomic.Int64
	RebuildErrors       atomic.Int64
	ServicesSkipped     atomic.Int64
	LastRebuildMs       atomic.Int64
	LastRebuildServices atomic.Int64
	CacheClears         atomic.Int64
	CacheDeleteWarnings atomic.Int64
	MalformedCacheReads atomic.Int64

	// Cache reads
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64

	// Event lookups
	Lookups      atomic.Int64
	LookupMisses atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// New returns a fresh metrics instance.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// RecordRebuild records a rebuild attempt
func (m *Metrics) RecordRebuild(success bool, services, skipped int, durationMs int64) {
	m.Rebuilds.Add(1)
	if !success {
		m.RebuildErrors.Add(1)
		return
	}
	m.ServicesSkipped.Add(int64(skipped))
	m.LastRebuildServices.Store(int64(services))
	m.LastRebuildMs.Store(durationMs)
}

// RecordCacheRead records a cache file read served from disk (hit) or
// requiring a rebuild (miss).
func (m *Metrics) RecordCacheRead(hit bool) {
	if hit {
		m.CacheHits.Add(1)
		return
	}
	m.CacheMisses.Add(1)
}

// RecordClear records a cache clear and the number of files that could not
// be removed.
func (m *Metrics) RecordClear(warnings int) {
	m.CacheClears.Add(1)
	m.CacheDeleteWarnings.Add(int64(warnings))
}

// RecordMalformed records a cache file that failed to decode.
func (m *Metrics) RecordMalformed() {
	m.MalformedCacheReads.Add(1)
}

// RecordLookup records an event lookup
func (m *Metrics) RecordLookup(found bool) {
	m.Lookups.Add(1)
	if !found {
		m.LookupMisses.Add(1)
	}
}

func writeMetric(w io.Writer, name, kind, help string, value any) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %v\n\n", name, value)
}

// Handler returns an HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		writeMetric(w, "dsp_uptime_seconds", "gauge", "Time since the process started",
			fmt.Sprintf("%.2f", time.Since(m.startTime).Seconds()))
		writeMetric(w, "dsp_swagger_rebuilds_total", "counter", "Total swagger cache rebuilds", m.Rebuilds.Load())
		writeMetric(w, "dsp_swagger_rebuild_errors_total", "counter", "Total failed rebuilds", m.RebuildErrors.Load())
		writeMetric(w, "dsp_swagger_services_skipped_total", "counter", "Services skipped for lack of a descriptor", m.ServicesSkipped.Load())
		writeMetric(w, "dsp_swagger_last_rebuild_services", "gauge", "Services documented by the last rebuild", m.LastRebuildServices.Load())
		writeMetric(w, "dsp_swagger_last_rebuild_duration_ms", "gauge", "Last rebuild duration", m.LastRebuildMs.Load())
		writeMetric(w, "dsp_swagger_cache_hits_total", "counter", "Cache reads served from disk", m.CacheHits.Load())
		writeMetric(w, "dsp_swagger_cache_misses_total", "counter", "Cache reads that required a rebuild", m.CacheMisses.Load())
		writeMetric(w, "dsp_swagger_cache_malformed_total", "counter", "Cache files that failed to decode", m.MalformedCacheReads.Load())
		writeMetric(w, "dsp_swagger_cache_clears_total", "counter", "Total cache clears", m.CacheClears.Load())
		writeMetric(w, "dsp_swagger_cache_delete_warnings_total", "counter", "Cache files that could not be removed", m.CacheDeleteWarnings.Load())
		writeMetric(w, "dsp_event_lookups_total", "counter", "Total event lookups", m.Lookups.Load())
		writeMetric(w, "dsp_event_lookup_misses_total", "counter", "Event lookups with no match", m.LookupMisses.Load())
	}
}

// Server wraps the metrics HTTP server
type Server struct {
	srv *http.Server
}

// NewServer creates a standalone metrics server on addr.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start starts the metrics server in background
func (s *Server) Start() error {
	go s.srv.ListenAndServe()
	return nil
}

// Stop gracefully shuts down the metrics server
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
