package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/envutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

// Metrics is a small Prometheus text-format registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	textRequests *CounterVec
	textLatency  *HistogramVec

	reclusterRuns     *CounterVec
	reclusterLatency  *HistogramVec
	clustersStored    *Gauge
	summaryCache      *CounterVec
	neighborMatches   *HistogramVec
	graphMirrorErrors *CounterVec

	dbOpenConns *Gauge
	dbInUse     *Gauge
	dbWaitCount *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered instance; Init is the process-wide entry.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sharedexp_api_requests_total", "HTTP requests by route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("sharedexp_api_latency_seconds", "HTTP request latency.", []string{"method", "route", "status"}, nil),
		apiInflight: NewGauge("sharedexp_api_inflight", "HTTP requests in flight."),

		textRequests: NewCounterVec("sharedexp_text_service_requests_total", "Text service calls by operation and outcome.", []string{"provider", "op", "status"}),
		textLatency:  NewHistogramVec("sharedexp_text_service_latency_seconds", "Text service call latency.", []string{"provider", "op"}, []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}),

		reclusterRuns:     NewCounterVec("sharedexp_recluster_runs_total", "Recluster runs by outcome.", []string{"status"}),
		reclusterLatency:  NewHistogramVec("sharedexp_recluster_latency_seconds", "Recluster wall time.", []string{"status"}, []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120}),
		clustersStored:    NewGauge("sharedexp_clusters_stored", "Clusters written by the last successful recluster."),
		summaryCache:      NewCounterVec("sharedexp_summary_cache_total", "Group summary cache lookups.", []string{"result"}),
		neighborMatches:   NewHistogramVec("sharedexp_neighbor_matches", "Neighbor matches per retrieval.", []string{"mode"}, []float64{0, 1, 2, 5, 10, 25, 50, 100, 300}),
		graphMirrorErrors: NewCounterVec("sharedexp_graph_mirror_errors_total", "Swallowed graph mirror failures.", []string{"op"}),

		dbOpenConns: NewGauge("sharedexp_db_open_connections", "Open database connections."),
		dbInUse:     NewGauge("sharedexp_db_in_use_connections", "Database connections in use."),
		dbWaitCount: NewGauge("sharedexp_db_wait_count", "Total waits for a database connection."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.textRequests, m.textLatency,
		m.reclusterRuns, m.reclusterLatency, m.clustersStored,
		m.summaryCache, m.neighborMatches, m.graphMirrorErrors,
		m.dbOpenConns, m.dbInUse, m.dbWaitCount,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route = orUnknown(method), orUnknown(route)
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveTextService records one text service call. status is "ok",
// "fallback" or "cancelled".
func (m *Metrics) ObserveTextService(provider, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	provider, op = orUnknown(provider), orUnknown(op)
	m.textRequests.Inc(provider, op, orUnknown(status))
	if dur > 0 {
		m.textLatency.Observe(dur.Seconds(), provider, op)
	}
}

func (m *Metrics) ObserveRecluster(status string, clusters int, dur time.Duration) {
	if m == nil {
		return
	}
	status = orUnknown(status)
	m.reclusterRuns.Inc(status)
	m.reclusterLatency.Observe(dur.Seconds(), status)
	if status == "ok" {
		m.clustersStored.Set(float64(clusters))
	}
}

// IncSummaryCache counts a lookup as "hit", "stale" or "miss".
func (m *Metrics) IncSummaryCache(result string) {
	if m == nil {
		return
	}
	m.summaryCache.Inc(orUnknown(result))
}

func (m *Metrics) ObserveNeighbors(mode string, matches int) {
	if m == nil {
		return
	}
	m.neighborMatches.Observe(float64(matches), orUnknown(mode))
}

func (m *Metrics) IncGraphMirrorError(op string) {
	if m == nil {
		return
	}
	m.graphMirrorErrors.Inc(orUnknown(op))
}

// StartDBCollector samples connection pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("db metrics collector disabled", "error", err)
		}
		return
	}
	interval := envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second)
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			stats := sqlDB.Stats()
			m.dbOpenConns.Set(float64(stats.OpenConnections))
			m.dbInUse.Set(float64(stats.InUse))
			m.dbWaitCount.Set(float64(stats.WaitCount))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
