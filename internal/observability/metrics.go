package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

// Metrics is the process registry, exposed in Prometheus text format.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests  *family
	apiLatency   *HistogramVec
	apiInflight  *family
	opTotal      *family
	opLatency    *HistogramVec
	opConflicts  *family
	opRetries    *family
	auditEvents  *family
	pgStats      *family
	redisUp      *family
	redisPing    *family
	scrapePeriod time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the registry built by Init, or nil.
func Current() *Metrics {
	return instance
}

// Init builds the process registry once. scrape is the collector period.
func Init(log *logger.Logger, scrape time.Duration) *Metrics {
	initOnce.Do(func() {
		instance = NewMetrics(scrape)
		if log != nil {
			log.Info("Observability metrics enabled", "scrape_interval", scrape.String())
		}
	})
	return instance
}

// NewMetrics builds an unregistered registry; tests use it directly.
func NewMetrics(scrape time.Duration) *Metrics {
	if scrape <= 0 {
		scrape = 10 * time.Second
	}
	return &Metrics{
		apiRequests: newFamily("cadenza_api_requests_total", "API requests by method/route/status.", kindCounter, "method", "route", "status"),
		apiLatency: NewHistogramVec(
			"cadenza_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: newFamily("cadenza_api_inflight_requests", "In-flight API requests.", kindGauge),
		opTotal:     newFamily("cadenza_school_writes_total", "School writes by aggregate/action/status.", kindCounter, "aggregate", "action", "status"),
		opLatency: NewHistogramVec(
			"cadenza_school_write_duration_seconds",
			"School write latency in seconds by aggregate/action.",
			[]string{"aggregate", "action"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		),
		opConflicts:  newFamily("cadenza_school_write_conflicts_total", "School writes that lost a status race.", kindCounter, "aggregate", "action"),
		opRetries:    newFamily("cadenza_school_write_retryable_total", "School writes that failed with a retryable error.", kindCounter, "aggregate", "action"),
		auditEvents:  newFamily("cadenza_audit_events_total", "Audit events handed to the bus by entity/outcome.", kindCounter, "entity", "outcome"),
		pgStats:      newFamily("cadenza_db_pool", "database/sql pool statistics.", kindGauge, "stat"),
		redisUp:      newFamily("cadenza_redis_up", "1 when the last redis ping succeeded.", kindGauge),
		redisPing:    newFamily("cadenza_redis_ping_seconds", "Last redis ping round trip.", kindGauge),
		scrapePeriod: scrape,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.opTotal, m.opLatency, m.opConflicts, m.opRetries,
		m.auditEvents,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.add(1, method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.add(1)
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.add(-1)
}

// ObserveOperation, IncConflict and IncRetry satisfy the aggregate hooks.
// "School.Payroll.Approve" is recorded as aggregate=Payroll action=Approve.
func (m *Metrics) ObserveOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	agg, action := domainagg.SplitOp(name)
	m.opTotal.add(1, agg, action, status)
	m.opLatency.Observe(dur.Seconds(), agg, action)
}

func (m *Metrics) IncConflict(name string) {
	if m == nil {
		return
	}
	agg, action := domainagg.SplitOp(name)
	m.opConflicts.add(1, agg, action)
}

func (m *Metrics) IncRetry(name string) {
	if m == nil {
		return
	}
	agg, action := domainagg.SplitOp(name)
	m.opRetries.add(1, agg, action)
}

// AddAuditEvents counts events per entity; outcome is "published" or "failed".
func (m *Metrics) AddAuditEvents(entity, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.auditEvents.add(float64(n), entity, outcome)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.set(float64(stats.InUse), "in_use")
				m.pgStats.set(float64(stats.Idle), "idle")
				m.pgStats.set(float64(stats.WaitCount), "wait_count")
				m.pgStats.set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(m.scrapePeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.set(1)
				m.redisPing.set(time.Since(start).Seconds())
			}
		}
	}()
}

type kind string

const (
	kindCounter kind = "counter"
	kindGauge   kind = "gauge"
)

// family is a counter or gauge with an optional label set.
type family struct {
	name       string
	help       string
	kind       kind
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func newFamily(name, help string, k kind, labels ...string) *family {
	return &family{name: name, help: help, kind: k, labelNames: labels, values: map[string]float64{}}
}

func (f *family) add(v float64, values ...string) {
	lbl := labelString(f.labelNames, values)
	f.mu.Lock()
	f.values[lbl] += v
	f.mu.Unlock()
}

func (f *family) set(v float64, values ...string) {
	lbl := labelString(f.labelNames, values)
	f.mu.Lock()
	f.values[lbl] = v
	f.mu.Unlock()
}

func (f *family) value(values ...string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[labelString(f.labelNames, values)]
}

func (f *family) WritePrometheus(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, k := range sortedKeys(f.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", f.name, k, f.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.buckets))}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := h.values[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, strconv.FormatFloat(b, 'g', -1, 64)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			h.name, withLe(k, "+Inf"), v.total, h.name, k, v.sum, h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) && values[i] != "" {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	return strings.ReplaceAll(v, "\n", "\\n")
}

func withLe(labels string, le string) string {
	if labels == "" {
		return "{le=\"" + le + "\"}"
	}
	return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
}
