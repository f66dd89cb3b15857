// Package metrics provides Prometheus metrics for the SwingIQ service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Plan generation
	plansGenerated *prometheus.CounterVec
	goalsByStatus  *prometheus.CounterVec
	notesAdded     prometheus.Counter
	notesDuplicate prometheus.Counter
	workspacePlans prometheus.Gauge
	catalogEntries *prometheus.GaugeVec

	// Analysis queue
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueRejected  *prometheus.CounterVec
	queueCoalesced prometheus.Counter

	// Analysis workers
	workerCount        prometheus.Gauge
	analysesCompleted  prometheus.Counter
	analysisErrors     prometheus.Counter
	analysisLatency    prometheus.Histogram
	analysisQueueDelay prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swingiq",
		subsystem:        "plans",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.plansGenerated = auto.NewCounterVec(
		m.counterOpts("generated_total", "Development plans generated, by trigger"),
		[]string{"trigger"},
	)
	m.goalsByStatus = auto.NewCounterVec(
		m.counterOpts("goals_total", "Goals emitted by the generator, by status"),
		[]string{"status"},
	)
	m.notesAdded = auto.NewCounter(m.counterOpts("notes_added_total", "Coaching notes prepended to plans"))
	m.notesDuplicate = auto.NewCounter(m.counterOpts("notes_duplicate_total", "Note submissions dropped by idempotency key"))
	m.workspacePlans = auto.NewGauge(m.gaugeOpts("workspace_plans", "Plans currently held in the workspace"))
	m.catalogEntries = auto.NewGaugeVec(
		m.gaugeOpts("catalog_entries", "Catalog entries loaded at start, by kind"),
		[]string{"kind"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("analysis_queue_size", "Pending re-analysis requests"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("analysis_queue_capacity", "Maximum pending re-analysis requests"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("analysis_enqueued_total", "Re-analysis requests accepted"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("analysis_dequeued_total", "Re-analysis requests handed to workers"))
	m.queueRejected = auto.NewCounterVec(
		m.counterOpts("analysis_rejected_total", "Re-analysis requests rejected, by reason"),
		[]string{"reason"},
	)
	m.queueCoalesced = auto.NewCounter(m.counterOpts("analysis_coalesced_total", "Re-analysis requests merged into a pending one"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Re-analysis workers running"))
	m.analysesCompleted = auto.NewCounter(m.counterOpts("analyses_completed_total", "Re-analyses that replaced a plan"))
	m.analysisErrors = auto.NewCounter(m.counterOpts("analysis_errors_total", "Re-analyses that failed"))
	m.analysisLatency = auto.NewHistogram(m.histogramOpts(
		"analysis_latency_milliseconds", "Time a worker spends on one re-analysis",
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	))
	m.analysisQueueDelay = auto.NewHistogram(m.histogramOpts(
		"analysis_queue_delay_milliseconds", "Time a request waits before a worker picks it up",
		[]float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorsByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "HTTP errors by type and severity"),
		[]string{"error_type", "severity"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordPlanGenerated counts one generator run and its goal statuses.
func RecordPlanGenerated(trigger string, goalStatuses ...string) {
	globalManager.plansGenerated.WithLabelValues(trigger).Inc()
	for _, s := range goalStatuses {
		globalManager.goalsByStatus.WithLabelValues(s).Inc()
	}
}

// RecordNoteAdded increments the notes counter.
func RecordNoteAdded() {
	globalManager.notesAdded.Inc()
}

// RecordNoteDuplicate increments the duplicate notes counter.
func RecordNoteDuplicate() {
	globalManager.notesDuplicate.Inc()
}

// UpdateWorkspacePlans sets the number of plans held in memory.
func UpdateWorkspacePlans(count int) {
	globalManager.workspacePlans.Set(float64(count))
}

// UpdateCatalogEntries sets the catalog size for one entity kind.
func UpdateCatalogEntries(kind string, count int) {
	globalManager.catalogEntries.WithLabelValues(kind).Set(float64(count))
}

// UpdateQueueSize sets the number of pending re-analysis requests.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the accepted requests counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeued requests counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a rejected request. Reasons: closed, full, cancelled.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordQueueCoalesced counts a request merged into a pending one.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// UpdateWorkerCount sets the worker count gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordAnalysisCompleted counts a finished re-analysis.
func RecordAnalysisCompleted() {
	globalManager.analysesCompleted.Inc()
}

// RecordAnalysisError counts a failed re-analysis.
func RecordAnalysisError() {
	globalManager.analysisErrors.Inc()
}

// RecordAnalysisLatency observes worker time in milliseconds.
func RecordAnalysisLatency(latencyMs float64) {
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordAnalysisQueueDelay observes queue wait time in milliseconds.
func RecordAnalysisQueueDelay(delayMs float64) {
	globalManager.analysisQueueDelay.Observe(delayMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an HTTP error against its endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an HTTP error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry served at /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
