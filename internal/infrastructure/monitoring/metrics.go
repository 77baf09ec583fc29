package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Window metrics
	WindowsActive  prometheus.Gauge
	WindowsCreated prometheus.Counter

	// Workspace metrics
	ExportsTotal   prometheus.Counter
	ImportsTotal   prometheus.Counter
	ImportErrors   prometheus.Counter
	ImportRemapped prometheus.Counter

	// Remote server metrics
	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	KernelStarts   prometheus.Counter
	Executions     *prometheus.CounterVec

	// Library metrics
	LibraryNotebooks prometheus.Gauge
	LibrarySaves     prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Headline numbers mirrored for the JSON stats endpoint
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current headline values for the JSON stats endpoint.
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveWindows     int64   `json:"active_windows"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AvgDurationMS     float64 `json:"avg_duration_ms"`
}

// NewMetrics registers collectors on the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers collectors on the given registerer. Tests pass
// a fresh registry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		WindowsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_windows_active",
				Help: "Number of windows currently in the workspace",
			},
		),
		WindowsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_windows_created_total",
				Help: "Total number of windows created",
			},
		),

		ExportsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_workspace_exports_total",
				Help: "Total number of workspace exports",
			},
		),
		ImportsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_workspace_imports_total",
				Help: "Total number of workspace imports",
			},
		),
		ImportErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_workspace_import_errors_total",
				Help: "Total number of per-cell import errors",
			},
		),
		ImportRemapped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_workspace_import_remapped_total",
				Help: "Total number of windows remapped to a new id during import",
			},
		),

		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_remote_calls_total",
				Help: "Total number of remote notebook server calls",
			},
			[]string{"op", "status"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_remote_duration_seconds",
				Help:    "Remote notebook server call duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		KernelStarts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_kernel_starts_total",
				Help: "Total number of kernel starts",
			},
		),
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_executions_total",
				Help: "Total number of cell executions by outcome",
			},
			[]string{"status"},
		),

		LibraryNotebooks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_library_notebooks",
				Help: "Number of notebooks in the local library",
			},
		),
		LibrarySaves: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_library_saves_total",
				Help: "Total number of notebooks written to the library",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRemoteCall records one remote notebook server call.
func (m *Metrics) RecordRemoteCall(op, status string, duration time.Duration) {
	m.RemoteCalls.WithLabelValues(op, status).Inc()
	m.RemoteDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordExecution records one cell execution outcome.
func (m *Metrics) RecordExecution(status string) {
	m.Executions.WithLabelValues(status).Inc()
}

// RecordWSMessage records one WebSocket message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetWindowsActive sets the live window count.
func (m *Metrics) SetWindowsActive(count int) {
	m.WindowsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveWindows = int64(count)
	m.mu.Unlock()
}

// IncWindowsCreated increments the created-windows counter.
func (m *Metrics) IncWindowsCreated() {
	m.WindowsCreated.Inc()
}

// IncExports increments the export counter.
func (m *Metrics) IncExports() {
	m.ExportsTotal.Inc()
}

// IncImports increments the import counter.
func (m *Metrics) IncImports() {
	m.ImportsTotal.Inc()
}

// AddImportErrors adds to the per-cell import error counter.
func (m *Metrics) AddImportErrors(n int) {
	m.ImportErrors.Add(float64(n))
}

// AddImportRemapped adds to the remapped-window counter.
func (m *Metrics) AddImportRemapped(n int) {
	m.ImportRemapped.Add(float64(n))
}

// IncKernelStarts increments the kernel start counter.
func (m *Metrics) IncKernelStarts() {
	m.KernelStarts.Inc()
}

// SetLibraryNotebooks sets the library size gauge.
func (m *Metrics) SetLibraryNotebooks(count int) {
	m.LibraryNotebooks.Set(float64(count))
}

// IncLibrarySaves increments the library save counter.
func (m *Metrics) IncLibrarySaves() {
	m.LibrarySaves.Inc()
}

// IncWSConnections increments the WebSocket connection gauge.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements the WebSocket connection gauge.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
