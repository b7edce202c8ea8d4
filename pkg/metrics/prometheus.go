package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reason labels for skipped events and rows.
const (
	ReasonUnreadable     = "unreadable"
	ReasonSchemaMismatch = "schema_mismatch"
	ReasonMissingExport  = "missing_export"
	ReasonUnscheduled    = "unscheduled"
	ReasonDuplicateDate  = "duplicate_date"
	ReasonBadFileName    = "bad_file_name"
	ReasonCoercion       = "coercion"
	ReasonInvalidPos     = "invalid_position"
)

// Manager owns the metrics of a leaderboard build.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	eventsFolded  prometheus.Counter
	eventsSkipped *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	downloads     *prometheus.CounterVec
	players       prometheus.Gauge
	buildDuration prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry it
// registers on a fresh registry so default Go collectors stay out of the output.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "discleague",
		subsystem:        "standings",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      map[string]string{},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.eventsFolded = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_folded_total",
		Help:        "Events whose results were folded into the standings",
		ConstLabels: m.constLabels,
	})

	m.eventsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_skipped_total",
		Help:        "Events or export files skipped, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.rowsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_skipped_total",
		Help:        "Result rows skipped, by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.downloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "downloads_total",
		Help:        "Export downloads, by outcome",
		ConstLabels: m.constLabels,
	}, []string{"status"})

	m.players = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "players",
		Help:        "Players present in the last built standings",
		ConstLabels: m.constLabels,
	})

	m.buildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "build_duration_milliseconds",
		Help:        "Wall time of a standings build in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

// RecordEventFolded increments the folded events counter.
func (m *Manager) RecordEventFolded() { m.eventsFolded.Inc() }

// RecordEventSkipped increments the skipped events counter for reason.
func (m *Manager) RecordEventSkipped(reason string) { m.eventsSkipped.WithLabelValues(reason).Inc() }

// RecordRowSkipped increments the skipped rows counter for reason.
func (m *Manager) RecordRowSkipped(reason string) { m.rowsSkipped.WithLabelValues(reason).Inc() }

// RecordDownload counts a download attempt with the given status label.
func (m *Manager) RecordDownload(status string) { m.downloads.WithLabelValues(status).Inc() }

// UpdatePlayers sets the player gauge.
func (m *Manager) UpdatePlayers(count int) { m.players.Set(float64(count)) }

// RecordBuildDuration observes a build duration in milliseconds.
func (m *Manager) RecordBuildDuration(ms float64) { m.buildDuration.Observe(ms) }

// Registry returns the registry the manager's collectors live on.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteTextfile, path, err)
	}
	return nil
}

// Default returns the process-wide manager.
func Default() *Manager { return globalManager }

// RecordEventFolded increments the folded events counter on the default manager.
func RecordEventFolded() { globalManager.RecordEventFolded() }

// RecordEventSkipped increments the skipped events counter on the default manager.
func RecordEventSkipped(reason string) { globalManager.RecordEventSkipped(reason) }

// RecordRowSkipped increments the skipped rows counter on the default manager.
func RecordRowSkipped(reason string) { globalManager.RecordRowSkipped(reason) }

// RecordDownload counts a download on the default manager.
func RecordDownload(status string) { globalManager.RecordDownload(status) }

// UpdatePlayers sets the player gauge on the default manager.
func UpdatePlayers(count int) { globalManager.UpdatePlayers(count) }

// RecordBuildDuration observes a build duration on the default manager.
func RecordBuildDuration(ms float64) { globalManager.RecordBuildDuration(ms) }

// GetRegistry returns the registry of the default manager.
func GetRegistry() *prometheus.Registry { return globalManager.registry }
