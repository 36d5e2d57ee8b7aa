package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the sentinel service
type Metrics struct {
	// Message cache metrics
	MessagesCached prometheus.Counter
	CacheEntries   prometheus.Gauge
	CacheEvictions prometheus.Counter

	// Conversation metrics
	NewDialogsTotal *prometheus.CounterVec

	// Deletion metrics
	DeletionsDetected    prometheus.Counter
	DeletionCacheMisses  prometheus.Counter
	DeletionReportsSent  prometheus.Counter
	DeletionReportErrors *prometheus.CounterVec
	MediaDeliveries      *prometheus.CounterVec
	MediaDuration        prometheus.Histogram

	// Scheduled report metrics
	SummaryReportsSent  prometheus.Counter
	ReportCycleErrors   prometheus.Counter
	ReportCycleDuration prometheus.Histogram
	StatsRollovers      prometheus.Counter

	// Account metrics
	ActiveAccounts       prometheus.Gauge
	TotalAccounts        prometheus.Gauge
	AccountReconnections prometheus.Counter
	AccountRateLimits    prometheus.Counter
	AuthAttempts         *prometheus.CounterVec

	// Persistence metrics
	PersistenceSaves    prometheus.Counter
	PersistenceErrors   prometheus.Counter
	PersistenceDuration prometheus.Histogram

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
	KafkaProduceDuration  prometheus.Histogram

	// Archive metrics
	ArchiveUploads      prometheus.Counter
	ArchiveUploadErrors prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	// Initialize DefaultMetrics on package import
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		// Message cache metrics
		MessagesCached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_messages_cached_total",
			Help: "Total number of messages stored in the cache",
		}),
		CacheEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_service_cache_entries",
			Help: "Current number of cached messages across all accounts",
		}),
		CacheEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_cache_evictions_total",
			Help: "Total number of cached messages evicted by age",
		}),

		// Conversation metrics
		NewDialogsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_service_new_dialogs_total",
				Help: "Total number of conversations seen for the first time",
			},
			[]string{"account"},
		),

		// Deletion metrics
		DeletionsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_deletions_detected_total",
			Help: "Total number of deleted message ids received",
		}),
		DeletionCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_deletion_cache_misses_total",
			Help: "Total number of deletions for messages absent from the cache",
		}),
		DeletionReportsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_deletion_reports_sent_total",
			Help: "Total number of deletion reports delivered",
		}),
		DeletionReportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_service_deletion_report_errors_total",
				Help: "Total number of deletion report failures",
			},
			[]string{"error_type"},
		),
		MediaDeliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_service_media_deliveries_total",
				Help: "Total number of recovered attachments delivered",
			},
			[]string{"kind"},
		),
		MediaDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_service_media_duration_seconds",
			Help:    "Duration of attachment download and delivery in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		// Scheduled report metrics
		SummaryReportsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_summary_reports_sent_total",
			Help: "Total number of scheduled summary reports delivered",
		}),
		ReportCycleErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_report_cycle_errors_total",
			Help: "Total number of failed report cycles",
		}),
		ReportCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_service_report_cycle_duration_seconds",
			Help:    "Duration of scheduled report cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		StatsRollovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_stats_rollovers_total",
			Help: "Total number of daily statistics rollovers",
		}),

		// Account metrics
		ActiveAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_service_active_accounts",
			Help: "Current number of accounts with a live event stream",
		}),
		TotalAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_service_total_accounts",
			Help: "Total number of registered accounts",
		}),
		AccountReconnections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_account_reconnections_total",
			Help: "Total number of session reconnect attempts",
		}),
		AccountRateLimits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_account_rate_limits_total",
			Help: "Total number of rate limit events from Telegram API",
		}),
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_service_auth_attempts_total",
				Help: "Total number of sign-in steps by stage and result",
			},
			[]string{"stage", "result"},
		),

		// Persistence metrics
		PersistenceSaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_persistence_saves_total",
			Help: "Total number of successful state saves",
		}),
		PersistenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_persistence_errors_total",
			Help: "Total number of state saves that failed after retries",
		}),
		PersistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_service_persistence_duration_seconds",
			Help:    "Duration of state saves in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		// Kafka metrics
		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_kafka_messages_produced_total",
			Help: "Total number of messages produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_service_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
		KafkaProduceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_service_kafka_produce_duration_seconds",
			Help:    "Duration of Kafka produce operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		// Archive metrics
		ArchiveUploads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_archive_uploads_total",
			Help: "Total number of attachments uploaded to the archive",
		}),
		ArchiveUploadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_service_archive_upload_errors_total",
			Help: "Total number of failed archive uploads",
		}),
	}
}

// RecordMessageCached records a message stored in the cache
func (m *Metrics) RecordMessageCached() {
	m.MessagesCached.Inc()
}

// RecordCacheSweep records an age-based sweep
func (m *Metrics) RecordCacheSweep(evicted, remaining int) {
	// Only add positive values to prevent counter from going backwards
	if evicted > 0 {
		m.CacheEvictions.Add(float64(evicted))
	}
	m.CacheEntries.Set(float64(remaining))
}

// RecordNewDialog records a conversation seen for the first time
func (m *Metrics) RecordNewDialog(account string) {
	m.NewDialogsTotal.WithLabelValues(account).Inc()
}

// RecordDeletion records deleted message ids and how many were unknown
func (m *Metrics) RecordDeletion(total, misses int) {
	if total > 0 {
		m.DeletionsDetected.Add(float64(total))
	}
	if misses > 0 {
		m.DeletionCacheMisses.Add(float64(misses))
	}
}

// RecordDeletionReport records a delivered deletion report
func (m *Metrics) RecordDeletionReport() {
	m.DeletionReportsSent.Inc()
}

// RecordDeletionReportError records a deletion report failure with error type
func (m *Metrics) RecordDeletionReportError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.DeletionReportErrors.WithLabelValues(errorType).Inc()
}

// RecordMediaDelivery records a delivered attachment with duration
func (m *Metrics) RecordMediaDelivery(kind string, duration float64) {
	m.MediaDeliveries.WithLabelValues(kind).Inc()
	m.MediaDuration.Observe(duration)
}

// RecordReportCycle records a scheduled report cycle
func (m *Metrics) RecordReportCycle(sent int, duration float64) {
	if sent > 0 {
		m.SummaryReportsSent.Add(float64(sent))
	}
	m.ReportCycleDuration.Observe(duration)
}

// RecordReportCycleError records a failed report cycle
func (m *Metrics) RecordReportCycleError() {
	m.ReportCycleErrors.Inc()
}

// RecordRollover records a daily statistics rollover
func (m *Metrics) RecordRollover() {
	m.StatsRollovers.Inc()
}

// UpdateAccounts updates account metrics
func (m *Metrics) UpdateAccounts(active, total int) {
	m.ActiveAccounts.Set(float64(active))
	m.TotalAccounts.Set(float64(total))
}

// RecordAccountReconnection records a session reconnect attempt
func (m *Metrics) RecordAccountReconnection() {
	m.AccountReconnections.Inc()
}

// RecordAccountRateLimit records a rate limit event from Telegram API
func (m *Metrics) RecordAccountRateLimit() {
	m.AccountRateLimits.Inc()
}

// RecordAuthAttempt records a sign-in step
func (m *Metrics) RecordAuthAttempt(stage, result string) {
	m.AuthAttempts.WithLabelValues(stage, result).Inc()
}

// RecordPersistence records a successful state save with duration
func (m *Metrics) RecordPersistence(duration float64) {
	m.PersistenceSaves.Inc()
	m.PersistenceDuration.Observe(duration)
}

// RecordPersistenceError records a state save that failed after retries
func (m *Metrics) RecordPersistenceError() {
	m.PersistenceErrors.Inc()
}

// RecordKafkaMessage records a Kafka message production with duration
func (m *Metrics) RecordKafkaMessage(duration float64) {
	m.KafkaMessagesProduced.Inc()
	m.KafkaProduceDuration.Observe(duration)
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}

// RecordArchiveUpload records an archive upload result
func (m *Metrics) RecordArchiveUpload(err error) {
	if err != nil {
		m.ArchiveUploadErrors.Inc()
		return
	}
	m.ArchiveUploads.Inc()
}
