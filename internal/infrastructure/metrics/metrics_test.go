package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics_RecordCacheSweep tests cache sweep recording
func TestMetrics_RecordCacheSweep(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.CacheEvictions)

	DefaultMetrics.RecordCacheSweep(3, 10)
	// Negative evictions must not move the counter backwards
	DefaultMetrics.RecordCacheSweep(-1, 7)

	if got := testutil.ToFloat64(DefaultMetrics.CacheEvictions) - before; got != 3 {
		t.Errorf("evictions delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.CacheEntries); got != 7 {
		t.Errorf("cache entries = %v, want 7", got)
	}
}

// TestMetrics_RecordNewDialog tests per-account dialog counting
func TestMetrics_RecordNewDialog(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.NewDialogsTotal.WithLabelValues("metrics-test"))

	DefaultMetrics.RecordNewDialog("metrics-test")
	DefaultMetrics.RecordNewDialog("metrics-test")

	after := testutil.ToFloat64(DefaultMetrics.NewDialogsTotal.WithLabelValues("metrics-test"))
	if after-before != 2 {
		t.Errorf("new dialogs delta = %v, want 2", after-before)
	}
}

// TestMetrics_RecordDeletion tests deletion recording
func TestMetrics_RecordDeletion(t *testing.T) {
	beforeTotal := testutil.ToFloat64(DefaultMetrics.DeletionsDetected)
	beforeMisses := testutil.ToFloat64(DefaultMetrics.DeletionCacheMisses)

	DefaultMetrics.RecordDeletion(5, 2)
	DefaultMetrics.RecordDeletion(0, 0)

	if got := testutil.ToFloat64(DefaultMetrics.DeletionsDetected) - beforeTotal; got != 5 {
		t.Errorf("deletions delta = %v, want 5", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.DeletionCacheMisses) - beforeMisses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

// TestMetrics_RecordDeletionReportError tests error recording with error type
func TestMetrics_RecordDeletionReportError(t *testing.T) {
	DefaultMetrics.RecordDeletionReportError("transport_error")
	DefaultMetrics.RecordDeletionReportError("media_error")
	DefaultMetrics.RecordDeletionReportError("") // Test empty error type

	if got := testutil.ToFloat64(DefaultMetrics.DeletionReportErrors.WithLabelValues("unknown")); got < 1 {
		t.Errorf("empty error type should be recorded as unknown, got %v", got)
	}
}

// TestMetrics_RecordReportCycle tests report cycle recording
func TestMetrics_RecordReportCycle(t *testing.T) {
	DefaultMetrics.RecordReportCycle(3, 0.4)
	DefaultMetrics.RecordReportCycle(0, 0.1)
	DefaultMetrics.RecordReportCycleError()
	DefaultMetrics.RecordRollover()

	// This test verifies that the methods don't panic
}

// TestMetrics_UpdateAccounts tests account metrics update
func TestMetrics_UpdateAccounts(t *testing.T) {
	DefaultMetrics.UpdateAccounts(3, 5)

	if got := testutil.ToFloat64(DefaultMetrics.ActiveAccounts); got != 3 {
		t.Errorf("active accounts = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.TotalAccounts); got != 5 {
		t.Errorf("total accounts = %v, want 5", got)
	}
}

// TestMetrics_RecordKafka tests Kafka recording
func TestMetrics_RecordKafka(t *testing.T) {
	DefaultMetrics.RecordKafkaMessage(0.001)
	DefaultMetrics.RecordKafkaMessage(0.05)
	DefaultMetrics.RecordKafkaError("send_failed")
	DefaultMetrics.RecordKafkaError("")

	// This test verifies that the methods don't panic
}

// TestMetrics_RecordArchiveUpload tests archive upload recording
func TestMetrics_RecordArchiveUpload(t *testing.T) {
	beforeOK := testutil.ToFloat64(DefaultMetrics.ArchiveUploads)
	beforeErr := testutil.ToFloat64(DefaultMetrics.ArchiveUploadErrors)

	DefaultMetrics.RecordArchiveUpload(nil)
	DefaultMetrics.RecordArchiveUpload(errors.New("bucket missing"))

	if testutil.ToFloat64(DefaultMetrics.ArchiveUploads)-beforeOK != 1 {
		t.Error("successful upload should be counted")
	}
	if testutil.ToFloat64(DefaultMetrics.ArchiveUploadErrors)-beforeErr != 1 {
		t.Error("failed upload should be counted")
	}
}

// TestDefaultMetrics_Initialized verifies DefaultMetrics initialization
func TestDefaultMetrics_Initialized(t *testing.T) {
	if DefaultMetrics == nil {
		t.Fatal("DefaultMetrics should be initialized")
	}
	if GetDefaultMetrics() != DefaultMetrics {
		t.Error("GetDefaultMetrics should return the singleton")
	}

	if DefaultMetrics.MessagesCached == nil {
		t.Error("MessagesCached should not be nil")
	}
	if DefaultMetrics.DeletionReportErrors == nil {
		t.Error("DeletionReportErrors should not be nil")
	}
	if DefaultMetrics.PersistenceErrors == nil {
		t.Error("PersistenceErrors should not be nil")
	}
	if DefaultMetrics.AuthAttempts == nil {
		t.Error("AuthAttempts should not be nil")
	}
	if DefaultMetrics.KafkaProduceDuration == nil {
		t.Error("KafkaProduceDuration should not be nil")
	}
}
