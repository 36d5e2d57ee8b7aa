package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_MAIN_ADMIN_ID", "42")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.MainAdminID != 42 {
		t.Errorf("MainAdminID = %d, want 42", cfg.Telegram.MainAdminID)
	}
	if cfg.Cache.Retention != 7*24*time.Hour {
		t.Errorf("Cache.Retention = %v, want 168h", cfg.Cache.Retention)
	}
	if cfg.Report.UTCOffsetHours != 3 {
		t.Errorf("Report.UTCOffsetHours = %d, want 3", cfg.Report.UTCOffsetHours)
	}
	if cfg.Report.RolloverHour != 4 {
		t.Errorf("Report.RolloverHour = %d, want 4", cfg.Report.RolloverHour)
	}
	if cfg.Report.RetryBackoff != 60*time.Second {
		t.Errorf("Report.RetryBackoff = %v, want 60s", cfg.Report.RetryBackoff)
	}
	if cfg.Auth.PendingTTL != 10*time.Minute {
		t.Errorf("Auth.PendingTTL = %v, want 10m", cfg.Auth.PendingTTL)
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka should be disabled without brokers")
	}
	if cfg.S3.Enabled() {
		t.Error("S3 should be disabled without endpoint")
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("Brokers = %v, want 2 entries", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("Brokers[1] = %q, want kafka-2:9092", cfg.Kafka.Brokers[1])
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing bot token", map[string]string{"TELEGRAM_BOT_TOKEN": ""}},
		{"bad admin id", map[string]string{"TELEGRAM_MAIN_ADMIN_ID": "abc"}},
		{"bad duration", map[string]string{"CACHE_RETENTION": "week"}},
		{"bad rollover", map[string]string{"REPORT_ROLLOVER_HOUR": "5"}},
		{"s3 without keys", map[string]string{"S3_ENDPOINT": "minio:9000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "s", SSLMode: "disable"}

	want := "host=db port=5432 user=u password=p dbname=s sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
