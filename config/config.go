package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the sentinel service
type Config struct {
	Telegram    TelegramConfig
	Database    DatabaseConfig
	Kafka       KafkaConfig
	S3          S3Config
	Logging     LoggingConfig
	Service     ServiceConfig
	Cache       CacheConfig
	Auth        AuthConfig
	Session     SessionConfig
	Report      ReportConfig
	Persistence PersistenceConfig
}

// TelegramConfig holds Telegram user-client and bot configuration
type TelegramConfig struct {
	BotToken       string
	MainAdminID    int64
	RequestTimeout time.Duration
	MediaTempDir   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath is the golang-migrate source URL
	MigrationsPath string
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// KafkaConfig holds Kafka configuration. Publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers             []string
	TopicNewDialog      string
	TopicMessageDeleted string
}

// Enabled reports whether event publishing is configured
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// S3Config holds MinIO configuration. Archiving is disabled when Endpoint is empty.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether media archiving is configured
func (c *S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
	// Format is "json" or "console"
	Format string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name            string
	Port            string
	ShutdownTimeout time.Duration
}

// CacheConfig holds message cache configuration
type CacheConfig struct {
	Retention     time.Duration
	SweepInterval time.Duration
}

// AuthConfig holds sign-in flow configuration
type AuthConfig struct {
	PendingTTL      time.Duration
	CleanupInterval time.Duration
}

// SessionConfig holds session worker supervision configuration
type SessionConfig struct {
	ReconnectBase        time.Duration
	ReconnectMax         time.Duration
	MaxReconnectAttempts int
	StableAfter          time.Duration
	MaxConcurrentConnect int
	EventBuffer          int
}

// ReportConfig holds periodic report configuration
type ReportConfig struct {
	UTCOffsetHours int
	RolloverHour   int
	RetryBackoff   time.Duration
}

// PersistenceConfig holds durable snapshot writer configuration
type PersistenceConfig struct {
	SaveAttempts int
	RetryDelay   time.Duration
	SaveTimeout  time.Duration
}

// Result provides config parts for fx dependency injection using fx.Out pattern
type Result struct {
	fx.Out

	Config      *Config
	Telegram    *TelegramConfig
	Database    *DatabaseConfig
	Kafka       *KafkaConfig
	S3          *S3Config
	Logging     *LoggingConfig
	Service     *ServiceConfig
	Cache       *CacheConfig
	Auth        *AuthConfig
	Session     *SessionConfig
	Report      *ReportConfig
	Persistence *PersistenceConfig
}

// Out loads configuration and returns Result for fx injection
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:      cfg,
		Telegram:    &cfg.Telegram,
		Database:    &cfg.Database,
		Kafka:       &cfg.Kafka,
		S3:          &cfg.S3,
		Logging:     &cfg.Logging,
		Service:     &cfg.Service,
		Cache:       &cfg.Cache,
		Auth:        &cfg.Auth,
		Session:     &cfg.Session,
		Report:      &cfg.Report,
		Persistence: &cfg.Persistence,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	mainAdminID, err := getEnvInt64("TELEGRAM_MAIN_ADMIN_ID", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			BotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
			MainAdminID:  mainAdminID,
			MediaTempDir: getEnv("TELEGRAM_MEDIA_TEMP_DIR", os.TempDir()),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "sentinel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "file://migrations"),
		},
		Kafka: KafkaConfig{
			Brokers:             splitList(getEnv("KAFKA_BROKERS", "")),
			TopicNewDialog:      getEnv("KAFKA_TOPIC_NEW_DIALOG", "sentinel.dialog.new"),
			TopicMessageDeleted: getEnv("KAFKA_TOPIC_MESSAGE_DELETED", "sentinel.message.deleted"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "sentinel-deleted-media"),
			UseSSL:    getEnv("S3_USE_SSL", "false") == "true",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "sentinel-service"),
			Port: getEnv("SERVICE_PORT", "8085"),
		},
	}

	durations := []struct {
		key    string
		def    string
		target *time.Duration
	}{
		{"TELEGRAM_REQUEST_TIMEOUT", "30s", &cfg.Telegram.RequestTimeout},
		{"SERVICE_SHUTDOWN_TIMEOUT", "15s", &cfg.Service.ShutdownTimeout},
		{"CACHE_RETENTION", "168h", &cfg.Cache.Retention},
		{"CACHE_SWEEP_INTERVAL", "1h", &cfg.Cache.SweepInterval},
		{"AUTH_PENDING_TTL", "10m", &cfg.Auth.PendingTTL},
		{"AUTH_CLEANUP_INTERVAL", "1m", &cfg.Auth.CleanupInterval},
		{"SESSION_RECONNECT_BASE", "5s", &cfg.Session.ReconnectBase},
		{"SESSION_RECONNECT_MAX", "5m", &cfg.Session.ReconnectMax},
		{"SESSION_STABLE_AFTER", "10m", &cfg.Session.StableAfter},
		{"REPORT_RETRY_BACKOFF", "60s", &cfg.Report.RetryBackoff},
		{"PERSISTENCE_RETRY_DELAY", "2s", &cfg.Persistence.RetryDelay},
		{"PERSISTENCE_SAVE_TIMEOUT", "30s", &cfg.Persistence.SaveTimeout},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	ints := []struct {
		key    string
		def    int
		target *int
	}{
		{"SESSION_MAX_RECONNECT_ATTEMPTS", 10, &cfg.Session.MaxReconnectAttempts},
		{"SESSION_MAX_CONCURRENT_CONNECT", 5, &cfg.Session.MaxConcurrentConnect},
		{"SESSION_EVENT_BUFFER", 256, &cfg.Session.EventBuffer},
		{"REPORT_UTC_OFFSET_HOURS", 3, &cfg.Report.UTCOffsetHours},
		{"REPORT_ROLLOVER_HOUR", 4, &cfg.Report.RolloverHour},
		{"PERSISTENCE_SAVE_ATTEMPTS", 3, &cfg.Persistence.SaveAttempts},
	}
	for _, i := range ints {
		value, err := getEnvInt(i.key, i.def)
		if err != nil {
			return nil, err
		}
		*i.target = value
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Telegram.MainAdminID == 0 {
		return fmt.Errorf("TELEGRAM_MAIN_ADMIN_ID is required")
	}

	if c.Cache.Retention <= 0 {
		return fmt.Errorf("CACHE_RETENTION must be positive")
	}

	if c.Report.UTCOffsetHours < -12 || c.Report.UTCOffsetHours > 14 {
		return fmt.Errorf("REPORT_UTC_OFFSET_HOURS must be between -12 and 14")
	}

	if c.Report.RolloverHour < 0 || c.Report.RolloverHour > 23 || c.Report.RolloverHour%4 != 0 {
		return fmt.Errorf("REPORT_ROLLOVER_HOUR must be one of 0, 4, 8, 12, 16, 20")
	}

	if c.Persistence.SaveAttempts <= 0 {
		return fmt.Errorf("PERSISTENCE_SAVE_ATTEMPTS must be positive")
	}

	if c.S3.Enabled() && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

// splitList splits a comma separated list, dropping empty items
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
