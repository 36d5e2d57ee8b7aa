package s3

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Config holds S3/MinIO configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectStore is the subset of the MinIO client used by Archive
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive stores attachments of deleted messages in a private bucket
type Archive struct {
	store   ObjectStore
	bucket  string
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewArchive creates an Archive backed by a MinIO client
func NewArchive(cfg *Config, logger zerolog.Logger, m *metrics.Metrics) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return newArchive(client, cfg.Bucket, logger, m), nil
}

func newArchive(store ObjectStore, bucket string, logger zerolog.Logger, m *metrics.Metrics) *Archive {
	return &Archive{
		store:   store,
		bucket:  bucket,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	a.logger.Info().Str("bucket", a.bucket).Msg("created S3 bucket")

	return nil
}

// Archive uploads the file at path and returns its s3:// location.
// Path structure: deleted/{account}/{YYYY}/{MM}/{DD}/{channel_id}_{message_id}{ext}
func (a *Archive) Archive(ctx context.Context, account string, key domain.MessageKey, path, contentType string) (string, error) {
	objectKey := ObjectKey(account, key, filepath.Ext(path), a.now())

	_, err := a.store.FPutObject(ctx, a.bucket, objectKey, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if a.metrics != nil {
		a.metrics.RecordArchiveUpload(err)
	}
	if err != nil {
		return "", domain.E(domain.KindMedia, "archive", account, fmt.Errorf("failed to upload media to S3: %w", err))
	}

	location := fmt.Sprintf("s3://%s/%s", a.bucket, objectKey)
	a.logger.Debug().
		Str("account", account).
		Int("message_id", key.ID).
		Str("object_key", objectKey).
		Msg("archived deleted media")

	return location, nil
}

// ObjectKey builds the object key of an archived attachment
func ObjectKey(account string, key domain.MessageKey, ext string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf(
		"deleted/%s/%d/%02d/%02d/%d_%d%s",
		account,
		at.Year(),
		at.Month(),
		at.Day(),
		key.ChannelID,
		key.ID,
		strings.ToLower(ext),
	)
}
