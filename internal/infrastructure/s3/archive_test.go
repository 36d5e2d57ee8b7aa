package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

type fakeStore struct {
	exists    bool
	existsErr error
	made      []string
	putErr    error
	puts      []string
	putType   string
}

func (f *fakeStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeStore) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeStore) FPutObject(ctx context.Context, bucket, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.puts = append(f.puts, objectName)
	f.putType = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: objectName}, nil
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 22, 30, 0, 0, time.FixedZone("MSK", 3*3600))

	got := ObjectKey("alpha", domain.MessageKey{ChannelID: 77, ID: 5}, ".OGG", at)
	assert.Equal(t, "deleted/alpha/2024/03/09/77_5.ogg", got)
}

func TestArchive_Archive(t *testing.T) {
	store := &fakeStore{}
	a := newArchive(store, "media", zerolog.Nop(), nil)
	a.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	location, err := a.Archive(context.Background(), "alpha", domain.MessageKey{ID: 9}, "/tmp/x/9.mp4", "video/mp4")
	require.NoError(t, err)

	assert.Equal(t, "s3://media/deleted/alpha/2024/05/01/0_9.mp4", location)
	assert.Equal(t, []string{"deleted/alpha/2024/05/01/0_9.mp4"}, store.puts)
	assert.Equal(t, "video/mp4", store.putType)
}

func TestArchive_UploadError(t *testing.T) {
	store := &fakeStore{putErr: errors.New("denied")}
	a := newArchive(store, "media", zerolog.Nop(), nil)

	_, err := a.Archive(context.Background(), "alpha", domain.MessageKey{ID: 1}, "/tmp/1.jpg", "image/jpeg")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindMedia))
}

func TestArchive_EnsureBucket(t *testing.T) {
	store := &fakeStore{exists: true}
	a := newArchive(store, "media", zerolog.Nop(), nil)

	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Empty(t, store.made)

	store.exists = false
	require.NoError(t, a.EnsureBucket(context.Background()))
	assert.Equal(t, []string{"media"}, store.made)

	store.existsErr = errors.New("unreachable")
	assert.Error(t, a.EnsureBucket(context.Background()))
}
