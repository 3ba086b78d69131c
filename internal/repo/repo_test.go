package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/featurerepo/internal/config"
	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/objectstore"
	"github.com/koustreak/featurerepo/internal/objectstore/mocks"
)

const testProvider objectstore.Provider = "repo-test"

var testEnv = WithLookup(func(key string) (string, bool) {
	switch key {
	case config.DefaultAccessKeyEnv:
		return "minio", true
	case config.DefaultSecretKeyEnv:
		return "minio123", true
	}
	return "", false
})

// useFileSystem registers fs under testProvider and returns a config bound to it.
func useFileSystem(t *testing.T, fs objectstore.FileSystem) *config.Config {
	t.Helper()
	objectstore.Register(testProvider, func(*objectstore.Credentials) (objectstore.FileSystem, error) {
		return fs, nil
	})

	cfg := config.Default()
	cfg.ObjectStore.Provider = string(testProvider)
	return cfg
}

func driverStatsURI() objectstore.URI {
	return objectstore.URI{Bucket: "featurestore", Key: "infra/driver_stats.parquet"}
}

func TestLoad_Default(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: &logs})

	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	r, err := Load(cfg, testEnv, WithLogger(log))
	require.NoError(t, err)

	assert.Equal(t, "driver_ranking", r.Project())
	assert.Equal(t, testProvider, r.Credentials().Provider())
	require.Len(t, r.Sources(), 1)

	src, ok := r.Source("driver_stats_source")
	require.True(t, ok)
	assert.Equal(t, "s3://featurestore/infra/driver_stats.parquet", src.StoragePath())

	_, ok = r.Source("missing")
	assert.False(t, ok)

	assert.Contains(t, logs.String(), "driver_stats_source")
	assert.NotContains(t, logs.String(), "minio123")
}

func TestLoad_NilConfig(t *testing.T) {
	_, err := Load(nil)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestLoad_MissingSecret(t *testing.T) {
	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	_, err := Load(cfg, WithLookup(func(string) (string, bool) { return "", false }))
	require.Error(t, err)
	assert.True(t, errs.IsCredential(err))
}

func TestLoad_DuplicateNames(t *testing.T) {
	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	cfg.Sources = append(cfg.Sources, cfg.Sources[0])

	_, err := Load(cfg, testEnv)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "name", errs.FieldOf(err))
}

func TestLoad_EndpointMismatch(t *testing.T) {
	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	cfg.Sources[0].EndpointOverride = "http://minio.other:9000"

	_, err := Load(cfg, testEnv)
	require.Error(t, err)
	assert.True(t, errs.IsEndpoint(err))
	assert.Equal(t, "endpoint_override", errs.FieldOf(err))
	assert.Contains(t, err.Error(), "driver_stats_source")
}

func TestLoad_EndpointEquivalentForms(t *testing.T) {
	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	cfg.ObjectStore.Endpoint = "http://minio.kubeflow"
	cfg.Sources[0].EndpointOverride = "http://MINIO.kubeflow:80/"

	_, err := Load(cfg, testEnv)
	require.NoError(t, err)
}

func TestLoad_InvalidSource(t *testing.T) {
	cfg := useFileSystem(t, mocks.NewMockFileSystem(t))
	cfg.Sources[0].TimestampField = ""

	_, err := Load(cfg, testEnv)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "timestamp_field", errs.FieldOf(err))
	assert.Contains(t, err.Error(), "driver_stats_source")
}

func TestLoad_UnregisteredProvider(t *testing.T) {
	cfg := config.Default()
	cfg.ObjectStore.Provider = "gcs"

	_, err := Load(cfg, testEnv)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "provider", errs.FieldOf(err))
}

func TestRepo_Stat(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	info := &objectstore.ObjectInfo{URI: driverStatsURI(), Size: 42}
	fs.On("Stat", mock.Anything, driverStatsURI()).Return(info, nil).Once()

	r, err := Load(useFileSystem(t, fs), testEnv)
	require.NoError(t, err)

	got, err := r.Stat(context.Background(), "driver_stats_source")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Size)
}

func TestRepo_UnknownSource(t *testing.T) {
	r, err := Load(useFileSystem(t, mocks.NewMockFileSystem(t)), testEnv)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = r.Stat(ctx, "nope")
	assert.True(t, errs.IsNotFound(err))

	_, err = r.Open(ctx, "nope")
	assert.True(t, errs.IsNotFound(err))

	_, err = r.Download(ctx, "nope", "/tmp/x")
	assert.True(t, errs.IsNotFound(err))
}

func TestRepo_Open(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	obj := objectstore.NewObject(io.NopCloser(bytes.NewBufferString("PAR1")), &objectstore.ObjectInfo{URI: driverStatsURI(), Size: 4})
	fs.On("Open", mock.Anything, driverStatsURI()).Return(obj, nil).Once()

	r, err := Load(useFileSystem(t, fs), testEnv)
	require.NoError(t, err)

	got, err := r.Open(context.Background(), "driver_stats_source")
	require.NoError(t, err)
	defer got.Close()

	body, err := io.ReadAll(got)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(body))
}

func TestRepo_Download(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	fs.On("Download", mock.Anything, driverStatsURI(), "/tmp/driver_stats.parquet").Return(int64(128), nil).Once()

	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &logs})

	r, err := Load(useFileSystem(t, fs), testEnv, WithLogger(log))
	require.NoError(t, err)
	logs.Reset()

	n, err := r.Download(context.Background(), "driver_stats_source", "/tmp/driver_stats.parquet")
	require.NoError(t, err)
	assert.Equal(t, int64(128), n)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "downloaded data source", entry["message"])
	assert.Equal(t, "driver_stats_source", entry["source"])
	assert.Equal(t, "/tmp/driver_stats.parquet", entry["dst"])
	assert.Equal(t, float64(128), entry["bytes"])
}

func TestRepo_DownloadError(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	notFound := errs.New(errs.ErrKindNotFound, "object not found")
	fs.On("Download", mock.Anything, driverStatsURI(), "/tmp/out").Return(int64(0), notFound).Once()

	r, err := Load(useFileSystem(t, fs), testEnv)
	require.NoError(t, err)

	_, err = r.Download(context.Background(), "driver_stats_source", "/tmp/out")
	assert.True(t, errs.IsNotFound(err))
}

func TestRepo_PingDistinctBuckets(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	fs.On("Ping", mock.Anything, "featurestore").Return(nil).Once()

	cfg := useFileSystem(t, fs)
	second := cfg.Sources[0]
	second.Name = "driver_hourly_source"
	second.Path = "s3://featurestore/infra/driver_hourly.parquet"
	cfg.Sources = append(cfg.Sources, second)

	r, err := Load(cfg, testEnv)
	require.NoError(t, err)
	require.NoError(t, r.Ping(context.Background()))
}

func TestRepo_PingError(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	denied := errs.New(errs.ErrKindPermissionDenied, "access denied")
	fs.On("Ping", mock.Anything, "featurestore").Return(denied).Once()

	r, err := Load(useFileSystem(t, fs), testEnv)
	require.NoError(t, err)

	err = r.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Contains(t, err.Error(), "featurestore")
}

func TestRepo_Close(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	fs.On("Close").Return(errors.New("boom")).Once()

	r, err := Load(useFileSystem(t, fs), testEnv)
	require.NoError(t, err)
	assert.EqualError(t, r.Close(), "boom")
}

func TestRepo_SourcesIsCopy(t *testing.T) {
	r, err := Load(useFileSystem(t, mocks.NewMockFileSystem(t)), testEnv)
	require.NoError(t, err)

	srcs := r.Sources()
	srcs[0] = nil
	assert.NotNil(t, r.Sources()[0])
}

func TestRepo_PingEachBucket(t *testing.T) {
	fs := mocks.NewMockFileSystem(t)
	fs.On("Ping", mock.Anything, "featurestore").Return(nil).Once()
	fs.On("Ping", mock.Anything, "archive").Return(nil).Once()

	cfg := useFileSystem(t, fs)
	second := cfg.Sources[0]
	second.Name = "driver_stats_archive"
	second.Path = "s3://archive/infra/driver_stats.parquet"
	cfg.Sources = append(cfg.Sources, second)

	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Output: zerolog.SyncWriter(&logs)})

	r, err := Load(cfg, testEnv, WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, r.Ping(context.Background()))
	assert.Contains(t, logs.String(), `bucket \"featurestore\" reachable`)
	assert.Contains(t, logs.String(), `bucket \"archive\" reachable`)
}
