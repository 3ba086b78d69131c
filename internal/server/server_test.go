package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/featurerepo/internal/config"
	"github.com/koustreak/featurerepo/internal/errs"
	"github.com/koustreak/featurerepo/internal/logger"
	"github.com/koustreak/featurerepo/internal/objectstore"
	"github.com/koustreak/featurerepo/internal/objectstore/mocks"
	"github.com/koustreak/featurerepo/internal/repo"
	"github.com/koustreak/featurerepo/internal/server"
)

const testProvider objectstore.Provider = "server-test"

var driverStatsURI = objectstore.URI{Bucket: "featurestore", Key: "infra/driver_stats.parquet"}

func newRepo(t *testing.T) (*repo.Repo, *mocks.MockFileSystem) {
	t.Helper()

	fs := mocks.NewMockFileSystem(t)
	objectstore.Register(testProvider, func(*objectstore.Credentials) (objectstore.FileSystem, error) {
		return fs, nil
	})

	cfg := config.Default()
	cfg.ObjectStore.Provider = string(testProvider)

	r, err := repo.Load(cfg, repo.WithLookup(func(key string) (string, bool) {
		switch key {
		case config.DefaultAccessKeyEnv:
			return "minio", true
		case config.DefaultSecretKeyEnv:
			return "minio123", true
		}
		return "", false
	}))
	require.NoError(t, err)
	return r, fs
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	r, _ := newRepo(t)
	rec := get(t, server.New(r, nil).Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestListSources(t *testing.T) {
	r, _ := newRepo(t)
	rec := get(t, server.New(r, nil).Handler(), "/v1/sources")

	require.Equal(t, http.StatusOK, rec.Code)
	sources := decode(t, rec)["sources"].([]interface{})
	require.Len(t, sources, 1)

	src := sources[0].(map[string]interface{})
	assert.Equal(t, "driver_stats_source", src["name"])
	assert.Equal(t, "s3://featurestore/infra/driver_stats.parquet", src["path"])
	assert.Equal(t, "http://minio.kubeflow:9000", src["endpoint_override"])
	assert.NotContains(t, rec.Body.String(), "minio123")
}

func TestGetSource(t *testing.T) {
	r, _ := newRepo(t)
	h := server.New(r, nil).Handler()

	rec := get(t, h, "/v1/sources/driver_stats_source")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "event_timestamp", body["timestamp_field"])
	assert.Equal(t, "created", body["created_timestamp_column"])
	assert.Equal(t, "parquet", body["file_format"])

	rec = get(t, h, "/v1/sources/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["kind"])
}

func TestStatObject(t *testing.T) {
	r, fs := newRepo(t)
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fs.On("Stat", mock.Anything, driverStatsURI).Return(&objectstore.ObjectInfo{
		URI:          driverStatsURI,
		Size:         2048,
		ContentType:  "application/octet-stream",
		ETag:         "abc123",
		LastModified: modified,
	}, nil).Once()

	rec := get(t, server.New(r, nil).Handler(), "/v1/sources/driver_stats_source/object")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "driver_stats_source", body["source"])
	assert.Equal(t, "s3://featurestore/infra/driver_stats.parquet", body["uri"])
	assert.Equal(t, float64(2048), body["size"])
	assert.Equal(t, "abc123", body["etag"])
	assert.Equal(t, "2024-05-01T12:00:00Z", body["last_modified"])
}

func TestStatObject_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		kind   errs.ErrKind
		status int
	}{
		{"not found", errs.ErrKindNotFound, http.StatusNotFound},
		{"permission denied", errs.ErrKindPermissionDenied, http.StatusForbidden},
		{"timeout", errs.ErrKindTimeout, http.StatusGatewayTimeout},
		{"connection failed", errs.ErrKindConnectionFailed, http.StatusBadGateway},
		{"invalid input", errs.ErrKindInvalidInput, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, fs := newRepo(t)
			fs.On("Stat", mock.Anything, driverStatsURI).
				Return(nil, errs.New(tt.kind, "stat failed")).Once()

			rec := get(t, server.New(r, nil).Handler(), "/v1/sources/driver_stats_source/object")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind.String(), decode(t, rec)["kind"])
		})
	}
}

func TestStatObject_UnknownSource(t *testing.T) {
	r, _ := newRepo(t)
	rec := get(t, server.New(r, nil).Handler(), "/v1/sources/unknown/object")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &logs})

	r, _ := newRepo(t)
	get(t, server.New(r, log).Handler(), "/healthz")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "http request", entry["message"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func logLines(t *testing.T, logs *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestStatObject_LogsWithRequestID(t *testing.T) {
	tests := []struct {
		name  string
		kind  errs.ErrKind
		level string
	}{
		{"client error logs warn", errs.ErrKindNotFound, "warn"},
		{"upstream error logs error", errs.ErrKindConnectionFailed, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &logs})

			r, fs := newRepo(t)
			fs.On("Stat", mock.Anything, driverStatsURI).
				Return(nil, errs.New(tt.kind, "stat failed")).Once()

			get(t, server.New(r, log).Handler(), "/v1/sources/driver_stats_source/object")

			lines := logLines(t, &logs)
			require.Len(t, lines, 2)
			failure, request := lines[0], lines[1]

			assert.Equal(t, "stat failed", failure["message"])
			assert.Equal(t, tt.level, failure["level"])
			assert.Equal(t, "driver_stats_source", failure["source"])
			assert.NotEmpty(t, failure["request_id"])
			assert.Equal(t, request["request_id"], failure["request_id"])
			assert.Contains(t, failure["error"], "stat failed")
			assert.Equal(t, "http request", request["message"])
		})
	}
}

func TestListenAndServe_ListenError(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(&logger.Config{Level: "error", Format: "json", Output: &logs})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	r, _ := newRepo(t)
	err = server.New(r, log).ListenAndServe(context.Background(), ln.Addr().String())
	require.Error(t, err)

	lines := logLines(t, &logs)
	require.Len(t, lines, 1)
	assert.Equal(t, "http server stopped", lines[0]["message"])
	assert.Equal(t, ln.Addr().String(), lines[0]["addr"])
}

func TestListenAndServe_Shutdown(t *testing.T) {
	r, _ := newRepo(t)
	srv := server.New(r, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
