package httpadapter_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/adapter/httpadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func writeOutputs(t *testing.T) httpadapter.Outputs {
	t.Helper()
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(frames, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(frames, "2021-07-01.png"), []byte("\x89PNG frame"), 0o644))
	out := httpadapter.Outputs{
		FrameDir:      frames,
		AnimationPath: filepath.Join(dir, "cases.gif"),
		ManifestPath:  filepath.Join(dir, "manifest.yaml"),
	}
	require.NoError(t, os.WriteFile(out.AnimationPath, []byte("GIF89a"), 0o644))
	require.NoError(t, os.WriteFile(out.ManifestPath, []byte("frames: 1\n"), 0o644))
	return out
}

func newTestServer(t *testing.T, readyErr error) *httpadapter.Server {
	t.Helper()
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, writeOutputs(t), slog.Default())
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(t, errors.New("running")), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(newTestServer(t, nil), "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(newTestServer(t, errors.New("running")), "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(t, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAnimation(t *testing.T) {
	rec := get(newTestServer(t, nil), "/animation.gif")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Equal(t, "GIF89a", rec.Body.String())
}

func TestFrames(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(srv, "/frames/2021-07-01.png")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG frame", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(srv, "/frames/2021-07-02.png").Code)
}

func TestManifest(t *testing.T) {
	rec := get(newTestServer(t, nil), "/manifest.yaml")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frames: 1\n", rec.Body.String())
}

func TestOutputsUnavailableBeforeRun(t *testing.T) {
	srv := newTestServer(t, errors.New("pipeline has not completed a run yet"))
	for _, path := range []string{"/animation.gif", "/frames/2021-07-01.png", "/manifest.yaml"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(srv, path).Code, path)
	}
}
