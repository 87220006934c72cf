package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadweight/argon/internal/governance"
	"github.com/deadweight/argon/pkg/assets"
	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/engine"
	"github.com/deadweight/argon/pkg/graph"
	"github.com/deadweight/argon/pkg/jobs"
)

type stubExecutor struct {
	artifact []byte
	healthy  bool
}

func (s *stubExecutor) Execute(_ context.Context, _ graph.Graph, _ time.Duration) []byte {
	return s.artifact
}

func (s *stubExecutor) Health(context.Context) bool { return s.healthy }

func newTestServer(t *testing.T, limiter *governance.RateLimiter) (*httptest.Server, *engine.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.safetensors"), []byte("w"), 0o644))
	reg := assets.NewRegistry(assets.Config{Dir: dir}, logger)

	exec := &stubExecutor{artifact: []byte("rendered"), healthy: true}
	stage := func([]byte) (string, error) { return "staged.png", nil }
	eng := engine.New(engine.Config{Workers: 2}, exec, nil, stage, jobs.NewStore(), reg, logger)

	srv := New(eng, limiter, logger)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, eng
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte("not-a-real-png"))
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := getJSON(t, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, Version, body["version"])
	assert.Equal(t, true, body["executor"])
}

func TestAnalyzeExpressionRequiresSource(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/analyze/expression", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
}

func TestAnalyzeExpression(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/analyze/expression", map[string]any{
		"source": testImage(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "complete", body["status"])
	assert.NotEmpty(t, body["jobId"])

	frames, ok := body["result"].([]any)
	require.True(t, ok)
	require.Len(t, frames, 1)
}

func TestAnalyzeFace(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/analyze/face", map[string]any{
		"source": testImage(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "complete", body["status"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, result, "blendshapes")
}

func TestAnalyzeMotionSpawnsJob(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/analyze/motion", map[string]any{
		"source": testImage(), "fps": 12,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "queued", body["status"])
	require.NotEmpty(t, body["jobId"])
	assert.Equal(t, body["jobId"], body["trackId"])

	id := body["jobId"].(string)
	require.Eventually(t, func() bool {
		_, job := getJSON(t, ts.URL+"/api/jobs/"+id)
		return job["status"] == "complete"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetJobNotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := getJSON(t, ts.URL+"/api/jobs/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
}

func TestTransferSequenceValidation(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := postJSON(t, ts.URL+"/api/transfer/sequence", map[string]any{
		"motionTrack": map[string]any{"frames": []any{map[string]any{}}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/api/transfer/sequence", map[string]any{
		"characterImage": testImage(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransferSequence(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	track := domain.MotionTrack{
		FPS:        24,
		FrameCount: 2,
		Frames: []domain.Frame{
			{FrameIndex: 0, TimeMS: 0},
			{FrameIndex: 1, TimeMS: 41.7},
		},
	}
	resp, body := postJSON(t, ts.URL+"/api/transfer/sequence", map[string]any{
		"characterImage": testImage(),
		"motionTrack":    track,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, float64(2), body["frameCount"])

	id := body["jobId"].(string)
	require.Eventually(t, func() bool {
		_, job := getJSON(t, ts.URL+"/api/jobs/"+id)
		return job["status"] == "complete"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTransferExpression(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/transfer/expression", map[string]any{
		"characterImage": testImage(),
		"coefficients":   map[string]float64{"jawOpen": 0.6},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "complete", body["status"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, result["outputBase64"])
}

func TestGenerateImageRequiresPrompt(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := postJSON(t, ts.URL+"/api/generate/image", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateImage(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := postJSON(t, ts.URL+"/api/generate/image", map[string]any{
		"prompt":    "portrait of a dancer",
		"loraPaths": []string{"style"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("rendered")), result["outputBase64"])
	assert.Equal(t, false, result["mock"])
}

func TestListAdapters(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, body := getJSON(t, ts.URL+"/api/loras")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	loras, ok := body["loras"].([]any)
	require.True(t, ok)
	require.Len(t, loras, 1)
	first := loras[0].(map[string]any)
	assert.Equal(t, "style", first["name"])
}

func TestDownloadAdapterRequiresVersion(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, _ := postJSON(t, ts.URL+"/api/loras/download", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimitedRoutes(t *testing.T) {
	limiter := governance.NewRateLimiter(map[string]governance.RateLimiterConfig{
		"generate": {RequestsPerSecond: 0.001, BurstSize: 1},
	})
	ts, _ := newTestServer(t, limiter)

	resp, _ := postJSON(t, ts.URL+"/api/generate/image", map[string]any{"prompt": "x"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, ts.URL+"/api/generate/image", map[string]any{"prompt": "x"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "rate_limited", errObj["code"])
}

func TestInvalidJSONBody(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/generate/image", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
