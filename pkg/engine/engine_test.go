package engine

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadweight/argon/pkg/assets"
	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/expression"
	"github.com/deadweight/argon/pkg/graph"
	"github.com/deadweight/argon/pkg/jobs"
)

// stubExec records executed graphs and serves a canned artifact.
type stubExec struct {
	mu       sync.Mutex
	healthy  bool
	artifact []byte
	graphs   []graph.Graph
}

func (s *stubExec) Execute(_ context.Context, g graph.Graph, _ time.Duration) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs = append(s.graphs, g)
	return s.artifact
}

func (s *stubExec) Health(context.Context) bool {
	return s.healthy
}

func (s *stubExec) executed() []graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]graph.Graph(nil), s.graphs...)
}

// stubDetector returns a fixed landmark set.
type stubDetector struct {
	lm domain.LandmarkSet
	ok bool
}

func (d *stubDetector) Landmarks(context.Context, []byte) (domain.LandmarkSet, bool) {
	return d.lm, d.ok
}

func stageOK(t *testing.T) Stager {
	return func(data []byte) (string, error) {
		require.NotEmpty(t, data)
		return "staged.png", nil
	}
}

func newTestEngine(t *testing.T, exec Executor, det Detector) *Engine {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.safetensors"), []byte("w"), 0o644))
	reg := assets.NewRegistry(assets.Config{Dir: dir}, testLogger())
	return New(Config{}, exec, det, stageOK(t), jobs.NewStore(), reg, testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func waitJob(t *testing.T, e *Engine, id string) domain.Job {
	t.Helper()
	var j domain.Job
	require.Eventually(t, func() bool {
		got, err := e.Jobs().Get(id)
		if err != nil {
			return false
		}
		j = got
		return j.Status == domain.JobComplete || j.Status == domain.JobError
	}, 2*time.Second, 5*time.Millisecond)
	return j
}

func TestAnalyzeExpression_Detected(t *testing.T) {
	det := &stubDetector{lm: expression.MockLandmarks(), ok: true}
	e := newTestEngine(t, &stubExec{healthy: true}, det)

	frames, err := e.AnalyzeExpression(context.Background(), b64("img"))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.False(t, frames[0].Mock)
	assert.Equal(t, expression.FromBlendshapes(expression.Derive(det.lm)), frames[0].Expression)
}

func TestAnalyzeExpression_NoDetectorFallsBackToMock(t *testing.T) {
	e := newTestEngine(t, &stubExec{}, nil)

	frames, err := e.AnalyzeExpression(context.Background(), b64("img"))
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Mock)
	assert.Equal(t, expression.MockExpression(0), frames[0].Expression)
}

func TestAnalyzeExpression_BadInputFallsBackToMock(t *testing.T) {
	e := newTestEngine(t, &stubExec{}, &stubDetector{ok: true})

	frames, err := e.AnalyzeExpression(context.Background(), "not base64!!!")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Mock)
}

func TestAnalyzeFace(t *testing.T) {
	det := &stubDetector{lm: expression.MockLandmarks(), ok: true}
	e := newTestEngine(t, &stubExec{}, det)

	fa, err := e.AnalyzeFace(context.Background(), b64("img"))
	require.NoError(t, err)
	assert.False(t, fa.Mock)
	assert.Len(t, fa.Landmarks, domain.LandmarkCount)
	assert.Equal(t, 1, fa.Landmarks[1].Index)
	assert.Len(t, fa.Blendshapes, len(domain.BlendshapeChannels))
	assert.Equal(t, 0.92, fa.Confidence)
}

func TestAnalyzeFace_NoFaceIsMock(t *testing.T) {
	e := newTestEngine(t, &stubExec{}, &stubDetector{ok: false})

	fa, err := e.AnalyzeFace(context.Background(), b64("img"))
	require.NoError(t, err)
	assert.True(t, fa.Mock)
	assert.Zero(t, fa.Confidence)
	assert.Equal(t, domain.NeutralBlendshapes(), fa.Blendshapes)
}

func TestAnalyzeMotion(t *testing.T) {
	det := &stubDetector{lm: expression.MockLandmarks(), ok: true}
	exec := &stubExec{healthy: true, artifact: []byte("skeleton")}
	e := newTestEngine(t, exec, det)

	id := e.AnalyzeMotion(b64("img"), 24)
	j := waitJob(t, e, id)
	require.Equal(t, domain.JobComplete, j.Status)

	track, ok := j.Result.(domain.MotionTrack)
	require.True(t, ok)
	assert.Equal(t, 1, track.FrameCount)
	assert.Equal(t, 24, track.FPS)
	assert.False(t, track.Meta.Mock)
	assert.ElementsMatch(t, []string{"facemesh", "dwpose"}, track.Meta.Models)
	require.Len(t, track.Frames, 1)
	assert.True(t, track.Frames[0].FaceVisible)
	assert.Equal(t, "dwpose", track.Frames[0].Pose.Model)
	assert.Equal(t, 1.0, track.Summary.FaceVisibleRatio)
}

func TestAnalyzeMotion_BadInputYieldsMockTrack(t *testing.T) {
	e := newTestEngine(t, &stubExec{}, nil)

	id := e.AnalyzeMotion("!!!", 24)
	j := waitJob(t, e, id)
	require.Equal(t, domain.JobComplete, j.Status)

	track, ok := j.Result.(domain.MotionTrack)
	require.True(t, ok)
	assert.True(t, track.Meta.Mock)
	assert.Equal(t, "mock", track.Source)
	assert.Equal(t, 24*4, track.FrameCount)
	assert.Equal(t, float64(4000), track.DurationMS)
}

func TestExtractPose_FoldsToMock(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil)

	pose := e.ExtractPose(context.Background(), []byte("img"))
	assert.Equal(t, "mock", pose.Model)
	assert.NotEmpty(t, pose.Body)
}

func TestSegment(t *testing.T) {
	exec := &stubExec{healthy: true, artifact: []byte("mask")}
	e := newTestEngine(t, exec, nil)

	res, err := e.Segment(context.Background(), b64("img"), "")
	require.NoError(t, err)
	assert.Equal(t, "face", res.Region)
	assert.Equal(t, "birefnet", res.Model)
	assert.Equal(t, b64("mask"), res.MaskB64)

	graphs := exec.executed()
	require.Len(t, graphs, 1)
	assert.Equal(t, "staged.png", graphs[0]["1"].Inputs["image"])
}

func TestSegment_EmptyResultIsMock(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil)

	res, err := e.Segment(context.Background(), b64("img"), "hair")
	require.NoError(t, err)
	assert.Equal(t, "hair", res.Region)
	assert.Equal(t, "mock", res.Model)
	assert.Empty(t, res.MaskB64)
}

func TestReady(t *testing.T) {
	assert.True(t, newTestEngine(t, &stubExec{healthy: true}, nil).Ready(context.Background()))
	assert.False(t, newTestEngine(t, &stubExec{}, nil).Ready(context.Background()))
}
