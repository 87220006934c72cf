package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/expression"
)

func TestDriveMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, driveMultiplier(0.5, 1.0))
	assert.Equal(t, 0.1, driveMultiplier(0.01, 0.1))   // floor
	assert.Equal(t, 3.0, driveMultiplier(1.0, 2.0))    // ceiling
	assert.Equal(t, 0.667, driveMultiplier(1.0/3, 1.0)) // rounded to 3 decimals
}

func TestTransferExpression(t *testing.T) {
	exec := &stubExec{healthy: true, artifact: []byte("driven")}
	e := newTestEngine(t, exec, nil)

	coeff := domain.Blendshapes{"jawOpen": 0.5, "mouthSmileLeft": 0.2}
	res, err := e.TransferExpression(context.Background(), b64("img"), coeff, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "liveportrait", res.Model)
	assert.Equal(t, b64("driven"), res.OutputB64)
	assert.Equal(t, 1.0, res.Strength)

	graphs := exec.executed()
	require.Len(t, graphs, 1)
	var strength any
	for _, n := range graphs[0] {
		if n.ClassType == "LivePortraitProcess" {
			strength = n.Inputs["driving_multiplier"]
		}
	}
	assert.Equal(t, 1.0, strength)
}

func TestTransferExpression_PassthroughOnFailure(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil)

	res, err := e.TransferExpression(context.Background(), b64("img"), nil, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "passthrough", res.Model)
	assert.Equal(t, b64("img"), res.OutputB64)
}

func TestTransferExpression_BadImage(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil)

	_, err := e.TransferExpression(context.Background(), "!!!", nil, 1.0)
	assert.Error(t, err)
}

func makeTrack(n int) domain.MotionTrack {
	frames := make([]domain.Frame, n)
	for i := range frames {
		frames[i] = domain.Frame{
			FrameIndex: i,
			TimeMS:     float64(i) * 100,
			Expression: expression.MockExpression(float64(i) / 10),
		}
	}
	return domain.MotionTrack{ID: "trk", FrameCount: n, Frames: frames}
}

func TestTransferSequence(t *testing.T) {
	exec := &stubExec{healthy: true, artifact: []byte("frame")}
	e := newTestEngine(t, exec, nil)

	id := e.TransferSequence(b64("img"), makeTrack(3), nil, 24, []string{"style"})
	j := waitJob(t, e, id)
	require.Equal(t, domain.JobComplete, j.Status)

	res, ok := j.Result.(SequenceResult)
	require.True(t, ok)
	assert.Equal(t, 3, res.FrameCount)
	assert.Equal(t, 24, res.OutputFPS)
	assert.False(t, res.BeatBound)
	assert.False(t, res.Mock)
	assert.Equal(t, []string{"style"}, res.Adapters)

	// Output order matches track order.
	for i, f := range res.Frames {
		assert.Equal(t, i, f.FrameIndex)
		assert.Equal(t, float64(i)*100, f.TimeMS)
		assert.Equal(t, b64("frame"), f.ImageB64)
	}

	// One drive per frame, processed sequentially.
	assert.Len(t, exec.executed(), 3)
}

func TestTransferSequence_BeatScaling(t *testing.T) {
	exec := &stubExec{healthy: true, artifact: []byte("frame")}
	e := newTestEngine(t, exec, nil)

	// Beat sits on frame 0; frame 2 at 1000ms is outside the window, so its
	// expression scales to zero and the multiplier floors at 0.1.
	track := makeTrack(3)
	track.Frames[2].TimeMS = 1000
	beats := []domain.Beat{{TimeMS: 0}}

	id := e.TransferSequence(b64("img"), track, beats, 24, nil)
	j := waitJob(t, e, id)
	require.Equal(t, domain.JobComplete, j.Status)

	res := j.Result.(SequenceResult)
	assert.True(t, res.BeatBound)

	graphs := exec.executed()
	require.Len(t, graphs, 3)
	multiplier := func(i int) any {
		for _, n := range graphs[i] {
			if n.ClassType == "LivePortraitProcess" {
				return n.Inputs["driving_multiplier"]
			}
		}
		return nil
	}
	assert.Equal(t, 0.1, multiplier(2))
}

func TestTransferSequence_EmptyTrackFails(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil)

	id := e.TransferSequence(b64("img"), domain.MotionTrack{}, nil, 24, nil)
	j := waitJob(t, e, id)
	assert.Equal(t, domain.JobError, j.Status)
	assert.Equal(t, domain.ErrEmptyTrack.Error(), j.Error)
}

func TestTransferSequence_PassthroughWhenExecutorDark(t *testing.T) {
	e := newTestEngine(t, &stubExec{healthy: true}, nil) // Execute returns nil

	src := b64("img")
	id := e.TransferSequence(src, makeTrack(2), nil, 24, nil)
	j := waitJob(t, e, id)
	require.Equal(t, domain.JobComplete, j.Status)

	res := j.Result.(SequenceResult)
	assert.True(t, res.Mock)
	for _, f := range res.Frames {
		assert.Equal(t, src, f.ImageB64)
	}
}
