package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/expression"
	"github.com/deadweight/argon/pkg/graph"
)

// TransferResult is the outcome of a single expression drive.
type TransferResult struct {
	OutputB64 string  `json:"outputBase64"`
	Model     string  `json:"model"`
	Strength  float64 `json:"strength"`
}

// SequenceFrame is one rendered frame of a sequence transfer.
type SequenceFrame struct {
	FrameIndex int     `json:"frameIndex"`
	TimeMS     float64 `json:"timeMs"`
	ImageB64   string  `json:"imageBase64"`
}

// SequenceResult is the completed output of a sequence transfer job.
type SequenceResult struct {
	FrameCount int             `json:"frameCount"`
	OutputFPS  int             `json:"outputFps"`
	Frames     []SequenceFrame `json:"frames"`
	BeatBound  bool            `json:"beatBound"`
	Adapters   []string        `json:"loras"`
	Mock       bool            `json:"mock"`
}

// TransferExpression drives the given blendshape coefficients onto the
// character image. A failed or unavailable execution passes the source image
// through, flagged by model name.
func (e *Engine) TransferExpression(ctx context.Context, source string, coefficients domain.Blendshapes, strength float64) (TransferResult, error) {
	img, err := decodeImage(source)
	if err != nil {
		return TransferResult{}, fmt.Errorf("decode character image: %w", err)
	}

	intensity := 0.5
	if len(coefficients) > 0 {
		intensity = coefficients.Max()
	}

	out := e.drive(ctx, img, intensity, strength)
	if out == nil {
		return TransferResult{OutputB64: encodeImage(img), Model: "passthrough", Strength: strength}, nil
	}
	return TransferResult{OutputB64: encodeImage(out), Model: "liveportrait", Strength: strength}, nil
}

// TransferSequence spawns a job rendering the motion track frame by frame
// against the character image. Frames are processed sequentially and the
// output order matches the track order. When a beat curve is supplied each
// frame's expression is scaled by its beat proximity before driving.
func (e *Engine) TransferSequence(source string, track domain.MotionTrack, beats []domain.Beat, outputFPS int, adapters []string) string {
	if outputFPS <= 0 {
		outputFPS = 24
	}
	return e.spawn("transfer:sequence", func(ctx context.Context) (any, error) {
		if len(track.Frames) == 0 {
			return nil, domain.ErrEmptyTrack
		}
		img, err := decodeImage(source)
		if err != nil {
			return nil, fmt.Errorf("decode character image: %w", err)
		}

		out := make([]SequenceFrame, 0, len(track.Frames))
		rendered := false
		for i, frame := range track.Frames {
			expr := frame.Expression
			if len(beats) > 0 {
				expr = expression.Scale(expr, expression.BeatProximity(frame.TimeMS, beats))
			}

			frameImg := e.drive(ctx, img, maxScalar(expr), expr.Intensity)
			b64 := source
			if frameImg != nil {
				b64 = encodeImage(frameImg)
				rendered = true
			}
			out = append(out, SequenceFrame{
				FrameIndex: i,
				TimeMS:     frame.TimeMS,
				ImageB64:   b64,
			})
		}

		return SequenceResult{
			FrameCount: len(out),
			OutputFPS:  outputFPS,
			Frames:     out,
			BeatBound:  len(beats) > 0,
			Adapters:   adapters,
			Mock:       !rendered,
		}, nil
	})
}

// drive runs the self-reenactment workflow: the staged image serves as both
// source and driving input, and the driving multiplier is derived from the
// coefficient intensity and overall strength. nil means no artifact.
func (e *Engine) drive(ctx context.Context, img []byte, coeffIntensity, strength float64) []byte {
	filename, err := e.stage(img)
	if err != nil {
		e.logger.Warn("drive input staging failed", "error", err)
		return nil
	}

	wf, err := graph.Instantiate(graph.WorkflowLivePortrait, map[string]any{
		"SOURCE":   filename,
		"DRIVING":  filename,
		"STRENGTH": driveMultiplier(coeffIntensity, strength),
	})
	if err != nil {
		e.logger.Warn("drive workflow build failed", "error", err)
		return nil
	}
	return e.exec.Execute(ctx, wf, transferTimeout)
}

// driveMultiplier maps coefficient intensity and strength onto the workflow's
// driving multiplier: rounded to 3 decimals, then clamped to [0.1, 3.0].
func driveMultiplier(coeffIntensity, strength float64) float64 {
	m := math.Round(coeffIntensity*strength*2.0*1000) / 1000
	return math.Max(0.1, math.Min(3.0, m))
}

// maxScalar is the largest scalar intensity channel of an expression,
// including the overall intensity.
func maxScalar(e domain.Expression) float64 {
	max := e.Intensity
	for _, v := range []float64{
		e.Jaw, e.MouthOpen, e.MouthCornerUp, e.MouthCornerDown,
		e.LipPucker, e.LipStretch, e.BrowInner, e.BrowOuter, e.BrowFurrow,
		e.EyeWide, e.EyeClose, e.EyeSquint, e.CheekRaise, e.NoseFlair,
		e.NoseWrinkle,
	} {
		if v > max {
			max = v
		}
	}
	return max
}
