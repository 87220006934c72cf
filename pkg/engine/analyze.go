package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/expression"
	"github.com/deadweight/argon/pkg/graph"
)

// ExpressionFrame is one analyzed sample of an expression reading.
type ExpressionFrame struct {
	FrameIndex int               `json:"frameIndex"`
	TimeMS     float64           `json:"timeMs"`
	Expression domain.Expression `json:"expression"`
	Mock       bool              `json:"mock,omitempty"`
}

// SegmentResult carries a segmentation mask for one region.
type SegmentResult struct {
	Region  string `json:"region"`
	MaskB64 string `json:"maskBase64"`
	Model   string `json:"model"`
}

// AnalyzeExpression derives the expression state from a single image. Runs
// synchronously; an undetectable face yields the flagged mock expression.
func (e *Engine) AnalyzeExpression(ctx context.Context, source string) ([]ExpressionFrame, error) {
	img, err := decodeImage(source)
	if err != nil {
		return []ExpressionFrame{{Expression: expression.MockExpression(0), Mock: true}}, nil
	}

	expr, detected := e.deriveExpression(ctx, img)
	return []ExpressionFrame{{
		FrameIndex: 0,
		TimeMS:     0,
		Expression: expr,
		Mock:       !detected,
	}}, nil
}

// AnalyzeFace returns raw landmarks with the derived blendshape vector.
func (e *Engine) AnalyzeFace(ctx context.Context, source string) (domain.FaceAnalysis, error) {
	img, err := decodeImage(source)
	if err != nil {
		return mockFaceAnalysis(), nil
	}

	lm, ok := e.landmarks(ctx, img)
	if !ok {
		return mockFaceAnalysis(), nil
	}

	indexed := make([]domain.IndexedLandmark, len(lm))
	for i, p := range lm {
		indexed[i] = domain.IndexedLandmark{Index: i, X: p.X, Y: p.Y, Z: p.Z}
	}
	return domain.FaceAnalysis{
		Landmarks:   indexed,
		Blendshapes: expression.Derive(lm),
		Confidence:  0.92,
	}, nil
}

// AnalyzeMotion spawns a job that extracts a one-frame motion track from the
// source image. The returned id is immediately pollable.
func (e *Engine) AnalyzeMotion(source string, fps int) string {
	if fps <= 0 {
		fps = 24
	}
	return e.spawn("analyze:motion", func(ctx context.Context) (any, error) {
		img, err := decodeImage(source)
		if err != nil {
			return e.mockMotionTrack(fps), nil
		}

		lm, detected := e.landmarks(ctx, img)
		expr, _ := e.deriveExpression(ctx, img)
		pose := e.ExtractPose(ctx, img)

		frame := domain.Frame{
			FrameIndex:   0,
			TimeMS:       0,
			Pose:         pose,
			Expression:   expr,
			Landmarks:    lm,
			MotionEnergy: 0.3,
			FaceVisible:  detected,
		}

		models := []string{}
		if detected {
			models = append(models, "facemesh")
		}
		if pose.Model == "dwpose" {
			models = append(models, "dwpose")
		}

		track := domain.MotionTrack{
			ID:         uuid.NewString(),
			Source:     "uploaded",
			FPS:        fps,
			DurationMS: 1000 / float64(fps),
			FrameCount: 1,
			Frames:     []domain.Frame{frame},
			Summary:    summarize([]domain.Frame{frame}),
			Meta: domain.TrackMeta{
				ExtractedAt: time.Now().UTC().Format(time.RFC3339),
				Models:      models,
				Mock:        !detected && pose.Model != "dwpose",
			},
		}
		return track, nil
	})
}

// ExtractPose runs the skeleton extraction workflow over the image. The
// executor's render is carried as a base64 PNG for ControlNet conditioning;
// on any failure the deterministic mock pose is returned, flagged by model.
func (e *Engine) ExtractPose(ctx context.Context, img []byte) *domain.Pose {
	filename, err := e.stage(img)
	if err != nil {
		e.logger.Warn("pose input staging failed", "error", err)
		return mockPose()
	}

	wf, err := graph.Instantiate(graph.WorkflowDWPose, map[string]any{"INPUT": filename})
	if err != nil {
		e.logger.Warn("pose workflow build failed", "error", err)
		return mockPose()
	}

	data := e.exec.Execute(ctx, wf, poseTimeout)
	if len(data) == 0 {
		return mockPose()
	}
	return &domain.Pose{
		Body:         map[string]domain.PoseKeypoint{},
		PoseImageB64: encodeImage(data),
		Confidence:   0.92,
		Model:        "dwpose",
	}
}

// Segment runs the matting workflow and returns the mask. An empty mask with
// the mock model flag signals degraded output.
func (e *Engine) Segment(ctx context.Context, source, region string) (SegmentResult, error) {
	if region == "" {
		region = "face"
	}
	img, err := decodeImage(source)
	if err != nil {
		return SegmentResult{}, err
	}

	filename, err := e.stage(img)
	if err != nil {
		return SegmentResult{Region: region, Model: "mock"}, nil
	}
	wf, err := graph.Instantiate(graph.WorkflowBiRefNet, map[string]any{"INPUT": filename})
	if err != nil {
		return SegmentResult{Region: region, Model: "mock"}, nil
	}

	data := e.exec.Execute(ctx, wf, segmentTimeout)
	if len(data) == 0 {
		return SegmentResult{Region: region, Model: "mock"}, nil
	}
	return SegmentResult{Region: region, MaskB64: encodeImage(data), Model: "birefnet"}, nil
}

func (e *Engine) landmarks(ctx context.Context, img []byte) (domain.LandmarkSet, bool) {
	if e.detector == nil {
		return nil, false
	}
	return e.detector.Landmarks(ctx, img)
}

func (e *Engine) deriveExpression(ctx context.Context, img []byte) (domain.Expression, bool) {
	lm, ok := e.landmarks(ctx, img)
	if !ok {
		return expression.MockExpression(0), false
	}
	return expression.FromBlendshapes(expression.Derive(lm)), true
}

func summarize(frames []domain.Frame) domain.TrackSummary {
	if len(frames) == 0 {
		return domain.TrackSummary{DominantPoseClass: "standing"}
	}
	var sum, peak float64
	visible := 0
	for _, f := range frames {
		v := f.Expression.Intensity
		sum += v
		if v > peak {
			peak = v
		}
		if f.FaceVisible {
			visible++
		}
	}
	n := float64(len(frames))
	return domain.TrackSummary{
		MeanMotionEnergy:  sum / n,
		PeakMotionEnergy:  peak,
		DominantPoseClass: "standing",
		FaceVisibleRatio:  float64(visible) / n,
	}
}

// mockMotionTrack fabricates four seconds of sine-wave motion.
func (e *Engine) mockMotionTrack(fps int) domain.MotionTrack {
	frames := make([]domain.Frame, 0, fps*4)
	for i := 0; i < fps*4; i++ {
		t := float64(i) / float64(fps)
		frames = append(frames, domain.Frame{
			FrameIndex:   i,
			TimeMS:       t * 1000,
			Pose:         expression.MockPose(t),
			Expression:   expression.MockExpression(t),
			MotionEnergy: math.Abs(math.Sin(t*0.9)) * 0.6,
			FaceVisible:  true,
		})
	}
	return domain.MotionTrack{
		ID:         uuid.NewString(),
		Source:     "mock",
		FPS:        fps,
		DurationMS: 4000,
		FrameCount: len(frames),
		Frames:     frames,
		Summary:    summarize(frames),
		Meta: domain.TrackMeta{
			ExtractedAt: time.Now().UTC().Format(time.RFC3339),
			Models:      []string{},
			Mock:        true,
		},
	}
}

func mockPose() *domain.Pose {
	p := expression.MockPose(0)
	p.Model = "mock"
	return p
}

func mockFaceAnalysis() domain.FaceAnalysis {
	lm := expression.MockLandmarks()
	indexed := make([]domain.IndexedLandmark, len(lm))
	for i, p := range lm {
		indexed[i] = domain.IndexedLandmark{Index: i, X: p.X, Y: p.Y, Z: p.Z}
	}
	return domain.FaceAnalysis{
		Landmarks:   indexed,
		Blendshapes: domain.NeutralBlendshapes(),
		Confidence:  0,
		Mock:        true,
	}
}
