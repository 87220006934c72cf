package expression

import (
	"math"

	"github.com/deadweight/argon/pkg/domain"
)

// Mock generators for degraded operation. Values are deterministic functions
// of time so repeated calls reproduce the same placeholder data, and every
// consumer marks results built from them with an explicit mock flag.

// MockExpression returns the placeholder expression at t seconds: slow sine
// waves over the scalar channels.
func MockExpression(t float64) domain.Expression {
	w := func(freq, amp float64) float64 {
		return (math.Sin(t*freq)*0.5 + 0.5) * amp
	}
	return domain.Expression{
		Jaw:           w(0.8, 0.3),
		MouthOpen:     w(0.8, 0.4),
		MouthCornerUp: w(0.6, 0.5),
		LipStretch:    w(0.3, 0.2),
		BrowInner:     w(1.2, 0.4),
		BrowOuter:     w(0.7, 0.35),
		EyeWide:       w(0.5, 0.2),
		EyeClose:      w(0.3, 0.15),
		CheekRaise:    w(0.6, 0.3),
		NoseFlair:     w(1.0, 0.15),
		EmotionVector: domain.EmotionVector{
			Valence:   math.Sin(t*0.4)*0.5 + 0.3,
			Arousal:   w(0.5, 0.8),
			Dominance: 0.6,
		},
		EmotionClass: domain.EmotionClass{
			Neutral: 0.4, Happy: 0.4, Surprised: 0.1, Contempt: 0.1,
		},
		Intensity: w(0.9, 0.85),
	}
}

// MockPose returns the placeholder upper-body pose at t seconds with a small
// lateral sway.
func MockPose(t float64) *domain.Pose {
	sway := math.Sin(t*1.2) * 0.05
	return &domain.Pose{
		Body: map[string]domain.PoseKeypoint{
			"nose":          {X: 0.50 + sway, Y: 0.14, Conf: 0.98},
			"neck":          {X: 0.50 + sway*0.5, Y: 0.22, Conf: 0.95},
			"leftShoulder":  {X: 0.38, Y: 0.30, Conf: 0.90},
			"rightShoulder": {X: 0.62, Y: 0.30, Conf: 0.90},
			"leftElbow":     {X: 0.30, Y: 0.48, Conf: 0.85},
			"rightElbow":    {X: 0.70, Y: 0.48, Conf: 0.85},
			"leftWrist":     {X: 0.28, Y: 0.62, Conf: 0.80},
			"rightWrist":    {X: 0.72, Y: 0.62, Conf: 0.80},
			"leftHip":       {X: 0.42, Y: 0.56, Conf: 0.88},
			"rightHip":      {X: 0.58, Y: 0.56, Conf: 0.88},
		},
		Confidence: 0.92,
	}
}

// MockLandmarks returns a full-topology landmark set with every point at the
// image center.
func MockLandmarks() domain.LandmarkSet {
	lm := make(domain.LandmarkSet, domain.LandmarkCount)
	for i := range lm {
		lm[i] = domain.Point{X: 0.5, Y: 0.5}
	}
	return lm
}
