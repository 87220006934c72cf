package expression

import (
	"math"

	"github.com/deadweight/argon/pkg/domain"
)

// FromBlendshapes condenses a full blendshape vector into the per-frame
// expression state the transfer pipeline consumes. Paired left/right channels
// collapse to their mean.
func FromBlendshapes(bs domain.Blendshapes) domain.Expression {
	avg := func(a, b string) float64 { return (bs[a] + bs[b]) / 2 }
	jaw := bs["jawOpen"]

	return domain.Expression{
		Jaw:             jaw,
		MouthOpen:       bs["jawOpen"],
		MouthCornerUp:   avg("mouthSmileLeft", "mouthSmileRight"),
		MouthCornerDown: avg("mouthFrownLeft", "mouthFrownRight"),
		LipPucker:       bs["mouthPucker"],
		LipStretch:      avg("mouthStretchLeft", "mouthStretchRight"),
		BrowInner:       bs["browInnerUp"],
		BrowOuter:       avg("browOuterUpLeft", "browOuterUpRight"),
		BrowFurrow:      avg("browDownLeft", "browDownRight"),
		EyeWide:         avg("eyeWideLeft", "eyeWideRight"),
		EyeClose:        avg("eyeBlinkLeft", "eyeBlinkRight"),
		EyeSquint:       avg("eyeSquintLeft", "eyeSquintRight"),
		CheekRaise:      avg("cheekSquintLeft", "cheekSquintRight"),
		NoseFlair:       avg("noseSneerLeft", "noseSneerRight"),
		NoseWrinkle:     0.0,
		EmotionVector:   domain.EmotionVector{Valence: 0.3, Arousal: jaw, Dominance: 0.6},
		EmotionClass:    domain.EmotionClass{Neutral: 1.0},
		Intensity:       math.Min(jaw*2, 1.0),
	}
}

// Neutral is the documented fallback expression when the detector finds no
// usable subject.
func Neutral() domain.Expression {
	return FromBlendshapes(domain.NeutralBlendshapes())
}
