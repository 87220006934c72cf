package expression

import (
	"math"

	"github.com/deadweight/argon/pkg/domain"
)

// beatWindowMS is the distance at which a beat stops influencing intensity.
const beatWindowMS = 500.0

// Scale multiplies every scalar intensity channel of an expression by factor
// and clamps the result to 1.0. The emotion sub-objects pass through
// unchanged. The input is not mutated.
func Scale(e domain.Expression, factor float64) domain.Expression {
	s := func(v float64) float64 { return math.Min(1.0, v*factor) }

	out := e
	out.Jaw = s(e.Jaw)
	out.MouthOpen = s(e.MouthOpen)
	out.MouthCornerUp = s(e.MouthCornerUp)
	out.MouthCornerDown = s(e.MouthCornerDown)
	out.LipPucker = s(e.LipPucker)
	out.LipStretch = s(e.LipStretch)
	out.BrowInner = s(e.BrowInner)
	out.BrowOuter = s(e.BrowOuter)
	out.BrowFurrow = s(e.BrowFurrow)
	out.EyeWide = s(e.EyeWide)
	out.EyeClose = s(e.EyeClose)
	out.EyeSquint = s(e.EyeSquint)
	out.CheekRaise = s(e.CheekRaise)
	out.NoseFlair = s(e.NoseFlair)
	out.NoseWrinkle = s(e.NoseWrinkle)
	out.Intensity = s(e.Intensity)
	return out
}

// BeatProximity computes the scaling factor for a frame at timeMS against a
// beat curve: max(0, 1 - nearest/500ms). The nearest beat is a full scan
// minimum, not an interpolation; an empty curve means full intensity.
func BeatProximity(timeMS float64, beats []domain.Beat) float64 {
	if len(beats) == 0 {
		return 1.0
	}
	min := math.Inf(1)
	for _, b := range beats {
		if d := math.Abs(b.TimeMS - timeMS); d < min {
			min = d
		}
	}
	return math.Max(0.0, 1.0-min/beatWindowMS)
}
