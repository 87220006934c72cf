package expression

import (
	"math"

	"github.com/deadweight/argon/pkg/domain"
)

// Landmark indices used by the channel formulas (MediaPipe FaceMesh):
//
//	33/263  outer eye corners (right/left)
//	133/362 inner eye corners (right/left)
//	159/386 upper eyelid center (right/left)
//	145/374 lower eyelid center (right/left)
//	107/336 brow inner (right/left)
//	10/152  forehead / chin bottom (face height)
//	0       nose tip
//	13/14   upper/lower inner lip
//	61/291  mouth corners (right/left)
//	17      chin
//	4       nose lower
//	45/275  cheek (right/left)
//	234/454 face sides (cheek puff span)

const minDenominator = 1e-6

// Derive converts a landmark set into the fixed 52-channel blendshape vector.
// Channels the topology carries no reliable signal for (eye gaze, lateral
// jaw, lip rolls) are emitted as 0 so the key set never varies. A set that
// does not match the detector topology yields the neutral vector.
func Derive(lm domain.LandmarkSet) domain.Blendshapes {
	if !lm.Valid() {
		return domain.NeutralBlendshapes()
	}

	dist := func(a, b int) float64 {
		dx := lm[a].X - lm[b].X
		dy := lm[a].Y - lm[b].Y
		dz := lm[a].Z - lm[b].Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	c := clamp01

	faceW := dist(33, 263)
	if faceW < minDenominator {
		faceW = 1.0
	}

	// Eyes. Openness is eyelid separation over eye-corner span; ~0.25 is
	// neutral, ~0.05 closed, ~0.45 wide.
	rEyeW := math.Max(dist(33, 133), minDenominator)
	lEyeW := math.Max(dist(362, 263), minDenominator)
	rEyeOpen := dist(159, 145) / rEyeW
	lEyeOpen := dist(386, 374) / lEyeW

	rBlink := c((0.25 - rEyeOpen) / 0.20)
	lBlink := c((0.25 - lEyeOpen) / 0.20)
	rWide := c((rEyeOpen - 0.30) / 0.15)
	lWide := c((lEyeOpen - 0.30) / 0.15)
	rSquint := c((dist(159, 145)*0.5 - dist(144, 145)) / 0.02)
	lSquint := c((dist(386, 374)*0.5 - dist(373, 374)) / 0.02)

	// Brows: brow-to-lower-lid vertical gap normalized by face height.
	faceH := math.Max(dist(10, 152), minDenominator)
	rBrowEye := (lm[145].Y - lm[107].Y) / faceH
	lBrowEye := (lm[374].Y - lm[336].Y) / faceH
	const neutralBrow = 0.10
	browInnerUp := c((rBrowEye+lBrowEye)/2-neutralBrow) * 5
	browOuterR := c(rBrowEye-neutralBrow) * 4
	browOuterL := c(lBrowEye-neutralBrow) * 4
	browDownR := c(neutralBrow-rBrowEye) * 4
	browDownL := c(neutralBrow-lBrowEye) * 4

	// Jaw
	jawOpen := c(dist(13, 14) / faceW * 5)

	// Mouth: corner heights relative to the inner-lip center.
	lipCenterY := (lm[13].Y + lm[14].Y) / 2
	rCornerRise := c((lipCenterY - lm[61].Y) / faceW * 8)
	lCornerRise := c((lipCenterY - lm[291].Y) / faceW * 8)
	rCornerDrop := c((lm[61].Y - lipCenterY) / faceW * 8)
	lCornerDrop := c((lm[291].Y - lipCenterY) / faceW * 8)

	mouthW := math.Max(dist(61, 291), minDenominator)
	mouthOpen := c(dist(13, 14) / mouthW * 2)
	pucker := c((faceW*0.20 - mouthW) / (faceW * 0.05))
	stretchR := c((lm[61].X - lm[0].X) / faceW * 4)
	stretchL := c((lm[0].X - lm[291].X) / faceW * 4)

	upperLipUp := c((lm[0].Y-lm[13].Y)/faceW*8 - 0.2)
	lowerLipDn := c((lm[14].Y - lm[17].Y) / faceW * 4)

	rDimple := c(rCornerRise * 0.4)
	lDimple := c(lCornerRise * 0.4)

	// Cheeks
	cheekPuff := c((dist(234, 454) - faceW) / (faceW * 0.05))
	cheekSqR := c(rCornerRise * 0.5)
	cheekSqL := c(lCornerRise * 0.5)

	// Nose
	noseSneerR := c((lm[4].Y-lm[45].Y)/faceW*6 - 0.1)
	noseSneerL := c((lm[4].Y-lm[275].Y)/faceW*6 - 0.1)

	// Tongue: only plausible when the jaw is very open and the lower lip
	// has dropped.
	tongueOut := c(jawOpen * lowerLipDn * 0.5)

	return domain.Blendshapes{
		"eyeBlinkLeft":   c(lBlink),
		"eyeBlinkRight":  c(rBlink),
		"eyeWideLeft":    c(lWide),
		"eyeWideRight":   c(rWide),
		"eyeSquintLeft":  c(lSquint),
		"eyeSquintRight": c(rSquint),

		"eyeLookDownLeft":  0.0,
		"eyeLookDownRight": 0.0,
		"eyeLookInLeft":    0.0,
		"eyeLookInRight":   0.0,
		"eyeLookOutLeft":   0.0,
		"eyeLookOutRight":  0.0,
		"eyeLookUpLeft":    0.0,
		"eyeLookUpRight":   0.0,

		"browInnerUp":      c(browInnerUp),
		"browOuterUpLeft":  c(browOuterL),
		"browOuterUpRight": c(browOuterR),
		"browDownLeft":     c(browDownL),
		"browDownRight":    c(browDownR),

		"jawOpen":    c(jawOpen),
		"jawLeft":    0.0,
		"jawRight":   0.0,
		"jawForward": 0.0,

		"mouthSmileLeft":      c(lCornerRise),
		"mouthSmileRight":     c(rCornerRise),
		"mouthFrownLeft":      c(lCornerDrop),
		"mouthFrownRight":     c(rCornerDrop),
		"mouthPucker":         c(pucker),
		"mouthStretchLeft":    c(stretchL),
		"mouthStretchRight":   c(stretchR),
		"mouthDimpleLeft":     c(lDimple),
		"mouthDimpleRight":    c(rDimple),
		"mouthOpen":           c(mouthOpen),
		"mouthClose":          c(1.0 - mouthOpen),
		"mouthUpperUpLeft":    c(upperLipUp),
		"mouthUpperUpRight":   c(upperLipUp),
		"mouthLowerDownLeft":  c(lowerLipDn),
		"mouthLowerDownRight": c(lowerLipDn),
		"mouthLeft":           0.0,
		"mouthRight":          0.0,
		"mouthRollLower":      0.0,
		"mouthRollUpper":      0.0,
		"mouthShrugLower":     0.0,
		"mouthShrugUpper":     0.0,
		"mouthPressLeft":      0.0,
		"mouthPressRight":     0.0,

		"cheekPuff":        c(cheekPuff),
		"cheekSquintLeft":  c(cheekSqL),
		"cheekSquintRight": c(cheekSqR),

		"noseSneerLeft":  c(noseSneerL),
		"noseSneerRight": c(noseSneerR),

		"tongueOut": c(tongueOut),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
