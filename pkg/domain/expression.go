package domain

// LandmarkCount is the fixed topology size of the face landmark detector
// (MediaPipe FaceMesh).
const LandmarkCount = 468

// Point is a single 3D landmark in normalized image coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkSet is an ordered sequence of exactly LandmarkCount points.
// Immutable once produced by the detector.
type LandmarkSet []Point

// Valid reports whether the set matches the detector topology.
func (ls LandmarkSet) Valid() bool {
	return len(ls) == LandmarkCount
}

// Blendshapes maps the 52 ARKit channel names to intensities in [0,1].
// The key set is fixed regardless of input; channels the landmark topology
// carries no signal for are present with value 0.
type Blendshapes map[string]float64

// BlendshapeChannels lists every channel a derived vector contains, in the
// canonical ARKit grouping (eyes, brows, jaw, mouth, cheeks, nose, tongue).
var BlendshapeChannels = []string{
	"eyeBlinkLeft", "eyeBlinkRight",
	"eyeWideLeft", "eyeWideRight",
	"eyeSquintLeft", "eyeSquintRight",
	"eyeLookDownLeft", "eyeLookDownRight",
	"eyeLookInLeft", "eyeLookInRight",
	"eyeLookOutLeft", "eyeLookOutRight",
	"eyeLookUpLeft", "eyeLookUpRight",
	"browInnerUp",
	"browOuterUpLeft", "browOuterUpRight",
	"browDownLeft", "browDownRight",
	"jawOpen", "jawLeft", "jawRight", "jawForward",
	"mouthSmileLeft", "mouthSmileRight",
	"mouthFrownLeft", "mouthFrownRight",
	"mouthPucker",
	"mouthStretchLeft", "mouthStretchRight",
	"mouthDimpleLeft", "mouthDimpleRight",
	"mouthOpen", "mouthClose",
	"mouthUpperUpLeft", "mouthUpperUpRight",
	"mouthLowerDownLeft", "mouthLowerDownRight",
	"mouthLeft", "mouthRight",
	"mouthRollLower", "mouthRollUpper",
	"mouthShrugLower", "mouthShrugUpper",
	"mouthPressLeft", "mouthPressRight",
	"cheekPuff",
	"cheekSquintLeft", "cheekSquintRight",
	"noseSneerLeft", "noseSneerRight",
	"tongueOut",
}

// NeutralBlendshapes returns the fixed channel set with every intensity zero.
// Used as the documented fallback when the detector finds no subject.
func NeutralBlendshapes() Blendshapes {
	bs := make(Blendshapes, len(BlendshapeChannels))
	for _, ch := range BlendshapeChannels {
		bs[ch] = 0
	}
	return bs
}

// Max returns the largest channel intensity, or 0 for an empty vector.
func (bs Blendshapes) Max() float64 {
	max := 0.0
	for _, v := range bs {
		if v > max {
			max = v
		}
	}
	return max
}

// EmotionVector is a coarse valence/arousal/dominance reading attached to an
// expression. It is not scaled by the post-processor.
type EmotionVector struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
}

// EmotionClass is a soft classification over the basic emotion labels.
// It is not scaled by the post-processor.
type EmotionClass struct {
	Neutral   float64 `json:"neutral"`
	Happy     float64 `json:"happy"`
	Sad       float64 `json:"sad"`
	Angry     float64 `json:"angry"`
	Surprised float64 `json:"surprised"`
	Fearful   float64 `json:"fearful"`
	Disgusted float64 `json:"disgusted"`
	Contempt  float64 `json:"contempt"`
}

// Expression is the condensed per-frame expression state consumed by the
// transfer pipeline. The float fields are the scalar intensity channels the
// post-processor scales; the emotion sub-objects pass through untouched.
type Expression struct {
	Jaw             float64       `json:"jaw"`
	MouthOpen       float64       `json:"mouthOpen"`
	MouthCornerUp   float64       `json:"mouthCornerUp"`
	MouthCornerDown float64       `json:"mouthCornerDown"`
	LipPucker       float64       `json:"lipPucker"`
	LipStretch      float64       `json:"lipStretch"`
	BrowInner       float64       `json:"browInner"`
	BrowOuter       float64       `json:"browOuter"`
	BrowFurrow      float64       `json:"browFurrow"`
	EyeWide         float64       `json:"eyeWide"`
	EyeClose        float64       `json:"eyeClose"`
	EyeSquint       float64       `json:"eyeSquint"`
	CheekRaise      float64       `json:"cheekRaise"`
	NoseFlair       float64       `json:"noseFlair"`
	NoseWrinkle     float64       `json:"noseWrinkle"`
	EmotionVector   EmotionVector `json:"emotionVector"`
	EmotionClass    EmotionClass  `json:"emotionClass"`
	Intensity       float64       `json:"intensity"`
}

// FaceAnalysis bundles raw landmarks with the derived blendshape vector.
type FaceAnalysis struct {
	Landmarks    []IndexedLandmark `json:"landmarks"`
	Blendshapes  Blendshapes       `json:"blendshapes"`
	Confidence   float64           `json:"confidence"`
	IdentityHash *string           `json:"identityHash"`
	Mock         bool              `json:"mock,omitempty"`
}

// IndexedLandmark is a landmark point tagged with its topology index, the
// shape the analysis API returns.
type IndexedLandmark struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}
