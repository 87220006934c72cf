package domain

// PoseKeypoint is a single 2D body keypoint with detection confidence.
type PoseKeypoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Conf float64 `json:"conf"`
}

// Pose holds the body keypoints plus the rendered skeleton image used as
// ControlNet conditioning. Body may be empty when keypoints were not parsed
// from the skeleton render.
type Pose struct {
	Body         map[string]PoseKeypoint `json:"body"`
	PoseImageB64 string                  `json:"poseImageB64,omitempty"`
	Confidence   float64                 `json:"confidence"`
	Model        string                  `json:"model,omitempty"`
}

// Frame is one sample of a motion track.
type Frame struct {
	FrameIndex   int         `json:"frameIndex"`
	TimeMS       float64     `json:"timeMs"`
	Pose         *Pose       `json:"pose,omitempty"`
	Expression   Expression  `json:"expression"`
	Landmarks    LandmarkSet `json:"faceLandmarks,omitempty"`
	MotionEnergy float64     `json:"motionEnergy"`
	FaceVisible  bool        `json:"faceVisible"`
}

// TrackSummary aggregates a motion track for quick inspection.
type TrackSummary struct {
	MeanMotionEnergy  float64 `json:"meanMotionEnergy"`
	PeakMotionEnergy  float64 `json:"peakMotionEnergy"`
	DominantPoseClass string  `json:"dominantPoseClass"`
	FaceVisibleRatio  float64 `json:"faceVisibleRatio"`
}

// TrackMeta records provenance for a motion track.
type TrackMeta struct {
	ExtractedAt string   `json:"extractedAt"`
	Models      []string `json:"models"`
	Mock        bool     `json:"mock"`
}

// MotionTrack is an ordered frame sequence extracted from a source image or
// clip, with summary statistics.
type MotionTrack struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	FPS        int          `json:"fps"`
	DurationMS float64      `json:"durationMs"`
	FrameCount int          `json:"frameCount"`
	Frames     []Frame      `json:"frames"`
	Summary    TrackSummary `json:"summary"`
	Meta       TrackMeta    `json:"meta"`
}

// Beat is a single timestamp on an external timing curve.
type Beat struct {
	TimeMS float64 `json:"timeMs"`
}
