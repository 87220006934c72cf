package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/engine"
)

func (s *Server) handleAnalyzeMotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		FPS    int    `json:"fps"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "source required")
		return
	}

	id := s.engine.AnalyzeMotion(req.Source, req.FPS)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "trackId": id, "jobId": id, "status": domain.JobQueued,
	})
}

func (s *Server) handleAnalyzeExpression(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "source required")
		return
	}

	frames, err := s.engine.AnalyzeExpression(r.Context(), req.Source)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": frames,
	})
}

func (s *Server) handleAnalyzeFace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "source required")
		return
	}

	fa, err := s.engine.AnalyzeFace(r.Context(), req.Source)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": fa,
	})
}

func (s *Server) handleAnalyzeSegment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Region string `json:"region"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "source required")
		return
	}

	res, err := s.engine.Segment(r.Context(), req.Source, req.Region)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": res,
	})
}

func (s *Server) handleTransferExpression(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterImage string             `json:"characterImage"`
		TargetImage    string             `json:"targetImage"`
		Coefficients   domain.Blendshapes `json:"coefficients"`
		Strength       *float64           `json:"strength"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	img := req.CharacterImage
	if img == "" {
		img = req.TargetImage
	}
	if img == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "characterImage required")
		return
	}
	strength := 1.0
	if req.Strength != nil {
		strength = *req.Strength
	}

	res, err := s.engine.TransferExpression(r.Context(), img, req.Coefficients, strength)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": res,
	})
}

func (s *Server) handleTransferSequence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CharacterImage string             `json:"characterImage"`
		MotionTrack    domain.MotionTrack `json:"motionTrack"`
		BeatCurve      []domain.Beat      `json:"beatCurve"`
		OutputFPS      int                `json:"outputFps"`
		LoraPaths      []string           `json:"loraPaths"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.CharacterImage == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "characterImage required")
		return
	}
	if len(req.MotionTrack.Frames) == 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "motionTrack required")
		return
	}

	id := s.engine.TransferSequence(req.CharacterImage, req.MotionTrack, req.BeatCurve, req.OutputFPS, req.LoraPaths)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": id, "status": domain.JobQueued,
		"frameCount": len(req.MotionTrack.Frames),
	})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt    string   `json:"prompt"`
		Model     string   `json:"model"`
		Width     int      `json:"width"`
		Height    int      `json:"height"`
		LoraPaths []string `json:"loraPaths"`
		Strength  float64  `json:"loraStrength"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}

	res := s.engine.GenerateImage(r.Context(), engine.GenerateImageRequest{
		Prompt:          req.Prompt,
		Model:           req.Model,
		Width:           req.Width,
		Height:          req.Height,
		Adapters:        req.LoraPaths,
		AdapterStrength: req.Strength,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": res,
	})
}

func (s *Server) handleGeneratePose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt         string   `json:"prompt"`
		Pose           string   `json:"pose"`
		ReferenceImage string   `json:"reference_image"`
		LoraPaths      []string `json:"loraPaths"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}

	res := s.engine.GeneratePose(r.Context(), engine.GeneratePoseRequest{
		Prompt:       req.Prompt,
		Pose:         req.Pose,
		ReferenceB64: req.ReferenceImage,
		Adapters:     req.LoraPaths,
	})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "jobId": uuid.NewString(), "status": domain.JobComplete, "result": res,
	})
}

func (s *Server) handleListAdapters(w http.ResponseWriter, _ *http.Request) {
	adapters, err := s.engine.Assets().List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "loras": adapters})
}

// handleDownloadAdapter fetches an adapter from the model catalog. A bare
// versionId is resolved against the catalog's download URL scheme; a full
// url wins when both are present.
func (s *Server) handleDownloadAdapter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VersionID string `json:"versionId"`
		URL       string `json:"url"`
		Name      string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	url := req.URL
	name := req.Name
	if url == "" {
		if req.VersionID == "" {
			s.writeError(w, http.StatusBadRequest, "bad_request", "versionId required")
			return
		}
		url = fmt.Sprintf("https://civitai.com/api/download/models/%s", req.VersionID)
		if name == "" {
			name = "civitai_" + req.VersionID
		}
	}
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}

	filename, err := s.engine.Assets().Download(r.Context(), url, name)
	if err != nil {
		s.metrics.RecordAdapterDownload("error")
		s.writeError(w, http.StatusBadGateway, "download_failed", err.Error())
		return
	}
	s.metrics.RecordAdapterDownload("ok")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok": true, "name": name, "filename": filename,
	})
}
