package engine

import (
	"context"
	"math/rand"

	"github.com/deadweight/argon/pkg/graph"
)

// GenerateImageRequest parameterizes a text-to-image generation.
type GenerateImageRequest struct {
	Prompt          string
	Model           string
	Width           int
	Height          int
	Adapters        []string
	AdapterStrength float64
}

// GeneratePoseRequest parameterizes a pose-conditioned generation.
type GeneratePoseRequest struct {
	Prompt       string
	Pose         string
	ReferenceB64 string
	Adapters     []string
}

// GenerateResult is the outcome of a generation operation.
type GenerateResult struct {
	OutputB64 string `json:"outputBase64"`
	Model     string `json:"model,omitempty"`
	Mock      bool   `json:"mock"`
}

// GenerateImage renders the prompt through the text-to-image workflow with
// the requested adapter chain. An unreachable executor yields a flagged
// empty result; a reachable one that produces nothing yields an empty
// artifact without the mock flag.
func (e *Engine) GenerateImage(ctx context.Context, req GenerateImageRequest) GenerateResult {
	model := req.Model
	if model == "" {
		model = "sdxl"
	}
	if !e.exec.Health(ctx) {
		return GenerateResult{Model: model, Mock: true}
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = 768
	}
	if height <= 0 {
		height = 1024
	}

	wf, err := graph.Instantiate(graph.WorkflowSDXL, map[string]any{
		"CHECKPOINT": e.checkpoint,
		"PROMPT":     req.Prompt,
		"NEGATIVE":   e.negative,
		"WIDTH":      width,
		"HEIGHT":     height,
		"SEED":       rand.Int31(),
	})
	if err != nil {
		e.logger.Warn("generation workflow build failed", "error", err)
		return GenerateResult{Model: model, Mock: true}
	}

	wf = e.chainAdapters(wf, req.Adapters, req.AdapterStrength)

	data := e.exec.Execute(ctx, wf, generateTimeout)
	return GenerateResult{OutputB64: encodeImage(data), Model: model}
}

// GeneratePose renders the prompt conditioned on a body skeleton. The
// skeleton is extracted from the reference image when one is supplied and
// usable; otherwise generation falls back to the unconditioned workflow.
func (e *Engine) GeneratePose(ctx context.Context, req GeneratePoseRequest) GenerateResult {
	if !e.exec.Health(ctx) {
		return GenerateResult{Mock: true}
	}

	poseFile := e.referenceSkeleton(ctx, req.ReferenceB64)
	if poseFile == "" {
		e.logger.Info("no usable pose skeleton, generating unconditioned", "pose", req.Pose)
		return e.GenerateImage(ctx, GenerateImageRequest{
			Prompt:   req.Prompt,
			Width:    512,
			Height:   768,
			Adapters: req.Adapters,
		})
	}

	wf, err := graph.Instantiate(graph.WorkflowPoseControlNet, map[string]any{
		"CHECKPOINT": e.checkpoint,
		"CONTROLNET": e.controlnet,
		"POSE_IMAGE": poseFile,
		"PROMPT":     req.Prompt,
		"NEGATIVE":   e.negative,
		"WIDTH":      512,
		"HEIGHT":     768,
		"SEED":       rand.Int31(),
	})
	if err != nil {
		e.logger.Warn("pose workflow build failed", "error", err)
		return GenerateResult{Mock: true}
	}

	wf = e.chainAdapters(wf, req.Adapters, 0)

	data := e.exec.Execute(ctx, wf, generateTimeout)
	return GenerateResult{OutputB64: encodeImage(data)}
}

// referenceSkeleton extracts and stages a skeleton render from the reference
// image, returning "" when none is available.
func (e *Engine) referenceSkeleton(ctx context.Context, referenceB64 string) string {
	if referenceB64 == "" {
		return ""
	}
	ref, err := decodeImage(referenceB64)
	if err != nil {
		return ""
	}
	pose := e.ExtractPose(ctx, ref)
	if pose.PoseImageB64 == "" {
		return ""
	}
	skeleton, err := decodeImage(pose.PoseImageB64)
	if err != nil {
		return ""
	}
	filename, err := e.stage(skeleton)
	if err != nil {
		e.logger.Warn("skeleton staging failed", "error", err)
		return ""
	}
	return filename
}

func (e *Engine) chainAdapters(wf graph.Graph, names []string, strength float64) graph.Graph {
	filenames := e.resolveAdapters(names)
	if len(filenames) == 0 {
		return wf
	}
	if strength <= 0 {
		strength = graph.DefaultLoRAStrength
	}
	return graph.ChainLoRAs(wf, graph.AdapterSpec{Adapters: filenames, Strength: strength})
}
