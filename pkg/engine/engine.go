package engine

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deadweight/argon/pkg/assets"
	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/graph"
	"github.com/deadweight/argon/pkg/jobs"
)

// Workflow execution deadlines, per operation class.
const (
	poseTimeout     = 60 * time.Second
	segmentTimeout  = 90 * time.Second
	transferTimeout = 120 * time.Second
	generateTimeout = 180 * time.Second
)

// Executor runs workflow graphs. A nil Execute result means no artifact was
// produced; Health reports reachability.
type Executor interface {
	Execute(ctx context.Context, g graph.Graph, timeout time.Duration) []byte
	Health(ctx context.Context) bool
}

// Detector extracts face landmarks from PNG/JPEG bytes. ok is false when no
// face was found or no detector backend is wired in.
type Detector interface {
	Landmarks(ctx context.Context, image []byte) (domain.LandmarkSet, bool)
}

// Stager places image bytes where the executor's loader nodes can read them
// and returns the bare filename.
type Stager func(data []byte) (string, error)

// Config holds the engine settings.
type Config struct {
	// Workers bounds concurrently running spawned jobs.
	Workers int
	// Checkpoint is the base model filename bound into generation workflows.
	Checkpoint string
	// ControlNet is the conditioning model filename for pose generation.
	ControlNet string
	// NegativePrompt is bound into every generation workflow.
	NegativePrompt string
}

// Defaults applied where Config fields are zero.
const (
	DefaultCheckpoint = "sd_xl_base_1.0.safetensors"
	DefaultControlNet = "control_v11p_sd15_openpose.pth"
	DefaultNegative   = "nsfw, nude, blurry, low quality, watermark, " +
		"text, logo, bad anatomy, deformed"
	DefaultWorkers = 2
)

// Engine wires the executor, detector, asset registry, and job store into
// the operation surface the API exposes.
type Engine struct {
	exec     Executor
	detector Detector
	stage    Stager
	jobs     *jobs.Store
	assets   *assets.Registry
	logger   *slog.Logger

	checkpoint string
	controlnet string
	negative   string

	sem chan struct{}
	wg  sync.WaitGroup
}

// New creates an Engine. detector may be nil; every analysis path then falls
// back to mock output.
func New(cfg Config, exec Executor, detector Detector, stage Stager, store *jobs.Store, reg *assets.Registry, logger *slog.Logger) *Engine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	checkpoint := cfg.Checkpoint
	if checkpoint == "" {
		checkpoint = DefaultCheckpoint
	}
	controlnet := cfg.ControlNet
	if controlnet == "" {
		controlnet = DefaultControlNet
	}
	negative := cfg.NegativePrompt
	if negative == "" {
		negative = DefaultNegative
	}
	return &Engine{
		exec:       exec,
		detector:   detector,
		stage:      stage,
		jobs:       store,
		assets:     reg,
		logger:     logger,
		checkpoint: checkpoint,
		controlnet: controlnet,
		negative:   negative,
		sem:        make(chan struct{}, workers),
	}
}

// Jobs exposes the job store for the API layer.
func (e *Engine) Jobs() *jobs.Store {
	return e.jobs
}

// Assets exposes the adapter registry for the API layer.
func (e *Engine) Assets() *assets.Registry {
	return e.assets
}

// Ready reports whether the execution backend answers.
func (e *Engine) Ready(ctx context.Context) bool {
	return e.exec.Health(ctx)
}

// Wait blocks until all spawned jobs have finished. Used during shutdown.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// spawn registers a job and runs fn on a bounded background worker. fn's
// return value becomes the job result; a non-nil error marks the job failed.
func (e *Engine) spawn(kind string, fn func(ctx context.Context) (any, error)) string {
	id := e.jobs.Create(kind)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		e.sem <- struct{}{}
		defer func() { <-e.sem }()

		ctx, span := otel.Tracer("argon.engine").Start(context.Background(), "job.run",
			trace.WithAttributes(
				attribute.String("job.id", id),
				attribute.String("job.kind", kind),
			))
		defer span.End()

		e.jobs.Start(id)
		result, err := fn(ctx)
		if err != nil {
			e.logger.Warn("job failed", "job_id", id, "kind", kind, "error", err)
			e.jobs.Fail(id, err.Error())
			return
		}
		e.jobs.Complete(id, result)
	}()
	return id
}

// decodeImage accepts raw base64 or a data URI and returns the image bytes.
func decodeImage(source string) ([]byte, error) {
	if idx := strings.Index(source, ","); idx >= 0 && strings.HasPrefix(source, "data:") {
		source = source[idx+1:]
	}
	return base64.StdEncoding.DecodeString(source)
}

func encodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// resolveAdapters maps requested adapter names to on-disk filenames, skipping
// unknown ones with a warning so a bad name degrades instead of failing the
// whole generation.
func (e *Engine) resolveAdapters(names []string) []string {
	var out []string
	for _, n := range names {
		filename, err := e.assets.Resolve(n)
		if err != nil {
			e.logger.Warn("adapter not found, skipping", "adapter", n)
			continue
		}
		out = append(out, filename)
	}
	return out
}
