package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deadweight/argon/pkg/graph"
	"github.com/deadweight/argon/pkg/telemetry"
)

const (
	// DefaultPollInterval is the delay between history polls.
	DefaultPollInterval = 1 * time.Second
	// DefaultExecTimeout bounds a single workflow execution.
	DefaultExecTimeout = 120 * time.Second
)

// Config holds the execution engine connection settings.
type Config struct {
	// BaseURL is the engine root, e.g. http://127.0.0.1:8188.
	BaseURL string
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
	// HTTPClient overrides the default transport when set.
	HTTPClient *http.Client
}

// Client submits workflow graphs to the execution engine and retrieves the
// produced artifacts. The zero value is not usable; construct with New.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// New creates a Client from cfg.
func New(cfg Config, logger *slog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		http:         hc,
		pollInterval: interval,
		logger:       logger,
	}
}

type submitResponse struct {
	PromptID string `json:"prompt_id"`
}

type historyEntry struct {
	Outputs map[string]struct {
		Images []imageRef `json:"images"`
	} `json:"outputs"`
}

type imageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Execute runs a workflow graph to completion and returns the first produced
// image artifact. A nil result means no artifact: engine unreachable, the
// execution failed, the deadline elapsed, or the workflow produced no images.
// Callers distinguish none of these; the failure is logged here.
func (c *Client) Execute(ctx context.Context, g graph.Graph, timeout time.Duration) []byte {
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}

	tracer := otel.Tracer("argon.comfy")
	ctx, span := tracer.Start(ctx, "workflow.execute",
		trace.WithAttributes(attribute.Int("workflow.nodes", len(g))))
	defer span.End()

	start := time.Now()
	data, outcome := c.execute(ctx, g, timeout)
	span.SetAttributes(attribute.String("workflow.outcome", outcome))
	telemetry.RecordWorkflow(ctx, telemetry.WorkflowMetrics{
		Outcome:  outcome,
		Nodes:    len(g),
		Duration: time.Since(start),
	})
	return data
}

func (c *Client) execute(ctx context.Context, g graph.Graph, timeout time.Duration) ([]byte, string) {
	id, err := c.submit(ctx, g)
	if err != nil {
		c.logger.Warn("workflow submit failed", "error", err)
		return nil, "submit_failed"
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		entry, done, err := c.history(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Warn("workflow canceled", "prompt_id", id)
				return nil, "canceled"
			}
			// Transient poll errors are expected while the engine is busy.
			c.logger.Debug("history poll failed", "prompt_id", id, "error", err)
		} else if done {
			img, ok := firstImage(entry)
			if !ok {
				c.logger.Warn("workflow completed without images", "prompt_id", id)
				return nil, "no_images"
			}
			data, err := c.fetch(ctx, img)
			if err != nil {
				c.logger.Warn("artifact fetch failed", "prompt_id", id, "error", err)
				return nil, "fetch_failed"
			}
			return data, "ok"
		}

		select {
		case <-ctx.Done():
			c.logger.Warn("workflow canceled", "prompt_id", id)
			return nil, "canceled"
		case <-time.After(c.pollInterval):
		}
	}

	c.logger.Warn("workflow timed out", "prompt_id", id, "timeout", timeout)
	return nil, "timeout"
}

func (c *Client) submit(ctx context.Context, g graph.Graph) (string, error) {
	body, err := json.Marshal(map[string]any{"prompt": g})
	if err != nil {
		return "", fmt.Errorf("encode workflow: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("submit status %d", resp.StatusCode)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if sr.PromptID == "" {
		return "", fmt.Errorf("submit response missing prompt id")
	}
	return sr.PromptID, nil
}

// history returns the completed execution record for id, or done=false while
// the engine has not listed it yet.
func (c *Client) history(ctx context.Context, id string) (historyEntry, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+id, nil)
	if err != nil {
		return historyEntry{}, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return historyEntry{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return historyEntry{}, false, fmt.Errorf("history status %d", resp.StatusCode)
	}

	var hist map[string]historyEntry
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return historyEntry{}, false, fmt.Errorf("decode history: %w", err)
	}

	entry, ok := hist[id]
	return entry, ok, nil
}

func (c *Client) fetch(ctx context.Context, img imageRef) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", img.Filename)
	q.Set("subfolder", img.Subfolder)
	q.Set("type", img.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("view status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// firstImage returns the first image across node outputs, walking nodes in
// id order so the pick is deterministic.
func firstImage(entry historyEntry) (imageRef, bool) {
	ids := make([]string, 0, len(entry.Outputs))
	for id := range entry.Outputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		if imgs := entry.Outputs[id].Images; len(imgs) > 0 {
			return imgs[0], true
		}
	}
	return imageRef{}, false
}

// Health reports whether the engine answers its stats endpoint.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitReady polls Health until it succeeds or ctx expires.
func (c *Client) WaitReady(ctx context.Context) error {
	for {
		if c.Health(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("engine not ready: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
