package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/deadweight/argon/pkg/domain"
)

const adapterExt = ".safetensors"

// Adapter describes one weight file present in the registry directory.
type Adapter struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Config holds the registry settings.
type Config struct {
	// Dir is the engine's adapter directory.
	Dir string
	// Token is sent as a bearer credential on catalog downloads when set.
	Token string
	// MaxRetries bounds download attempts after the first.
	MaxRetries uint64
	// HTTPClient overrides the default transport when set.
	HTTPClient *http.Client
}

// Registry tracks adapter weight files on disk and fetches missing ones.
// Downloads of the same filename are serialized.
type Registry struct {
	dir        string
	token      string
	maxRetries uint64
	http       *http.Client
	logger     *slog.Logger

	mu sync.Mutex
}

// NewRegistry creates a Registry over cfg.Dir.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Minute}
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	return &Registry{
		dir:        cfg.Dir,
		token:      cfg.Token,
		maxRetries: retries,
		http:       hc,
		logger:     logger,
	}
}

// List returns the adapters currently on disk, sorted by name.
func (r *Registry) List() ([]Adapter, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Adapter{}, nil
		}
		return nil, fmt.Errorf("read adapter dir: %w", err)
	}

	var out []Adapter
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), adapterExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Adapter{
			Name:      strings.TrimSuffix(e.Name(), adapterExt),
			Filename:  e.Name(),
			SizeBytes: info.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Resolve maps an adapter name (with or without extension) to the filename
// the workflow loader nodes expect. Unknown names yield ErrAdapterNotFound.
func (r *Registry) Resolve(name string) (string, error) {
	filename := name
	if !strings.HasSuffix(filename, adapterExt) {
		filename += adapterExt
	}
	if _, err := os.Stat(filepath.Join(r.dir, filename)); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrAdapterNotFound, name)
	}
	return filename, nil
}

// Download fetches an adapter from rawURL into the registry directory under
// filename, returning the resolved filename. An adapter already on disk is
// returned as-is without touching the network. Transient fetch failures are
// retried with exponential backoff.
func (r *Registry) Download(ctx context.Context, rawURL, filename string) (string, error) {
	if !strings.HasSuffix(filename, adapterExt) {
		filename += adapterExt
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dest := filepath.Join(r.dir, filename)
	if _, err := os.Stat(dest); err == nil {
		r.logger.Debug("adapter cached", "filename", filename)
		return filename, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create adapter dir: %w", err)
	}

	operation := func() error {
		return r.fetch(ctx, rawURL, dest)
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("download adapter %s: %w", filename, err)
	}

	r.logger.Info("adapter downloaded", "filename", filename, "url", rawURL)
	return filename, nil
}

func (r *Registry) fetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return backoff.Permanent(fmt.Errorf("catalog status %d", resp.StatusCode))
	default:
		return fmt.Errorf("catalog status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(r.dir, ".download-*")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write adapter: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
