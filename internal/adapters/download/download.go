// Package download fetches UDisc leaderboard exports into the exports folder.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/discleague/internal/adapters/source"
	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/pkg/logger"
	"github.com/okian/discleague/pkg/metrics"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "discleague/1.0"
	exportSuffix     = "/export"
)

// ErrDownload marks an export that could not be fetched or stored.
var ErrDownload = errors.New("export download failed")

// Option applies a configuration option to the Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the HTTP client. The client is used as given;
// WithTimeout does not apply to it.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(t time.Duration) Option {
	return func(d *Downloader) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithRate limits requests to perSecond. Zero or less disables the limit.
func WithRate(perSecond float64) Option {
	return func(d *Downloader) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			d.limiter = nil
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(d *Downloader) {
		if m != nil {
			d.metrics = m
		}
	}
}

// Failure is an event whose export could not be stored.
type Failure struct {
	Event model.Event
	Err   error
}

// Downloader stores one export per event as event_<MM-DD-YYYY>.xlsx.
type Downloader struct {
	dir       string
	client    *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
	metrics   *metrics.Manager
}

// New creates a Downloader writing into dir, limited to one request per second.
func New(dir string, opts ...Option) *Downloader {
	d := &Downloader{
		dir:       dir,
		timeout:   defaultTimeout,
		limiter:   rate.NewLimiter(1, 1),
		userAgent: defaultUserAgent,
		metrics:   metrics.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	if d.logger == nil {
		d.logger = logger.Component("download")
	}
	return d
}

// ExportURL returns the export address for an event leaderboard URL.
func ExportURL(leaderboard string) string {
	u := strings.TrimRight(strings.TrimSpace(leaderboard), "/")
	if strings.HasSuffix(u, exportSuffix) {
		return u
	}
	return u + exportSuffix
}

// FetchAll downloads every event in order. A failed event does not stop the
// rest; it is returned as a Failure. Only an unusable exports folder or a
// cancelled context is an error.
func (d *Downloader) FetchAll(ctx context.Context, events []model.Event) ([]string, []Failure, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create exports folder: %w", err)
	}

	var (
		saved    []string
		failures []Failure
	)
	for _, e := range events {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return saved, failures, fmt.Errorf("download cancelled: %w", err)
			}
		}
		path, err := d.Fetch(ctx, e)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return saved, failures, fmt.Errorf("download cancelled: %w", ctxErr)
			}
			failures = append(failures, Failure{Event: e, Err: err})
			d.metrics.RecordDownload("error")
			d.logger.Warn(ctx, "export download failed",
				logger.String("event", e.Key),
				logger.String("url", e.URL),
				logger.Error(err),
			)
			continue
		}
		saved = append(saved, path)
		d.metrics.RecordDownload("ok")
		d.logger.Info(ctx, "export downloaded",
			logger.String("event", e.Key),
			logger.String("file", path),
		)
	}
	return saved, failures, nil
}

// Fetch downloads one event's export and returns the stored path. The file
// is written through a temporary name so a failed transfer never replaces a
// good export.
func (d *Downloader) Fetch(ctx context.Context, e model.Event) (string, error) {
	url := ExportURL(e.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownload, url, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", ErrDownload, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: GET %s: status %d", ErrDownload, url, resp.StatusCode)
	}

	path := filepath.Join(d.dir, source.FileName(e.Date, ".xlsx"))
	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: GET %s: %v", ErrDownload, url, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	return path, nil
}
