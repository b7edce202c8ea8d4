// Package service runs one leaderboard build: season, optional download,
// export discovery, concurrent loading, folding and writing.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/okian/discleague/internal/adapters/download"
	"github.com/okian/discleague/internal/adapters/output"
	"github.com/okian/discleague/internal/adapters/source"
	"github.com/okian/discleague/internal/adapters/worker"
	"github.com/okian/discleague/internal/config"
	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/results"
	"github.com/okian/discleague/internal/domain/standings"
	"github.com/okian/discleague/pkg/logger"
	"github.com/okian/discleague/pkg/metrics"
)

// ErrMissingExport marks a season date with no export file.
var ErrMissingExport = errors.New("no export for scheduled date")

// Report summarises a run.
type Report struct {
	RunID       string
	OutputPath  string
	Events      int // configured season events
	Files       int // dated export files found
	Downloaded  int
	Rejected    []source.Rejected
	Standings   standings.Standings
	Diagnostics []results.Diagnostic // download, discovery and loading problems, then the builder's
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager shared by every stage.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithHTTPClient sets the client used to download exports.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithLoader replaces the export file loader.
func WithLoader(l worker.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// Service builds season standings from configuration.
type Service struct {
	cfg        *config.Config
	logger     logger.Logger
	metrics    *metrics.Manager
	httpClient *http.Client
	loader     worker.Loader
}

// New validates cfg and constructs a Service.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:     cfg,
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Component("service")
	}
	if s.loader == nil {
		s.loader = source.NewLoader(source.WithSheet(cfg.SheetName))
	}
	return s, nil
}

// Run performs one build. Only an unreadable season, an exports folder that
// exists but cannot be listed, a failed output write or cancellation return
// an error; a missing exports folder counts as no exports. every other
// problem is reported as a diagnostic and the run continues.
func (s *Service) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString(), OutputPath: s.cfg.OutputPath}
	log := s.logger.With(logger.String("run_id", report.RunID))
	start := time.Now()

	events, err := config.LoadSeason(ctx, s.cfg.SeasonPath, s.cfg.DateLayout)
	if err != nil {
		return report, err
	}
	report.Events = len(events)
	dates := standings.SeasonDates(events)
	log.Info(ctx, "season loaded",
		logger.String("file", s.cfg.SeasonPath),
		logger.Int("events", len(events)),
		logger.Int("dates", len(dates)),
	)

	if s.cfg.Download {
		if err := s.download(ctx, log, events, &report); err != nil {
			return report, err
		}
	}

	files, rejected, err := source.Discover(s.cfg.ExportsDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No folder yet means no exports: every date is DNP and the table is still written.
		report.Diagnostics = append(report.Diagnostics, results.Diagnostic{Err: err})
		s.metrics.RecordEventSkipped(metrics.ReasonUnreadable)
		log.Warn(ctx, "exports folder missing", logger.String("dir", s.cfg.ExportsDir), logger.Error(err))
	case err != nil:
		return report, err
	}
	report.Files = len(files)
	report.Rejected = rejected
	for _, r := range rejected {
		s.metrics.RecordEventSkipped(metrics.ReasonBadFileName)
		log.Warn(ctx, "export ignored", logger.String("file", r.Path), logger.Error(r.Err))
	}

	scheduled, unscheduled := partition(files, dates)
	s.diagnoseMissing(ctx, log, dates, scheduled, &report)

	loaded := worker.NewPool(s.loader,
		worker.WithWorkers(s.cfg.Workers),
		worker.WithLogger(log.Named("worker-pool")),
	).LoadAll(ctx, scheduled)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run cancelled: %w", err)
	}

	inputs := make([]standings.Input, 0, len(files))
	for _, r := range loaded {
		if r.Err != nil {
			report.Diagnostics = append(report.Diagnostics, results.Diagnostic{Date: r.File.Date, Err: r.Err})
			s.metrics.RecordEventSkipped(metrics.ReasonUnreadable)
			log.Warn(ctx, "export unreadable", logger.String("file", r.File.Path), logger.Error(r.Err))
			continue
		}
		inputs = append(inputs, standings.Input{Date: r.File.Date, Source: r.File.Path, Table: r.Table})
	}
	// Unscheduled files are never read; the builder reports them.
	for _, f := range unscheduled {
		inputs = append(inputs, standings.Input{Date: f.Date, Source: f.Path})
	}

	builder := standings.NewBuilder(
		standings.WithTopN(s.cfg.TopN),
		standings.WithCalculator(s.cfg.PointsTable()),
		standings.WithLogger(log.Named("standings")),
		standings.WithMetrics(s.metrics),
	)
	st, err := builder.Build(ctx, inputs, dates)
	if err != nil {
		return report, err
	}
	report.Standings = st
	report.Diagnostics = append(report.Diagnostics, st.Diagnostics...)

	w := output.NewWriter(output.WithDateLayout(s.cfg.HeaderDateLayout))
	if err := w.WriteFile(s.cfg.OutputPath, st.Dates, st.Rows); err != nil {
		return report, err
	}

	if s.cfg.MetricsPath != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsPath); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.String("file", s.cfg.MetricsPath), logger.Error(err))
		}
	}

	log.Info(ctx, "standings written",
		logger.String("file", s.cfg.OutputPath),
		logger.Int("players", len(st.Rows)),
		logger.Int("folded", st.Folded),
		logger.Int("skipped", st.Skipped),
		logger.Int("diagnostics", len(report.Diagnostics)),
		logger.Int("ms", int(time.Since(start).Milliseconds())),
	)
	return report, nil
}

func (s *Service) download(ctx context.Context, log logger.Logger, events []model.Event, report *Report) error {
	opts := []download.Option{
		download.WithRate(s.cfg.DownloadRate),
		download.WithTimeout(time.Duration(s.cfg.DownloadTimeoutMS) * time.Millisecond),
		download.WithLogger(log.Named("download")),
		download.WithMetrics(s.metrics),
	}
	if s.httpClient != nil {
		opts = append(opts, download.WithHTTPClient(s.httpClient))
	}

	saved, failures, err := download.New(s.cfg.ExportsDir, opts...).FetchAll(ctx, events)
	if err != nil {
		return err
	}
	report.Downloaded = len(saved)
	for _, f := range failures {
		report.Diagnostics = append(report.Diagnostics, results.Diagnostic{Date: f.Event.Date, Err: f.Err})
	}
	return nil
}

func (s *Service) diagnoseMissing(ctx context.Context, log logger.Logger, dates []model.Date, files []source.ExportFile, report *Report) {
	have := make(map[model.Date]bool, len(files))
	for _, f := range files {
		have[f.Date] = true
	}
	for _, d := range dates {
		if have[d] {
			continue
		}
		report.Diagnostics = append(report.Diagnostics, results.Diagnostic{Date: d, Err: ErrMissingExport})
		s.metrics.RecordEventSkipped(metrics.ReasonMissingExport)
		log.Warn(ctx, "no export for date, every player is DNP", logger.String("date", d.String()))
	}
}

// partition splits files into those on a season date and the rest, keeping order.
func partition(files []source.ExportFile, dates []model.Date) (scheduled, unscheduled []source.ExportFile) {
	want := make(map[model.Date]bool, len(dates))
	for _, d := range dates {
		want[d] = true
	}
	for _, f := range files {
		if want[f.Date] {
			scheduled = append(scheduled, f)
		} else {
			unscheduled = append(unscheduled, f)
		}
	}
	return scheduled, unscheduled
}
