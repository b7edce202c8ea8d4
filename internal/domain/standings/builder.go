package standings

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/discleague/internal/domain/dedupe"
	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/points"
	"github.com/okian/discleague/internal/domain/results"
	"github.com/okian/discleague/internal/domain/types"
	"github.com/okian/discleague/pkg/logger"
	"github.com/okian/discleague/pkg/metrics"
)

// DefaultTopN is how many results per player count toward the season total.
const DefaultTopN = 5

// Event-level reasons a loaded table is not folded.
var (
	ErrUnscheduled   = errors.New("date is not a scheduled season date")
	ErrDuplicateDate = errors.New("date already folded from another source")
)

// Input is one event's loaded result table.
type Input struct {
	Date   model.Date
	Source string // file the table was read from, for diagnostics
	Table  model.Table
}

// Standings is the outcome of a build.
type Standings struct {
	Dates       []model.Date
	Rows        []types.Row
	Folded      int
	Skipped     int
	Diagnostics []results.Diagnostic
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithTopN sets how many results per player count.
func WithTopN(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.topN = n
		}
	}
}

// WithCalculator sets the points calculator handed to the result reader.
func WithCalculator(c points.Calculator) Option {
	return func(b *Builder) {
		if c != nil {
			b.calc = c
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// Builder folds event results into ranked season standings. A Builder holds
// no state between builds.
type Builder struct {
	topN    int
	calc    points.Calculator
	logger  logger.Logger
	metrics *metrics.Manager
}

// NewBuilder creates a Builder with top-5 retention and the standard points table.
// Without WithLogger it logs through the global logger when one is initialized
// and discards diagnostics otherwise.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		topN:    DefaultTopN,
		calc:    points.NewTable(),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Component("standings")
	}
	return b
}

// TopN returns the retention limit.
func (b *Builder) TopN() int { return b.topN }

// Build reads every input, folds each player's result into their aggregate,
// applies top-N retention once all inputs are folded, and returns one row
// per player ordered by total descending. Players with equal totals keep the
// order in which they first appeared. seasonDates fixes the date columns;
// inputs for any other date, or for a date already folded, are skipped.
func (b *Builder) Build(ctx context.Context, inputs []Input, seasonDates []model.Date) (Standings, error) {
	start := time.Now()
	out := Standings{Dates: slices.Clone(seasonDates)}

	scheduled := make(map[model.Date]bool, len(seasonDates))
	for _, d := range seasonDates {
		scheduled[d] = true
	}

	reader := results.NewReader(results.WithCalculator(b.calc))
	folded := dedupe.NewInMemoryDeduper()
	players := newRoster()

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return Standings{}, fmt.Errorf("build cancelled: %w", err)
		}

		skip := func(reason string, err error) {
			out.Skipped++
			out.Diagnostics = append(out.Diagnostics, results.Diagnostic{Date: in.Date, Err: err})
			b.metrics.RecordEventSkipped(reason)
			b.logger.Warn(ctx, "event skipped",
				logger.String("date", in.Date.String()),
				logger.String("file", in.Source),
				logger.Error(err),
			)
		}

		if !scheduled[in.Date] {
			skip(metrics.ReasonUnscheduled, ErrUnscheduled)
			continue
		}
		if first, seen := folded.SeenAndRecord(ctx, in.Date.Key(), in.Source); seen {
			skip(metrics.ReasonDuplicateDate, fmt.Errorf("%w: %s", ErrDuplicateDate, first))
			continue
		}

		rows, diags, err := reader.Read(in.Date, in.Table)
		if err != nil {
			// Another source for the same date may still be usable.
			folded.Unrecord(ctx, in.Date.Key())
			skip(metrics.ReasonSchemaMismatch, err)
			continue
		}
		for _, d := range diags {
			reason := metrics.ReasonCoercion
			if errors.Is(d, points.ErrInvalidPosition) {
				reason = metrics.ReasonInvalidPos
			}
			b.metrics.RecordRowSkipped(reason)
			b.logger.Warn(ctx, "row skipped",
				logger.String("date", in.Date.String()),
				logger.String("file", in.Source),
				logger.Int("row", d.Row),
				logger.Error(d.Err),
			)
		}
		out.Diagnostics = append(out.Diagnostics, diags...)

		for _, r := range rows {
			players.get(r.Name).Record(in.Date, r.Points, r.Username, r.PDGANumber)
		}
		out.Folded++
		b.metrics.RecordEventFolded()
		b.logger.Info(ctx, "event folded",
			logger.String("date", in.Date.String()),
			logger.String("file", in.Source),
			logger.Int("players", len(rows)),
		)
	}

	out.Rows = make([]types.Row, 0, len(players.order))
	for _, p := range players.order {
		p.FinalizeRetention(b.topN)
		out.Rows = append(out.Rows, p.Row(seasonDates))
	}
	slices.SortStableFunc(out.Rows, func(x, y types.Row) int {
		return cmp.Compare(y.Total, x.Total)
	})

	b.metrics.UpdatePlayers(len(out.Rows))
	b.metrics.RecordBuildDuration(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// SeasonDates returns the distinct dates of events in chronological order.
func SeasonDates(events []model.Event) []model.Date {
	dates := make([]model.Date, 0, len(events))
	for _, e := range events {
		dates = append(dates, e.Date)
	}
	slices.SortFunc(dates, model.Date.Compare)
	return slices.Compact(dates)
}
