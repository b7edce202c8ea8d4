// Package config defines process and season configuration and their loaders.
//
// Process configuration is layered defaults -> optional YAML file -> env ->
// explicit overrides (CLI flags). Season configuration lists the league's
// events and is always read from a YAML file.
package config

import (
	"fmt"

	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/internal/domain/points"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SeasonPath is the YAML file listing the season's events.
	SeasonPath string `koanf:"season_path"`

	// ExportsDir holds one result export per event.
	ExportsDir string `koanf:"exports_dir"`

	// OutputPath is where the standings table is written.
	OutputPath string `koanf:"output_path"`

	// SheetName selects the sheet inside spreadsheet exports; empty means the first sheet.
	SheetName string `koanf:"sheet_name"`

	// TopN is how many results per player count toward the total.
	TopN int `koanf:"top_n"`

	// DateLayout resolves slash dates in the season file (day-first by default).
	DateLayout string `koanf:"date_layout"`

	// HeaderDateLayout renders the date columns of the output header.
	HeaderDateLayout string `koanf:"header_date_layout"`

	// Workers bounds how many exports are parsed concurrently.
	Workers int `koanf:"workers"`

	// Download fetches every event's export before building.
	Download bool `koanf:"download"`

	// DownloadRate caps export requests per second.
	DownloadRate float64 `koanf:"download_rate"`

	// DownloadTimeoutMS bounds a single export request.
	DownloadTimeoutMS int `koanf:"download_timeout_ms"`

	// MetricsPath, when set, receives a Prometheus textfile after the run.
	MetricsPath string `koanf:"metrics_path"`

	// PointsAwards and PointsFloor override the position -> points table.
	PointsAwards []int `koanf:"points_awards"`
	PointsFloor  int   `koanf:"points_floor"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		SeasonPath:        "seasons/season.yaml",
		ExportsDir:        "exports",
		OutputPath:        "leaderboard.csv",
		SheetName:         "",
		TopN:              5,
		DateLayout:        model.DayFirstLayout,
		HeaderDateLayout:  model.HeaderLayout,
		Workers:           1,
		Download:          false,
		DownloadRate:      1,
		DownloadTimeoutMS: 30_000,
		PointsAwards:      points.NewTable().Awards(),
		PointsFloor:       points.NewTable().Floor(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.SeasonPath == "":
		return fmt.Errorf("%w: season_path must not be empty", ErrInvalidConfig)
	case c.ExportsDir == "":
		return fmt.Errorf("%w: exports_dir must not be empty", ErrInvalidConfig)
	case c.OutputPath == "":
		return fmt.Errorf("%w: output_path must not be empty", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top_n must be at least 1, got %d", ErrInvalidConfig, c.TopN)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.Download && c.DownloadRate <= 0:
		return fmt.Errorf("%w: download_rate must be positive", ErrInvalidConfig)
	case c.DateLayout == "" || c.HeaderDateLayout == "":
		return fmt.Errorf("%w: date layouts must not be empty", ErrInvalidConfig)
	}
	if err := points.Validate(c.PointsAwards, c.PointsFloor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// PointsTable builds the configured points table.
func (c *Config) PointsTable() *points.Table {
	return points.NewTable(points.WithAwards(c.PointsAwards), points.WithFloor(c.PointsFloor))
}
