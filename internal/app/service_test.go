package service_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	service "github.com/okian/discleague/internal/app"
	"github.com/okian/discleague/internal/config"
	"github.com/okian/discleague/internal/domain/standings"
	"github.com/okian/discleague/pkg/logger"
	"github.com/okian/discleague/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
	m.Run()
}

const season = `events:
  round-1:
    url: https://udisc.com/events/round-1/leaderboard
    date: "06/07/2025"
  round-2:
    url: https://udisc.com/events/round-2/leaderboard
    date: "13/07/2025"
  round-3:
    url: https://udisc.com/events/round-3/leaderboard
    date: "20/07/2025"
`

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// league lays out a season with two played rounds, one missing round, one
// unscheduled export and one undated file.
func league(t *testing.T) *config.Config {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "season.yaml"), season)
	exports := filepath.Join(dir, "exports")
	write(t, filepath.Join(exports, "event_07-06-2025.csv"),
		"name,position,position_raw,event_total_score,username\n"+
			"Alice,,1,48,alice\n"+
			"Bob,,2,50,bob\n"+
			"Alice,,3,55,alice\n"+
			"Carl,DUP,1,40,\n")
	write(t, filepath.Join(exports, "event_07-13-2025.csv"),
		"name,position_raw,event_total_score\n"+
			"Bob,1,45\n"+
			"Alice,2,47\n")
	write(t, filepath.Join(exports, "event_07-27-2025.csv"),
		"name,position_raw,event_total_score\nDora,1,40\n")
	write(t, filepath.Join(exports, "notes-week.csv"), "")

	cfg := config.New()
	cfg.SeasonPath = filepath.Join(dir, "season.yaml")
	cfg.ExportsDir = exports
	cfg.OutputPath = filepath.Join(dir, "out", "leaderboard.csv")
	cfg.Workers = 2
	return cfg
}

func run(cfg *config.Config) (service.Report, error) {
	svc, err := service.New(cfg, service.WithMetrics(metrics.NewManager()))
	if err != nil {
		return service.Report{}, err
	}
	return svc.Run(context.Background())
}

func TestNew(t *testing.T) {
	Convey("Given invalid configuration", t, func() {
		_, err := service.New(nil)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)

		cfg := config.New()
		cfg.TopN = 0
		_, err = service.New(cfg)
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a season with exports on disk", t, func() {
		cfg := league(t)

		Convey("When the standings are built", func() {
			report, err := run(cfg)

			Convey("Then the table is written with every season date", func() {
				So(err, ShouldBeNil)
				So(report.RunID, ShouldNotBeEmpty)
				body, readErr := os.ReadFile(cfg.OutputPath)
				So(readErr, ShouldBeNil)
				So(string(body), ShouldEqual,
					"name,username,pdga_number,06/07/2025,13/07/2025,20/07/2025,total_score\n"+
						"Alice,alice,,14,11,DNP,25\n"+
						"Bob,bob,,11,14,DNP,25\n")
			})

			Convey("Then every problem is reported without stopping the run", func() {
				So(report.Events, ShouldEqual, 3)
				So(report.Files, ShouldEqual, 3)
				So(report.Rejected, ShouldHaveLength, 1)
				So(report.Standings.Folded, ShouldEqual, 2)

				var missing, unscheduled int
				for _, d := range report.Diagnostics {
					switch {
					case errors.Is(d, service.ErrMissingExport):
						missing++
						So(d.Date.Key(), ShouldEqual, "07-20-2025")
					case errors.Is(d, standings.ErrUnscheduled):
						unscheduled++
						So(d.Date.Key(), ShouldEqual, "07-27-2025")
					}
				}
				So(missing, ShouldEqual, 1)
				So(unscheduled, ShouldEqual, 1)
			})
		})

		Convey("When only the best result counts", func() {
			cfg.TopN = 1
			_, err := run(cfg)

			Convey("Then the other earned result is marked DUP", func() {
				So(err, ShouldBeNil)
				body, _ := os.ReadFile(cfg.OutputPath)
				So(string(body), ShouldEqual,
					"name,username,pdga_number,06/07/2025,13/07/2025,20/07/2025,total_score\n"+
						"Alice,alice,,14,DUP,DNP,14\n"+
						"Bob,bob,,DUP,14,DNP,14\n")
			})
		})

		Convey("When an export cannot be parsed", func() {
			write(t, filepath.Join(cfg.ExportsDir, "event_07-13-2025.xlsx"), "not a workbook")
			report, err := run(cfg)

			Convey("Then it is reported and the readable export for the date is used", func() {
				So(err, ShouldBeNil)
				So(report.Standings.Folded, ShouldEqual, 2)
				var unreadable int
				for _, d := range report.Diagnostics {
					if d.Date.Key() == "07-13-2025" && d.Err != nil && d.Row == 0 {
						unreadable++
					}
				}
				So(unreadable, ShouldEqual, 1)
			})
		})

		Convey("When a metrics textfile is requested", func() {
			cfg.MetricsPath = filepath.Join(t.TempDir(), "leaderboard.prom")
			_, err := run(cfg)

			Convey("Then the run's counters are written", func() {
				So(err, ShouldBeNil)
				body, readErr := os.ReadFile(cfg.MetricsPath)
				So(readErr, ShouldBeNil)
				So(string(body), ShouldContainSubstring, "discleague_standings_events_folded_total 2")
				So(string(body), ShouldContainSubstring, `reason="missing_export"`)
			})
		})

		Convey("When the exports folder does not exist", func() {
			cfg.ExportsDir = filepath.Join(t.TempDir(), "missing")
			report, err := run(cfg)

			Convey("Then a header-only table is written and every date is missing", func() {
				So(err, ShouldBeNil)
				body, readErr := os.ReadFile(cfg.OutputPath)
				So(readErr, ShouldBeNil)
				So(string(body), ShouldEqual, "name,username,pdga_number,06/07/2025,13/07/2025,20/07/2025,total_score\n")

				var folder, missing int
				for _, d := range report.Diagnostics {
					switch {
					case errors.Is(d, fs.ErrNotExist):
						folder++
					case errors.Is(d, service.ErrMissingExport):
						missing++
					}
				}
				So(folder, ShouldEqual, 1)
				So(missing, ShouldEqual, 3)
			})
		})

		Convey("When the exports path is a file", func() {
			cfg.ExportsDir = filepath.Join(t.TempDir(), "exports")
			write(t, cfg.ExportsDir, "")
			_, err := run(cfg)

			Convey("Then the run fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the season file does not exist", func() {
			cfg.SeasonPath = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := run(cfg)

			Convey("Then the run fails", func() {
				So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			svc, err := service.New(cfg, service.WithMetrics(metrics.NewManager()))
			So(err, ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = svc.Run(ctx)

			Convey("Then the run stops and no table is written", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				_, statErr := os.Stat(cfg.OutputPath)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}

func workbook(t *testing.T, rows [][]any) []byte {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRunWithDownload(t *testing.T) {
	Convey("Given a season whose exports are served over HTTP", t, func() {
		round1 := workbook(t, [][]any{
			{"name", "position", "position_raw", "event_total_score", "pdga_number"},
			{"Alice", "", 1, 48, 12345},
			{"Bob", "", 2, 50, ""},
		})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events/round-1/leaderboard/export" {
				http.Error(w, "gone", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write(round1)
		}))
		defer srv.Close()

		dir := t.TempDir()
		write(t, filepath.Join(dir, "season.yaml"), `events:
  - url: `+srv.URL+`/events/round-1/leaderboard
    date: "06/07/2025"
  - url: `+srv.URL+`/events/round-2/leaderboard
    date: "13/07/2025"
`)
		cfg := config.New()
		cfg.SeasonPath = filepath.Join(dir, "season.yaml")
		cfg.ExportsDir = filepath.Join(dir, "exports")
		cfg.OutputPath = filepath.Join(dir, "leaderboard.csv")
		cfg.Download = true
		cfg.DownloadRate = 100

		svc, err := service.New(cfg,
			service.WithMetrics(metrics.NewManager()),
			service.WithHTTPClient(srv.Client()),
		)
		So(err, ShouldBeNil)
		report, err := svc.Run(context.Background())

		Convey("Then downloaded exports are folded and failed ones reported", func() {
			So(err, ShouldBeNil)
			So(report.Downloaded, ShouldEqual, 1)
			body, readErr := os.ReadFile(cfg.OutputPath)
			So(readErr, ShouldBeNil)
			So(string(body), ShouldEqual,
				"name,username,pdga_number,06/07/2025,13/07/2025,total_score\n"+
					"Alice,,12345,14,DNP,14\n"+
					"Bob,,,11,DNP,11\n")

			var failed, missing int
			for _, d := range report.Diagnostics {
				if d.Date.Key() != "07-13-2025" {
					continue
				}
				if errors.Is(d, service.ErrMissingExport) {
					missing++
				} else {
					failed++
				}
			}
			So(failed, ShouldEqual, 1)
			So(missing, ShouldEqual, 1)
		})
	})
}
