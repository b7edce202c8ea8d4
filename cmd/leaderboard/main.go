// Command leaderboard builds the season standings table from UDisc exports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	app "github.com/okian/discleague/internal/app"
	"github.com/okian/discleague/internal/config"
	"github.com/okian/discleague/pkg/logger"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := logger.InitWithWriter(stderr); err != nil {
		_, _ = fmt.Fprintln(stderr, "failed to initialize logging: "+err.Error())
		return exitError
	}
	log := logger.Get()

	// .env feeds the LEADERBOARD_ variables; it is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn(ctx, "ignoring unreadable .env", logger.Error(err))
	}

	overrides, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	// Load configuration (defaults -> optional file -> env -> flags)
	cfg, err := config.Load(ctx, overrides)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return exitError
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := app.New(cfg, app.WithLogger(log.Named("service")))
	if err != nil {
		log.Error(ctx, "failed to create service", logger.Error(err))
		return exitError
	}

	report, err := svc.Run(ctx)
	if err != nil {
		log.Error(ctx, "leaderboard build failed", logger.String("run_id", report.RunID), logger.Error(err))
		return exitError
	}

	log.Info(ctx, "done",
		logger.String("run_id", report.RunID),
		logger.String("output", report.OutputPath),
		logger.Int("players", len(report.Standings.Rows)),
		logger.Int("diagnostics", len(report.Diagnostics)),
	)
	return exitOK
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"season":    "season_path",
	"exports":   "exports_dir",
	"output":    "output_path",
	"sheet":     "sheet_name",
	"top":       "top_n",
	"workers":   "workers",
	"download":  "download",
	"metrics":   "metrics_path",
	"log-level": "log_level",
}

// parseFlags returns only the flags given on the command line, keyed by
// configuration key, so unset flags never mask file or env values.
func parseFlags(args []string, stderr io.Writer) (map[string]any, error) {
	def := config.New()
	fset := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	fset.SetOutput(stderr)

	fset.String("season", def.SeasonPath, "season YAML listing event URLs and dates")
	fset.String("exports", def.ExportsDir, "folder holding one export per event")
	fset.String("output", def.OutputPath, "standings table to write")
	fset.String("sheet", def.SheetName, "sheet to read from spreadsheet exports (default first sheet)")
	fset.Int("top", def.TopN, "results per player counted toward the total")
	fset.Int("workers", def.Workers, "exports parsed concurrently")
	fset.Bool("download", def.Download, "download every event's export before building")
	fset.String("metrics", def.MetricsPath, "write a Prometheus textfile here after the run")
	fset.String("log-level", def.LogLevel, "debug, info, warn or error")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", fset.Args())
		fset.Usage()
		return nil, fmt.Errorf("unexpected arguments")
	}

	overrides := make(map[string]any)
	fset.Visit(func(f *flag.Flag) {
		if g, ok := f.Value.(flag.Getter); ok {
			overrides[flagKeys[f.Name]] = g.Get()
		}
	})
	return overrides, nil
}
