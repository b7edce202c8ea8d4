package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/discleague/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 5)
				convey.So(cfg.ExportsDir, convey.ShouldEqual, "exports")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LEADERBOARD_TOP_N", "6")
			_ = os.Setenv("LEADERBOARD_EXPORTS_DIR", "/data/exports")
			_ = os.Setenv("LEADERBOARD_SHEET_NAME", "Pool White - Round 1")
			_ = os.Setenv("LEADERBOARD_DOWNLOAD", "true")

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 6)
				convey.So(cfg.ExportsDir, convey.ShouldEqual, "/data/exports")
				convey.So(cfg.SheetName, convey.ShouldEqual, "Pool White - Round 1")
				convey.So(cfg.Download, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file and env", func() {
			tmpFile := createTempConfigFile(t, `
top_n: 4
output_path: season.csv
workers: 3
points_awards: [10, 6, 4]
points_floor: 0
`)
			_ = os.Setenv("LEADERBOARD_CONFIG", tmpFile)
			_ = os.Setenv("LEADERBOARD_WORKERS", "8")

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then env overrides the file and the file overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TopN, convey.ShouldEqual, 4)
				convey.So(cfg.OutputPath, convey.ShouldEqual, "season.csv")
				convey.So(cfg.Workers, convey.ShouldEqual, 8)
				convey.So(cfg.PointsAwards, convey.ShouldResemble, []int{10, 6, 4})
				convey.So(cfg.PointsFloor, convey.ShouldEqual, 0)
				convey.So(cfg.ExportsDir, convey.ShouldEqual, "exports")
			})
		})

		convey.Convey("When overrides are given", func() {
			_ = os.Setenv("LEADERBOARD_OUTPUT_PATH", "env.csv")

			cfg, err := config.Load(ctx, map[string]any{"output_path": "flag.csv", "top_n": 3})

			convey.Convey("Then they win over env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputPath, convey.ShouldEqual, "flag.csv")
				convey.So(cfg.TopN, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("LEADERBOARD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("LEADERBOARD_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("LEADERBOARD_TOP_N", "five")

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("LEADERBOARD_TOP_N", "0")

			cfg, err := config.Load(ctx, nil)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "top_n")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"LEADERBOARD_CONFIG",
		"LEADERBOARD_TOP_N",
		"LEADERBOARD_EXPORTS_DIR",
		"LEADERBOARD_SHEET_NAME",
		"LEADERBOARD_DOWNLOAD",
		"LEADERBOARD_WORKERS",
		"LEADERBOARD_OUTPUT_PATH",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "leaderboard-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
