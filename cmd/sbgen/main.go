package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/config"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/runs"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfg *config.Config

	profilesDir string
	targetsDir  string
	runsDBPath  string
	runsDSN     string
	zonesPath   string
	logLevel    string
)

func main() {
	cfg = config.Load()

	rootCmd := &cobra.Command{
		Use:          "sbgen",
		Short:        "Spatial benchmark data generator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles-dir", cfg.ProfilesDir, "Profiles directory")
	rootCmd.PersistentFlags().StringVar(&targetsDir, "targets-dir", cfg.TargetsDir, "Targets directory")
	rootCmd.PersistentFlags().StringVar(&runsDBPath, "runs-db", cfg.RunsDBPath, "Runs database path (SQLite)")
	rootCmd.PersistentFlags().StringVar(&runsDSN, "runs-dsn", cfg.RunsDSN, "Runs database DSN (PostgreSQL, overrides --runs-db)")
	rootCmd.PersistentFlags().StringVar(&zonesPath, "zones", cfg.ZonesPath, "Parquet file the zone table is read from")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(tablesCmd())
	rootCmd.AddCommand(spatialCmd())
	rootCmd.AddCommand(targetCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openRunRepo() (runs.Repository, error) {
	var repo runs.Repository
	if runsDSN != "" {
		repo = runs.NewPostgresRepository(runsDSN)
	} else {
		repo = runs.NewSQLiteRepository(runsDBPath)
	}
	if err := repo.Init(); err != nil {
		return nil, fmt.Errorf("failed to open runs database: %w", err)
	}
	return repo, nil
}

// newService wires a RunService from the persistent flags. The returned
// func closes the runs database.
func newService(logger *logging.Logger, workers int) (*app.RunService, func(), error) {
	runRepo, err := openRunRepo()
	if err != nil {
		return nil, nil, err
	}
	opts := app.Options{
		Workers:      workers,
		RunTimeout:   cfg.RunTimeout,
		TextPoolSize: cfg.TextPoolSize,
	}
	if opts.Workers <= 0 {
		opts.Workers = cfg.NumWorkers
	}
	if zonesPath != "" {
		opts.Zones = generators.NewParquetZoneSource(zonesPath)
	}
	svc := app.NewRunService(
		profiles.NewFileRepository(profilesDir),
		targets.NewFileRepository(targetsDir),
		runRepo,
		registry.DefaultTableRegistry(),
		metrics.New(),
		logger,
		opts,
	)
	return svc, func() { _ = runRepo.Close() }, nil
}

func isPath(arg string) bool {
	return strings.Contains(arg, "/") || strings.HasSuffix(arg, ".yaml") ||
		strings.HasSuffix(arg, ".yml") || strings.HasSuffix(arg, ".json")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printYAML(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func checkFormat(format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unsupported output format: %s (expected table or json)", format)
	}
	return nil
}
