package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/mmrzaf/sbgen/internal/app"
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/infra/targets/file"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/spatial"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// runFlags are shared by generate and plan.
type runFlags struct {
	tables      []string
	scaleFactor float64
	parts       int
	part        int
	format      string
	outputDir   string
	stdout      bool
	compress    bool
	target      string
	profile     string
	spatialPath string
	preset      string
	threads     int
	truncate    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.tables, "tables", "T", nil, "Tables to generate (names or aliases, default all)")
	fl.Float64VarP(&f.scaleFactor, "scale-factor", "s", 0, "Scale factor (default from profile, else 1)")
	fl.IntVar(&f.parts, "parts", 0, "Number of parts each table is split into (0 picks one per ~15MiB)")
	fl.IntVar(&f.part, "part", 0, "Generate only this part (1-based, requires --parts)")
	fl.StringVarP(&f.format, "format", "f", "", "Output format (tbl|csv|parquet)")
	fl.StringVarP(&f.outputDir, "output-dir", "d", "", "Directory for file output")
	fl.BoolVar(&f.stdout, "stdout", false, "Write file output to standard output")
	fl.BoolVar(&f.compress, "compress", false, "Snappy-compress tbl and csv output")
	fl.StringVar(&f.target, "target", "", "Target id or path to a target file")
	fl.StringVar(&f.profile, "profile", "", "Run profile id")
	fl.StringVar(&f.spatialPath, "config", "", "Spatial config YAML overriding trip and building geometry")
	fl.StringVar(&f.preset, "spatial-preset", "", "Named spatial preset (see 'sbgen spatial presets')")
	fl.IntVarP(&f.threads, "num-threads", "j", 0, "Parts generated concurrently per table")
	fl.BoolVar(&f.truncate, "truncate", false, "Truncate existing tables before inserting")
}

func (f *runFlags) request() (*domain.RunRequest, error) {
	req := &domain.RunRequest{
		ProfileID:   f.profile,
		Tables:      f.tables,
		ScaleFactor: f.scaleFactor,
		Parts:       f.parts,
		Part:        f.part,
		Format:      f.format,
		OutputDir:   f.outputDir,
		Compress:    f.compress,
		Workers:     f.threads,
	}
	if f.stdout {
		if f.outputDir != "" {
			return nil, fmt.Errorf("--stdout and --output-dir are mutually exclusive")
		}
		req.OutputDir = file.StdoutDir
	}
	if f.truncate {
		req.Mode = domain.TableModeTruncateThenInsert
	}

	if f.target != "" {
		if isPath(f.target) {
			t, err := targets.NewFileRepository(targetsDir).GetByPath(f.target)
			if err != nil {
				return nil, err
			}
			req.Target = t
		} else {
			req.TargetID = f.target
		}
	}

	sp, err := loadSpatial(f.spatialPath, f.preset)
	if err != nil {
		return nil, err
	}
	req.Spatial = sp
	return req, nil
}

// loadSpatial merges a spatial config file with a preset. The preset
// replaces whichever table its geometry belongs to.
func loadSpatial(path, preset string) (*spatial.File, error) {
	sf := &spatial.File{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spatial config: %w", err)
		}
		if err := yaml.Unmarshal(data, sf); err != nil {
			return nil, fmt.Errorf("failed to parse spatial config: %w", err)
		}
		if _, err := sf.Overrides(); err != nil {
			return nil, fmt.Errorf("invalid spatial config %s: %w", path, err)
		}
	}
	if preset != "" {
		c, err := spatial.Preset(preset)
		if err != nil {
			return nil, err
		}
		ic := spatial.Inline(c)
		if c.Geometry == spatial.PointGeom {
			sf.Trip = &ic
		} else {
			sf.Building = &ic
		}
	}
	if sf.Trip == nil && sf.Building == nil {
		return nil, nil
	}
	return sf, nil
}

func generateCmd() *cobra.Command {
	var flags runFlags
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate benchmark tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(logLevel)
			defer func() { _ = logger.Sync() }()

			req, err := flags.request()
			if err != nil {
				return err
			}
			svc, closeRepo, err := newService(logger, flags.threads)
			if err != nil {
				return err
			}
			defer closeRepo()

			plan, err := svc.PlanRun(req)
			if err != nil {
				return err
			}

			// With --stdout the data owns standard output.
			var info io.Writer = os.Stdout
			if flags.stdout {
				info = os.Stderr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cfg.RunTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
				defer cancel()
			}

			var onProgress exec.ProgressFunc
			var bar *progressbar.ProgressBar
			if !noProgress && plan.TotalRows > 0 {
				bar = newProgressBar(plan.TotalRows)
				onProgress = progressTo(bar)
			}

			run, err := svc.ExecuteRun(ctx, req, onProgress)
			if bar != nil {
				if err == nil {
					_ = bar.Finish()
				} else {
					_ = bar.Exit()
				}
			}
			if err != nil {
				if run != nil {
					fmt.Fprintf(os.Stderr, "Run %s failed\n", run.ID)
				}
				return err
			}

			fmt.Fprintf(info, "Run %s completed\n", run.ID)
			var stats domain.RunStats
			if len(run.Stats) > 0 && json.Unmarshal(run.Stats, &stats) == nil {
				fmt.Fprintf(info, "Tables: %d\n", stats.TablesGenerated)
				fmt.Fprintf(info, "Total rows: %d\n", stats.TotalRows)
				fmt.Fprintf(info, "Duration: %.2fs\n", stats.DurationSeconds)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func newProgressBar(total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

// progressTo sums the per-table row counts the executor reports.
func progressTo(bar *progressbar.ProgressBar) exec.ProgressFunc {
	var mu sync.Mutex
	rows := make(map[string]int64)
	return func(p exec.Progress) {
		mu.Lock()
		defer mu.Unlock()
		rows[p.Table] = p.Rows
		var sum int64
		for _, n := range rows {
			sum += n
		}
		bar.Describe("generating " + p.Table)
		_ = bar.Set64(sum)
	}
}

func planCmd() *cobra.Command {
	var flags runFlags
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the parts and row counts a generate run would produce",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			req, err := flags.request()
			if err != nil {
				return err
			}
			svc, closeRepo, err := newService(logging.NewLogger(logLevel), flags.threads)
			if err != nil {
				return err
			}
			defer closeRepo()

			plan, err := svc.PlanRun(req)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(plan)
			}
			printPlan(plan)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json)")
	return cmd
}

func printPlan(plan *app.RunPlan) {
	fmt.Printf("Target:       %s (%s)\n", plan.TargetName, plan.TargetKind)
	if plan.Format != "" {
		fmt.Printf("Format:       %s\n", plan.Format)
	}
	if plan.ProfileID != "" {
		fmt.Printf("Profile:      %s\n", plan.ProfileID)
	}
	fmt.Printf("Scale factor: %v\n", plan.ScaleFactor)
	fmt.Printf("Config hash:  %s\n\n", plan.ConfigHash)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tPARTS\tFIRST\tLAST\tROWS\tEST. BYTES")
	for _, tp := range plan.Tables {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", tp.Table, tp.Parts, tp.FirstPart, tp.LastPart, tp.TotalRows, tp.Bytes)
	}
	fmt.Fprintf(w, "TOTAL\t\t\t\t%d\t%d\n", plan.TotalRows, plan.EstimatedBytes)
	w.Flush()
}
