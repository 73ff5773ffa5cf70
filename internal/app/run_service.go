package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/hashing"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/runs"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/spatial"
	"github.com/mmrzaf/sbgen/internal/validation"
)

const (
	defaultScaleFactor = 1.0
	// progressInterval throttles progress writes to the run repository.
	progressInterval = time.Second
)

type Options struct {
	Workers      int
	BatchSize    int
	RunTimeout   time.Duration
	TextPoolSize int
	Zones        generators.ZoneSource
	// Stdout receives file output when a run's output dir is "-".
	Stdout io.Writer
}

type RunService struct {
	profileRepo profiles.Repository
	targetRepo  targets.Repository
	runRepo     runs.Repository
	tables      *registry.TableRegistry
	validator   *validation.Validator
	metrics     *metrics.Metrics
	logger      *logging.Logger
	opts        Options

	reference *pools.Provider
	cache     *spatial.Cache
	wg        sync.WaitGroup
}

func NewRunService(
	profileRepo profiles.Repository,
	targetRepo targets.Repository,
	runRepo runs.Repository,
	tables *registry.TableRegistry,
	m *metrics.Metrics,
	logger *logging.Logger,
	opts Options,
) *RunService {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RunService{
		profileRepo: profileRepo,
		targetRepo:  targetRepo,
		runRepo:     runRepo,
		tables:      tables,
		validator:   validation.NewValidator(tables),
		metrics:     m,
		logger:      logger.WithComponent("runs"),
		opts:        opts,
		reference:   pools.NewProvider(opts.TextPoolSize),
		cache:       spatial.NewCache(),
	}
}

func (s *RunService) Validator() *validation.Validator { return s.validator }

func (s *RunService) Tables() *registry.TableRegistry { return s.tables }

// RunPlan is what a request resolves to, without generating anything.
type RunPlan struct {
	ProfileID      string           `json:"profile_id,omitempty"`
	TargetKind     string           `json:"target_kind"`
	TargetName     string           `json:"target_name,omitempty"`
	Format         string           `json:"format,omitempty"`
	ScaleFactor    float64          `json:"scale_factor"`
	Parts          int              `json:"parts"`
	Part           int              `json:"part,omitempty"`
	Tables         []exec.TablePlan `json:"tables"`
	TotalRows      int64            `json:"total_rows"`
	EstimatedBytes int64            `json:"estimated_bytes"`
	ConfigHash     string           `json:"config_hash"`
}

// resolvedRun merges a request with its profile and target.
type resolvedRun struct {
	profile  *domain.Profile
	target   *domain.TargetConfig
	output   outputSettings
	spatial  *spatial.File
	plan     exec.Plan
	tables   []exec.TablePlan
	hash     string
	tableIDs []string
}

func firstNonZero[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

func (s *RunService) resolve(req *domain.RunRequest) (*resolvedRun, error) {
	if err := s.validator.ValidateRunRequest(req); err != nil {
		return nil, err
	}

	r := &resolvedRun{profile: &domain.Profile{}}
	if req.ProfileID != "" {
		p, err := s.profileRepo.Get(req.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		if err := s.validator.ValidateProfile(p); err != nil {
			return nil, err
		}
		r.profile = p
	}

	var base *domain.TargetConfig
	switch {
	case req.TargetID != "":
		t, err := s.targetRepo.Get(req.TargetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load target: %w", err)
		}
		if err := s.validator.ValidateTarget(t); err != nil {
			return nil, err
		}
		base = t
	case req.Target != nil:
		base = req.Target
	}

	format := firstNonZero(req.Format, r.profile.Format)
	r.target = resolveTargetForRun(base, req.OutputDir, format)
	r.output = outputFor(r.target, outputSettings{
		Format:   format,
		Compress: req.Compress,
		Part:     req.Part,
		Stdout:   s.opts.Stdout,
	})

	names := req.Tables
	if len(names) == 0 {
		names = r.profile.Tables
	}
	entries, err := s.tables.Resolve(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrInvalidRequest, err)
	}
	for _, e := range entries {
		r.tableIDs = append(r.tableIDs, e.Name)
	}

	r.spatial = req.Spatial
	if r.spatial == nil {
		r.spatial = r.profile.Spatial
	}

	r.plan = exec.Plan{
		Tables:      entries,
		ScaleFactor: firstNonZero(req.ScaleFactor, r.profile.ScaleFactor, defaultScaleFactor),
		Parts:       firstNonZero(req.Parts, r.profile.Parts),
		Part:        req.Part,
		BatchSize:   s.opts.BatchSize,
		Workers:     firstNonZero(req.Workers, s.opts.Workers),
		Mode:        req.Mode,
	}
	if r.target.Kind == domain.TargetKindParquet {
		r.plan.MaxParts = exec.MaxParquetParts
	}
	r.tables, err = r.plan.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrInvalidRequest, err)
	}

	r.hash, err = hashing.HashRunConfig(r.tableIDs, r.plan.ScaleFactor, r.plan.Parts, s.opts.TextPoolSize, r.spatial)
	if err != nil {
		return nil, fmt.Errorf("failed to hash run config: %w", err)
	}
	return r, nil
}

func (s *RunService) PlanRun(req *domain.RunRequest) (*RunPlan, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	plan := &RunPlan{
		ProfileID:   r.profile.ID,
		TargetKind:  r.target.Kind,
		TargetName:  r.target.Name,
		ScaleFactor: r.plan.ScaleFactor,
		Parts:       r.plan.Parts,
		Part:        r.plan.Part,
		Tables:      r.tables,
		ConfigHash:  r.hash,
	}
	if r.target.Kind == domain.TargetKindFile || r.target.Kind == domain.TargetKindParquet {
		plan.Format = r.output.Format
	}
	for _, tp := range r.tables {
		plan.TotalRows += tp.TotalRows
		plan.EstimatedBytes += tp.Bytes
	}
	return plan, nil
}

func (s *RunService) newRun(r *resolvedRun) (*domain.Run, error) {
	run := &domain.Run{
		ProfileID:   r.profile.ID,
		ProfileName: r.profile.Name,
		TargetID:    r.target.ID,
		TargetName:  r.target.Name,
		TargetKind:  r.target.Kind,
		Tables:      r.tableIDs,
		ScaleFactor: r.plan.ScaleFactor,
		Parts:       r.plan.Parts,
		ConfigHash:  r.hash,
		Status:      domain.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if r.target.Kind == domain.TargetKindFile || r.target.Kind == domain.TargetKindParquet {
		run.Format = r.output.Format
	}
	for _, tp := range r.tables {
		run.RowsTotal += tp.TotalRows
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// ExecuteRun generates synchronously and returns the finished run. The
// run is recorded even when generation fails.
func (s *RunService) ExecuteRun(ctx context.Context, req *domain.RunRequest, onProgress exec.ProgressFunc) (*domain.Run, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	run, err := s.newRun(r)
	if err != nil {
		return nil, err
	}
	if err := s.execute(ctx, run, r, onProgress); err != nil {
		return run, err
	}
	return run, nil
}

// StartRun records the run and generates in the background.
func (s *RunService) StartRun(req *domain.RunRequest) (*domain.Run, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	run, err := s.newRun(r)
	if err != nil {
		return nil, err
	}

	bg := *run
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.Background()
		if s.opts.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
			defer cancel()
		}
		_ = s.execute(ctx, &bg, r, nil)
	}()
	return run, nil
}

// Wait blocks until every run started with StartRun has finished.
func (s *RunService) Wait() { s.wg.Wait() }

func (s *RunService) execute(ctx context.Context, run *domain.Run, r *resolvedRun, onProgress exec.ProgressFunc) error {
	s.metrics.RunsActive.Inc()
	defer s.metrics.RunsActive.Dec()

	var overrides spatial.Overrides
	if r.spatial != nil {
		o, err := r.spatial.Overrides()
		if err != nil {
			return s.fail(run, err)
		}
		overrides = o
	}
	target, err := buildTarget(r.target, r.output)
	if err != nil {
		return s.fail(run, err)
	}

	env := registry.NewEnv(registry.EnvOptions{
		Spatial:   overrides,
		Zones:     s.opts.Zones,
		Logger:    s.logger,
		Reference: s.reference,
		Cache:     s.cache,
	})
	executor := exec.NewExecutor(env, s.metrics, s.logger)

	s.logger.Infow("run started", map[string]any{
		"run_id":       run.ID,
		"target":       r.target.Name,
		"target_kind":  r.target.Kind,
		"scale_factor": r.plan.ScaleFactor,
		"tables":       r.tableIDs,
	})
	s.appendLog(run.ID, "info", fmt.Sprintf("run started: %d tables at scale factor %v", len(r.tableIDs), r.plan.ScaleFactor))

	tracker := newProgressTracker(s, run)
	stats, err := executor.Execute(ctx, r.plan, target, func(p exec.Progress) {
		tracker.update(p)
		if onProgress != nil {
			onProgress(p)
		}
	})
	if err != nil {
		return s.fail(run, err)
	}

	now := time.Now().UTC()
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return s.fail(run, err)
	}
	run.Stats = statsJSON
	run.Status = domain.RunStatusSuccess
	run.CompletedAt = &now
	run.RowsGenerated = stats.TotalRows
	run.CurrentTable = ""
	if err := s.runRepo.Update(run); err != nil {
		s.logger.Errorw("failed to update run", map[string]any{"run_id": run.ID, "error": err.Error()})
	}
	s.metrics.RunsTotal.WithLabelValues(string(domain.RunStatusSuccess)).Inc()
	s.appendLog(run.ID, "info", fmt.Sprintf("run completed: %d rows in %.2fs", stats.TotalRows, stats.DurationSeconds))

	s.logger.Infow("run completed", map[string]any{
		"run_id":   run.ID,
		"tables":   stats.TablesGenerated,
		"rows":     stats.TotalRows,
		"duration": stats.DurationSeconds,
	})
	return nil
}

func (s *RunService) fail(run *domain.Run, cause error) error {
	now := time.Now().UTC()
	run.Status = domain.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &now
	if err := s.runRepo.Update(run); err != nil {
		s.logger.Errorw("failed to update run", map[string]any{"run_id": run.ID, "error": err.Error()})
	}
	s.metrics.RunsTotal.WithLabelValues(string(domain.RunStatusFailed)).Inc()
	s.appendLog(run.ID, "error", cause.Error())
	s.logger.Errorw("run failed", map[string]any{"run_id": run.ID, "error": cause.Error()})
	return cause
}

func (s *RunService) appendLog(runID, level, msg string) {
	if err := s.runRepo.AppendRunLog(runID, level, msg); err != nil {
		s.logger.Warnw("failed to append run log", map[string]any{"run_id": runID, "error": err.Error()})
	}
}

func (s *RunService) GetRun(id string) (*domain.Run, error) {
	return s.runRepo.Get(id)
}

func (s *RunService) ListRuns(limit int, status string) ([]*domain.Run, error) {
	return s.runRepo.List(limit, status)
}

func (s *RunService) GetRunLogs(id string, limit int) ([]*domain.RunLog, error) {
	if _, err := s.runRepo.Get(id); err != nil {
		return nil, err
	}
	return s.runRepo.ListRunLogs(id, limit)
}

func (s *RunService) ListTargets() ([]*domain.TargetConfig, error) {
	list, err := s.targetRepo.List()
	if err != nil {
		return nil, err
	}
	return targets.RedactTargets(list), nil
}

func (s *RunService) GetTarget(id string) (*domain.TargetConfig, error) {
	t, err := s.targetRepo.Get(id)
	if err != nil {
		return nil, err
	}
	return targets.RedactTarget(t), nil
}

// CheckTarget checks a stored target by id or name.
func (s *RunService) CheckTarget(id string) (*domain.TargetCheck, error) {
	t, err := s.targetRepo.Get(id)
	if err != nil {
		return nil, err
	}
	return CheckTarget(s.validator, t)
}

func (s *RunService) ListProfiles() ([]*domain.Profile, error) {
	return s.profileRepo.List()
}

func (s *RunService) GetProfile(id string) (*domain.Profile, error) {
	return s.profileRepo.Get(id)
}

// IsNotFound reports whether err means a run, target or profile is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, runs.ErrNotFound) || errors.Is(err, targets.ErrNotFound) || errors.Is(err, profiles.ErrNotFound)
}

// progressTracker folds per-table executor progress into run totals and
// writes them to the repository at most once per progressInterval.
type progressTracker struct {
	svc  *RunService
	run  *domain.Run
	mu   sync.Mutex
	done int64
	cur  string
	last time.Time
	rows int64
}

func newProgressTracker(svc *RunService, run *domain.Run) *progressTracker {
	return &progressTracker{svc: svc, run: run}
}

func (t *progressTracker) update(p exec.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.Table != t.cur {
		t.done += t.rows
		t.cur = p.Table
	}
	t.rows = p.Rows
	if time.Since(t.last) < progressInterval {
		return
	}
	t.last = time.Now()
	t.run.RowsGenerated = t.done + t.rows
	t.run.CurrentTable = p.Table
	if err := t.svc.runRepo.UpdateProgress(t.run.ID, t.run.RowsGenerated, t.run.RowsTotal, p.Table); err != nil {
		t.svc.logger.Warnw("failed to record progress", map[string]any{"run_id": t.run.ID, "error": err.Error()})
	}
}
