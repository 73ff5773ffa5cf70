package app

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	"github.com/mmrzaf/sbgen/internal/infra/repos/profiles"
	"github.com/mmrzaf/sbgen/internal/infra/repos/runs"
	"github.com/mmrzaf/sbgen/internal/infra/repos/targets"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/metrics"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/validation"
)

type testEnv struct {
	svc         *RunService
	runRepo     *runs.SQLiteRepository
	targetsDir  string
	profilesDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		targetsDir:  filepath.Join(root, "targets"),
		profilesDir: filepath.Join(root, "profiles"),
	}
	for _, d := range []string{env.targetsDir, env.profilesDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	env.runRepo = runs.NewSQLiteRepository(filepath.Join(root, "runs.db"))
	if err := env.runRepo.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = env.runRepo.Close() })

	env.svc = NewRunService(
		profiles.NewFileRepository(env.profilesDir),
		targets.NewFileRepository(env.targetsDir),
		env.runRepo,
		registry.DefaultTableRegistry(),
		metrics.New(),
		logging.NewLogger("error"),
		Options{Workers: 2, BatchSize: 7},
	)
	return env
}

func (e *testEnv) write(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func countRows(t *testing.T, dsn, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPlanRun_ProfileDefaultsAndOverrides(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, env.profilesDir, "small.yaml", "name: small\ntables: [trip]\nscale_factor: 0.01\nparts: 2\nformat: csv\n")

	plan, err := env.svc.PlanRun(&domain.RunRequest{ProfileID: "small", Parts: 3})
	if err != nil {
		t.Fatal(err)
	}
	if plan.ScaleFactor != 0.01 || plan.Parts != 3 || plan.Format != domain.FormatCSV {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if len(plan.Tables) != 1 || plan.Tables[0].Table != "trip" || plan.TotalRows != 60000 {
		t.Fatalf("unexpected tables: %+v", plan.Tables)
	}
	if plan.ConfigHash == "" {
		t.Fatal("expected config hash")
	}

	list, err := env.svc.ListRuns(10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("plan should not create run rows; got %d", len(list))
	}
}

func TestPlanRun_AutoPartsAndDefaults(t *testing.T) {
	env := newTestEnv(t)

	plan, err := env.svc.PlanRun(&domain.RunRequest{Tables: []string{"T"}})
	if err != nil {
		t.Fatal(err)
	}
	if plan.ScaleFactor != 1 || plan.Tables[0].Parts != 55 {
		t.Fatalf("expected 55 auto parts at sf 1, got %+v", plan.Tables[0])
	}
	if plan.TargetKind != domain.TargetKindFile || plan.Format != domain.FormatTbl {
		t.Fatalf("expected default tbl files, got %s/%s", plan.TargetKind, plan.Format)
	}

	all, err := env.svc.PlanRun(&domain.RunRequest{ScaleFactor: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Tables) != 6 {
		t.Fatalf("expected every table, got %d", len(all.Tables))
	}
}

func TestPlanRun_RejectsInvalid(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.PlanRun(&domain.RunRequest{Tables: []string{"orders"}}); !errors.Is(err, validation.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if _, err := env.svc.PlanRun(&domain.RunRequest{ProfileID: "missing"}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExecuteRun_SQLiteTarget(t *testing.T) {
	env := newTestEnv(t)
	dsn := filepath.Join(t.TempDir(), "bench.db")
	env.write(t, env.targetsDir, "local.yaml", "kind: sqlite\ndsn: "+dsn+"\n")

	var progressCalls int
	run, err := env.svc.ExecuteRun(context.Background(), &domain.RunRequest{
		TargetID:    "local",
		Tables:      []string{"vehicle", "driver"},
		ScaleFactor: 0.01,
		Parts:       2,
	}, func(p exec.Progress) { progressCalls++ })
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusSuccess || run.RowsGenerated != 6 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if progressCalls == 0 {
		t.Fatal("expected progress callbacks")
	}
	if got := countRows(t, dsn, "vehicle"); got != 1 {
		t.Fatalf("expected 1 vehicle, got %d", got)
	}
	if got := countRows(t, dsn, "driver"); got != 5 {
		t.Fatalf("expected 5 drivers, got %d", got)
	}

	stored, err := env.svc.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.RunStatusSuccess || stored.CompletedAt == nil || len(stored.Stats) == 0 {
		t.Fatalf("unexpected stored run: %+v", stored)
	}
	if stored.TargetName != "local" || stored.TargetKind != domain.TargetKindSQLite {
		t.Fatalf("unexpected target on run: %+v", stored)
	}
}

func TestStartRun_CompletesSuccess_Files(t *testing.T) {
	env := newTestEnv(t)
	out := t.TempDir()

	run, err := env.svc.StartRun(&domain.RunRequest{
		Tables:      []string{"customer"},
		ScaleFactor: 0.001,
		Format:      domain.FormatCSV,
		OutputDir:   out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.ID == "" {
		t.Fatalf("expected run id, got %#v", run)
	}
	env.svc.Wait()

	cur, err := env.svc.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Status != domain.RunStatusSuccess {
		t.Fatalf("run did not succeed: status=%s error=%s", cur.Status, cur.Error)
	}
	if cur.RowsGenerated != 30 || cur.Format != domain.FormatCSV {
		t.Fatalf("unexpected run: %+v", cur)
	}

	f, err := os.Open(filepath.Join(out, "customer.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	if lines != 31 {
		t.Fatalf("expected header plus 30 rows, got %d lines", lines)
	}

	logs, err := env.svc.GetRunLogs(run.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) < 2 {
		t.Fatalf("expected start and completion logs, got %+v", logs)
	}
}

func TestExecuteRun_FailureIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	run, err := env.svc.ExecuteRun(context.Background(), &domain.RunRequest{
		Tables:      []string{"vehicle"},
		ScaleFactor: 0.01,
		Target:      &domain.TargetConfig{Name: "es", Kind: domain.TargetKindElasticsearch, DSN: srv.URL},
	}, nil)
	if err == nil {
		t.Fatal("expected run error")
	}
	if run == nil {
		t.Fatal("expected failed run to be returned")
	}

	stored, err := env.svc.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.RunStatusFailed || stored.Error == "" {
		t.Fatalf("expected failed run, got %+v", stored)
	}
	failed, err := env.svc.ListRuns(10, string(domain.RunStatusFailed))
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected one failed run, got %d", len(failed))
	}
}

func TestCheckTarget_SQLite(t *testing.T) {
	env := newTestEnv(t)
	dsn := filepath.Join(t.TempDir(), "check.db")
	env.write(t, env.targetsDir, "check.yaml", "name: checker\nkind: sqlite\ndsn: "+dsn+"\n")

	check, err := env.svc.CheckTarget("checker")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !check.OK || check.ServerVersion == "" {
		t.Fatalf("expected OK with version, got %#v", check)
	}
	caps := check.Capabilities
	if !caps.CanCreate || !caps.CanInsert || !caps.CanTruncate {
		t.Fatalf("expected full capabilities, got %#v", caps)
	}

	if _, err := env.svc.CheckTarget("nope"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListTargetsRedacts(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, env.targetsDir, "pg.yaml", "kind: postgres\ndsn: postgres://u:secret@db:5432/bench\n")

	list, err := env.svc.ListTargets()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].DSN == "postgres://u:secret@db:5432/bench" {
		t.Fatalf("expected redacted dsn, got %+v", list)
	}
}
