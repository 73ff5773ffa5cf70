package runs

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/sbgen/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInitCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "runs.db")
	repo := NewSQLiteRepository(dbPath)

	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if repo.DB() == nil {
		t.Fatal("expected db handle to be initialized")
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
}

func TestCreateGetUpdate(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	run := &domain.Run{
		TargetKind:  domain.TargetKindFile,
		Tables:      []string{"vehicle", "trip"},
		ScaleFactor: 0.01,
		Parts:       4,
		Format:      domain.FormatTbl,
		ConfigHash:  "abc",
		Status:      domain.RunStatusRunning,
	}
	if err := repo.Create(run); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.RunStatusRunning || got.Parts != 4 || len(got.Tables) != 2 || got.Tables[1] != "trip" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Fatalf("expected nil completed_at, got %v", got.CompletedAt)
	}

	now := time.Now().UTC()
	stats, _ := json.Marshal(domain.RunStats{TablesGenerated: 2, TotalRows: 10})
	run.Status = domain.RunStatusSuccess
	run.CompletedAt = &now
	run.Stats = stats
	run.RowsGenerated = 10
	if err := repo.Update(run); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err = repo.Get(run.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.RunStatusSuccess || got.CompletedAt == nil || got.RowsGenerated != 10 {
		t.Fatalf("unexpected updated run: %+v", got)
	}
	var decoded domain.RunStats
	if err := json.Unmarshal(got.Stats, &decoded); err != nil || decoded.TotalRows != 10 {
		t.Fatalf("unexpected stats %s: %v", got.Stats, err)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	statuses := []domain.RunStatus{domain.RunStatusSuccess, domain.RunStatusFailed, domain.RunStatusSuccess}
	for i, st := range statuses {
		run := &domain.Run{
			ID:         string(rune('a' + i)),
			TargetKind: domain.TargetKindFile,
			ConfigHash: "h",
			Status:     st,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(run); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	all, err := repo.List(0, "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %v, %v, %v", all[0].ID, all[1].ID, all[2].ID)
	}

	ok, err := repo.List(1, string(domain.RunStatusSuccess))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ok) != 1 || ok[0].ID != "c" {
		t.Fatalf("unexpected filtered runs: %+v", ok)
	}
}

func TestProgressAndLogs(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)

	run := &domain.Run{TargetKind: domain.TargetKindSQLite, ConfigHash: "h", Status: domain.RunStatusRunning}
	if err := repo.Create(run); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.UpdateProgress(run.ID, 5, 20, "trip"); err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.RowsGenerated != 5 || got.RowsTotal != 20 || got.CurrentTable != "trip" {
		t.Fatalf("unexpected progress: %+v", got)
	}

	for _, msg := range []string{"first", "second"} {
		if err := repo.AppendRunLog(run.ID, "info", msg); err != nil {
			t.Fatalf("append log failed: %v", err)
		}
	}
	logs, err := repo.ListRunLogs(run.ID, 0)
	if err != nil {
		t.Fatalf("list logs failed: %v", err)
	}
	if len(logs) != 2 || logs[0].Message != "second" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}
