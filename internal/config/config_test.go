package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoad_ReadsDotEnvForRunsDSN(t *testing.T) {
	d := t.TempDir()
	env := "# comment\nSBGEN_RUNS_DSN=\"postgres://u:p@localhost:5432/sbgen?sslmode=disable\"\nexport SBGEN_LOG_LEVEL=debug\nSBGEN_NUM_WORKERS=3\n"
	if err := os.WriteFile(filepath.Join(d, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, d)

	t.Setenv("SBGEN_RUNS_DSN", "")
	t.Setenv("SBGEN_LOG_LEVEL", "")
	t.Setenv("SBGEN_NUM_WORKERS", "")
	_ = os.Unsetenv("SBGEN_RUNS_DSN")
	_ = os.Unsetenv("SBGEN_LOG_LEVEL")
	_ = os.Unsetenv("SBGEN_NUM_WORKERS")

	cfg := Load()
	if cfg.RunsDSN != "postgres://u:p@localhost:5432/sbgen?sslmode=disable" {
		t.Fatalf("expected SBGEN_RUNS_DSN from .env, got %q", cfg.RunsDSN)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected SBGEN_LOG_LEVEL from .env, got %q", cfg.LogLevel)
	}
	if cfg.NumWorkers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.NumWorkers)
	}
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	d := t.TempDir()
	if err := os.WriteFile(filepath.Join(d, ".env"), []byte("SBGEN_LOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, d)
	t.Setenv("SBGEN_LOG_LEVEL", "warn")

	if got := Load().LogLevel; got != "warn" {
		t.Fatalf("expected environment to win, got %q", got)
	}
}

func TestLoad_DotEnvInlineCommentsAndExpansion(t *testing.T) {
	d := t.TempDir()
	env := "SBGEN_DATA_DIR=/srv/sbgen # data root\nSBGEN_RUNS_DB=${SBGEN_DATA_DIR}/runs.sqlite\n"
	if err := os.WriteFile(filepath.Join(d, ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, d)
	t.Setenv("SBGEN_DATA_DIR", "")
	t.Setenv("SBGEN_RUNS_DB", "")
	_ = os.Unsetenv("SBGEN_DATA_DIR")
	_ = os.Unsetenv("SBGEN_RUNS_DB")

	cfg := Load()
	if cfg.DataDir != "/srv/sbgen" {
		t.Fatalf("expected inline comment to be dropped, got %q", cfg.DataDir)
	}
	if cfg.RunsDBPath != "/srv/sbgen/runs.sqlite" {
		t.Fatalf("expected ${SBGEN_DATA_DIR} to expand, got %q", cfg.RunsDBPath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SBGEN_DATA_DIR", "/var/sbgen")
	t.Setenv("SBGEN_RUNS_DB", "")
	t.Setenv("SBGEN_RUN_TIMEOUT", "2d")

	cfg := Load()
	if cfg.RunsDBPath != filepath.Join("/var/sbgen", "sbgen-runs.sqlite") {
		t.Fatalf("unexpected runs db path %q", cfg.RunsDBPath)
	}
	if cfg.RunTimeout != 48*time.Hour {
		t.Fatalf("expected 48h timeout, got %v", cfg.RunTimeout)
	}
	if cfg.NumWorkers < 1 {
		t.Fatalf("expected positive default workers, got %d", cfg.NumWorkers)
	}
}
