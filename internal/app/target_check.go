package app

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/exec"
	esTarget "github.com/mmrzaf/sbgen/internal/infra/targets/elasticsearch"
	"github.com/mmrzaf/sbgen/internal/validation"
)

// CheckTarget connects to t and, for database sinks, tests whether a
// scratch table can be created, written and truncated. The returned
// check is filled in even when err is non-nil.
func CheckTarget(v *validation.Validator, t *domain.TargetConfig) (*domain.TargetCheck, error) {
	check := &domain.TargetCheck{
		TargetID:  t.ID,
		CheckedAt: time.Now().UTC(),
	}
	if err := v.ValidateTarget(t); err != nil {
		check.Error = err.Error()
		return check, err
	}

	start := time.Now()
	effective := resolveTargetForRun(t, "", "")
	tgt, err := buildTarget(effective, outputSettings{})
	if err != nil {
		check.Error = err.Error()
		return check, err
	}
	if err := tgt.Connect(); err != nil {
		check.Error = err.Error()
		check.LatencyMS = time.Since(start).Milliseconds()
		return check, err
	}
	defer tgt.Close()

	check.OK = true
	check.LatencyMS = time.Since(start).Milliseconds()
	if ver, err := serverVersion(effective); err == nil {
		check.ServerVersion = ver
	}
	switch effective.Kind {
	case domain.TargetKindFile, domain.TargetKindParquet:
		check.Capabilities = domain.TargetCapabilities{CanCreate: true, CanInsert: true}
	default:
		check.Capabilities = detectCapabilities(tgt)
	}
	return check, nil
}

func serverVersion(t *domain.TargetConfig) (string, error) {
	switch t.Kind {
	case domain.TargetKindPostgres:
		return queryServerVersion("postgres", t.DSN, "SHOW server_version")
	case domain.TargetKindSQLite:
		return queryServerVersion("sqlite3", t.DSN, "SELECT sqlite_version()")
	case domain.TargetKindElasticsearch:
		return esTarget.GetServerVersion(t.DSN)
	}
	return "", fmt.Errorf("no server version for %s targets", t.Kind)
}

func queryServerVersion(driver, dsn, query string) (string, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var version string
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

func detectCapabilities(tgt exec.Target) domain.TargetCapabilities {
	schema := domain.TableSchema{
		Name:    fmt.Sprintf("sbgen_check_%d", time.Now().UnixNano()),
		Columns: []domain.Column{{Name: "id", Type: domain.ColumnTypeBigInt}},
	}

	var caps domain.TargetCapabilities
	if err := tgt.CreateTableIfNotExists(schema); err != nil {
		return caps
	}
	caps.CanCreate = true

	if err := tgt.InsertBatch(schema.Name, []string{"id"}, [][]any{{int64(1)}}); err != nil {
		return caps
	}
	caps.CanInsert = true

	if err := tgt.TruncateTable(schema.Name); err != nil {
		return caps
	}
	caps.CanTruncate = true
	return caps
}
