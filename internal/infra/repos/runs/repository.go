package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mmrzaf/sbgen/internal/domain"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Repository stores run metadata and progress for the sbgen control plane DB.
type Repository interface {
	Init() error
	Close() error
	Create(run *domain.Run) error
	Update(run *domain.Run) error
	Get(id string) (*domain.Run, error)
	List(limit int, status string) ([]*domain.Run, error)
	UpdateProgress(id string, rowsGenerated, rowsTotal int64, currentTable string) error
	AppendRunLog(runID, level, message string) error
	ListRunLogs(runID string, limit int) ([]*domain.RunLog, error)
}

const (
	defaultListLimit = 50
	defaultLogLimit  = 200
)

const runColumns = `id, profile_id, profile_name, target_id, target_name, target_kind,
	tables, scale_factor, parts, format, config_hash, status, started_at, completed_at, stats, error,
	rows_generated, rows_total, current_table`

type scanner interface {
	Scan(dest ...any) error
}

// runRecord holds the nullable columns of a runs row between Scan and domain.Run.
type runRecord struct {
	run          domain.Run
	profileID    sql.NullString
	profileName  sql.NullString
	targetID     sql.NullString
	targetName   sql.NullString
	tables       sql.NullString
	format       sql.NullString
	stats        sql.NullString
	errStr       sql.NullString
	rowsGen      sql.NullInt64
	rowsTotal    sql.NullInt64
	currentTable sql.NullString
}

// scan reads runColumns; started and completed are backend specific.
func (rec *runRecord) scan(sc scanner, started, completed any) error {
	r := &rec.run
	err := sc.Scan(
		&r.ID, &rec.profileID, &rec.profileName, &rec.targetID, &rec.targetName, &r.TargetKind,
		&rec.tables, &r.ScaleFactor, &r.Parts, &rec.format, &r.ConfigHash, &r.Status, started, completed, &rec.stats, &rec.errStr,
		&rec.rowsGen, &rec.rowsTotal, &rec.currentTable,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (rec *runRecord) toRun() *domain.Run {
	r := rec.run
	r.ProfileID = rec.profileID.String
	r.ProfileName = rec.profileName.String
	r.TargetID = rec.targetID.String
	r.TargetName = rec.targetName.String
	r.Format = rec.format.String
	r.Error = rec.errStr.String
	r.RowsGenerated = rec.rowsGen.Int64
	r.RowsTotal = rec.rowsTotal.Int64
	r.CurrentTable = rec.currentTable.String
	if rec.tables.Valid && rec.tables.String != "" {
		r.Tables = strings.Split(rec.tables.String, ",")
	}
	if rec.stats.Valid && rec.stats.String != "" && rec.stats.String != "null" {
		r.Stats = json.RawMessage(rec.stats.String)
	}
	return &r
}

func statsText(stats json.RawMessage) any {
	if len(stats) == 0 {
		return nil
	}
	return string(stats)
}
