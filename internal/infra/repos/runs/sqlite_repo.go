package runs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mmrzaf/sbgen/internal/domain"
)

type SQLiteRepository struct {
	dbPath string
	db     *sql.DB
}

func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	return &SQLiteRepository{dbPath: dbPath}
}

func (r *SQLiteRepository) Init() error {
	if dir := filepath.Dir(r.dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	r.db = db

	stmts := []string{`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		profile_id TEXT,
		profile_name TEXT,
		target_id TEXT,
		target_name TEXT,
		target_kind TEXT NOT NULL,
		tables TEXT,
		scale_factor REAL NOT NULL,
		parts INTEGER NOT NULL,
		format TEXT,
		config_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		stats TEXT,
		error TEXT,
		rows_generated INTEGER,
		rows_total INTEGER,
		current_table TEXT
	)`, `
	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS idx_run_logs_run ON run_logs(run_id, id DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) DB() *sql.DB { return r.db }

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func (r *SQLiteRepository) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProfileID, run.ProfileName, run.TargetID, run.TargetName, run.TargetKind,
		strings.Join(run.Tables, ","), run.ScaleFactor, run.Parts, run.Format, run.ConfigHash, run.Status,
		formatTime(run.StartedAt), formatOptionalTime(run.CompletedAt), statsText(run.Stats), run.Error,
		run.RowsGenerated, run.RowsTotal, run.CurrentTable,
	)
	return err
}

func (r *SQLiteRepository) Update(run *domain.Run) error {
	_, err := r.db.Exec(`
		UPDATE runs SET
			status = ?, completed_at = ?, stats = ?, error = ?,
			rows_generated = ?, rows_total = ?, current_table = ?
		WHERE id = ?`,
		run.Status, formatOptionalTime(run.CompletedAt), statsText(run.Stats), run.Error,
		run.RowsGenerated, run.RowsTotal, run.CurrentTable, run.ID,
	)
	return err
}

func (r *SQLiteRepository) scanRun(sc scanner) (*domain.Run, error) {
	var rec runRecord
	var startedAt string
	var completedAt sql.NullString
	if err := rec.scan(sc, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	run := rec.toRun()
	run.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(timeLayout, completedAt.String)
		run.CompletedAt = &t
	}
	return run, nil
}

func (r *SQLiteRepository) Get(id string) (*domain.Run, error) {
	return r.scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
}

func (r *SQLiteRepository) List(limit int, status string) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, 2)
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0)
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRepository) UpdateProgress(id string, rowsGenerated, rowsTotal int64, currentTable string) error {
	_, err := r.db.Exec(`
		UPDATE runs SET rows_generated = ?, rows_total = ?, current_table = ?
		WHERE id = ?`,
		rowsGenerated, rowsTotal, currentTable, id,
	)
	return err
}

func (r *SQLiteRepository) AppendRunLog(runID, level, message string) error {
	_, err := r.db.Exec(`
		INSERT INTO run_logs (run_id, created_at, level, message)
		VALUES (?, ?, ?, ?)`,
		runID, formatTime(time.Now()), level, message,
	)
	return err
}

func (r *SQLiteRepository) ListRunLogs(runID string, limit int) ([]*domain.RunLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	rows, err := r.db.Query(`
		SELECT id, run_id, created_at, level, message
		FROM run_logs
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.RunLog, 0)
	for rows.Next() {
		var rl domain.RunLog
		var createdAt string
		if err := rows.Scan(&rl.ID, &rl.RunID, &createdAt, &rl.Level, &rl.Message); err != nil {
			return nil, err
		}
		rl.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, &rl)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
