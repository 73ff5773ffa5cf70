package runs

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mmrzaf/sbgen/internal/domain"
)

type PostgresRepository struct {
	dsn string
	db  *sql.DB
}

func NewPostgresRepository(dsn string) *PostgresRepository {
	return &PostgresRepository{dsn: strings.TrimSpace(dsn)}
}

func (r *PostgresRepository) Init() error {
	if r.dsn == "" {
		return fmt.Errorf("sbgen runs dsn is required")
	}
	db, err := sql.Open("postgres", r.dsn)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return err
	}
	r.db = db
	return r.applyMigrations()
}

func (r *PostgresRepository) DB() *sql.DB { return r.db }

type migration struct {
	version int
	up      func(*sql.DB) error
}

var postgresMigrations = []migration{
	{1, migrateV1RunsPG},
	{2, migrateV2RunProgressPG},
	{3, migrateV3RunLogsPG},
}

func (r *PostgresRepository) applyMigrations() error {
	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}
	var cur int
	if err := r.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&cur); err != nil {
		return err
	}

	for _, m := range postgresMigrations {
		if cur >= m.version {
			continue
		}
		if err := m.up(r.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := r.db.Exec(`INSERT INTO schema_migrations(version) VALUES ($1)`, m.version); err != nil {
			return err
		}
		cur = m.version
	}
	return nil
}

func migrateV1RunsPG(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		profile_id TEXT,
		profile_name TEXT,
		target_id TEXT,
		target_name TEXT,
		target_kind TEXT NOT NULL,
		tables TEXT,
		scale_factor DOUBLE PRECISION NOT NULL,
		parts INTEGER NOT NULL,
		format TEXT,
		config_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		stats TEXT,
		error TEXT
	)`)
	return err
}

func migrateV2RunProgressPG(db *sql.DB) error {
	ddls := []string{
		`ALTER TABLE runs ADD COLUMN IF NOT EXISTS rows_generated BIGINT`,
		`ALTER TABLE runs ADD COLUMN IF NOT EXISTS rows_total BIGINT`,
		`ALTER TABLE runs ADD COLUMN IF NOT EXISTS current_table TEXT`,
	}
	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}
	return nil
}

func migrateV3RunLogsPG(db *sql.DB) error {
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS run_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_run_logs_run_time ON run_logs(run_id, id DESC)`)
	return nil
}

func (r *PostgresRepository) Create(run *domain.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`INSERT INTO runs (`+runColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		run.ID, run.ProfileID, run.ProfileName, run.TargetID, run.TargetName, run.TargetKind,
		strings.Join(run.Tables, ","), run.ScaleFactor, run.Parts, run.Format, run.ConfigHash, run.Status,
		run.StartedAt, run.CompletedAt, statsText(run.Stats), run.Error,
		run.RowsGenerated, run.RowsTotal, run.CurrentTable,
	)
	return err
}

func (r *PostgresRepository) Update(run *domain.Run) error {
	_, err := r.db.Exec(`
	UPDATE runs SET
		status = $1, completed_at = $2, stats = $3, error = $4,
		rows_generated = $5, rows_total = $6, current_table = $7
	WHERE id = $8`,
		run.Status, run.CompletedAt, statsText(run.Stats), run.Error,
		run.RowsGenerated, run.RowsTotal, run.CurrentTable, run.ID,
	)
	return err
}

func scanPostgresRun(sc scanner) (*domain.Run, error) {
	var rec runRecord
	var completedAt sql.NullTime
	if err := rec.scan(sc, &rec.run.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	run := rec.toRun()
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

func (r *PostgresRepository) Get(id string) (*domain.Run, error) {
	return scanPostgresRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = $1`, id))
}

func (r *PostgresRepository) List(limit int, status string) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.Query(`SELECT `+runColumns+` FROM runs
		WHERE status = $1
		ORDER BY started_at DESC
		LIMIT $2`, status, limit)
	} else {
		rows, err = r.db.Query(`SELECT `+runColumns+` FROM runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanPostgresRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateProgress(id string, rowsGenerated, rowsTotal int64, currentTable string) error {
	_, err := r.db.Exec(`
		UPDATE runs
		SET rows_generated = $1, rows_total = $2, current_table = $3
		WHERE id = $4`,
		rowsGenerated, rowsTotal, currentTable, id,
	)
	return err
}

func (r *PostgresRepository) AppendRunLog(runID, level, message string) error {
	_, err := r.db.Exec(`
		INSERT INTO run_logs (run_id, created_at, level, message)
		VALUES ($1, $2, $3, $4)`,
		runID, time.Now().UTC(), level, message,
	)
	return err
}

func (r *PostgresRepository) ListRunLogs(runID string, limit int) ([]*domain.RunLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	rows, err := r.db.Query(`
		SELECT id, run_id, created_at, level, message
		FROM run_logs
		WHERE run_id = $1
		ORDER BY id DESC
		LIMIT $2`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.RunLog, 0, limit)
	for rows.Next() {
		var rl domain.RunLog
		if err := rows.Scan(&rl.ID, &rl.RunID, &rl.CreatedAt, &rl.Level, &rl.Message); err != nil {
			return nil, err
		}
		out = append(out, &rl)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
