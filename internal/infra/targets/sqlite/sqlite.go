package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/timeutil"
)

type SQLiteTarget struct {
	path string
	db   *sql.DB
}

func NewSQLiteTarget(path string) *SQLiteTarget {
	return &SQLiteTarget{path: path}
}

func (t *SQLiteTarget) Kind() string { return domain.TargetKindSQLite }

func (t *SQLiteTarget) Connect() error {
	db, err := sql.Open("sqlite3", t.path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	t.db = db
	return nil
}

func (t *SQLiteTarget) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

func (t *SQLiteTarget) CreateTableIfNotExists(schema domain.TableSchema) error {
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name=?`
	var name string
	err := t.db.QueryRow(query, schema.Name).Scan(&name)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	columnDefs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columnDefs[i] = fmt.Sprintf("%s %s NOT NULL", col.Name, mapColumnType(col.Type))
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", schema.Name, strings.Join(columnDefs, ", "))
	_, err = t.db.Exec(createSQL)
	return err
}

// Geometries are stored as WKT text and timestamps in SQLite's own
// "YYYY-MM-DD HH:MM:SS" form.
func mapColumnType(colType domain.ColumnType) string {
	switch colType {
	case domain.ColumnTypeBigInt:
		return "INTEGER"
	case domain.ColumnTypeDecimal:
		return "NUMERIC(15,2)"
	default:
		return "TEXT"
	}
}

func (t *SQLiteTarget) TruncateTable(tableName string) error {
	_, err := t.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	return err
}

func (t *SQLiteTarget) InsertBatch(tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for _, row := range rows {
		for i, val := range row {
			args[i] = sqliteValue(val)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func sqliteValue(val any) any {
	switch v := val.(type) {
	case time.Time:
		return v.Format(timeutil.TimestampLayout)
	case fmt.Stringer:
		// Decimal, Timestamp and geometries all render their storage form.
		return v.String()
	default:
		return val
	}
}
