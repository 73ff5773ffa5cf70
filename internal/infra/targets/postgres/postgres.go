package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mmrzaf/sbgen/internal/domain"
)

// maxParams is the bind parameter limit of one PostgreSQL statement.
const maxParams = 65535

type PostgresTarget struct {
	dsn    string
	schema string
	db     *sql.DB
}

func NewPostgresTarget(dsn, schema string) *PostgresTarget {
	if schema == "" {
		schema = "public"
	}
	return &PostgresTarget{
		dsn:    dsn,
		schema: schema,
	}
}

func (t *PostgresTarget) Kind() string { return domain.TargetKindPostgres }

func (t *PostgresTarget) Connect() error {
	db, err := sql.Open("postgres", t.dsn)
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

func (t *PostgresTarget) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

func (t *PostgresTarget) qualified(table string) string {
	return pq.QuoteIdentifier(t.schema) + "." + pq.QuoteIdentifier(table)
}

func (t *PostgresTarget) CreateTableIfNotExists(schema domain.TableSchema) error {
	var exists bool
	query := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	)`
	if err := t.db.QueryRow(query, t.schema, schema.Name).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err := t.db.Exec(createTableSQL(t.qualified(schema.Name), schema))
	return err
}

func createTableSQL(qualified string, schema domain.TableSchema) string {
	columnDefs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columnDefs[i] = fmt.Sprintf("%s %s NOT NULL", pq.QuoteIdentifier(col.Name), mapColumnType(col.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(columnDefs, ", "))
}

// Geometries are written as WKT text so the target needs no extensions;
// cast with ST_GeomFromText when PostGIS is available.
func mapColumnType(colType domain.ColumnType) string {
	switch colType {
	case domain.ColumnTypeBigInt:
		return "BIGINT"
	case domain.ColumnTypeDecimal:
		return "NUMERIC(15,2)"
	case domain.ColumnTypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (t *PostgresTarget) TruncateTable(tableName string) error {
	_, err := t.db.Exec("TRUNCATE TABLE " + t.qualified(tableName))
	return err
}

func (t *PostgresTarget) InsertBatch(tableName string, columns []string, rows [][]any) error {
	if len(rows) == 0 || len(columns) == 0 {
		return nil
	}
	perStmt := maxParams / len(columns)
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		query, args := insertSQL(t.qualified(tableName), columns, rows[start:end])
		if _, err := t.db.Exec(query, args...); err != nil {
			return err
		}
	}
	return nil
}

func insertSQL(qualified string, columns []string, rows [][]any) (string, []any) {
	quotedCols := make([]string, len(columns))
	for i, col := range columns {
		quotedCols[i] = pq.QuoteIdentifier(col)
	}

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		rowPlaceholders := make([]string, len(columns))
		for j := range columns {
			rowPlaceholders[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
			args = append(args, row[j])
		}
		placeholders[i] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		qualified, strings.Join(quotedCols, ", "), strings.Join(placeholders, ", ")), args
}
