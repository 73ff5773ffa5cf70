package domain

import (
	"encoding/json"
	"time"

	"github.com/mmrzaf/sbgen/internal/spatial"
)

type ColumnType string

const (
	ColumnTypeBigInt    ColumnType = "bigint"
	ColumnTypeText      ColumnType = "text"
	ColumnTypeDecimal   ColumnType = "decimal"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeGeometry  ColumnType = "geometry"
)

type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// TableSchema is the ordered field list a table's rows are emitted in.
type TableSchema struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

type TargetConfig struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	Kind    string            `json:"kind" yaml:"kind"`
	DSN     string            `json:"dsn" yaml:"dsn"`
	Schema  string            `json:"schema,omitempty" yaml:"schema,omitempty"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

const (
	TargetKindFile          = "file"
	TargetKindParquet       = "parquet"
	TargetKindSQLite        = "sqlite"
	TargetKindPostgres      = "postgres"
	TargetKindElasticsearch = "elasticsearch"
)

// Profile is a named, reusable run configuration.
type Profile struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Tables      []string      `json:"tables,omitempty" yaml:"tables,omitempty"`
	ScaleFactor float64       `json:"scale_factor,omitempty" yaml:"scale_factor,omitempty"`
	Parts       int           `json:"parts,omitempty" yaml:"parts,omitempty"`
	Format      string        `json:"format,omitempty" yaml:"format,omitempty"`
	Spatial     *spatial.File `json:"spatial,omitempty" yaml:"spatial,omitempty"`
}

type Run struct {
	ID          string          `json:"id"`
	ProfileID   string          `json:"profile_id,omitempty"`
	ProfileName string          `json:"profile_name,omitempty"`
	TargetID    string          `json:"target_id,omitempty"`
	TargetName  string          `json:"target_name,omitempty"`
	TargetKind  string          `json:"target_kind"`
	Tables      []string        `json:"tables"`
	ScaleFactor float64         `json:"scale_factor"`
	Parts       int             `json:"parts"`
	Format      string          `json:"format,omitempty"`
	ConfigHash  string          `json:"config_hash"`
	Status      RunStatus       `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Stats       json.RawMessage `json:"stats,omitempty"`
	Error       string          `json:"error,omitempty"`

	RowsGenerated int64  `json:"rows_generated"`
	RowsTotal     int64  `json:"rows_total"`
	CurrentTable  string `json:"current_table,omitempty"`
}

type RunLog struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type RunStats struct {
	TablesGenerated int             `json:"tables_generated"`
	TotalRows       int64           `json:"total_rows"`
	DurationSeconds float64         `json:"duration_seconds"`
	TableStats      []TableRunStats `json:"table_stats"`
}

type TableRunStats struct {
	Table           string  `json:"table"`
	Parts           int     `json:"parts"`
	RowsGenerated   int64   `json:"rows_generated"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type RunRequest struct {
	ProfileID   string        `json:"profile_id,omitempty"`
	Tables      []string      `json:"tables,omitempty"`
	ScaleFactor float64       `json:"scale_factor,omitempty"`
	Parts       int           `json:"parts,omitempty"`
	Part        int           `json:"part,omitempty"`
	Format      string        `json:"format,omitempty"`
	OutputDir   string        `json:"output_dir,omitempty"`
	Compress    bool          `json:"compress,omitempty"`
	TargetID    string        `json:"target_id,omitempty"`
	Target      *TargetConfig `json:"target,omitempty"`
	Spatial     *spatial.File `json:"spatial,omitempty"`
	Mode        string        `json:"mode,omitempty"`
	Workers     int           `json:"workers,omitempty"`
}

const (
	TableModeCreateIfMissing    = "create_if_missing"
	TableModeTruncateThenInsert = "truncate_then_insert"
	TableModeAppendOnly         = "append_only"
)

const (
	FormatTbl     = "tbl"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

type TargetCapabilities struct {
	CanCreate   bool `json:"can_create"`
	CanInsert   bool `json:"can_insert"`
	CanTruncate bool `json:"can_truncate"`
}

// TargetCheck is the outcome of one connectivity check.
type TargetCheck struct {
	TargetID      string             `json:"target_id"`
	CheckedAt     time.Time          `json:"checked_at"`
	OK            bool               `json:"ok"`
	LatencyMS     int64              `json:"latency_ms"`
	ServerVersion string             `json:"server_version,omitempty"`
	Capabilities  TargetCapabilities `json:"capabilities"`
	Error         string             `json:"error,omitempty"`
}
