// Package parquet writes each table to a snappy-compressed parquet file.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	arrowparquet "github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/shopspring/decimal"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/infra/targets/file"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

const (
	decimalPrecision = 15
	decimalScale     = 2
	rowGroupLength   = 1 << 20
)

type Options struct {
	Dir  string
	Part int
}

type ParquetTarget struct {
	opts    Options
	mem     memory.Allocator
	writers map[string]*tableWriter
}

type tableWriter struct {
	f       *os.File
	w       *pqarrow.FileWriter
	schema  *arrow.Schema
	builder *array.RecordBuilder
}

func NewParquetTarget(opts Options) *ParquetTarget {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &ParquetTarget{opts: opts, mem: memory.NewGoAllocator(), writers: make(map[string]*tableWriter)}
}

func (t *ParquetTarget) Kind() string { return domain.TargetKindParquet }

func (t *ParquetTarget) Path(table string) string {
	return file.OutputPath(t.opts.Dir, table, domain.FormatParquet, t.opts.Part)
}

func (t *ParquetTarget) Connect() error {
	return os.MkdirAll(t.opts.Dir, 0o755)
}

// ArrowSchema maps a table schema onto arrow types. Geometries are WKT
// strings and decimals keep two fractional digits.
func ArrowSchema(schema domain.TableSchema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema.Columns))
	for i, col := range schema.Columns {
		var dt arrow.DataType
		switch col.Type {
		case domain.ColumnTypeBigInt:
			dt = arrow.PrimitiveTypes.Int64
		case domain.ColumnTypeDecimal:
			dt = &arrow.Decimal128Type{Precision: decimalPrecision, Scale: decimalScale}
		case domain.ColumnTypeTimestamp:
			dt = &arrow.TimestampType{Unit: arrow.Microsecond}
		default:
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: col.Name, Type: dt}
	}
	md := arrow.NewMetadata([]string{"sbgen.table"}, []string{schema.Name})
	return arrow.NewSchema(fields, &md)
}

func (t *ParquetTarget) CreateTableIfNotExists(schema domain.TableSchema) error {
	if old, ok := t.writers[schema.Name]; ok {
		if err := old.close(); err != nil {
			return err
		}
	}

	f, err := os.Create(t.Path(schema.Name))
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	as := ArrowSchema(schema)
	props := arrowparquet.NewWriterProperties(
		arrowparquet.WithCompression(compress.Codecs.Snappy),
		arrowparquet.WithMaxRowGroupLength(rowGroupLength),
		arrowparquet.WithAllocator(t.mem),
	)
	w, err := pqarrow.NewFileWriter(as, f, props, pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(t.mem)))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	t.writers[schema.Name] = &tableWriter{f: f, w: w, schema: as, builder: array.NewRecordBuilder(t.mem, as)}
	return nil
}

// TruncateTable is a no-op: every run starts new files.
func (t *ParquetTarget) TruncateTable(string) error { return nil }

func (t *ParquetTarget) InsertBatch(tableName string, _ []string, rows [][]any) error {
	tw, ok := t.writers[tableName]
	if !ok {
		return fmt.Errorf("table %s was not created", tableName)
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		for i, v := range row {
			if err := appendValue(tw.builder.Field(i), v); err != nil {
				return fmt.Errorf("column %s: %w", tw.schema.Field(i).Name, err)
			}
		}
	}
	rec := tw.builder.NewRecord()
	defer rec.Release()
	return tw.w.WriteBuffered(rec)
}

type (
	decimalValue interface{ Decimal() decimal.Decimal }
	timeValue    interface{ Time() time.Time }
)

func appendValue(b array.Builder, v any) error {
	switch bldr := b.(type) {
	case *array.Int64Builder:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("want int64, have %T", v)
		}
		bldr.Append(n)
	case *array.Decimal128Builder:
		d, ok := v.(decimalValue)
		if !ok {
			return fmt.Errorf("want decimal, have %T", v)
		}
		bldr.Append(decimal128.FromI64(d.Decimal().Shift(decimalScale).IntPart()))
	case *array.TimestampBuilder:
		ts, ok := v.(timeValue)
		if !ok {
			return fmt.Errorf("want timestamp, have %T", v)
		}
		bldr.Append(arrow.Timestamp(ts.Time().UnixMicro()))
	case *array.StringBuilder:
		if g, ok := v.(spatial.WKTer); ok {
			bldr.Append(g.WKT())
		} else {
			bldr.Append(file.FormatValue(v))
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

func (t *ParquetTarget) Close() error {
	var firstErr error
	for name, tw := range t.writers {
		if err := tw.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", name, err)
		}
		delete(t.writers, name)
	}
	return firstErr
}

func (tw *tableWriter) close() error {
	tw.builder.Release()
	err := tw.w.Close()
	if cerr := tw.f.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
		err = cerr
	}
	return err
}
