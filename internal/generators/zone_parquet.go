package generators

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/mmrzaf/sbgen/internal/spatial"
)

const defaultZoneBatchSize = 8192

// Column names a zone parquet file must carry. boundary holds WKT text.
var zoneParquetColumns = [...]string{"id", "country", "region", "name", "subtype", "boundary"}

// ParquetZoneSource reads zones from a local parquet file.
type ParquetZoneSource struct {
	Path      string
	BatchSize int64
}

func NewParquetZoneSource(path string) *ParquetZoneSource {
	return &ParquetZoneSource{Path: path, BatchSize: defaultZoneBatchSize}
}

type stringColumn interface {
	IsNull(i int) bool
	Value(i int) string
}

func (s *ParquetZoneSource) LoadZones(ctx context.Context, subtypes []string, offset, limit int64) ([]ZoneRecord, error) {
	pf, err := file.OpenParquetFile(s.Path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone file %s: %w", s.Path, err)
	}
	defer pf.Close()

	batch := s.BatchSize
	if batch <= 0 {
		batch = defaultZoneBatchSize
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: batch}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone file %s: %w", s.Path, err)
	}
	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone file %s: %w", s.Path, err)
	}
	defer rr.Release()

	want := make(map[string]bool, len(subtypes))
	for _, st := range subtypes {
		want[st] = true
	}

	var (
		zones   []ZoneRecord
		skipped int64
	)
	for rr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, err := zoneColumnsOf(rr.Record())
		if err != nil {
			return nil, fmt.Errorf("zone file %s: %w", s.Path, err)
		}
		rows := int(rr.Record().NumRows())
		for i := 0; i < rows; i++ {
			if !want[valueOrEmpty(cols[4], i)] {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			boundary, err := spatial.ParseRawWKT(valueOrEmpty(cols[5], i))
			if err != nil {
				return nil, fmt.Errorf("zone %s: %w", valueOrEmpty(cols[0], i), err)
			}
			zones = append(zones, ZoneRecord{
				GersID:   valueOrEmpty(cols[0], i),
				Country:  valueOrEmpty(cols[1], i),
				Region:   valueOrEmpty(cols[2], i),
				Name:     valueOrEmpty(cols[3], i),
				Subtype:  valueOrEmpty(cols[4], i),
				Boundary: boundary,
			})
			if int64(len(zones)) == limit {
				return zones, nil
			}
		}
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read zone file %s: %w", s.Path, err)
	}
	return zones, nil
}

func zoneColumnsOf(rec arrow.Record) ([]stringColumn, error) {
	cols := make([]stringColumn, len(zoneParquetColumns))
	for i, name := range zoneParquetColumns {
		idx := rec.Schema().FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
		col, ok := rec.Column(idx[0]).(stringColumn)
		if !ok {
			return nil, fmt.Errorf("column %q is %s, want string", name, rec.Column(idx[0]).DataType())
		}
		cols[i] = col
	}
	return cols, nil
}

func valueOrEmpty(c stringColumn, i int) string {
	if c.IsNull(i) {
		return ""
	}
	return c.Value(i)
}
