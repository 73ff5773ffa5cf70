package exec

import (
	"fmt"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/registry"
)

const (
	DefaultBatchSize = 1000

	// targetPartBytes is the output size auto part selection aims for.
	targetPartBytes = 15 * 1024 * 1024

	// MaxParquetParts keeps part numbers within parquet row-group limits.
	MaxParquetParts = 32767
)

// Plan describes what one run generates.
type Plan struct {
	Tables      []*registry.TableEntry
	ScaleFactor float64
	// Parts of zero picks a part count per table from its size.
	Parts int
	// Part selects a single part to generate. Zero generates all of them.
	Part      int
	BatchSize int
	Workers   int
	Mode      string
	// MaxParts caps automatically chosen part counts. Zero means no cap.
	MaxParts int
}

// TablePlan is the resolved work for one table.
type TablePlan struct {
	Entry     *registry.TableEntry `json:"-"`
	Table     string               `json:"table"`
	Parts     int                  `json:"parts"`
	FirstPart int                  `json:"first_part"`
	LastPart  int                  `json:"last_part"`
	TotalRows int64                `json:"total_rows"`
	Bytes     int64                `json:"estimated_bytes"`
}

// AutoParts returns the part count that keeps each part near 15 MiB.
func AutoParts(rows, avgRowSize int64) int {
	return int(rows*avgRowSize/targetPartBytes) + 1
}

func (p Plan) Validate() error {
	if len(p.Tables) == 0 {
		return fmt.Errorf("plan has no tables")
	}
	if !(p.ScaleFactor > 0) {
		return fmt.Errorf("scale factor must be positive, got %v", p.ScaleFactor)
	}
	if p.Parts < 0 {
		return fmt.Errorf("parts must not be negative, got %d", p.Parts)
	}
	if p.Part != 0 {
		if p.Parts == 0 {
			return fmt.Errorf("part %d requires an explicit part count", p.Part)
		}
		if p.Part < 1 || p.Part > p.Parts {
			return fmt.Errorf("part %d out of range [1, %d]", p.Part, p.Parts)
		}
	}
	switch p.Mode {
	case "", domain.TableModeCreateIfMissing, domain.TableModeTruncateThenInsert, domain.TableModeAppendOnly:
	default:
		return fmt.Errorf("unknown table mode: %s", p.Mode)
	}
	return nil
}

func (p Plan) Resolve() ([]TablePlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]TablePlan, 0, len(p.Tables))
	for _, e := range p.Tables {
		rows := e.TotalRows(p.ScaleFactor)
		parts := p.Parts
		if parts == 0 {
			parts = AutoParts(rows, e.AvgRowSize)
			if p.MaxParts > 0 && parts > p.MaxParts {
				parts = p.MaxParts
			}
		}
		first, last := 1, parts
		if p.Part != 0 {
			first, last = p.Part, p.Part
		}
		out = append(out, TablePlan{
			Entry:     e,
			Table:     e.Name,
			Parts:     parts,
			FirstPart: first,
			LastPart:  last,
			TotalRows: rows,
			Bytes:     rows * e.AvgRowSize,
		})
	}
	return out, nil
}

func (p Plan) batchSize() int {
	if p.BatchSize > 0 {
		return p.BatchSize
	}
	return DefaultBatchSize
}
