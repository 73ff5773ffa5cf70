package app

import (
	"fmt"

	"github.com/mmrzaf/sbgen/internal/infra/targets/file"
	"github.com/mmrzaf/sbgen/internal/registry"
	"github.com/mmrzaf/sbgen/internal/spatial"
	"github.com/mmrzaf/sbgen/internal/validation"
)

const (
	DefaultPreviewRows = 10
	MaxPreviewRows     = 1000
)

// TablePreview holds the first rows of a table, rendered as text except for
// integer keys.
type TablePreview struct {
	Table       string   `json:"table"`
	ScaleFactor float64  `json:"scale_factor"`
	TotalRows   int64    `json:"total_rows"`
	Columns     []string `json:"columns"`
	Rows        [][]any  `json:"rows"`
}

// PreviewTable generates the first limit rows of a table with the default
// spatial configs.
func (s *RunService) PreviewTable(name string, sf float64, limit int) (*TablePreview, error) {
	if sf == 0 {
		sf = defaultScaleFactor
	}
	if !(sf > 0) {
		return nil, fmt.Errorf("%w: scale_factor must be positive", validation.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	limit = min(limit, MaxPreviewRows)

	entry, err := s.tables.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrInvalidRequest, err)
	}
	env := registry.NewEnv(registry.EnvOptions{
		Zones:     s.opts.Zones,
		Logger:    s.logger,
		Reference: s.reference,
		Cache:     s.cache,
	})
	tbl, err := entry.Build(env, sf, 1, 1)
	if err != nil {
		return nil, err
	}

	p := &TablePreview{
		Table:       entry.Name,
		ScaleFactor: sf,
		TotalRows:   tbl.RowCount(),
		Columns:     entry.Schema.ColumnNames(),
		Rows:        [][]any{},
	}
	it := tbl.Iter()
	for len(p.Rows) < limit {
		row, ok := it.Next()
		if !ok {
			break
		}
		vals := row.Values()
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = previewValue(v)
		}
		p.Rows = append(p.Rows, out)
	}
	return p, nil
}

func previewValue(v any) any {
	switch val := v.(type) {
	case int64:
		return val
	case spatial.WKTer:
		return val.WKT()
	default:
		return file.FormatValue(v)
	}
}
