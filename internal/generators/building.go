package generators

import (
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/random"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

// BuildingScaleBase is the building count at scale factor 1. The table
// grows with log2 of the scale factor.
const BuildingScaleBase = 20_000

var buildingSchema = schema(TableBuilding,
	column("b_buildingkey", domain.ColumnTypeBigInt),
	column("b_name", domain.ColumnTypeText),
	column("b_boundary", domain.ColumnTypeGeometry),
)

type BuildingRow struct {
	BuildingKey int64
	Name        string
	Boundary    spatial.Geometry
}

func (r BuildingRow) Values() []any {
	return []any{r.BuildingKey, r.Name, r.Boundary}
}

func (r BuildingRow) String() string {
	return rowString(itoa(r.BuildingKey), r.Name, r.Boundary.WKT())
}

type BuildingGenerator struct {
	partition
	ref      *pools.Reference
	polygons *spatial.Generator
}

// NewBuildingGenerator builds a building part. polygons must produce
// polygon geometries.
func NewBuildingGenerator(ref *pools.Reference, polygons *spatial.Generator, sf float64, part, parts int) *BuildingGenerator {
	return &BuildingGenerator{partition: newPartition(sf, part, parts), ref: ref, polygons: polygons}
}

func (g *BuildingGenerator) Name() string { return TableBuilding }

func (g *BuildingGenerator) Schema() domain.TableSchema { return buildingSchema }

func (g *BuildingGenerator) RowCount() int64 {
	return LogRowCount(BuildingScaleBase, g.scaleFactor, g.part, g.parts)
}

func (g *BuildingGenerator) Iter() Iterator { return g.Buildings() }

func (g *BuildingGenerator) Buildings() *BuildingIterator {
	it := &BuildingIterator{
		name:     random.NewStringSequence(709314158, 1, g.ref.Distributions.Colors),
		polygons: g.polygons,
		start:    LogStartIndex(BuildingScaleBase, g.scaleFactor, g.part, g.parts),
		count:    g.RowCount(),
	}
	it.name.AdvanceRows(it.start)
	return it
}

type BuildingIterator struct {
	name     *random.StringSequence
	polygons *spatial.Generator

	start, count, index int64
}

func (it *BuildingIterator) Next() (Row, bool) {
	return it.NextBuilding()
}

func (it *BuildingIterator) NextBuilding() (BuildingRow, bool) {
	if it.index >= it.count {
		return BuildingRow{}, false
	}
	key := it.start + it.index + 1
	boundary := it.polygons.Generate(uint64(key))
	if _, err := boundary.AsPolygon(); err != nil {
		panic("generators: building boundary: " + err.Error())
	}
	row := BuildingRow{BuildingKey: key, Name: it.name.NextValue(), Boundary: boundary}
	it.name.RowFinished()
	it.index++
	return row, true
}
