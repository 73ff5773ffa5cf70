package generators

import (
	"context"
	"math"
	"time"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

var zoneSchema = schema(TableZone,
	column("z_zonekey", domain.ColumnTypeBigInt),
	column("z_gersid", domain.ColumnTypeText),
	column("z_country", domain.ColumnTypeText),
	column("z_region", domain.ColumnTypeText),
	column("z_name", domain.ColumnTypeText),
	column("z_subtype", domain.ColumnTypeText),
	column("z_boundary", domain.ColumnTypeGeometry),
)

// ZoneRecord is one administrative area as read from a ZoneSource.
type ZoneRecord struct {
	GersID   string
	Country  string
	Region   string
	Name     string
	Subtype  string
	Boundary spatial.RawWKT
}

// ZoneSource pages through an external catalogue of zones.
type ZoneSource interface {
	// LoadZones returns at most limit zones whose subtype is one of
	// subtypes, skipping the first offset matches. Order is the source
	// order and must be stable between calls.
	LoadZones(ctx context.Context, subtypes []string, offset, limit int64) ([]ZoneRecord, error)
}

type ZoneRow struct {
	ZoneKey int64
	ZoneRecord
}

func (r ZoneRow) Values() []any {
	return []any{r.ZoneKey, r.GersID, r.Country, r.Region, r.Name, r.Subtype, r.Boundary}
}

func (r ZoneRow) String() string {
	return rowString(itoa(r.ZoneKey), r.GersID, r.Country, r.Region, r.Name, r.Subtype, r.Boundary.WKT())
}

var zoneSubtypeCounts = map[string]int64{
	"microhood":    74797,
	"macrohood":    42619,
	"neighborhood": 298615,
	"county":       39680,
	"localadmin":   19007,
	"locality":     555834,
	"region":       4714,
	"dependency":   105,
	"country":      378,
}

// ZoneSubtypes lists the zone subtypes included at scale factor sf. Larger
// scale factors add coarser areas.
func ZoneSubtypes(sf float64) []string {
	subtypes := []string{"microhood", "macrohood"}
	if sf >= 10 {
		subtypes = append(subtypes, "neighborhood", "county")
	}
	if sf >= 100 {
		subtypes = append(subtypes, "localadmin", "locality", "region", "dependency")
	}
	if sf >= 1000 {
		subtypes = append(subtypes, "country")
	}
	return subtypes
}

// ZoneTotal is the number of zones in the whole table at scale factor sf.
func ZoneTotal(sf float64) int64 {
	var total int64
	for _, s := range ZoneSubtypes(sf) {
		total += zoneSubtypeCounts[s]
	}
	if sf < 1 {
		total = int64(math.Ceil(float64(total) * sf))
	}
	return total
}

type ZoneGenerator struct {
	partition
	source ZoneSource
	logger *logging.Logger
}

func NewZoneGenerator(source ZoneSource, logger *logging.Logger, sf float64, part, parts int) *ZoneGenerator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ZoneGenerator{partition: newPartition(sf, part, parts), source: source, logger: logger}
}

func (g *ZoneGenerator) Name() string { return TableZone }

func (g *ZoneGenerator) Schema() domain.TableSchema { return zoneSchema }

func (g *ZoneGenerator) perPart() int64 {
	return int64(math.Ceil(float64(ZoneTotal(g.scaleFactor)) / float64(g.parts)))
}

func (g *ZoneGenerator) offset() int64 {
	return int64(g.part-1) * g.perPart()
}

// RowCount is the number of zones this part asks the source for. A source
// holding fewer matching zones yields fewer rows.
func (g *ZoneGenerator) RowCount() int64 {
	return max(0, min(g.perPart(), ZoneTotal(g.scaleFactor)-g.offset()))
}

func (g *ZoneGenerator) Iter() Iterator { return g.Zones(context.Background()) }

func (g *ZoneGenerator) IterContext(ctx context.Context) Iterator { return g.Zones(ctx) }

// Zones loads this part from the source. Load failures are logged and
// produce an empty iterator.
func (g *ZoneGenerator) Zones(ctx context.Context) *ZoneIterator {
	it := &ZoneIterator{start: g.offset()}
	limit := g.RowCount()
	if limit == 0 {
		return it
	}
	if g.source == nil {
		g.logger.Warnw("no zone source configured, zone table is empty", map[string]any{"part": g.part})
		return it
	}

	started := time.Now()
	zones, err := g.source.LoadZones(ctx, ZoneSubtypes(g.scaleFactor), it.start, limit)
	if err != nil {
		g.logger.Errorw("failed to load zones", map[string]any{
			"part":  g.part,
			"parts": g.parts,
			"error": err,
		})
		return it
	}
	g.logger.Infow("zone partition loaded", map[string]any{
		"part":     g.part,
		"zones":    len(zones),
		"duration": time.Since(started).String(),
	})
	it.zones = zones
	return it
}

type ZoneIterator struct {
	zones []ZoneRecord
	start int64
	index int
}

func (it *ZoneIterator) Next() (Row, bool) {
	return it.NextZone()
}

func (it *ZoneIterator) NextZone() (ZoneRow, bool) {
	if it.index >= len(it.zones) {
		return ZoneRow{}, false
	}
	row := ZoneRow{ZoneKey: it.start + int64(it.index) + 1, ZoneRecord: it.zones[it.index]}
	it.index++
	return row, true
}
