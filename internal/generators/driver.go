package generators

import (
	"fmt"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/random"
)

const (
	DriverScaleBase = 500

	addressAverageLength = 25
)

var driverSchema = schema(TableDriver,
	column("d_driverkey", domain.ColumnTypeBigInt),
	column("d_name", domain.ColumnTypeText),
	column("d_address", domain.ColumnTypeText),
	column("d_region", domain.ColumnTypeText),
	column("d_nation", domain.ColumnTypeText),
	column("d_phone", domain.ColumnTypeText),
)

type DriverRow struct {
	DriverKey int64
	Name      string
	Address   string
	Region    string
	Nation    string
	Phone     string
}

func (r DriverRow) Values() []any {
	return []any{r.DriverKey, r.Name, r.Address, r.Region, r.Nation, r.Phone}
}

func (r DriverRow) String() string {
	return rowString(itoa(r.DriverKey), r.Name, r.Address, r.Region, r.Nation, r.Phone)
}

type DriverGenerator struct {
	partition
	ref *pools.Reference
}

func NewDriverGenerator(ref *pools.Reference, sf float64, part, parts int) *DriverGenerator {
	return &DriverGenerator{partition: newPartition(sf, part, parts), ref: ref}
}

func (g *DriverGenerator) Name() string { return TableDriver }

func (g *DriverGenerator) Schema() domain.TableSchema { return driverSchema }

func (g *DriverGenerator) RowCount() int64 {
	return RowCount(DriverScaleBase, g.scaleFactor, g.part, g.parts)
}

func (g *DriverGenerator) Iter() Iterator { return g.Drivers() }

func (g *DriverGenerator) Drivers() *DriverIterator {
	d := g.ref.Distributions
	it := &DriverIterator{
		dists:   d,
		address: random.NewAlphaNumeric(706178559, addressAverageLength),
		nation:  random.NewBoundedInt(110356601, 0, int32(d.Nations.Size()-1)),
		phone:   random.NewPhoneNumber(884434366),
		start:   StartIndex(DriverScaleBase, g.scaleFactor, g.part, g.parts),
		count:   g.RowCount(),
	}
	it.streams = []random.RowStream{it.address, it.nation, it.phone}
	random.AdvanceAll(it.start, it.streams...)
	return it
}

type DriverIterator struct {
	dists   *pools.Distributions
	address *random.AlphaNumeric
	nation  *random.BoundedInt
	phone   *random.PhoneNumber
	streams []random.RowStream

	start, count, index int64
}

func (it *DriverIterator) Next() (Row, bool) {
	return it.NextDriver()
}

func (it *DriverIterator) NextDriver() (DriverRow, bool) {
	if it.index >= it.count {
		return DriverRow{}, false
	}
	key := it.start + it.index + 1
	address := it.address.NextValue()
	nationKey := int64(it.nation.NextValue())
	row := DriverRow{
		DriverKey: key,
		Name:      fmt.Sprintf("Driver#%09d", key),
		Address:   address,
		Region:    it.dists.Region(nationKey),
		Nation:    it.dists.Nations.Value(int(nationKey)),
		Phone:     it.phone.NextValue(nationKey),
	}
	random.FinishRow(it.streams...)
	it.index++
	return row, true
}
