package generators

import (
	"strconv"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/random"
)

const (
	VehicleScaleBase = 100

	vehicleLicenseLength = 14
)

var vehicleSchema = schema(TableVehicle,
	column("v_vehiclekey", domain.ColumnTypeBigInt),
	column("v_mfgr", domain.ColumnTypeText),
	column("v_brand", domain.ColumnTypeText),
	column("v_type", domain.ColumnTypeText),
	column("v_license", domain.ColumnTypeText),
)

type VehicleRow struct {
	VehicleKey   int64
	Manufacturer string
	Brand        string
	Type         string
	License      string
}

func (r VehicleRow) Values() []any {
	return []any{r.VehicleKey, r.Manufacturer, r.Brand, r.Type, r.License}
}

func (r VehicleRow) String() string {
	return rowString(itoa(r.VehicleKey), r.Manufacturer, r.Brand, r.Type, r.License)
}

type VehicleGenerator struct {
	partition
	ref *pools.Reference
}

func NewVehicleGenerator(ref *pools.Reference, sf float64, part, parts int) *VehicleGenerator {
	return &VehicleGenerator{partition: newPartition(sf, part, parts), ref: ref}
}

func (g *VehicleGenerator) Name() string { return TableVehicle }

func (g *VehicleGenerator) Schema() domain.TableSchema { return vehicleSchema }

func (g *VehicleGenerator) RowCount() int64 {
	return RowCount(VehicleScaleBase, g.scaleFactor, g.part, g.parts)
}

func (g *VehicleGenerator) Iter() Iterator { return g.Vehicles() }

func (g *VehicleGenerator) Vehicles() *VehicleIterator {
	it := &VehicleIterator{
		manufacturer: random.NewBoundedInt(1, 1, 5),
		brand:        random.NewBoundedInt(46831694, 1, 5),
		vehicleType:  random.NewRandomString(1841581359, g.ref.Distributions.PartTypes),
		license:      random.NewText(804159733, g.ref.Text, vehicleLicenseLength),
		start:        StartIndex(VehicleScaleBase, g.scaleFactor, g.part, g.parts),
		count:        g.RowCount(),
	}
	it.streams = []random.RowStream{it.manufacturer, it.brand, it.vehicleType, it.license}
	random.AdvanceAll(it.start, it.streams...)
	return it
}

type VehicleIterator struct {
	manufacturer *random.BoundedInt
	brand        *random.BoundedInt
	vehicleType  *random.RandomString
	license      *random.Text

	streams []random.RowStream

	start, count, index int64
}

func (it *VehicleIterator) Next() (Row, bool) {
	return it.NextVehicle()
}

func (it *VehicleIterator) NextVehicle() (VehicleRow, bool) {
	if it.index >= it.count {
		return VehicleRow{}, false
	}
	mfgr := it.manufacturer.NextValue()
	brand := mfgr*10 + it.brand.NextValue()
	row := VehicleRow{
		VehicleKey:   it.start + it.index + 1,
		Manufacturer: "Manufacturer#" + strconv.Itoa(int(mfgr)),
		Brand:        "Brand#" + strconv.Itoa(int(brand)),
		Type:         it.vehicleType.NextValue(),
		License:      it.license.NextValue(),
	}
	random.FinishRow(it.streams...)
	it.index++
	return row, true
}
