package generators

import (
	"fmt"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/random"
)

const CustomerScaleBase = 30000

var customerSchema = schema(TableCustomer,
	column("c_customerkey", domain.ColumnTypeBigInt),
	column("c_name", domain.ColumnTypeText),
	column("c_address", domain.ColumnTypeText),
	column("c_region", domain.ColumnTypeText),
	column("c_nation", domain.ColumnTypeText),
	column("c_phone", domain.ColumnTypeText),
)

type CustomerRow struct {
	CustomerKey int64
	Name        string
	Address     string
	Region      string
	Nation      string
	Phone       string
}

func (r CustomerRow) Values() []any {
	return []any{r.CustomerKey, r.Name, r.Address, r.Region, r.Nation, r.Phone}
}

func (r CustomerRow) String() string {
	return rowString(itoa(r.CustomerKey), r.Name, r.Address, r.Region, r.Nation, r.Phone)
}

type CustomerGenerator struct {
	partition
	ref *pools.Reference
}

func NewCustomerGenerator(ref *pools.Reference, sf float64, part, parts int) *CustomerGenerator {
	return &CustomerGenerator{partition: newPartition(sf, part, parts), ref: ref}
}

func (g *CustomerGenerator) Name() string { return TableCustomer }

func (g *CustomerGenerator) Schema() domain.TableSchema { return customerSchema }

func (g *CustomerGenerator) RowCount() int64 {
	return RowCount(CustomerScaleBase, g.scaleFactor, g.part, g.parts)
}

func (g *CustomerGenerator) Iter() Iterator { return g.Customers() }

func (g *CustomerGenerator) Customers() *CustomerIterator {
	d := g.ref.Distributions
	it := &CustomerIterator{
		dists:   d,
		address: random.NewAlphaNumeric(881155353, addressAverageLength),
		nation:  random.NewBoundedInt(1489529863, 0, int32(d.Nations.Size()-1)),
		phone:   random.NewPhoneNumber(1521138112),
		start:   StartIndex(CustomerScaleBase, g.scaleFactor, g.part, g.parts),
		count:   g.RowCount(),
	}
	it.streams = []random.RowStream{it.address, it.nation, it.phone}
	random.AdvanceAll(it.start, it.streams...)
	return it
}

type CustomerIterator struct {
	dists   *pools.Distributions
	address *random.AlphaNumeric
	nation  *random.BoundedInt
	phone   *random.PhoneNumber
	streams []random.RowStream

	start, count, index int64
}

func (it *CustomerIterator) Next() (Row, bool) {
	return it.NextCustomer()
}

func (it *CustomerIterator) NextCustomer() (CustomerRow, bool) {
	if it.index >= it.count {
		return CustomerRow{}, false
	}
	key := it.start + it.index + 1
	address := it.address.NextValue()
	nationKey := int64(it.nation.NextValue())
	row := CustomerRow{
		CustomerKey: key,
		Name:        fmt.Sprintf("Customer#%09d", key),
		Address:     address,
		Region:      it.dists.Region(nationKey),
		Nation:      it.dists.Nations.Value(int(nationKey)),
		Phone:       it.phone.NextValue(nationKey),
	}
	random.FinishRow(it.streams...)
	it.index++
	return row, true
}
