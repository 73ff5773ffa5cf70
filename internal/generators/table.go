// Package generators produces the benchmark tables. Every table is split
// into parts, and each part can be generated on its own: a row's values
// depend only on its key, never on the rows generated before it.
package generators

import (
	"context"

	"github.com/mmrzaf/sbgen/internal/domain"
)

// Row is one generated record.
type Row interface {
	// Values returns the column values in schema order.
	Values() []any
	// String renders the row pipe-delimited with a trailing '|'.
	String() string
}

type Iterator interface {
	Next() (Row, bool)
}

// Table is one part of a generated table.
type Table interface {
	Name() string
	Schema() domain.TableSchema
	RowCount() int64
	Iter() Iterator
}

// ContextTable is implemented by tables whose rows come from an external
// source that honours cancellation.
type ContextTable interface {
	Table
	IterContext(ctx context.Context) Iterator
}

const (
	TableVehicle  = "vehicle"
	TableDriver   = "driver"
	TableCustomer = "customer"
	TableTrip     = "trip"
	TableBuilding = "building"
	TableZone     = "zone"
)

func column(name string, t domain.ColumnType) domain.Column {
	return domain.Column{Name: name, Type: t}
}

func schema(name string, cols ...domain.Column) domain.TableSchema {
	return domain.TableSchema{Name: name, Columns: cols}
}

// partition holds the part a table generator was built for.
type partition struct {
	scaleFactor float64
	part, parts int
}

func newPartition(sf float64, part, parts int) partition {
	if parts < 1 || part < 1 || part > parts {
		panic("generators: part must be in [1, parts]")
	}
	if !(sf > 0) {
		panic("generators: scale factor must be positive")
	}
	return partition{scaleFactor: sf, part: part, parts: parts}
}

// Schemas returns the schema of every table, keyed by table name.
func Schemas() map[string]domain.TableSchema {
	return map[string]domain.TableSchema{
		TableVehicle:  vehicleSchema,
		TableDriver:   driverSchema,
		TableCustomer: customerSchema,
		TableTrip:     tripSchema,
		TableBuilding: buildingSchema,
		TableZone:     zoneSchema,
	}
}
