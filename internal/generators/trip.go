package generators

import (
	"math"

	"github.com/mmrzaf/sbgen/internal/distance"
	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/random"
	"github.com/mmrzaf/sbgen/internal/spatial"
	"github.com/mmrzaf/sbgen/internal/timeutil"
)

const (
	TripScaleBase = 6_000_000

	customerMortality = 3
	driversPerVehicle = 4
	fareMinPerMile    = 150
	fareMaxPerMile    = 300
	tipPercentMin     = 0
	tipPercentMax     = 30
	secondsPerUnit    = 180000
	dropoffAngleSeed  = 1234
	coordScale        = 1e8
	longKeyThreshold  = 30000
)

var tripSchema = schema(TableTrip,
	column("t_tripkey", domain.ColumnTypeBigInt),
	column("t_custkey", domain.ColumnTypeBigInt),
	column("t_driverkey", domain.ColumnTypeBigInt),
	column("t_vehiclekey", domain.ColumnTypeBigInt),
	column("t_pickuptime", domain.ColumnTypeTimestamp),
	column("t_dropofftime", domain.ColumnTypeTimestamp),
	column("t_fare", domain.ColumnTypeDecimal),
	column("t_tip", domain.ColumnTypeDecimal),
	column("t_totalamount", domain.ColumnTypeDecimal),
	column("t_distance", domain.ColumnTypeDecimal),
	column("t_pickuploc", domain.ColumnTypeGeometry),
	column("t_dropoffloc", domain.ColumnTypeGeometry),
)

type TripRow struct {
	TripKey     int64
	CustomerKey int64
	DriverKey   int64
	VehicleKey  int64
	PickupTime  Timestamp
	DropoffTime Timestamp
	Fare        Decimal
	Tip         Decimal
	TotalAmount Decimal
	Distance    Decimal
	PickupLoc   spatial.Geometry
	DropoffLoc  spatial.Geometry
}

func (r TripRow) Values() []any {
	return []any{
		r.TripKey, r.CustomerKey, r.DriverKey, r.VehicleKey,
		r.PickupTime, r.DropoffTime,
		r.Fare, r.Tip, r.TotalAmount, r.Distance,
		r.PickupLoc, r.DropoffLoc,
	}
}

func (r TripRow) String() string {
	return rowString(
		itoa(r.TripKey), itoa(r.CustomerKey), itoa(r.DriverKey), itoa(r.VehicleKey),
		r.PickupTime.String(), r.DropoffTime.String(),
		r.Fare.String(), r.Tip.String(), r.TotalAmount.String(), r.Distance.String(),
		r.PickupLoc.WKT(), r.DropoffLoc.WKT(),
	)
}

// SelectDriver spreads the trips of one vehicle over the driver keys. Keys
// are drawn from the first vehicle-count drivers, so the result is always a
// valid driver key for the scale factor.
func SelectDriver(vehicleKey, tripNumber int64, sf float64) int64 {
	count := max(1, int64(VehicleScaleBase*sf))
	return (vehicleKey+tripNumber*(count/driversPerVehicle+(vehicleKey-1)/count))%count + 1
}

type TripGenerator struct {
	partition
	distances distance.Model
	points    *spatial.Generator
}

// NewTripGenerator builds a trip part. points must produce point
// geometries; a polygon config panics on the first row.
func NewTripGenerator(distances distance.Model, points *spatial.Generator, sf float64, part, parts int) *TripGenerator {
	return &TripGenerator{partition: newPartition(sf, part, parts), distances: distances, points: points}
}

func (g *TripGenerator) Name() string { return TableTrip }

func (g *TripGenerator) Schema() domain.TableSchema { return tripSchema }

func (g *TripGenerator) RowCount() int64 {
	return RowCount(TripScaleBase, g.scaleFactor, g.part, g.parts)
}

func (g *TripGenerator) Iter() Iterator { return g.Trips() }

func (g *TripGenerator) Trips() *TripIterator {
	sf := g.scaleFactor
	long := sf >= longKeyThreshold
	maxCustomer := max(1, int64(CustomerScaleBase*sf))
	maxVehicle := max(1, int64(VehicleScaleBase*sf))

	it := &TripIterator{
		customerKey: random.NewBoundedLong(921591341, long, 1, maxCustomer),
		vehicleKey:  random.NewBoundedLong(135497281, long, 1, maxVehicle),
		pickupDate:  random.NewBoundedInt(831649288, timeutil.MinGenerateDate, timeutil.MaxGenerateDate),
		pickupTime:  random.NewRandomTimeOfDay(123456789),
		farePerMile: random.NewBoundedInt(109837462, fareMinPerMile, fareMaxPerMile),
		tipPercent:  random.NewBoundedInt(483912756, tipPercentMin, tipPercentMax),
		distances:   g.distances,
		points:      g.points,
		scaleFactor: sf,
		maxCustomer: maxCustomer,
		start:       StartIndex(TripScaleBase, sf, g.part, g.parts),
		count:       g.RowCount(),
	}
	it.streams = []random.RowStream{
		it.customerKey, it.vehicleKey, it.pickupDate, it.pickupTime, it.farePerMile, it.tipPercent,
	}
	random.AdvanceAll(it.start, it.streams...)
	return it
}

type TripIterator struct {
	customerKey *random.BoundedLong
	vehicleKey  *random.BoundedLong
	pickupDate  *random.BoundedInt
	pickupTime  *random.RandomTimeOfDay
	farePerMile *random.BoundedInt
	tipPercent  *random.BoundedInt
	streams     []random.RowStream

	distances distance.Model
	points    *spatial.Generator

	scaleFactor         float64
	maxCustomer         int64
	start, count, index int64
}

func (it *TripIterator) Next() (Row, bool) {
	return it.NextTrip()
}

func (it *TripIterator) NextTrip() (TripRow, bool) {
	if it.index >= it.count {
		return TripRow{}, false
	}
	row := it.makeTrip(it.start + it.index + 1)
	random.FinishRow(it.streams...)
	it.index++
	return row, true
}

func (it *TripIterator) makeTrip(key int64) TripRow {
	// Keys divisible by customerMortality belong to customers that never
	// ride; step around them alternating up and down.
	customerKey := it.customerKey.NextValue()
	delta := int64(1)
	for customerKey%customerMortality == 0 {
		customerKey = min(customerKey+delta, it.maxCustomer)
		delta = -delta
	}

	vehicleKey := it.vehicleKey.NextValue()
	driverKey := SelectDriver(vehicleKey, 0, it.scaleFactor)

	day := it.pickupDate.NextValue()
	tod := it.pickupTime.NextValue()

	dist := round8(it.distances.Generate(uint64(key)))

	pickup, err := it.points.Generate(uint64(key)).AsPoint()
	if err != nil {
		panic("generators: trip pickup: " + err.Error())
	}
	angle := spatial.NewStream(spatial.SeedForIndex(uint64(key), dropoffAngleSeed)).Float64() * 2 * math.Pi
	dropoff := spatial.Coord{
		X: round8(pickup.X + dist*math.Cos(angle)),
		Y: round8(pickup.Y + dist*math.Sin(angle)),
	}

	fare := dist * float64(it.farePerMile.NextValue()) / 100
	tip := fare * float64(it.tipPercent.NextValue()) / 100

	total := tod.Seconds() + int32(math.Round(dist*secondsPerUnit))
	dropoffTime := Timestamp{
		Day:    min(day+total/86400, timeutil.MaxGenerateDate),
		Hour:   (total / 3600) % 24,
		Minute: (total % 3600) / 60,
		Second: total % 60,
	}

	return TripRow{
		TripKey:     key,
		CustomerKey: customerKey,
		DriverKey:   driverKey,
		VehicleKey:  vehicleKey,
		PickupTime:  Timestamp{Day: day, Hour: tod.Hour, Minute: tod.Minute, Second: tod.Second},
		DropoffTime: dropoffTime,
		Fare:        toDecimal(fare),
		Tip:         toDecimal(tip),
		TotalAmount: toDecimal(fare + tip),
		Distance:    toDecimal(dist),
		PickupLoc:   spatial.NewPoint(pickup),
		DropoffLoc:  spatial.NewPoint(dropoff),
	}
}

func round8(v float64) float64 { return math.Round(v*coordScale) / coordScale }

// toDecimal truncates toward zero, matching how amounts are stored.
func toDecimal(v float64) Decimal { return Decimal(int64(v * 100)) }
