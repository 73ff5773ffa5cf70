package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mmrzaf/sbgen/internal/domain"
	"github.com/mmrzaf/sbgen/internal/generators"
)

var ErrUnknownTable = errors.New("unknown table")

// TableFactory builds one part of a table.
type TableFactory func(env *Env, sf float64, part, parts int) (generators.Table, error)

type TableEntry struct {
	Name  string
	Alias string
	// AvgRowSize is the approximate size in bytes of one tbl row, used to
	// pick a part count.
	AvgRowSize int64
	Schema     domain.TableSchema
	// TotalRows is the row count of the whole table at a scale factor.
	TotalRows func(sf float64) int64
	New       TableFactory
}

// Build checks the part bounds and scale factor before calling the factory.
func (e *TableEntry) Build(env *Env, sf float64, part, parts int) (generators.Table, error) {
	if !(sf > 0) {
		return nil, fmt.Errorf("%s: scale factor must be positive, got %v", e.Name, sf)
	}
	if parts < 1 || part < 1 || part > parts {
		return nil, fmt.Errorf("%s: part %d out of range [1, %d]", e.Name, part, parts)
	}
	return e.New(env, sf, part, parts)
}

type TableRegistry struct {
	mu      sync.RWMutex
	tables  map[string]*TableEntry
	aliases map[string]string
	order   []string
}

func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		tables:  make(map[string]*TableEntry),
		aliases: make(map[string]string),
	}
}

func (r *TableRegistry) Register(entry *TableEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tables[entry.Name]; exists {
		return fmt.Errorf("table already registered: %s", entry.Name)
	}
	if entry.Alias != "" {
		if owner, exists := r.aliases[entry.Alias]; exists {
			return fmt.Errorf("alias %s already used by table %s", entry.Alias, owner)
		}
		r.aliases[entry.Alias] = entry.Name
	}
	r.tables[entry.Name] = entry
	r.order = append(r.order, entry.Name)
	return nil
}

// Get looks a table up by name, case-insensitively, or by its exact alias.
func (r *TableRegistry) Get(name string) (*TableEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[name]; ok {
		return r.tables[canonical], nil
	}
	if entry, ok := r.tables[strings.ToLower(name)]; ok {
		return entry, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

// Resolve maps names to entries in registration order, dropping duplicates.
// No names selects every table.
func (r *TableRegistry) Resolve(names []string) ([]*TableEntry, error) {
	if len(names) == 0 {
		return r.List(), nil
	}
	seen := make(map[string]bool, len(names))
	var picked []*TableEntry
	for _, n := range names {
		entry, err := r.Get(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		if !seen[entry.Name] {
			seen[entry.Name] = true
			picked = append(picked, entry)
		}
	}
	rank := r.rank()
	sort.SliceStable(picked, func(i, j int) bool { return rank[picked[i].Name] < rank[picked[j].Name] })
	return picked, nil
}

func (r *TableRegistry) rank() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rank := make(map[string]int, len(r.order))
	for i, n := range r.order {
		rank[n] = i
	}
	return rank
}

func (r *TableRegistry) List() []*TableEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*TableEntry, 0, len(r.order))
	for _, n := range r.order {
		entries = append(entries, r.tables[n])
	}
	return entries
}

func (r *TableRegistry) Names() []string {
	entries := r.List()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func linearRows(base float64) func(float64) int64 {
	return func(sf float64) int64 { return generators.RowCount(base, sf, 1, 1) }
}

func DefaultTableRegistry() *TableRegistry {
	schemas := generators.Schemas()
	r := NewTableRegistry()
	for _, e := range []*TableEntry{
		{
			Name: generators.TableVehicle, Alias: "V", AvgRowSize: 64,
			TotalRows: linearRows(generators.VehicleScaleBase),
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				return generators.NewVehicleGenerator(env.Reference.Get(), sf, part, parts), nil
			},
		},
		{
			Name: generators.TableDriver, Alias: "d", AvgRowSize: 80,
			TotalRows: linearRows(generators.DriverScaleBase),
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				return generators.NewDriverGenerator(env.Reference.Get(), sf, part, parts), nil
			},
		},
		{
			Name: generators.TableCustomer, Alias: "c", AvgRowSize: 84,
			TotalRows: linearRows(generators.CustomerScaleBase),
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				return generators.NewCustomerGenerator(env.Reference.Get(), sf, part, parts), nil
			},
		},
		{
			Name: generators.TableTrip, Alias: "T", AvgRowSize: 144,
			TotalRows: linearRows(generators.TripScaleBase),
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				points, err := env.TripPoints()
				if err != nil {
					return nil, err
				}
				return generators.NewTripGenerator(env.Distances, points, sf, part, parts), nil
			},
		},
		{
			Name: generators.TableBuilding, Alias: "b", AvgRowSize: 212,
			TotalRows: func(sf float64) int64 {
				return generators.LogRowCount(generators.BuildingScaleBase, sf, 1, 1)
			},
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				polygons, err := env.BuildingPolygons()
				if err != nil {
					return nil, err
				}
				return generators.NewBuildingGenerator(env.Reference.Get(), polygons, sf, part, parts), nil
			},
		},
		{
			Name: generators.TableZone, Alias: "z", AvgRowSize: 115,
			TotalRows: generators.ZoneTotal,
			New: func(env *Env, sf float64, part, parts int) (generators.Table, error) {
				return generators.NewZoneGenerator(env.Zones, env.Logger.WithComponent("zone"), sf, part, parts), nil
			},
		},
	} {
		e.Schema = schemas[e.Name]
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}
