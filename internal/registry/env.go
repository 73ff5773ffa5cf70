package registry

import (
	"fmt"
	"sync"

	"github.com/mmrzaf/sbgen/internal/distance"
	"github.com/mmrzaf/sbgen/internal/generators"
	"github.com/mmrzaf/sbgen/internal/logging"
	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

// Env holds what table factories share across the parts of one run. The
// reference data and spatial generators are built on first use.
type Env struct {
	Reference *pools.Provider
	Distances distance.Model
	Zones     generators.ZoneSource
	Logger    *logging.Logger

	tripPoints       func() (*spatial.Generator, error)
	buildingPolygons func() (*spatial.Generator, error)
}

type EnvOptions struct {
	// TextPoolSize of zero uses the default pool size.
	TextPoolSize int
	Spatial      spatial.Overrides
	Distances    distance.Model
	Zones        generators.ZoneSource
	Logger       *logging.Logger
	// Reference lets runs share one provider; built from TextPoolSize when nil.
	Reference *pools.Provider
	Cache     *spatial.Cache
}

func NewEnv(opts EnvOptions) *Env {
	env := &Env{
		Reference: opts.Reference,
		Distances: opts.Distances,
		Zones:     opts.Zones,
		Logger:    opts.Logger,
	}
	if env.Reference == nil {
		env.Reference = pools.NewProvider(opts.TextPoolSize)
	}
	if env.Distances == nil {
		env.Distances = distance.DefaultKDE()
	}
	if env.Logger == nil {
		env.Logger = logging.NewNop()
	}
	cache := opts.Cache
	if cache == nil {
		cache = spatial.NewCache()
	}

	tripCfg := opts.Spatial.TripOr(spatial.TripDefault())
	buildingCfg := opts.Spatial.BuildingOr(spatial.BuildingDefault())
	env.tripPoints = sync.OnceValues(func() (*spatial.Generator, error) {
		if tripCfg.Geometry != spatial.PointGeom {
			return nil, fmt.Errorf("trip spatial config must produce points, not %s", tripCfg.Geometry)
		}
		return spatial.NewGenerator(tripCfg, cache)
	})
	env.buildingPolygons = sync.OnceValues(func() (*spatial.Generator, error) {
		if buildingCfg.Geometry == spatial.PointGeom {
			return nil, fmt.Errorf("building spatial config must produce boxes or polygons")
		}
		return spatial.NewGenerator(buildingCfg, cache)
	})
	return env
}

func (e *Env) TripPoints() (*spatial.Generator, error) { return e.tripPoints() }

func (e *Env) BuildingPolygons() (*spatial.Generator, error) { return e.buildingPolygons() }
