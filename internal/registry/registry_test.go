package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

func testEnv(overrides spatial.Overrides) *Env {
	return NewEnv(EnvOptions{Reference: pools.NewProvider(1 << 20), Spatial: overrides})
}

func TestDefaultRegistryLookup(t *testing.T) {
	r := DefaultTableRegistry()
	assert.Equal(t, []string{"vehicle", "driver", "customer", "trip", "building", "zone"}, r.Names())

	for alias, name := range map[string]string{"V": "vehicle", "d": "driver", "c": "customer", "T": "trip", "b": "building", "z": "zone", "TRIP": "trip"} {
		e, err := r.Get(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, name, e.Name)
	}

	_, err := r.Get("lineitem")
	assert.Error(t, err)
}

func TestResolveKeepsRegistrationOrder(t *testing.T) {
	r := DefaultTableRegistry()
	entries, err := r.Resolve([]string{"T", "driver", "trip", " V"})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "vehicle", entries[0].Name)
	assert.Equal(t, "driver", entries[1].Name)
	assert.Equal(t, "trip", entries[2].Name)

	all, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewTableRegistry()
	require.NoError(t, r.Register(&TableEntry{Name: "a", Alias: "x"}))
	assert.Error(t, r.Register(&TableEntry{Name: "a"}))
	assert.Error(t, r.Register(&TableEntry{Name: "b", Alias: "x"}))
}

func TestEntriesBuildTables(t *testing.T) {
	r := DefaultTableRegistry()
	env := testEnv(spatial.Overrides{})
	for _, e := range r.List() {
		tbl, err := e.Build(env, 0.01, 1, 1)
		require.NoError(t, err, e.Name)
		assert.Equal(t, e.Name, tbl.Name())
		assert.Equal(t, e.Schema, tbl.Schema())
		if e.Name != "zone" {
			assert.Equal(t, e.TotalRows(0.01), tbl.RowCount(), e.Name)
		}
	}

	_, err := r.List()[0].Build(env, 1, 2, 1)
	assert.Error(t, err)
	_, err = r.List()[0].Build(env, 0, 1, 1)
	assert.Error(t, err)
}

func TestEnvRejectsWrongGeometry(t *testing.T) {
	building := spatial.BuildingDefault()
	trip := spatial.TripDefault()
	trip.Geometry = spatial.PolygonGeom
	trip.MaxSeg = 4
	trip.PolySize = 0.001
	building.Geometry = spatial.PointGeom

	env := testEnv(spatial.Overrides{Trip: &trip, Building: &building})
	_, err := env.TripPoints()
	assert.Error(t, err)
	_, err = env.BuildingPolygons()
	assert.Error(t, err)
}
