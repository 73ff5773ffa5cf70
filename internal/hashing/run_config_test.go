package hashing

import (
	"testing"

	"github.com/mmrzaf/sbgen/internal/pools"
	"github.com/mmrzaf/sbgen/internal/spatial"
)

func normalTrip(sigma float64) *spatial.File {
	return &spatial.File{Trip: &spatial.InlineConfig{
		DistType: "normal",
		GeomType: "point",
		Seed:     7,
		Params:   spatial.InlineParams{Type: "normal", Mu: 0.5, Sigma: sigma},
	}}
}

func TestHashRunConfig_IncludesScalePartsAndSpatial(t *testing.T) {
	tables := []string{"trip", "building"}

	h1, err := HashRunConfig(tables, 1, 4, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashRunConfig(tables, 2, 4, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	h3, err := HashRunConfig(tables, 1, 8, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	h4, err := HashRunConfig(tables, 1, 4, 0, normalTrip(0.1))
	if err != nil {
		t.Fatal(err)
	}
	h5, err := HashRunConfig(tables, 1, 4, 0, normalTrip(0.2))
	if err != nil {
		t.Fatal(err)
	}

	if h1 == h2 {
		t.Fatal("expected scale factor to affect hash")
	}
	if h1 == h3 {
		t.Fatal("expected parts to affect hash")
	}
	if h1 == h4 || h4 == h5 {
		t.Fatal("expected spatial overrides to affect hash")
	}
}

func TestHashRunConfig_IncludesTextPoolSize(t *testing.T) {
	tables := []string{"vehicle"}

	implicit, err := HashRunConfig(tables, 1, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := HashRunConfig(tables, 1, 1, pools.DefaultTextPoolSize, nil)
	if err != nil {
		t.Fatal(err)
	}
	small, err := HashRunConfig(tables, 1, 1, 1<<20, nil)
	if err != nil {
		t.Fatal(err)
	}

	if implicit != explicit {
		t.Fatalf("expected default pool size to hash alike, got %s and %s", implicit, explicit)
	}
	if implicit == small {
		t.Fatal("expected text pool size to affect hash")
	}
}

func TestHashRunConfig_TableOrderIgnored(t *testing.T) {
	a, err := HashRunConfig([]string{"trip", "Building"}, 1, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashRunConfig([]string{"building", "trip"}, 1, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected equal hashes, got %s and %s", a, b)
	}
}

func TestHashSpatial_NormalizesDefaults(t *testing.T) {
	explicit := normalTrip(0.1)
	explicit.Trip.Affine = &spatial.FullGlobe
	explicit.Trip.Dim = 0

	h1, err := HashSpatial(normalTrip(0.1))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashSpatial(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("expected implicit and explicit full-globe affine to hash alike")
	}

	bad := &spatial.File{Trip: &spatial.InlineConfig{DistType: "nope"}}
	if _, err := HashSpatial(bad); err == nil {
		t.Fatal("expected invalid spatial config error")
	}
}
