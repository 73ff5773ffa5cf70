package spatial

import (
	"fmt"
	"sort"
)

// TripDefault places trip pickups with the bit process over the full world.
func TripDefault() Config {
	return Config{
		Distribution: Bit,
		Geometry:     PointGeom,
		Dim:          2,
		Seed:         56789,
		Affine:       FullWorld,
		Params:       BitParams{Probability: 0.35, Digits: 30},
	}
}

// BuildingDefault draws small polygons on the Sierpinski attractor.
func BuildingDefault() Config {
	return Config{
		Distribution: Sierpinski,
		Geometry:     PolygonGeom,
		Dim:          2,
		Seed:         12345,
		Affine:       FullWorld,
		MaxSeg:       5,
		PolySize:     0.000039,
	}
}

func tripPoints(kind DistributionKind, params Params) Config {
	return Config{
		Distribution: kind,
		Geometry:     PointGeom,
		Dim:          2,
		Seed:         42,
		Affine:       FullGlobe,
		Params:       params,
	}
}

var presets = map[string]func() Config{
	"trip-default":     TripDefault,
	"building-default": BuildingDefault,
	"trip-uniform":     func() Config { return tripPoints(Uniform, nil) },
	"trip-diagonal": func() Config {
		return tripPoints(Diagonal, DiagonalParams{Percentage: 0.5, Buffer: 0.5})
	},
	"trip-sierpinski": func() Config { return tripPoints(Sierpinski, nil) },
	"trip-bit":        func() Config { return tripPoints(Bit, BitParams{Probability: 0.2, Digits: 10}) },
	"trip-normal":     func() Config { return tripPoints(Normal, NormalParams{Mu: 0.5, Sigma: 0.1}) },
	"trip-thomas": func() Config {
		return tripPoints(Thomas, ThomasParams{
			Parents:       1000,
			MeanOffspring: 50,
			Sigma:         0.01,
			ParetoAlpha:   1.2,
			ParetoXm:      1,
		})
	},
	"trip-hierthomas": func() Config {
		c := tripPoints(HierThomas, HierThomasParams{
			Cities:          200,
			SubMean:         8,
			SubSD:           3,
			SubMin:          1,
			SubMax:          20,
			SigmaCity:       0.02,
			SigmaSub:        0.003,
			ParetoAlphaCity: 1.1,
			ParetoXmCity:    1,
			ParetoAlphaSub:  1.5,
			ParetoXmSub:     1,
		})
		continents := DefaultContinentAffines()
		c.Continents = &continents
		return c
	},
	"building-boxes": func() Config {
		return Config{
			Distribution: Bit,
			Geometry:     BoxGeom,
			Dim:          2,
			Seed:         12345,
			Affine:       FullGlobe,
			Width:        0.00005,
			Height:       0.0001,
			Params:       BitParams{Probability: 0.5, Digits: 20},
		}
	},
	"building-parcels": func() Config {
		return Config{
			Distribution: Parcel,
			Geometry:     BoxGeom,
			Dim:          2,
			Seed:         12345,
			Affine:       FullGlobe,
			Params:       ParcelParams{SRange: 0.1, Dither: 0.5},
		}
	},
}

func Preset(name string) (Config, error) {
	f, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown spatial preset: %s", name)
	}
	return f(), nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
