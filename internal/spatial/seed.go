package spatial

import "math"

const (
	goldenGamma = 0x9E3779B97F4A7C15

	continentSalt = 0x5851F42D4C957F2D
)

// SeedForIndex mixes a row index and a seed with the SplitMix64 finaliser.
func SeedForIndex(index, seed uint64) uint64 {
	z := index + seed + goldenGamma
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// UnitFromSeed maps a 64-bit hash onto [0, 1) using its top 53 bits.
func UnitFromSeed(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

var maxUnit = math.Nextafter(1, 0)

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxUnit {
		return maxUnit
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// normal draws from N(mu, sigma) with the Box-Muller transform.
func normal(r *Stream, mu, sigma float64) float64 {
	return mu + sigma*r.NormFloat64()
}
