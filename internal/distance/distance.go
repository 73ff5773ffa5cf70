// Package distance provides the trip distance model. A model is a pure
// function of the trip index.
package distance

import (
	"errors"
	"math"

	"github.com/mmrzaf/sbgen/internal/spatial"
)

type Model interface {
	Generate(index uint64) float64
}

const (
	defaultSeed      = 0x7A3C5E1F
	defaultBandwidth = 0.0035
	minDistance      = 0.0001
)

// defaultSamples are representative trip lengths, in the same unit the trip
// table projects dropoffs with (one unit moves a point by one degree).
var defaultSamples = []float64{
	0.0041, 0.0063, 0.0078, 0.0092, 0.0105, 0.0118, 0.0126, 0.0139,
	0.0147, 0.0158, 0.0166, 0.0177, 0.0189, 0.0201, 0.0214, 0.0228,
	0.0243, 0.0259, 0.0276, 0.0295, 0.0318, 0.0342, 0.0371, 0.0405,
	0.0446, 0.0497, 0.0558, 0.0634, 0.0731, 0.0862, 0.1043, 0.1307,
	0.1712, 0.2386, 0.3541,
}

// KDE samples from a Gaussian kernel density estimate over Samples. Each
// index seeds its own stream, so output does not depend on call order.
type KDE struct {
	Samples   []float64
	Bandwidth float64
	Seed      uint64
}

func DefaultKDE() *KDE {
	samples := make([]float64, len(defaultSamples))
	copy(samples, defaultSamples)
	return &KDE{Samples: samples, Bandwidth: defaultBandwidth, Seed: defaultSeed}
}

func (k *KDE) Validate() error {
	if len(k.Samples) == 0 {
		return errors.New("distance model has no samples")
	}
	if !(k.Bandwidth > 0) {
		return errors.New("distance model bandwidth must be positive")
	}
	return nil
}

func (k *KDE) Generate(index uint64) float64 {
	r := spatial.NewStream(spatial.SeedForIndex(index, k.Seed))
	center := k.Samples[r.IntN(len(k.Samples))]
	v := center + k.Bandwidth*r.NormFloat64()
	// Reflect at zero so short trips keep their mass.
	v = math.Abs(v)
	if v < minDistance {
		return minDistance
	}
	return v
}
