// Package spatial turns a row index into a deterministic geometry. A
// Config selects one of several point processes on the unit square, the
// shape built around the sampled point and the affine map into lon/lat.
package spatial

import (
	"fmt"
	"math"
	"strings"
)

type DistributionKind int

const (
	Uniform DistributionKind = iota
	Normal
	Diagonal
	Bit
	Sierpinski
	Thomas
	HierThomas
	Parcel
)

var distributionNames = map[DistributionKind]string{
	Uniform:    "uniform",
	Normal:     "normal",
	Diagonal:   "diagonal",
	Bit:        "bit",
	Sierpinski: "sierpinski",
	Thomas:     "thomas",
	HierThomas: "hierthomas",
	Parcel:     "parcel",
}

func (k DistributionKind) String() string {
	if n, ok := distributionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("distribution(%d)", int(k))
}

// ParseDistributionKind accepts names case-insensitively.
func ParseDistributionKind(s string) (DistributionKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range distributionNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown distribution type: %s", s)
}

type GeomKind int

const (
	PointGeom GeomKind = iota
	BoxGeom
	PolygonGeom
)

func (k GeomKind) String() string {
	switch k {
	case PointGeom:
		return "point"
	case BoxGeom:
		return "box"
	case PolygonGeom:
		return "polygon"
	}
	return fmt.Sprintf("geometry(%d)", int(k))
}

func ParseGeomKind(s string) (GeomKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return PointGeom, nil
	case "box":
		return BoxGeom, nil
	case "polygon":
		return PolygonGeom, nil
	}
	return 0, fmt.Errorf("unknown geometry type: %s", s)
}

// Params carries the settings of one distribution kind.
type Params interface {
	Kind() DistributionKind
}

type NormalParams struct {
	Mu    float64
	Sigma float64
}

type DiagonalParams struct {
	Percentage float64
	Buffer     float64
}

type BitParams struct {
	Probability float64
	Digits      int
}

type ParcelParams struct {
	SRange float64
	Dither float64
}

// ThomasParams describes a Thomas cluster process. MeanOffspring is kept for
// configuration compatibility; sampling draws parents by Pareto weight only.
type ThomasParams struct {
	Parents       int
	MeanOffspring float64
	Sigma         float64
	ParetoAlpha   float64
	ParetoXm      float64
}

type HierThomasParams struct {
	Cities          int
	SubMean         float64
	SubSD           float64
	SubMin          int
	SubMax          int
	SigmaCity       float64
	SigmaSub        float64
	ParetoAlphaCity float64
	ParetoXmCity    float64
	ParetoAlphaSub  float64
	ParetoXmSub     float64
}

func (NormalParams) Kind() DistributionKind     { return Normal }
func (DiagonalParams) Kind() DistributionKind   { return Diagonal }
func (BitParams) Kind() DistributionKind        { return Bit }
func (ParcelParams) Kind() DistributionKind     { return Parcel }
func (ThomasParams) Kind() DistributionKind     { return Thomas }
func (HierThomasParams) Kind() DistributionKind { return HierThomas }

type Config struct {
	Distribution DistributionKind
	Geometry     GeomKind
	Dim          int
	Seed         uint32

	// Affine maps the unit square to lon/lat. Ignored when Continents is set.
	Affine     Affine
	Continents *ContinentAffines

	// Box
	Width  float64
	Height float64

	// Polygon
	MaxSeg   int
	PolySize float64

	Params Params
}

// ConfigError reports an invalid or inconsistent spatial configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("spatial config: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (c Config) Validate() error {
	if c.Dim != 0 && c.Dim != 2 {
		return invalid("dim", "only 2 dimensions are supported, got %d", c.Dim)
	}
	for i, v := range c.Affine {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("affine", "element %d is not finite", i)
		}
	}
	switch c.Geometry {
	case PointGeom:
	case BoxGeom:
		// Parcel boxes take their size from the split cell.
		if c.Distribution != Parcel && (c.Width <= 0 || c.Height <= 0) {
			return invalid("width/height", "box needs positive width and height, got %v x %v", c.Width, c.Height)
		}
		if c.Width < 0 || c.Height < 0 {
			return invalid("width/height", "must not be negative")
		}
	case PolygonGeom:
		if c.MaxSeg < 3 {
			return invalid("maxseg", "polygon needs at least 3 segments, got %d", c.MaxSeg)
		}
		if c.PolySize <= 0 {
			return invalid("polysize", "must be positive")
		}
	default:
		return invalid("geom_type", "unknown geometry %d", int(c.Geometry))
	}
	return c.validateParams()
}

func (c Config) validateParams() error {
	switch c.Distribution {
	case Uniform, Sierpinski:
		if c.Params != nil {
			return invalid("params", "%s takes no parameters, got %s", c.Distribution, c.Params.Kind())
		}
		return nil
	}
	if c.Params == nil {
		return invalid("params", "%s requires parameters", c.Distribution)
	}
	if c.Params.Kind() != c.Distribution {
		return invalid("params", "%s parameters given for %s distribution", c.Params.Kind(), c.Distribution)
	}
	switch p := c.Params.(type) {
	case NormalParams:
		if p.Sigma <= 0 {
			return invalid("params.sigma", "must be positive")
		}
	case DiagonalParams:
		if p.Percentage < 0 || p.Percentage > 1 {
			return invalid("params.percentage", "must be within [0, 1]")
		}
		if p.Buffer < 0 {
			return invalid("params.buffer", "must not be negative")
		}
	case BitParams:
		if p.Probability < 0 || p.Probability > 1 {
			return invalid("params.probability", "must be within [0, 1]")
		}
		if p.Digits < 1 || p.Digits > 64 {
			return invalid("params.digits", "must be within [1, 64]")
		}
	case ParcelParams:
		if p.SRange < 0 || p.SRange >= 0.5 {
			return invalid("params.srange", "must be within [0, 0.5)")
		}
		if p.Dither < 0 || p.Dither > 1 {
			return invalid("params.dither", "must be within [0, 1]")
		}
	case ThomasParams:
		if p.Parents < 1 {
			return invalid("params.parents", "must be at least 1")
		}
		if p.Sigma < 0 {
			return invalid("params.sigma", "must not be negative")
		}
		if p.ParetoAlpha <= 0 || p.ParetoXm <= 0 {
			return invalid("params.pareto", "alpha and xm must be positive")
		}
	case HierThomasParams:
		if p.Cities < 1 {
			return invalid("params.cities", "must be at least 1")
		}
		if p.SubMin < 1 || p.SubMax < p.SubMin {
			return invalid("params.sub_min/sub_max", "need 1 <= sub_min <= sub_max")
		}
		if p.SigmaCity < 0 || p.SigmaSub < 0 || p.SubSD < 0 {
			return invalid("params.sigma", "must not be negative")
		}
		if p.ParetoAlphaCity <= 0 || p.ParetoXmCity <= 0 || p.ParetoAlphaSub <= 0 || p.ParetoXmSub <= 0 {
			return invalid("params.pareto", "alpha and xm must be positive")
		}
	}
	return nil
}
