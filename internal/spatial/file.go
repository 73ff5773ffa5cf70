package spatial

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// InlineConfig is the serialized form of a Config used by config files,
// run profiles and API requests.
type InlineConfig struct {
	DistType   string            `yaml:"dist_type" json:"dist_type"`
	GeomType   string            `yaml:"geom_type" json:"geom_type"`
	Dim        int               `yaml:"dim,omitempty" json:"dim,omitempty"`
	Seed       uint32            `yaml:"seed" json:"seed"`
	Affine     *Affine           `yaml:"affine,omitempty" json:"affine,omitempty"`
	Continents *ContinentAffines `yaml:"continents,omitempty" json:"continents,omitempty"`
	Width      float64           `yaml:"width,omitempty" json:"width,omitempty"`
	Height     float64           `yaml:"height,omitempty" json:"height,omitempty"`
	MaxSeg     int               `yaml:"maxseg,omitempty" json:"maxseg,omitempty"`
	PolySize   float64           `yaml:"polysize,omitempty" json:"polysize,omitempty"`
	Params     InlineParams      `yaml:"params" json:"params"`
}

// InlineParams is tagged by Type; only the fields of that type are read.
type InlineParams struct {
	Type string `yaml:"type" json:"type"`

	Mu          float64 `yaml:"mu,omitempty" json:"mu,omitempty"`
	Sigma       float64 `yaml:"sigma,omitempty" json:"sigma,omitempty"`
	Percentage  float64 `yaml:"percentage,omitempty" json:"percentage,omitempty"`
	Buffer      float64 `yaml:"buffer,omitempty" json:"buffer,omitempty"`
	Probability float64 `yaml:"probability,omitempty" json:"probability,omitempty"`
	Digits      int     `yaml:"digits,omitempty" json:"digits,omitempty"`
	SRange      float64 `yaml:"srange,omitempty" json:"srange,omitempty"`
	Dither      float64 `yaml:"dither,omitempty" json:"dither,omitempty"`

	Parents       int     `yaml:"parents,omitempty" json:"parents,omitempty"`
	MeanOffspring float64 `yaml:"mean_offspring,omitempty" json:"mean_offspring,omitempty"`
	ParetoAlpha   float64 `yaml:"pareto_alpha,omitempty" json:"pareto_alpha,omitempty"`
	ParetoXm      float64 `yaml:"pareto_xm,omitempty" json:"pareto_xm,omitempty"`

	Cities          int     `yaml:"cities,omitempty" json:"cities,omitempty"`
	SubMean         float64 `yaml:"sub_mean,omitempty" json:"sub_mean,omitempty"`
	SubSD           float64 `yaml:"sub_sd,omitempty" json:"sub_sd,omitempty"`
	SubMin          int     `yaml:"sub_min,omitempty" json:"sub_min,omitempty"`
	SubMax          int     `yaml:"sub_max,omitempty" json:"sub_max,omitempty"`
	SigmaCity       float64 `yaml:"sigma_city,omitempty" json:"sigma_city,omitempty"`
	SigmaSub        float64 `yaml:"sigma_sub,omitempty" json:"sigma_sub,omitempty"`
	ParetoAlphaCity float64 `yaml:"pareto_alpha_city,omitempty" json:"pareto_alpha_city,omitempty"`
	ParetoXmCity    float64 `yaml:"pareto_xm_city,omitempty" json:"pareto_xm_city,omitempty"`
	ParetoAlphaSub  float64 `yaml:"pareto_alpha_sub,omitempty" json:"pareto_alpha_sub,omitempty"`
	ParetoXmSub     float64 `yaml:"pareto_xm_sub,omitempty" json:"pareto_xm_sub,omitempty"`
}

// File is the on-disk layout: optional overrides for trip pickups and
// building footprints.
type File struct {
	Trip     *InlineConfig `yaml:"trip,omitempty" json:"trip,omitempty"`
	Building *InlineConfig `yaml:"building,omitempty" json:"building,omitempty"`
}

// Overrides replaces the default spatial configuration per table.
type Overrides struct {
	Trip     *Config
	Building *Config
}

func (o Overrides) TripOr(def Config) Config {
	if o.Trip != nil {
		return *o.Trip
	}
	return def
}

func (o Overrides) BuildingOr(def Config) Config {
	if o.Building != nil {
		return *o.Building
	}
	return def
}

func LoadFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to read spatial config: %w", err)
	}
	return ParseFile(data)
}

func ParseFile(data []byte) (Overrides, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse spatial config: %w", err)
	}
	return f.Overrides()
}

func (f File) Overrides() (Overrides, error) {
	var o Overrides
	if f.Trip != nil {
		c, err := f.Trip.ToConfig()
		if err != nil {
			return Overrides{}, fmt.Errorf("trip: %w", err)
		}
		o.Trip = &c
	}
	if f.Building != nil {
		c, err := f.Building.ToConfig()
		if err != nil {
			return Overrides{}, fmt.Errorf("building: %w", err)
		}
		o.Building = &c
	}
	return o, nil
}

// ToConfig converts and validates.
func (ic InlineConfig) ToConfig() (Config, error) {
	dist, err := ParseDistributionKind(ic.DistType)
	if err != nil {
		return Config{}, &ConfigError{Field: "dist_type", Reason: err.Error()}
	}
	geom, err := ParseGeomKind(ic.GeomType)
	if err != nil {
		return Config{}, &ConfigError{Field: "geom_type", Reason: err.Error()}
	}
	params, err := ic.Params.toParams()
	if err != nil {
		return Config{}, err
	}
	c := Config{
		Distribution: dist,
		Geometry:     geom,
		Dim:          ic.Dim,
		Seed:         ic.Seed,
		Affine:       FullGlobe,
		Continents:   ic.Continents,
		Width:        ic.Width,
		Height:       ic.Height,
		MaxSeg:       ic.MaxSeg,
		PolySize:     ic.PolySize,
		Params:       params,
	}
	if ic.Affine != nil {
		c.Affine = *ic.Affine
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (p InlineParams) toParams() (Params, error) {
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "", "none":
		return nil, nil
	case "normal":
		return NormalParams{Mu: p.Mu, Sigma: p.Sigma}, nil
	case "diagonal":
		return DiagonalParams{Percentage: p.Percentage, Buffer: p.Buffer}, nil
	case "bit":
		return BitParams{Probability: p.Probability, Digits: p.Digits}, nil
	case "parcel":
		return ParcelParams{SRange: p.SRange, Dither: p.Dither}, nil
	case "thomas":
		return ThomasParams{
			Parents:       p.Parents,
			MeanOffspring: p.MeanOffspring,
			Sigma:         p.Sigma,
			ParetoAlpha:   p.ParetoAlpha,
			ParetoXm:      p.ParetoXm,
		}, nil
	case "hierthomas":
		return HierThomasParams{
			Cities:          p.Cities,
			SubMean:         p.SubMean,
			SubSD:           p.SubSD,
			SubMin:          p.SubMin,
			SubMax:          p.SubMax,
			SigmaCity:       p.SigmaCity,
			SigmaSub:        p.SigmaSub,
			ParetoAlphaCity: p.ParetoAlphaCity,
			ParetoXmCity:    p.ParetoXmCity,
			ParetoAlphaSub:  p.ParetoAlphaSub,
			ParetoXmSub:     p.ParetoXmSub,
		}, nil
	}
	return nil, &ConfigError{Field: "params.type", Reason: "unknown parameter type " + p.Type}
}

// Inline is the inverse of ToConfig.
func Inline(c Config) InlineConfig {
	affine := c.Affine
	ic := InlineConfig{
		DistType:   c.Distribution.String(),
		GeomType:   c.Geometry.String(),
		Dim:        c.Dim,
		Seed:       c.Seed,
		Affine:     &affine,
		Continents: c.Continents,
		Width:      c.Width,
		Height:     c.Height,
		MaxSeg:     c.MaxSeg,
		PolySize:   c.PolySize,
		Params:     InlineParams{Type: "none"},
	}
	switch p := c.Params.(type) {
	case NormalParams:
		ic.Params = InlineParams{Type: "normal", Mu: p.Mu, Sigma: p.Sigma}
	case DiagonalParams:
		ic.Params = InlineParams{Type: "diagonal", Percentage: p.Percentage, Buffer: p.Buffer}
	case BitParams:
		ic.Params = InlineParams{Type: "bit", Probability: p.Probability, Digits: p.Digits}
	case ParcelParams:
		ic.Params = InlineParams{Type: "parcel", SRange: p.SRange, Dither: p.Dither}
	case ThomasParams:
		ic.Params = InlineParams{
			Type:          "thomas",
			Parents:       p.Parents,
			MeanOffspring: p.MeanOffspring,
			Sigma:         p.Sigma,
			ParetoAlpha:   p.ParetoAlpha,
			ParetoXm:      p.ParetoXm,
		}
	case HierThomasParams:
		ic.Params = InlineParams{
			Type:            "hierthomas",
			Cities:          p.Cities,
			SubMean:         p.SubMean,
			SubSD:           p.SubSD,
			SubMin:          p.SubMin,
			SubMax:          p.SubMax,
			SigmaCity:       p.SigmaCity,
			SigmaSub:        p.SigmaSub,
			ParetoAlphaCity: p.ParetoAlphaCity,
			ParetoXmCity:    p.ParetoXmCity,
			ParetoAlphaSub:  p.ParetoAlphaSub,
			ParetoXmSub:     p.ParetoXmSub,
		}
	}
	return ic
}
