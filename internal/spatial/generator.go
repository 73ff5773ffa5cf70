package spatial

import (
	"math"
	"sort"
	"sync"
)

// Generator produces the geometry for a row index. It is safe for
// concurrent use; cluster tables are resolved once and then only read.
type Generator struct {
	cfg        Config
	affine     Affine
	continents []WeightedAffine

	thomas     func() *thomasTable
	hierThomas func() *hierTable
}

// NewGenerator validates cfg and binds it to cache. A nil cache gives the
// generator a private one.
func NewGenerator(cfg Config, cache *Cache) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewCache()
	}
	g := &Generator{cfg: cfg, affine: cfg.Affine}
	if g.affine.IsZero() {
		g.affine = FullWorld
	}
	if cfg.Continents != nil {
		g.continents = ContinentCDF(*cfg.Continents)
	}
	switch p := cfg.Params.(type) {
	case ThomasParams:
		k := thomasKey{parents: p.Parents, alpha: p.ParetoAlpha, xm: p.ParetoXm, seed: cfg.Seed}
		g.thomas = sync.OnceValue(func() *thomasTable { return cache.thomasTable(k) })
	case HierThomasParams:
		k := hierKey{
			cities:    p.Cities,
			subMean:   p.SubMean,
			subSD:     p.SubSD,
			subMin:    p.SubMin,
			subMax:    p.SubMax,
			sigmaCity: p.SigmaCity,
			alphaCity: p.ParetoAlphaCity,
			xmCity:    p.ParetoXmCity,
			alphaSub:  p.ParetoAlphaSub,
			xmSub:     p.ParetoXmSub,
			seed:      cfg.Seed,
		}
		g.hierThomas = sync.OnceValue(func() *hierTable { return cache.hierTable(k) })
	}
	return g, nil
}

// MustGenerator is NewGenerator for configurations known to be valid.
func MustGenerator(cfg Config, cache *Cache) *Generator {
	g, err := NewGenerator(cfg, cache)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Generator) Config() Config { return g.cfg }

func (g *Generator) Generate(index uint64) Geometry {
	seed := uint64(g.cfg.Seed)
	r := NewStream(SeedForIndex(index, seed))
	x, y, c, hasCell := g.sample(index, r)

	m := g.affine
	if g.continents != nil {
		m = pickContinent(g.continents, UnitFromSeed(SeedForIndex(index, seed^continentSalt)))
	}

	switch g.cfg.Geometry {
	case BoxGeom:
		if hasCell {
			return cellGeometry(c, m)
		}
		return boxGeometry(r, x, y, g.cfg.Width, g.cfg.Height, m)
	case PolygonGeom:
		return polygonGeometry(r, x, y, g.cfg.MaxSeg, g.cfg.PolySize, m)
	default:
		return NewPoint(m.project(x, y))
	}
}

// SampleUnit returns the unprojected point for index.
func (g *Generator) SampleUnit(index uint64) (float64, float64) {
	r := NewStream(SeedForIndex(index, uint64(g.cfg.Seed)))
	x, y, _, _ := g.sample(index, r)
	return x, y
}

func (g *Generator) sample(index uint64, r *Stream) (x, y float64, c cell, hasCell bool) {
	switch g.cfg.Distribution {
	case Uniform:
		x, y = sampleUniform(r)
	case Normal:
		x, y = sampleNormal(r, mustParams[NormalParams](g.cfg))
	case Diagonal:
		x, y = sampleDiagonal(r, mustParams[DiagonalParams](g.cfg))
	case Bit:
		x, y = sampleBit(r, mustParams[BitParams](g.cfg))
	case Sierpinski:
		x, y = sampleSierpinski(r)
	case Thomas:
		x, y = g.thomas().sample(r, mustParams[ThomasParams](g.cfg).Sigma)
	case HierThomas:
		x, y = g.hierThomas().sample(index, uint64(g.cfg.Seed), mustParams[HierThomasParams](g.cfg).SigmaSub)
	case Parcel:
		x, y, c = sampleParcel(r, mustParams[ParcelParams](g.cfg))
		hasCell = true
	default:
		panic(&ConfigError{Field: "dist_type", Reason: "unknown distribution " + g.cfg.Distribution.String()})
	}
	return x, y, c, hasCell
}

func boxGeometry(r *Stream, x, y, width, height float64, m Affine) Geometry {
	hw := r.Float64() * width / 2
	hh := r.Float64() * height / 2
	return NewPolygon([]Coord{
		m.project(x-hw, y-hh),
		m.project(x+hw, y-hh),
		m.project(x+hw, y+hh),
		m.project(x-hw, y+hh),
		m.project(x-hw, y-hh),
	})
}

func cellGeometry(c cell, m Affine) Geometry {
	return NewPolygon([]Coord{
		m.project(c.x, c.y),
		m.project(c.x+c.w, c.y),
		m.project(c.x+c.w, c.y+c.h),
		m.project(c.x, c.y+c.h),
		m.project(c.x, c.y),
	})
}

// polygonGeometry places vertices at sorted angles around the center so the
// ring is star-shaped and never self-intersects.
func polygonGeometry(r *Stream, x, y float64, maxSeg int, size float64, m Affine) Geometry {
	n := 3
	if maxSeg > 3 {
		n = 3 + r.IntN(maxSeg-3+1)
	}
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = r.Float64() * 2 * math.Pi
	}
	sort.Float64s(angles)

	ring := make([]Coord, 0, n+1)
	for _, a := range angles {
		vx := clamp01(x + size*math.Cos(a))
		vy := clamp01(y + size*math.Sin(a))
		ring = append(ring, m.project(vx, vy))
	}
	return NewPolygon(ring)
}
