package spatial

import (
	"math"
	"sort"
	"sync"
)

const (
	parentWeightSalt = 0x243F6A8885A308D3
	cityWeightSalt   = 0x13198A2E03707344
	subCountSalt     = 0xA4093822299F31D0
	subCenterSalt    = 0x082EFA98EC4E6C89
	subWeightSalt    = 0x452821E638D01377

	cityPickSalt  = 0xBE5466CF34E90C6C
	subPickSalt   = 0xC0AC29B7C97C50DD
	subOffsetSalt = 0x3F84D5B5B5470917
)

// halton returns the radical inverse of i in the given base.
func halton(i uint64, base uint64) float64 {
	f, r := 1.0, 0.0
	for i > 0 {
		f /= float64(base)
		r += f * float64(i%base)
		i /= base
	}
	return r
}

func paretoWeight(alpha, xm float64, h uint64) float64 {
	u := UnitFromSeed(h)
	return xm / math.Pow(1-u, 1/alpha)
}

// normalizeCDF turns weights into a cumulative table ending at exactly 1.
func normalizeCDF(weights []float64) []float64 {
	cdf := make([]float64, len(weights))
	var total float64
	for _, w := range weights {
		total += w
	}
	var acc float64
	for i, w := range weights {
		acc += w
		cdf[i] = acc / total
	}
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1
	}
	return cdf
}

func searchCDF(cdf []float64, u float64) int {
	i := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	if i == len(cdf) {
		return len(cdf) - 1
	}
	return i
}

type thomasKey struct {
	parents int
	alpha   float64
	xm      float64
	seed    uint32
}

type thomasTable struct {
	centers []Coord
	cdf     []float64
}

func buildThomas(k thomasKey) *thomasTable {
	t := &thomasTable{centers: make([]Coord, k.parents)}
	weights := make([]float64, k.parents)
	for i := 0; i < k.parents; i++ {
		id := uint64(i)
		t.centers[i] = Coord{X: halton(id+1, 2), Y: halton(id+1, 3)}
		weights[i] = paretoWeight(k.alpha, k.xm, SeedForIndex(id, uint64(k.seed)^parentWeightSalt))
	}
	t.cdf = normalizeCDF(weights)
	return t
}

func (t *thomasTable) sample(r *Stream, sigma float64) (float64, float64) {
	c := t.centers[searchCDF(t.cdf, r.Float64())]
	x := clampUnit(normal(r, c.X, sigma))
	y := clampUnit(normal(r, c.Y, sigma))
	return x, y
}

type hierKey struct {
	cities            int
	subMean, subSD    float64
	subMin, subMax    int
	sigmaCity         float64
	alphaCity, xmCity float64
	alphaSub, xmSub   float64
	seed              uint32
}

type hierTable struct {
	cities  []Coord
	cityCDF []float64
	subs    [][]Coord
	subCDF  [][]float64
}

func subID(city, sub int) uint64 { return uint64(city)<<32 | uint64(sub) }

func buildHierThomas(k hierKey) *hierTable {
	seed := uint64(k.seed)
	t := &hierTable{
		cities: make([]Coord, k.cities),
		subs:   make([][]Coord, k.cities),
		subCDF: make([][]float64, k.cities),
	}
	cityWeights := make([]float64, k.cities)
	for c := 0; c < k.cities; c++ {
		id := uint64(c)
		center := Coord{X: halton(id+1, 2), Y: halton(id+1, 3)}
		t.cities[c] = center
		cityWeights[c] = paretoWeight(k.alphaCity, k.xmCity, SeedForIndex(id, seed^cityWeightSalt))

		count := int(math.Round(normal(NewStream(SeedForIndex(id, seed^subCountSalt)), k.subMean, k.subSD)))
		count = min(max(count, k.subMin), k.subMax)

		centers := make([]Coord, count)
		weights := make([]float64, count)
		for j := 0; j < count; j++ {
			r := NewStream(SeedForIndex(subID(c, j), seed^subCenterSalt))
			centers[j] = Coord{
				X: clampUnit(normal(r, center.X, k.sigmaCity)),
				Y: clampUnit(normal(r, center.Y, k.sigmaCity)),
			}
			weights[j] = paretoWeight(k.alphaSub, k.xmSub, SeedForIndex(subID(c, j), seed^subWeightSalt))
		}
		t.subs[c] = centers
		t.subCDF[c] = normalizeCDF(weights)
	}
	t.cityCDF = normalizeCDF(cityWeights)
	return t
}

// sample draws the city, the subcluster and the offset from separate
// streams so each step depends only on the row index and seed.
func (t *hierTable) sample(index, seed uint64, sigmaSub float64) (float64, float64) {
	city := searchCDF(t.cityCDF, NewStream(SeedForIndex(index, seed^cityPickSalt)).Float64())
	sub := searchCDF(t.subCDF[city], NewStream(SeedForIndex(index, seed^subPickSalt)).Float64())
	c := t.subs[city][sub]
	r := NewStream(SeedForIndex(index, seed^subOffsetSalt))
	x := clampUnit(normal(r, c.X, sigmaSub))
	y := clampUnit(normal(r, c.Y, sigmaSub))
	return x, y
}

// Cache holds cluster weight tables keyed by every parameter that shapes
// them. Each table is built once; callers asking for a table that is still
// being built wait for it.
type Cache struct {
	mu     sync.Mutex
	thomas map[thomasKey]func() *thomasTable
	hier   map[hierKey]func() *hierTable
}

func NewCache() *Cache {
	return &Cache{
		thomas: make(map[thomasKey]func() *thomasTable),
		hier:   make(map[hierKey]func() *hierTable),
	}
}

func (c *Cache) thomasTable(k thomasKey) *thomasTable {
	c.mu.Lock()
	get, ok := c.thomas[k]
	if !ok {
		get = sync.OnceValue(func() *thomasTable { return buildThomas(k) })
		c.thomas[k] = get
	}
	c.mu.Unlock()
	return get()
}

func (c *Cache) hierTable(k hierKey) *hierTable {
	c.mu.Lock()
	get, ok := c.hier[k]
	if !ok {
		get = sync.OnceValue(func() *hierTable { return buildHierThomas(k) })
		c.hier[k] = get
	}
	c.mu.Unlock()
	return get()
}

// Len reports how many distinct tables have been requested.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.thomas) + len(c.hier)
}
