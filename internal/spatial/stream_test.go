package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_KnownDraws(t *testing.T) {
	r := NewStream(0)
	assert.Equal(t, uint32(0xcd2c6f7f), r.Uint32())
	assert.Equal(t, uint32(0xbb2a3fb2), r.Uint32())
	assert.Equal(t, uint32(0x8e27697b), r.Uint32())

	r = NewStream(42)
	assert.Equal(t, uint64(9713269763989775522), r.Uint64())
	assert.Equal(t, 0.5427252099031439, r.Float64())

	assert.Equal(t, 0.02478734969262497, NewStream(SeedForIndex(2, 1234)).Float64())
}

func TestStream_IntN(t *testing.T) {
	r := NewStream(7)
	got := make([]int, 10)
	for i := range got {
		got[i] = r.IntN(3)
	}
	assert.Equal(t, []int{1, 0, 0, 0, 0, 1, 2, 0, 2, 1}, got)

	r = NewStream(99)
	for i := 0; i < 1000; i++ {
		v := r.IntN(5)
		require.True(t, v >= 0 && v < 5, "%d", v)
	}
	assert.Panics(t, func() { r.IntN(0) })
}

func TestStream_CrossesBlockBoundary(t *testing.T) {
	a, b := NewStream(5), NewStream(5)
	words := make([]uint32, 40)
	for i := range words {
		words[i] = a.Uint32()
	}
	// Word 15 is the last of the first block; the pair read at 15 spans two.
	for i := 0; i < 15; i++ {
		b.Uint32()
	}
	assert.Equal(t, uint64(words[16])<<32|uint64(words[15]), b.Uint64())
	assert.Equal(t, words[17], b.Uint32())
}

func TestBitPreset_ReproducesKnownPickup(t *testing.T) {
	cfg, err := Preset("trip-bit")
	require.NoError(t, err)
	g := MustGenerator(cfg, nil)
	assert.Equal(t, "POINT(-168.046875 -21.09375)", g.Generate(2).WKT())
	assert.Equal(t, "POINT(-171.5625 -78.3984375)", g.Generate(3).WKT())
}

func TestHierThomas_StepsUseOwnStreams(t *testing.T) {
	k := hierKey{
		cities: 8, subMean: 4, subSD: 1, subMin: 2, subMax: 6,
		sigmaCity: 0.05, alphaCity: 1.2, xmCity: 1, alphaSub: 1.5, xmSub: 1,
		seed: 9,
	}
	tbl := buildHierThomas(k)
	seed := uint64(k.seed)
	for i := uint64(0); i < 300; i++ {
		city := searchCDF(tbl.cityCDF, NewStream(SeedForIndex(i, seed^cityPickSalt)).Float64())
		sub := searchCDF(tbl.subCDF[city], NewStream(SeedForIndex(i, seed^subPickSalt)).Float64())
		c := tbl.subs[city][sub]

		x, y := tbl.sample(i, seed, 0)
		require.Equal(t, c.X, x, "index %d", i)
		require.Equal(t, c.Y, y, "index %d", i)
	}
}

func TestParcel_CellStaysInUnitSquare(t *testing.T) {
	p := ParcelParams{SRange: 0, Dither: 1}
	for i := uint64(0); i < 5000; i++ {
		_, _, c := sampleParcel(NewStream(SeedForIndex(i, 3)), p)
		require.GreaterOrEqual(t, c.x, 0.0, "index %d", i)
		require.GreaterOrEqual(t, c.y, 0.0, "index %d", i)
		require.LessOrEqual(t, c.x+c.w, 1+1e-12, "index %d", i)
		require.LessOrEqual(t, c.y+c.h, 1+1e-12, "index %d", i)
		require.Greater(t, c.w, 0.0, "index %d", i)
		require.Greater(t, c.h, 0.0, "index %d", i)
	}

	assert.Equal(t, cell{x: 0, y: 0.5, w: 1, h: 0.5}, cell{x: -0.25, y: 0.5, w: 1.5, h: 0.75}.clip())
}

func TestStream_NormFloat64(t *testing.T) {
	a, b := NewStream(11), NewStream(11)
	u1, u2 := b.Float64(), b.Float64()
	assert.Equal(t, math.Sqrt(-2*math.Log(u1))*math.Cos(2*math.Pi*u2), a.NormFloat64())
	assert.Equal(t, b.Uint32(), a.Uint32())
}
