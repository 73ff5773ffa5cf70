package pools

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution_PickUsesCumulativeWeights(t *testing.T) {
	d := NewDistribution("t", []Entry{{"a", 2}, {"b", 3}, {"c", 5}})

	assert.Equal(t, int32(10), d.MaxWeight())
	assert.Equal(t, "a", d.Pick(0))
	assert.Equal(t, "a", d.Pick(1))
	assert.Equal(t, "b", d.Pick(2))
	assert.Equal(t, "b", d.Pick(4))
	assert.Equal(t, "c", d.Pick(5))
	assert.Equal(t, "c", d.Pick(9))
	assert.Equal(t, int32(3), d.Weight(1))
	assert.Equal(t, 2, d.IndexOf("c"))
	assert.Equal(t, -1, d.IndexOf("z"))
}

func TestDistribution_ZeroWeightsCannotBeSampled(t *testing.T) {
	d := DefaultDistributions()

	assert.False(t, d.Nations.Sampleable())
	assert.Panics(t, func() { d.Nations.Pick(0) })
	assert.True(t, d.Colors.Sampleable())
}

func TestDefaultDistributions_Shapes(t *testing.T) {
	d := DefaultDistributions()

	assert.Equal(t, 92, d.Colors.Size())
	assert.Equal(t, 150, d.PartTypes.Size())
	assert.Equal(t, 40, d.Containers.Size())
	assert.Equal(t, 25, d.Nations.Size())
	assert.Equal(t, 5, d.Regions.Size())
	assert.Equal(t, "PROMO BURNISHED COPPER", d.PartTypes.Value(134))
}

func TestDistributions_Region(t *testing.T) {
	d := DefaultDistributions()

	assert.Equal(t, "AMERICA", d.Region(17))
	assert.Equal(t, "AFRICA", d.Region(15))
	assert.Equal(t, "MIDDLE EAST", d.Region(20))
	assert.Equal(t, "EUROPE", d.Region(23))
}

func TestTextPool_KnownPrefix(t *testing.T) {
	p := NewTextPool(4096, DefaultDistributions())

	require.Equal(t, 4096, p.Size())
	assert.Equal(t,
		"furiously special foxes haggle furiously blithely ironic deposits. slyly final theodolites boost slyly even asymptotes. ",
		p.Text(0, 120))
}

func TestTextPool_PrefixStableAcrossSizes(t *testing.T) {
	d := DefaultDistributions()
	small := NewTextPool(1000, d)
	large := NewTextPool(20000, d)

	assert.Equal(t, small.Text(0, 1000), large.Text(0, 1000))
}

func TestProvider_BuildsOnce(t *testing.T) {
	p := NewProvider(2048)

	var wg sync.WaitGroup
	refs := make([]*Reference, 8)
	for i := range refs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i] = p.Get()
		}(i)
	}
	wg.Wait()

	for _, r := range refs {
		assert.Same(t, refs[0], r)
	}
	assert.Equal(t, 2048, refs[0].Text.Size())
}
