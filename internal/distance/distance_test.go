package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKDE_Deterministic(t *testing.T) {
	a := DefaultKDE()
	b := DefaultKDE()
	for _, i := range []uint64{1, 2, 3, 1000, 1 << 33} {
		assert.Equal(t, a.Generate(i), b.Generate(i))
	}
	assert.NotEqual(t, a.Generate(1), a.Generate(2))
}

func TestKDE_PositiveAndPlausible(t *testing.T) {
	k := DefaultKDE()
	var sum float64
	const n = 20000
	for i := uint64(1); i <= n; i++ {
		v := k.Generate(i)
		require.GreaterOrEqual(t, v, minDistance)
		require.Less(t, v, 1.0)
		sum += v
	}
	mean := sum / n
	assert.InDelta(t, 0.05, mean, 0.02)
}

func TestKDE_Validate(t *testing.T) {
	require.NoError(t, DefaultKDE().Validate())
	assert.Error(t, (&KDE{Bandwidth: 1}).Validate())
	assert.Error(t, (&KDE{Samples: []float64{1}}).Validate())
}
