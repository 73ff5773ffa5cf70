package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowRandomInt_SkipAheadMatchesSequential(t *testing.T) {
	for _, rows := range []int64{0, 1, 2, 17, 1000, 123457} {
		seq := NewRowRandomInt(46831694, 3)
		for i := int64(0); i < rows; i++ {
			seq.NextInt(0, 100)
			seq.RowFinished()
		}
		jump := NewRowRandomInt(46831694, 3)
		jump.AdvanceRows(rows)

		assert.Equal(t, seq.NextInt(1, 1000), jump.NextInt(1, 1000), "rows=%d", rows)
	}
}

func TestRowRandomInt_AdvanceFinishesPartialRow(t *testing.T) {
	a := NewRowRandomInt(7, 4)
	a.NextInt(0, 10)
	a.AdvanceRows(2)

	b := NewRowRandomInt(7, 4)
	b.AdvanceRows(3)

	assert.Equal(t, b.NextInt(0, 1<<30), a.NextInt(0, 1<<30))
}

func TestRowRandomInt_PanicsWhenRowOverdrawn(t *testing.T) {
	r := NewRowRandomInt(1, 1)
	r.NextInt(0, 1)
	assert.Panics(t, func() { r.NextInt(0, 1) })
}

func TestRowRandomLong_SkipAheadMatchesSequential(t *testing.T) {
	for _, rows := range []int64{0, 1, 3, 64, 9999} {
		seq := NewRowRandomLong(921591341, 2)
		for i := int64(0); i < rows; i++ {
			seq.NextLong(1, 10)
			seq.RowFinished()
		}
		jump := NewRowRandomLong(921591341, 2)
		jump.AdvanceRows(rows)

		assert.Equal(t, seq.NextLong(1, 1<<40), jump.NextLong(1, 1<<40), "rows=%d", rows)
	}
}

func TestBoundedInt_StaysInRange(t *testing.T) {
	b := NewBoundedInt(109837462, 150, 300)
	for i := 0; i < 5000; i++ {
		v := b.NextValue()
		require.GreaterOrEqual(t, v, int32(150))
		require.LessOrEqual(t, v, int32(300))
		b.RowFinished()
	}
}

func TestBoundedInt_PanicsOnInvertedBounds(t *testing.T) {
	assert.Panics(t, func() { NewBoundedInt(1, 5, 4) })
	assert.Panics(t, func() { NewBoundedLong(1, true, 5, 4) })
}

func TestBoundedLong_SmallScaleMatchesIntStream(t *testing.T) {
	long := NewBoundedLong(921591341, false, 1, 300)
	short := NewBoundedInt(921591341, 1, 300)
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(short.NextValue()), long.NextValue())
		long.RowFinished()
		short.RowFinished()
	}
}

func TestBoundedLong_64BitSkipAhead(t *testing.T) {
	seq := NewBoundedLong(135497281, true, 1, 1<<35)
	for i := 0; i < 250; i++ {
		v := seq.NextValue()
		require.GreaterOrEqual(t, v, int64(1))
		require.LessOrEqual(t, v, int64(1<<35))
		seq.RowFinished()
	}
	jump := NewBoundedLong(135497281, true, 1, 1<<35)
	jump.AdvanceRows(250)
	assert.Equal(t, seq.NextValue(), jump.NextValue())
}

func TestAlphaNumeric_KnownDriverAddresses(t *testing.T) {
	a := NewAlphaNumeric(706178559, 25)
	assert.Equal(t, " N kD4on9OM Ipw3,gf0JBoQDd7tgrzrddZ", a.NextValue())
	a.RowFinished()
	assert.Equal(t, "89eJ5ksX3ImxJQBvxObC,", a.NextValue())

	jump := NewAlphaNumeric(706178559, 25)
	jump.AdvanceRows(1)
	assert.Equal(t, "89eJ5ksX3ImxJQBvxObC,", jump.NextValue())
}

func TestAlphaNumeric_LengthBounds(t *testing.T) {
	a := NewAlphaNumeric(881155353, 25)
	for i := 0; i < 1000; i++ {
		v := a.NextValue()
		require.GreaterOrEqual(t, len(v), 10)
		require.LessOrEqual(t, len(v), 40)
		a.RowFinished()
	}
}

func TestPhoneNumber_KnownValues(t *testing.T) {
	p := NewPhoneNumber(884434366)
	assert.Equal(t, "27-918-335-1736", p.NextValue(17))
	p.RowFinished()
	assert.Equal(t, "15-679-861-2259", p.NextValue(5))
}

type stringSource string

func (s stringSource) Size() int                  { return len(s) }
func (s stringSource) Text(begin, end int) string { return string(s[begin:end]) }

func TestText_SlicesWithinBounds(t *testing.T) {
	src := stringSource(strings.Repeat("abcdefghij", 50))
	txt := NewText(804159733, src, 14)
	for i := 0; i < 500; i++ {
		v := txt.NextValue()
		require.GreaterOrEqual(t, len(v), 5)
		require.LessOrEqual(t, len(v), 22)
		require.Contains(t, string(src), v)
		txt.RowFinished()
	}
}

func TestText_PanicsOnTinySource(t *testing.T) {
	assert.Panics(t, func() { NewText(1, stringSource("short"), 14) })
}

func TestRandomTimeOfDay_Ranges(t *testing.T) {
	r := NewRandomTimeOfDay(123456789)
	for i := 0; i < 1000; i++ {
		v := r.NextValue()
		require.True(t, v.Hour >= 0 && v.Hour < 24)
		require.True(t, v.Minute >= 0 && v.Minute < 60)
		require.True(t, v.Second >= 0 && v.Second < 60)
		require.Equal(t, v.Hour*3600+v.Minute*60+v.Second, v.Seconds())
		r.RowFinished()
	}
}

func TestFinishRowAndAdvanceAll(t *testing.T) {
	a := NewBoundedInt(1, 1, 5)
	b := NewPhoneNumber(2)
	AdvanceAll(4, a, b)

	c := NewBoundedInt(1, 1, 5)
	d := NewPhoneNumber(2)
	for i := 0; i < 4; i++ {
		c.NextValue()
		d.NextValue(1)
		FinishRow(c, d)
	}
	assert.Equal(t, c.NextValue(), a.NextValue())
	assert.Equal(t, d.NextValue(3), b.NextValue(3))
}
