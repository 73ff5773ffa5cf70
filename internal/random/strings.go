package random

import "strings"

// RandomString picks one weighted value per row.
type RandomString struct {
	pool WeightedPool
	r    *RowRandomInt
}

func NewRandomString(seed int64, pool WeightedPool) *RandomString {
	return NewRandomStringPerRow(seed, pool, 1)
}

func NewRandomStringPerRow(seed int64, pool WeightedPool, seedsPerRow int32) *RandomString {
	return &RandomString{pool: pool, r: NewRowRandomInt(seed, seedsPerRow)}
}

func (s *RandomString) NextValue() string {
	return s.pool.Pick(s.r.NextInt(0, s.pool.MaxWeight()-1))
}

func (s *RandomString) RowFinished() { s.r.RowFinished() }

func (s *RandomString) AdvanceRows(rows int64) { s.r.AdvanceRows(rows) }

// StringSequence emits count distinct values of the pool, chosen by a
// partial Fisher-Yates shuffle and joined with single spaces.
type StringSequence struct {
	count int
	pool  WeightedPool
	r     *RowRandomInt
}

func NewStringSequence(seed int64, count int, pool WeightedPool) *StringSequence {
	if count > pool.Size() {
		panic("random: string sequence longer than its pool")
	}
	return &StringSequence{count: count, pool: pool, r: NewRowRandomInt(seed, int32(pool.Size()))}
}

func (s *StringSequence) NextValue() string {
	values := make([]string, s.pool.Size())
	for i := range values {
		values[i] = s.pool.Value(i)
	}
	last := int32(len(values) - 1)
	for i := 0; i < s.count; i++ {
		j := s.r.NextInt(int32(i), last)
		values[i], values[j] = values[j], values[i]
	}
	return strings.Join(values[:s.count], " ")
}

func (s *StringSequence) RowFinished() { s.r.RowFinished() }

func (s *StringSequence) AdvanceRows(rows int64) { s.r.AdvanceRows(rows) }

const (
	alphaNumericChars       = "0123456789abcdefghijklmnopqrstuvwxyz ABCDEFGHIJKLMNOPQRSTUVWXYZ,"
	alphaNumericSeedsPerRow = 9
	lowLengthMultiplier     = 0.4
	highLengthMultiplier    = 1.6
)

// AlphaNumeric builds strings whose length is uniform around an average.
// One 31-bit draw yields five 6-bit characters.
type AlphaNumeric struct {
	minLength, maxLength int32
	r                    *RowRandomInt
}

func NewAlphaNumeric(seed int64, averageLength int) *AlphaNumeric {
	return &AlphaNumeric{
		minLength: int32(float64(averageLength) * lowLengthMultiplier),
		maxLength: int32(float64(averageLength) * highLengthMultiplier),
		r:         NewRowRandomInt(seed, alphaNumericSeedsPerRow),
	}
}

func (a *AlphaNumeric) NextValue() string {
	length := a.r.NextInt(a.minLength, a.maxLength)
	buf := make([]byte, length)
	var charIndex int64
	for i := range buf {
		if i%5 == 0 {
			charIndex = int64(a.r.NextInt(0, 1<<31-1))
		}
		buf[i] = alphaNumericChars[charIndex&0x3f]
		charIndex >>= 6
	}
	return string(buf)
}

func (a *AlphaNumeric) RowFinished() { a.r.RowFinished() }

func (a *AlphaNumeric) AdvanceRows(rows int64) { a.r.AdvanceRows(rows) }
