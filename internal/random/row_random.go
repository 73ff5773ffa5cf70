// Package random implements the row-oriented pseudorandom streams used by the
// table generators. Every stream is positioned by row: a generator draws a
// fixed number of seeds per row, so the value for any row can be reached by
// jumping the underlying linear congruential state instead of replaying the
// rows before it.
package random

import "fmt"

const (
	intMultiplier = 16807
	intModulus    = 2147483647

	longMultiplier = 6364136223846793005
	longIncrement  = 1
)

// RowRandomInt is a Park-Miller generator that hands out at most
// seedsPerRow draws for every row.
type RowRandomInt struct {
	seed        int64
	seedsPerRow int32
	usage       int32
}

func NewRowRandomInt(seed int64, seedsPerRow int32) *RowRandomInt {
	return &RowRandomInt{seed: seed, seedsPerRow: seedsPerRow}
}

func (r *RowRandomInt) nextRand() int64 {
	if r.usage >= r.seedsPerRow {
		panic(fmt.Sprintf("random: seed %d used more than %d times in one row", r.seed, r.seedsPerRow))
	}
	r.seed = (r.seed * intMultiplier) % intModulus
	r.usage++
	return r.seed
}

// NextInt returns a value in [lo, hi]. The width is computed in 32-bit
// arithmetic and intentionally wraps for the full int32 range, which the
// alphanumeric generator relies on.
func (r *RowRandomInt) NextInt(lo, hi int32) int32 {
	r.nextRand()
	width := float64(hi - lo + 1)
	return lo + int32(float64(r.seed)/intModulus*width)
}

// RowFinished skips any draws this row did not consume.
func (r *RowRandomInt) RowFinished() {
	r.advanceSeed(int64(r.seedsPerRow - r.usage))
	r.usage = 0
}

func (r *RowRandomInt) AdvanceRows(rows int64) {
	if r.usage != 0 {
		r.RowFinished()
	}
	r.advanceSeed(int64(r.seedsPerRow) * rows)
}

func (r *RowRandomInt) advanceSeed(count int64) {
	mult := int64(intMultiplier)
	for count > 0 {
		if count%2 != 0 {
			r.seed = (mult * r.seed) % intModulus
		}
		count /= 2
		mult = (mult * mult) % intModulus
	}
}

// RowRandomLong is the 64-bit variant used once key spaces outgrow int32.
type RowRandomLong struct {
	seed        int64
	seedsPerRow int32
	usage       int32
}

func NewRowRandomLong(seed int64, seedsPerRow int32) *RowRandomLong {
	return &RowRandomLong{seed: seed, seedsPerRow: seedsPerRow}
}

func (r *RowRandomLong) nextRand() int64 {
	if r.usage >= r.seedsPerRow {
		panic(fmt.Sprintf("random: seed %d used more than %d times in one row", r.seed, r.seedsPerRow))
	}
	r.seed = r.seed*longMultiplier + longIncrement
	r.usage++
	return r.seed
}

func (r *RowRandomLong) NextLong(lo, hi int64) int64 {
	v := r.nextRand()
	if v < 0 {
		v = -v
	}
	return lo + v%(hi-lo+1)
}

func (r *RowRandomLong) RowFinished() {
	r.advanceSeed(int64(r.seedsPerRow - r.usage))
	r.usage = 0
}

func (r *RowRandomLong) AdvanceRows(rows int64) {
	if r.usage != 0 {
		r.RowFinished()
	}
	r.advanceSeed(int64(r.seedsPerRow) * rows)
}

// advanceSeed applies count steps of the LCG in O(log count) by composing
// the affine map x -> a*x + c with itself.
func (r *RowRandomLong) advanceSeed(count int64) {
	if count <= 0 {
		return
	}
	var (
		apow int64 = longMultiplier
		dsum int64 = longIncrement
	)
	bit := 63
	for (count >> uint(bit)) == 0 {
		bit--
	}
	for bit--; bit >= 0; bit-- {
		dsum *= apow + 1
		apow *= apow
		if (count>>uint(bit))%2 == 1 {
			dsum += apow
			apow *= longMultiplier
		}
	}
	r.seed = r.seed*apow + dsum*longIncrement
}
