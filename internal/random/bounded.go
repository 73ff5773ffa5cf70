package random

import "fmt"

// BoundedInt draws one int32 per row from [lo, hi].
type BoundedInt struct {
	lo, hi int32
	r      *RowRandomInt
}

func NewBoundedInt(seed int64, lo, hi int32) *BoundedInt {
	return NewBoundedIntPerRow(seed, lo, hi, 1)
}

func NewBoundedIntPerRow(seed int64, lo, hi int32, seedsPerRow int32) *BoundedInt {
	if lo > hi {
		panic(fmt.Sprintf("random: bounded int lo %d > hi %d", lo, hi))
	}
	return &BoundedInt{lo: lo, hi: hi, r: NewRowRandomInt(seed, seedsPerRow)}
}

func (b *BoundedInt) NextValue() int32 { return b.r.NextInt(b.lo, b.hi) }

func (b *BoundedInt) RowFinished() { b.r.RowFinished() }

func (b *BoundedInt) AdvanceRows(rows int64) { b.r.AdvanceRows(rows) }

// BoundedLong draws one int64 per row from [lo, hi]. Below the 64-bit
// threshold it shares the Park-Miller stream so that small scale factors
// produce the same keys as the 32-bit generator.
type BoundedLong struct {
	lo, hi int64
	use64  bool
	r32    *RowRandomInt
	r64    *RowRandomLong
}

func NewBoundedLong(seed int64, use64 bool, lo, hi int64) *BoundedLong {
	if lo > hi {
		panic(fmt.Sprintf("random: bounded long lo %d > hi %d", lo, hi))
	}
	b := &BoundedLong{lo: lo, hi: hi, use64: use64}
	if use64 {
		b.r64 = NewRowRandomLong(seed, 1)
	} else {
		b.r32 = NewRowRandomInt(seed, 1)
	}
	return b
}

func (b *BoundedLong) NextValue() int64 {
	if b.use64 {
		return b.r64.NextLong(b.lo, b.hi)
	}
	return int64(b.r32.NextInt(int32(b.lo), int32(b.hi)))
}

func (b *BoundedLong) RowFinished() {
	if b.use64 {
		b.r64.RowFinished()
		return
	}
	b.r32.RowFinished()
}

func (b *BoundedLong) AdvanceRows(rows int64) {
	if b.use64 {
		b.r64.AdvanceRows(rows)
		return
	}
	b.r32.AdvanceRows(rows)
}
