package spatial

import (
	"math"
	"math/bits"
)

const (
	chachaRounds = 12
	blockWords   = 16

	pcgMultiplier = 6364136223846793005
	pcgIncrement  = 11634580027462260723
)

var chachaConstants = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// Stream is a ChaCha12 keystream used as a random source. The 256-bit key is
// expanded from a 64-bit seed with PCG32 and the nonce is zero, so a seed
// yields the same draws as other SpiderWeb generator implementations.
type Stream struct {
	key     [8]uint32
	counter uint64
	block   [blockWords]uint32
	pos     int
}

func NewStream(seed uint64) *Stream {
	s := &Stream{pos: blockWords}
	state := seed
	for i := range s.key {
		state = state*pcgMultiplier + pcgIncrement
		xorshifted := uint32(((state >> 18) ^ state) >> 27)
		s.key[i] = bits.RotateLeft32(xorshifted, -int(state>>59))
	}
	return s
}

func quarterRound(x *[blockWords]uint32, a, b, c, d int) {
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 16)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 12)
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 8)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 7)
}

func (s *Stream) refill() {
	var in [blockWords]uint32
	copy(in[:4], chachaConstants[:])
	copy(in[4:12], s.key[:])
	in[12] = uint32(s.counter)
	in[13] = uint32(s.counter >> 32)

	x := in
	for i := 0; i < chachaRounds; i += 2 {
		quarterRound(&x, 0, 4, 8, 12)
		quarterRound(&x, 1, 5, 9, 13)
		quarterRound(&x, 2, 6, 10, 14)
		quarterRound(&x, 3, 7, 11, 15)
		quarterRound(&x, 0, 5, 10, 15)
		quarterRound(&x, 1, 6, 11, 12)
		quarterRound(&x, 2, 7, 8, 13)
		quarterRound(&x, 3, 4, 9, 14)
	}
	for i := range x {
		s.block[i] = x[i] + in[i]
	}
	s.counter++
	s.pos = 0
}

func (s *Stream) Uint32() uint32 {
	if s.pos >= blockWords {
		s.refill()
	}
	v := s.block[s.pos]
	s.pos++
	return v
}

// Uint64 joins two consecutive words, low word first.
func (s *Stream) Uint64() uint64 {
	lo := s.Uint32()
	return uint64(s.Uint32())<<32 | uint64(lo)
}

// Float64 returns a value in [0, 1) built from the top 53 bits of Uint64.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// IntN returns a value in [0, n) by widening multiplication with rejection
// of the biased low zone. n must fit in 32 bits.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("spatial: IntN with non-positive bound")
	}
	r := uint32(n)
	zone := (r << bits.LeadingZeros32(r)) - 1
	for {
		hi, lo := bits.Mul32(s.Uint32(), r)
		if lo <= zone {
			return int(hi)
		}
	}
}

// NormFloat64 returns a standard normal variate by the Box-Muller transform
// over two Float64 draws.
func (s *Stream) NormFloat64() float64 {
	u1 := s.Float64()
	u2 := s.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
