package spatial

import (
	"fmt"
	"math"
)

const sierpinskiIterations = 27

var sierpinskiVertices = [3]Coord{{0, 0}, {1, 0}, {0.5, math.Sqrt(3) / 2}}

// cell is a rectangle on the unit square produced by the parcel process.
type cell struct {
	x, y, w, h float64
}

// clip intersects c with the unit square.
func (c cell) clip() cell {
	x0, y0 := clamp01(c.x), clamp01(c.y)
	x1, y1 := clamp01(c.x+c.w), clamp01(c.y+c.h)
	return cell{x: x0, y: y0, w: x1 - x0, h: y1 - y0}
}

func mustParams[P Params](cfg Config) P {
	p, ok := cfg.Params.(P)
	if !ok {
		panic(&ConfigError{Field: "params", Reason: fmt.Sprintf("%s sampling without matching parameters", cfg.Distribution)})
	}
	return p
}

func sampleUniform(r *Stream) (float64, float64) {
	return r.Float64(), r.Float64()
}

func sampleNormal(r *Stream, p NormalParams) (float64, float64) {
	x := clampUnit(normal(r, p.Mu, p.Sigma))
	y := clampUnit(normal(r, p.Mu, p.Sigma))
	return x, y
}

func sampleDiagonal(r *Stream, p DiagonalParams) (float64, float64) {
	if r.Float64() < p.Percentage {
		v := r.Float64()
		return v, v
	}
	c := r.Float64()
	d := normal(r, 0, p.Buffer/5)
	return clampUnit(c + d/math.Sqrt2), clampUnit(c - d/math.Sqrt2)
}

func bitAxis(r *Stream, p BitParams) float64 {
	var v float64
	for i := 1; i <= p.Digits; i++ {
		if r.Float64() < p.Probability {
			v += math.Ldexp(1, -i)
		}
	}
	return clampUnit(v)
}

func sampleBit(r *Stream, p BitParams) (float64, float64) {
	x := bitAxis(r, p)
	return x, bitAxis(r, p)
}

func sampleSierpinski(r *Stream) (float64, float64) {
	var x, y float64
	for i := 0; i < sierpinskiIterations; i++ {
		v := sierpinskiVertices[r.IntN(3)]
		x = (x + v.X) / 2
		y = (y + v.Y) / 2
	}
	return x, y
}

const parcelDepth = 6

// sampleParcel recursively splits the unit square along its longer side and
// keeps one half at random, then dithers the final cell.
func sampleParcel(r *Stream, p ParcelParams) (float64, float64, cell) {
	b := cell{w: 1, h: 1}
	for i := 0; i < parcelDepth; i++ {
		var first, second cell
		if b.w > b.h {
			split := b.w * (p.SRange + r.Float64()*(1-2*p.SRange))
			first = cell{b.x, b.y, split, b.h}
			second = cell{b.x + split, b.y, b.w - split, b.h}
		} else {
			split := b.h * (p.SRange + r.Float64()*(1-2*p.SRange))
			first = cell{b.x, b.y, b.w, split}
			second = cell{b.x, b.y + split, b.w, b.h - split}
		}
		if r.IntN(2) == 0 {
			b = first
		} else {
			b = second
		}
	}
	dx := b.w * p.Dither * (r.Float64() - 0.5)
	dy := b.h * p.Dither * (r.Float64() - 0.5)
	b.x += dx / 2
	b.y += dy / 2
	b.w -= dx
	b.h -= dy
	b = b.clip()

	x := clampUnit(b.x + r.Float64()*b.w)
	y := clampUnit(b.y + r.Float64()*b.h)
	return x, y, b
}
