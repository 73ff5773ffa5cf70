package spatial

import "math"

// Affine is (a, b, c, d, e, f) mapping (x, y) to (a*x + b*y + c, d*x + e*y + f).
type Affine [6]float64

var (
	// FullWorld is the projection used by the table defaults.
	FullWorld = Affine{360, 0, -180, 0, -160, 80}
	// FullGlobe spans every longitude and latitude.
	FullGlobe = Affine{360, 0, -180, 0, 180, -90}
	Identity  = Affine{1, 0, 0, 0, 1, 0}
)

func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

func (m Affine) IsZero() bool { return m == Affine{} }

const coordinatePrecision = 1e8

func roundCoord(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}

func (m Affine) project(x, y float64) Coord {
	px, py := m.Apply(x, y)
	return Coord{X: roundCoord(px), Y: roundCoord(py)}
}
