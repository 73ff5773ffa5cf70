package spatial

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

type Coord struct {
	X, Y float64
}

func (c Coord) point() orb.Point { return orb.Point{c.X, c.Y} }

func coordOf(p orb.Point) Coord { return Coord{X: p.X(), Y: p.Y()} }

// Geometry is either a point or a polygon with a single closed ring.
type Geometry struct {
	geom orb.Geometry
}

var (
	ErrShapeMismatch = errors.New("spatial: geometry shape mismatch")
	ErrDegenerate    = errors.New("spatial: degenerate polygon ring")
	ErrOpenRing      = errors.New("spatial: polygon ring is not closed")
)

func NewPoint(c Coord) Geometry {
	return Geometry{geom: c.point()}
}

// NewPolygon closes ring if the last coordinate differs from the first.
func NewPolygon(ring []Coord) Geometry {
	r := make(orb.Ring, 0, len(ring)+1)
	for _, c := range ring {
		r = append(r, c.point())
	}
	if len(r) > 0 && r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	return Geometry{geom: orb.Polygon{r}}
}

func (g Geometry) kind() string {
	if g.geom == nil {
		return "empty geometry"
	}
	return g.geom.GeoJSONType()
}

func (g Geometry) AsPoint() (Coord, error) {
	p, ok := g.geom.(orb.Point)
	if !ok {
		return Coord{}, fmt.Errorf("%w: want Point, have %s", ErrShapeMismatch, g.kind())
	}
	return coordOf(p), nil
}

// AsPolygon returns the closed outer ring. A ring left with fewer than three
// distinct vertices, as when clamping pins every vertex to a corner, is
// ErrDegenerate.
func (g Geometry) AsPolygon() ([]Coord, error) {
	poly, ok := g.geom.(orb.Polygon)
	if !ok || len(poly) != 1 {
		return nil, fmt.Errorf("%w: want Polygon, have %s", ErrShapeMismatch, g.kind())
	}
	ring := poly[0]
	if n := distinctVertices(ring); n < 3 {
		return nil, fmt.Errorf("%w: %d distinct vertices", ErrDegenerate, n)
	}
	if !ring.Closed() {
		return nil, fmt.Errorf("%w: %d coordinates", ErrOpenRing, len(ring))
	}
	out := make([]Coord, len(ring))
	for i, p := range ring {
		out[i] = coordOf(p)
	}
	return out, nil
}

func distinctVertices(points []orb.Point) int {
	seen := make(map[orb.Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// formatFloat writes the shortest exact decimal, never an exponent.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (g Geometry) WKT() string {
	var b strings.Builder
	switch v := g.geom.(type) {
	case orb.Point:
		b.WriteString("POINT(")
		writePoints(&b, []orb.Point{v})
		b.WriteString(")")
	case orb.Polygon:
		b.WriteString("POLYGON(")
		for i, r := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			writePoints(&b, r)
			b.WriteByte(')')
		}
		b.WriteString(")")
	}
	return b.String()
}

func writePoints(b *strings.Builder, points []orb.Point) {
	for i, p := range points {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatFloat(p.X()))
		b.WriteByte(' ')
		b.WriteString(formatFloat(p.Y()))
	}
}

func (g Geometry) String() string { return g.WKT() }

// Value stores geometries as WKT text.
func (g Geometry) Value() (driver.Value, error) { return g.WKT(), nil }

func (g Geometry) MarshalJSON() ([]byte, error) { return json.Marshal(g.WKT()) }

// WKTer is implemented by every value written to a geometry column.
type WKTer interface {
	WKT() string
}

// RawWKT is a geometry loaded from outside the generators and passed
// through unchanged once it parses.
type RawWKT string

// ParseRawWKT parses s as two-dimensional WKT and checks that every polygon
// ring is closed. The original text is kept.
func ParseRawWKT(s string) (RawWKT, error) {
	s = strings.TrimSpace(s)
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return "", fmt.Errorf("spatial: wkt %q: %w", truncate(s), err)
	}
	if err := checkRings(g); err != nil {
		return "", fmt.Errorf("spatial: wkt %q: %w", truncate(s), err)
	}
	return RawWKT(s), nil
}

func checkRings(g orb.Geometry) error {
	switch v := g.(type) {
	case orb.Polygon:
		for _, r := range v {
			if !r.Closed() {
				return ErrOpenRing
			}
		}
	case orb.MultiPolygon:
		for _, p := range v {
			if err := checkRings(p); err != nil {
				return err
			}
		}
	case orb.Collection:
		for _, member := range v {
			if err := checkRings(member); err != nil {
				return err
			}
		}
	}
	return nil
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}

func (w RawWKT) WKT() string { return string(w) }

func (w RawWKT) String() string { return string(w) }

func (w RawWKT) Value() (driver.Value, error) { return string(w), nil }

func (w RawWKT) MarshalJSON() ([]byte, error) { return json.Marshal(string(w)) }
