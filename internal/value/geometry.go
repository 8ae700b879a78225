package value

import (
	"fmt"
	"strings"
)

// GeometryKind enumerates the variant list spec.md §3 requires:
// Point/Line/Polygon/Multi*/Collection. Grounded on
// original_source/lib/src/sql/geometry.rs's enum shape.
type GeometryKind uint8

const (
	GeoPoint GeometryKind = iota
	GeoLine
	GeoPolygon
	GeoMultiPoint
	GeoMultiLine
	GeoMultiPolygon
	GeoCollection
)

func (k GeometryKind) String() string {
	switch k {
	case GeoPoint:
		return "Point"
	case GeoLine:
		return "LineString"
	case GeoPolygon:
		return "Polygon"
	case GeoMultiPoint:
		return "MultiPoint"
	case GeoMultiLine:
		return "MultiLineString"
	case GeoMultiPolygon:
		return "MultiPolygon"
	case GeoCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

// Geometry is a tagged GeoJSON-like value. Point uses Coord; Line/Polygon
// use Coords (rings, for Polygon); Multi*/Collection use Geometries.
type Geometry struct {
	Kind       GeometryKind
	Coord      [2]float64
	Coords     [][][2]float64
	Geometries []*Geometry
}

// VirtualField resolves the virtual accessors geometry.rs exposes alongside
// literal object fields: `type` and `coordinates`/`geometries`. This is the
// supplemented feature from SPEC_FULL §4.11 — the idiom Field part checks
// this before falling back to a literal object lookup.
func (g *Geometry) VirtualField(name string) (Value, bool) {
	switch name {
	case "type":
		return NewString(g.Kind.String()), true
	case "coordinates":
		if g.Kind == GeoCollection {
			return None, false
		}
		return NewArray(g.coordinatesValue()), true
	case "geometries":
		if g.Kind != GeoCollection {
			return None, false
		}
		elems := make([]Value, len(g.Geometries))
		for i, sub := range g.Geometries {
			elems[i] = NewGeometry(sub)
		}
		return NewArray(elems), true
	}
	return None, false
}

func (g *Geometry) coordinatesValue() []Value {
	switch g.Kind {
	case GeoPoint:
		return []Value{NewFloat(g.Coord[0]), NewFloat(g.Coord[1])}
	case GeoLine, GeoMultiPoint:
		if len(g.Coords) == 0 {
			return nil
		}
		return ringValue(g.Coords[0])
	case GeoPolygon, GeoMultiLine:
		out := make([]Value, len(g.Coords))
		for i, ring := range g.Coords {
			out[i] = NewArray(ringValue(ring))
		}
		return out
	case GeoMultiPolygon:
		out := make([]Value, len(g.Geometries))
		for i, sub := range g.Geometries {
			out[i] = NewArray(sub.coordinatesValue())
		}
		return out
	}
	return nil
}

func ringValue(ring [][2]float64) []Value {
	out := make([]Value, len(ring))
	for i, pt := range ring {
		out[i] = NewArray([]Value{NewFloat(pt[0]), NewFloat(pt[1])})
	}
	return out
}

func (g *Geometry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%s) ", g.Kind)
	switch g.Kind {
	case GeoPoint:
		fmt.Fprintf(&b, "%g, %g", g.Coord[0], g.Coord[1])
	default:
		b.WriteString(NewArray(g.coordinatesValue()).String())
	}
	return b.String()
}

// Equal reports structural equality (used by Value equality/ordering).
func (g *Geometry) Equal(o *Geometry) bool {
	if g.Kind != o.Kind || len(g.Coords) != len(o.Coords) || len(g.Geometries) != len(o.Geometries) {
		return false
	}
	if g.Coord != o.Coord {
		return false
	}
	for i := range g.Coords {
		if len(g.Coords[i]) != len(o.Coords[i]) {
			return false
		}
		for j := range g.Coords[i] {
			if g.Coords[i][j] != o.Coords[i][j] {
				return false
			}
		}
	}
	for i := range g.Geometries {
		if !g.Geometries[i].Equal(o.Geometries[i]) {
			return false
		}
	}
	return true
}
