// Package geom provides the geometry object model encoded by geobson.
// It covers the seven GeoJSON geometry kinds, coordinates with optional
// Z and M ordinates, envelopes, precision models and a validating factory.
package geom

import (
	"errors"
)

// Common errors returned by this package.
var (
	ErrNilGeometry   = errors.New("geom: nil geometry")
	ErrTooFewPoints  = errors.New("geom: too few points")
	ErrRingNotClosed = errors.New("geom: ring is not closed")
)

// Kind identifies a geometry variant. Its String form is the GeoJSON
// "type" discriminator.
type Kind uint8

const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindGeometryCollection
)

var kindNames = map[Kind]string{
	KindPoint:              "Point",
	KindLineString:         "LineString",
	KindPolygon:            "Polygon",
	KindMultiPoint:         "MultiPoint",
	KindMultiLineString:    "MultiLineString",
	KindMultiPolygon:       "MultiPolygon",
	KindGeometryCollection: "GeometryCollection",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the discriminator name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind maps a discriminator name to its Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	return k, ok
}

// Kinds returns every geometry kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindPoint,
		KindLineString,
		KindPolygon,
		KindMultiPoint,
		KindMultiLineString,
		KindMultiPolygon,
		KindGeometryCollection,
	}
}

// Geometry is the closed set of geometry variants defined in this package.
type Geometry interface {
	Kind() Kind
	IsEmpty() bool
	geometry()
}

// Point is a single position. An empty point carries no coordinate.
type Point struct {
	Coordinate Coordinate
	Empty      bool
}

// LineString is an ordered sequence of positions.
type LineString struct {
	Coordinates []Coordinate
}

// Polygon is an exterior ring followed by zero or more holes.
// A polygon with no shell is empty.
type Polygon struct {
	Shell []Coordinate
	Holes [][]Coordinate
}

// MultiPoint is an unordered set of positions.
type MultiPoint struct {
	Coordinates []Coordinate
}

// MultiLineString is a list of line strings.
type MultiLineString struct {
	LineStrings []LineString
}

// MultiPolygon is a list of polygons.
type MultiPolygon struct {
	Polygons []Polygon
}

// GeometryCollection is a heterogeneous ordered list of geometries.
type GeometryCollection struct {
	Geometries []Geometry
}

func (Point) Kind() Kind              { return KindPoint }
func (LineString) Kind() Kind         { return KindLineString }
func (Polygon) Kind() Kind            { return KindPolygon }
func (MultiPoint) Kind() Kind         { return KindMultiPoint }
func (MultiLineString) Kind() Kind    { return KindMultiLineString }
func (MultiPolygon) Kind() Kind       { return KindMultiPolygon }
func (GeometryCollection) Kind() Kind { return KindGeometryCollection }

func (p Point) IsEmpty() bool               { return p.Empty }
func (ls LineString) IsEmpty() bool         { return len(ls.Coordinates) == 0 }
func (p Polygon) IsEmpty() bool             { return len(p.Shell) == 0 }
func (mp MultiPoint) IsEmpty() bool         { return len(mp.Coordinates) == 0 }
func (ml MultiLineString) IsEmpty() bool    { return len(ml.LineStrings) == 0 }
func (mp MultiPolygon) IsEmpty() bool       { return len(mp.Polygons) == 0 }
func (gc GeometryCollection) IsEmpty() bool { return len(gc.Geometries) == 0 }

func (Point) geometry()              {}
func (LineString) geometry()         {}
func (Polygon) geometry()            {}
func (MultiPoint) geometry()         {}
func (MultiLineString) geometry()    {}
func (MultiPolygon) geometry()       {}
func (GeometryCollection) geometry() {}

// Rings returns the shell followed by the holes, or nil for an empty polygon.
func (p Polygon) Rings() [][]Coordinate {
	if p.IsEmpty() {
		return nil
	}
	rings := make([][]Coordinate, 0, 1+len(p.Holes))
	rings = append(rings, p.Shell)
	return append(rings, p.Holes...)
}

// Equal reports whether a and b are structurally identical, including
// coordinate layout. Two nil geometries are equal.
func Equal(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Point:
		bv, ok := b.(Point)
		return ok && av.Empty == bv.Empty && (av.Empty || av.Coordinate.Equal(bv.Coordinate))
	case LineString:
		bv, ok := b.(LineString)
		return ok && coordinatesEqual(av.Coordinates, bv.Coordinates)
	case MultiPoint:
		bv, ok := b.(MultiPoint)
		return ok && coordinatesEqual(av.Coordinates, bv.Coordinates)
	case Polygon:
		bv, ok := b.(Polygon)
		return ok && polygonsEqual(av, bv)
	case MultiLineString:
		bv, ok := b.(MultiLineString)
		if !ok || len(av.LineStrings) != len(bv.LineStrings) {
			return false
		}
		for i := range av.LineStrings {
			if !coordinatesEqual(av.LineStrings[i].Coordinates, bv.LineStrings[i].Coordinates) {
				return false
			}
		}
		return true
	case MultiPolygon:
		bv, ok := b.(MultiPolygon)
		if !ok || len(av.Polygons) != len(bv.Polygons) {
			return false
		}
		for i := range av.Polygons {
			if !polygonsEqual(av.Polygons[i], bv.Polygons[i]) {
				return false
			}
		}
		return true
	case GeometryCollection:
		bv, ok := b.(GeometryCollection)
		if !ok || len(av.Geometries) != len(bv.Geometries) {
			return false
		}
		for i := range av.Geometries {
			if !Equal(av.Geometries[i], bv.Geometries[i]) {
				return false
			}
		}
		return true
	}

	return false
}

func polygonsEqual(a, b Polygon) bool {
	if !coordinatesEqual(a.Shell, b.Shell) || len(a.Holes) != len(b.Holes) {
		return false
	}
	for i := range a.Holes {
		if !coordinatesEqual(a.Holes[i], b.Holes[i]) {
			return false
		}
	}
	return true
}

func coordinatesEqual(a, b []Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
