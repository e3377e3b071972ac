package geom

import (
	"fmt"
)

// Factory constructs validated geometries and owns the precision model
// the codec applies to every ordinate. A Factory is read-only once built
// and may be shared.
type Factory struct {
	Precision PrecisionModel
	SRID      int
}

// WGS84 returns the default factory: floating precision, EPSG:4326.
func WGS84() *Factory {
	return &Factory{SRID: 4326}
}

// CreatePoint returns a point at c.
func (f *Factory) CreatePoint(c Coordinate) Point {
	return Point{Coordinate: c}
}

// CreateLineString validates that cs is empty or has at least two points.
func (f *Factory) CreateLineString(cs []Coordinate) (LineString, error) {
	if len(cs) == 1 {
		return LineString{}, fmt.Errorf("%w: line string has 1 point, needs 0 or >= 2", ErrTooFewPoints)
	}
	return LineString{Coordinates: cs}, nil
}

// CreateLinearRing validates that cs is empty or is a closed sequence of
// at least four points.
func (f *Factory) CreateLinearRing(cs []Coordinate) ([]Coordinate, error) {
	if len(cs) == 0 {
		return cs, nil
	}
	if !cs[0].Equal2D(cs[len(cs)-1]) {
		return nil, fmt.Errorf("%w: first %v, last %v", ErrRingNotClosed, cs[0], cs[len(cs)-1])
	}
	if len(cs) < 4 {
		return nil, fmt.Errorf("%w: ring has %d points, needs 0 or >= 4", ErrTooFewPoints, len(cs))
	}
	return cs, nil
}

// CreatePolygon builds a polygon from rings: the first is the shell and
// the rest are holes. No rings gives the empty polygon.
func (f *Factory) CreatePolygon(rings [][]Coordinate) (Polygon, error) {
	if len(rings) == 0 {
		return Polygon{}, nil
	}

	shell, err := f.CreateLinearRing(rings[0])
	if err != nil {
		return Polygon{}, fmt.Errorf("shell: %w", err)
	}

	p := Polygon{Shell: shell}
	for i, r := range rings[1:] {
		hole, err := f.CreateLinearRing(r)
		if err != nil {
			return Polygon{}, fmt.Errorf("hole %d: %w", i, err)
		}
		p.Holes = append(p.Holes, hole)
	}

	return p, nil
}

// CreateMultiPoint returns a multi point over cs.
func (f *Factory) CreateMultiPoint(cs []Coordinate) MultiPoint {
	return MultiPoint{Coordinates: cs}
}

// CreateMultiLineString validates each member line.
func (f *Factory) CreateMultiLineString(lines [][]Coordinate) (MultiLineString, error) {
	mls := MultiLineString{LineStrings: make([]LineString, 0, len(lines))}
	for i, cs := range lines {
		ls, err := f.CreateLineString(cs)
		if err != nil {
			return MultiLineString{}, fmt.Errorf("line %d: %w", i, err)
		}
		mls.LineStrings = append(mls.LineStrings, ls)
	}
	return mls, nil
}

// CreateMultiPolygon returns a multi polygon over already built polygons.
func (f *Factory) CreateMultiPolygon(polygons []Polygon) MultiPolygon {
	return MultiPolygon{Polygons: polygons}
}

// CreateGeometryCollection rejects nil members.
func (f *Factory) CreateGeometryCollection(geometries []Geometry) (GeometryCollection, error) {
	for i, g := range geometries {
		if g == nil {
			return GeometryCollection{}, fmt.Errorf("member %d: %w", i, ErrNilGeometry)
		}
	}
	return GeometryCollection{Geometries: geometries}, nil
}
