package fgb

import (
	"fmt"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/tingold/geobson/geom"
)

var geometryTypes = map[geom.Kind]flattypes.GeometryType{
	geom.KindPoint:              flattypes.GeometryTypePoint,
	geom.KindLineString:         flattypes.GeometryTypeLineString,
	geom.KindPolygon:            flattypes.GeometryTypePolygon,
	geom.KindMultiPoint:         flattypes.GeometryTypeMultiPoint,
	geom.KindMultiLineString:    flattypes.GeometryTypeMultiLineString,
	geom.KindMultiPolygon:       flattypes.GeometryTypeMultiPolygon,
	geom.KindGeometryCollection: flattypes.GeometryTypeGeometryCollection,
}

// geometryType maps a geometry to its FlatGeobuf type. nil maps to Unknown.
func geometryType(g geom.Geometry) flattypes.GeometryType {
	if g == nil {
		return flattypes.GeometryTypeUnknown
	}
	if t, ok := geometryTypes[g.Kind()]; ok {
		return t
	}
	return flattypes.GeometryTypeUnknown
}

// layerType returns the common type of geometries, or Unknown for a mixed
// layer. nil entries are ignored.
func layerType(geometries []geom.Geometry) flattypes.GeometryType {
	t := flattypes.GeometryTypeUnknown
	for _, g := range geometries {
		if g == nil {
			continue
		}
		gt := geometryType(g)
		if t == flattypes.GeometryTypeUnknown {
			t = gt
		} else if gt != t {
			return flattypes.GeometryTypeUnknown
		}
	}
	return t
}

// geometryToFGB converts g to a FlatGeobuf geometry table.
func geometryToFGB(g geom.Geometry, builder *flatbuffers.Builder) (*writer.Geometry, error) {
	if g == nil {
		return nil, ErrNilGeometry
	}

	fg := writer.NewGeometry(builder)
	fg.SetType(geometryType(g))

	switch v := g.(type) {
	case geom.Point:
		if !v.Empty {
			fg.SetXY([]float64{v.Coordinate.X, v.Coordinate.Y})
		}

	case geom.MultiPoint:
		fg.SetXY(coordinatesToXY(v.Coordinates))

	case geom.LineString:
		fg.SetXY(coordinatesToXY(v.Coordinates))

	case geom.MultiLineString:
		lines := make([][]geom.Coordinate, 0, len(v.LineStrings))
		for _, ls := range v.LineStrings {
			lines = append(lines, ls.Coordinates)
		}
		xy, ends := partsToXYEnds(lines)
		fg.SetXY(xy)
		fg.SetEnds(ends)

	case geom.Polygon:
		xy, ends := partsToXYEnds(v.Rings())
		fg.SetXY(xy)
		fg.SetEnds(ends)

	case geom.MultiPolygon:
		parts := make([]writer.Geometry, 0, len(v.Polygons))
		for _, poly := range v.Polygons {
			pg := writer.NewGeometry(builder)
			pg.SetType(flattypes.GeometryTypePolygon)
			xy, ends := partsToXYEnds(poly.Rings())
			pg.SetXY(xy)
			pg.SetEnds(ends)
			parts = append(parts, *pg)
		}
		fg.SetParts(parts)

	case geom.GeometryCollection:
		parts := make([]writer.Geometry, 0, len(v.Geometries))
		for i, child := range v.Geometries {
			cg, err := geometryToFGB(child, builder)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			parts = append(parts, *cg)
		}
		fg.SetParts(parts)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, g)
	}

	return fg, nil
}

func coordinatesToXY(cs []geom.Coordinate) []float64 {
	xy := make([]float64, 0, len(cs)*2)
	for _, c := range cs {
		xy = append(xy, c.X, c.Y)
	}
	return xy
}

// partsToXYEnds flattens rings or lines, recording the cumulative point
// count at the end of each part.
func partsToXYEnds(parts [][]geom.Coordinate) ([]float64, []uint32) {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	xy := make([]float64, 0, total*2)
	ends := make([]uint32, 0, len(parts))

	cumulative := uint32(0)
	for _, p := range parts {
		for _, c := range p {
			xy = append(xy, c.X, c.Y)
		}
		cumulative += uint32(len(p))
		ends = append(ends, cumulative)
	}

	return xy, ends
}

// geometryReader rebuilds geometries through a factory, so reads are
// validated and made precise like codec reads. layer is the header
// geometry type, used when a feature geometry leaves its type unset.
type geometryReader struct {
	factory *geom.Factory
	layer   flattypes.GeometryType
}

func (r geometryReader) read(fg *flattypes.Geometry) (geom.Geometry, error) {
	if fg == nil {
		return nil, ErrNilGeometry
	}

	t := fg.Type()
	if t == flattypes.GeometryTypeUnknown {
		t = r.layer
	}

	switch t {
	case flattypes.GeometryTypePoint:
		cs := r.coordinates(fg, 0, fg.XyLength()/2)
		if len(cs) == 0 {
			return geom.Point{Empty: true}, nil
		}
		return r.factory.CreatePoint(cs[0]), nil

	case flattypes.GeometryTypeMultiPoint:
		return r.factory.CreateMultiPoint(r.coordinates(fg, 0, fg.XyLength()/2)), nil

	case flattypes.GeometryTypeLineString:
		return r.factory.CreateLineString(r.coordinates(fg, 0, fg.XyLength()/2))

	case flattypes.GeometryTypeMultiLineString:
		return r.factory.CreateMultiLineString(r.parts(fg))

	case flattypes.GeometryTypePolygon:
		return r.factory.CreatePolygon(r.parts(fg))

	case flattypes.GeometryTypeMultiPolygon:
		if fg.PartsLength() == 0 {
			// single polygon stored inline
			p, err := r.factory.CreatePolygon(r.parts(fg))
			if err != nil || p.IsEmpty() {
				return geom.MultiPolygon{}, err
			}
			return r.factory.CreateMultiPolygon([]geom.Polygon{p}), nil
		}
		polygons := make([]geom.Polygon, 0, fg.PartsLength())
		for i := 0; i < fg.PartsLength(); i++ {
			var part flattypes.Geometry
			if !fg.Parts(&part, i) {
				return nil, fmt.Errorf("%w: polygon %d", ErrInvalidData, i)
			}
			p, err := r.factory.CreatePolygon(r.parts(&part))
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", i, err)
			}
			polygons = append(polygons, p)
		}
		return r.factory.CreateMultiPolygon(polygons), nil

	case flattypes.GeometryTypeGeometryCollection:
		members := make([]geom.Geometry, 0, fg.PartsLength())
		for i := 0; i < fg.PartsLength(); i++ {
			var part flattypes.Geometry
			if !fg.Parts(&part, i) {
				return nil, fmt.Errorf("%w: member %d", ErrInvalidData, i)
			}
			g, err := geometryReader{factory: r.factory}.read(&part)
			if err != nil {
				return nil, fmt.Errorf("member %d: %w", i, err)
			}
			members = append(members, g)
		}
		return r.factory.CreateGeometryCollection(members)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, flattypes.EnumNamesGeometryType[t])
	}
}

// parts splits the flat coordinates by the ends array. Without ends the
// whole array is one part.
func (r geometryReader) parts(fg *flattypes.Geometry) [][]geom.Coordinate {
	n := fg.XyLength() / 2
	if n == 0 {
		return nil
	}
	if fg.EndsLength() == 0 {
		return [][]geom.Coordinate{r.coordinates(fg, 0, n)}
	}

	parts := make([][]geom.Coordinate, 0, fg.EndsLength())
	start := 0
	for i := 0; i < fg.EndsLength(); i++ {
		end := int(fg.Ends(i))
		if end > n {
			end = n
		}
		parts = append(parts, r.coordinates(fg, start, end))
		start = end
	}
	return parts
}

// coordinates reads points [from, to). Z and M are picked up when the
// file carries them.
func (r geometryReader) coordinates(fg *flattypes.Geometry, from, to int) []geom.Coordinate {
	if to <= from {
		return []geom.Coordinate{}
	}

	zs, ms := fg.ZLength(), fg.MLength()
	pm := r.factory.Precision

	cs := make([]geom.Coordinate, 0, to-from)
	for i := from; i < to; i++ {
		x, y := fg.Xy(2*i), fg.Xy(2*i+1)
		var c geom.Coordinate
		switch {
		case i < zs && i < ms:
			c = geom.XYZM(x, y, fg.Z(i), fg.M(i))
		case i < zs:
			c = geom.XYZ(x, y, fg.Z(i))
		default:
			c = geom.XY(x, y)
		}
		cs = append(cs, pm.MakePreciseCoordinate(c))
	}
	return cs
}
