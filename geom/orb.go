package geom

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ToOrb projects g onto orb's two dimensional model. Z and M are dropped
// and empty points inside collections are omitted.
func ToOrb(g Geometry) orb.Geometry {
	switch v := g.(type) {
	case Point:
		return toOrbPoint(v.Coordinate)
	case LineString:
		return orb.LineString(toOrbPoints(v.Coordinates))
	case MultiPoint:
		return orb.MultiPoint(toOrbPoints(v.Coordinates))
	case Polygon:
		return toOrbPolygon(v)
	case MultiLineString:
		mls := make(orb.MultiLineString, 0, len(v.LineStrings))
		for _, ls := range v.LineStrings {
			mls = append(mls, orb.LineString(toOrbPoints(ls.Coordinates)))
		}
		return mls
	case MultiPolygon:
		mp := make(orb.MultiPolygon, 0, len(v.Polygons))
		for _, p := range v.Polygons {
			mp = append(mp, toOrbPolygon(p))
		}
		return mp
	case GeometryCollection:
		coll := make(orb.Collection, 0, len(v.Geometries))
		for _, child := range v.Geometries {
			if child == nil {
				continue
			}
			if p, ok := child.(Point); ok && p.Empty {
				continue
			}
			coll = append(coll, ToOrb(child))
		}
		return coll
	default:
		return nil
	}
}

// FromOrb converts an orb geometry into this package's model with XY
// coordinates. orb.Ring and orb.Bound become polygons.
func FromOrb(g orb.Geometry) (Geometry, error) {
	switch v := g.(type) {
	case nil:
		return nil, ErrNilGeometry
	case orb.Point:
		return Point{Coordinate: fromOrbPoint(v)}, nil
	case orb.MultiPoint:
		return MultiPoint{Coordinates: fromOrbPoints(v)}, nil
	case orb.LineString:
		return LineString{Coordinates: fromOrbPoints(v)}, nil
	case orb.MultiLineString:
		mls := MultiLineString{LineStrings: make([]LineString, 0, len(v))}
		for _, ls := range v {
			mls.LineStrings = append(mls.LineStrings, LineString{Coordinates: fromOrbPoints(ls)})
		}
		return mls, nil
	case orb.Ring:
		return fromOrbPolygon(orb.Polygon{v}), nil
	case orb.Polygon:
		return fromOrbPolygon(v), nil
	case orb.MultiPolygon:
		mp := MultiPolygon{Polygons: make([]Polygon, 0, len(v))}
		for _, p := range v {
			mp.Polygons = append(mp.Polygons, fromOrbPolygon(p))
		}
		return mp, nil
	case orb.Collection:
		gc := GeometryCollection{Geometries: make([]Geometry, 0, len(v))}
		for _, child := range v {
			converted, err := FromOrb(child)
			if err != nil {
				return nil, err
			}
			gc.Geometries = append(gc.Geometries, converted)
		}
		return gc, nil
	case orb.Bound:
		return fromOrbPolygon(v.ToPolygon()), nil
	default:
		return nil, fmt.Errorf("geom: unsupported orb geometry %T", g)
	}
}

func toOrbPoint(c Coordinate) orb.Point {
	return orb.Point{c.X, c.Y}
}

func toOrbPoints(cs []Coordinate) []orb.Point {
	points := make([]orb.Point, 0, len(cs))
	for _, c := range cs {
		points = append(points, toOrbPoint(c))
	}
	return points
}

func toOrbPolygon(p Polygon) orb.Polygon {
	rings := p.Rings()
	poly := make(orb.Polygon, 0, len(rings))
	for _, r := range rings {
		poly = append(poly, orb.Ring(toOrbPoints(r)))
	}
	return poly
}

func fromOrbPoint(p orb.Point) Coordinate {
	return XY(p[0], p[1])
}

func fromOrbPoints(points []orb.Point) []Coordinate {
	cs := make([]Coordinate, 0, len(points))
	for _, p := range points {
		cs = append(cs, fromOrbPoint(p))
	}
	return cs
}

func fromOrbPolygon(p orb.Polygon) Polygon {
	if len(p) == 0 {
		return Polygon{}
	}
	poly := Polygon{Shell: fromOrbPoints(p[0])}
	for _, hole := range p[1:] {
		poly.Holes = append(poly.Holes, fromOrbPoints(hole))
	}
	return poly
}
