package fgb

import (
	"errors"
	"testing"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/tingold/geobson/geom"
)

func square(x, y, size float64) []geom.Coordinate {
	return []geom.Coordinate{
		geom.XY(x, y),
		geom.XY(x+size, y),
		geom.XY(x+size, y+size),
		geom.XY(x, y+size),
		geom.XY(x, y),
	}
}

func line(xy ...float64) []geom.Coordinate {
	cs := make([]geom.Coordinate, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		cs = append(cs, geom.XY(xy[i], xy[i+1]))
	}
	return cs
}

func TestGeometryType(t *testing.T) {
	tests := []struct {
		name     string
		geom     geom.Geometry
		expected flattypes.GeometryType
	}{
		{"Point", geom.Point{Coordinate: geom.XY(1, 2)}, flattypes.GeometryTypePoint},
		{"MultiPoint", geom.MultiPoint{Coordinates: line(1, 2, 3, 4)}, flattypes.GeometryTypeMultiPoint},
		{"LineString", geom.LineString{Coordinates: line(0, 0, 1, 1)}, flattypes.GeometryTypeLineString},
		{"MultiLineString", geom.MultiLineString{LineStrings: []geom.LineString{{Coordinates: line(0, 0, 1, 1)}}}, flattypes.GeometryTypeMultiLineString},
		{"Polygon", geom.Polygon{Shell: square(0, 0, 1)}, flattypes.GeometryTypePolygon},
		{"MultiPolygon", geom.MultiPolygon{Polygons: []geom.Polygon{{Shell: square(0, 0, 1)}}}, flattypes.GeometryTypeMultiPolygon},
		{"GeometryCollection", geom.GeometryCollection{Geometries: []geom.Geometry{geom.Point{Coordinate: geom.XY(1, 2)}}}, flattypes.GeometryTypeGeometryCollection},
		{"nil", nil, flattypes.GeometryTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := geometryType(tt.geom)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestLayerType(t *testing.T) {
	p := geom.Point{Coordinate: geom.XY(1, 2)}
	ls := geom.LineString{Coordinates: line(0, 0, 1, 1)}

	tests := []struct {
		name       string
		geometries []geom.Geometry
		expected   flattypes.GeometryType
	}{
		{"uniform", []geom.Geometry{p, p}, flattypes.GeometryTypePoint},
		{"mixed", []geom.Geometry{p, ls}, flattypes.GeometryTypeUnknown},
		{"nil ignored", []geom.Geometry{nil, ls, nil, ls}, flattypes.GeometryTypeLineString},
		{"empty", nil, flattypes.GeometryTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layerType(tt.geometries); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestGeometryToFGB(t *testing.T) {
	tests := []struct {
		name string
		geom geom.Geometry
	}{
		{"Point", geom.Point{Coordinate: geom.XY(1.5, 2.5)}},
		{"empty Point", geom.Point{Empty: true}},
		{"LineString", geom.LineString{Coordinates: line(0, 0, 1, 1, 2, 2)}},
		{"Polygon with hole", geom.Polygon{Shell: square(0, 0, 10), Holes: [][]geom.Coordinate{square(2, 2, 6)}}},
		{"MultiPolygon", geom.MultiPolygon{Polygons: []geom.Polygon{{Shell: square(0, 0, 5)}, {Shell: square(10, 10, 5)}}}},
		{"GeometryCollection", geom.GeometryCollection{Geometries: []geom.Geometry{
			geom.Point{Coordinate: geom.XY(1, 2)},
			geom.LineString{Coordinates: line(0, 0, 1, 1)},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := flatbuffers.NewBuilder(256)
			g, err := geometryToFGB(tt.geom, builder)
			if err != nil {
				t.Fatalf("geometryToFGB failed: %v", err)
			}
			if g == nil {
				t.Fatal("expected non-nil geometry")
			}
		})
	}
}

func TestGeometryToFGB_Nil(t *testing.T) {
	builder := flatbuffers.NewBuilder(256)

	if _, err := geometryToFGB(nil, builder); !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}

	gc := geom.GeometryCollection{Geometries: []geom.Geometry{geom.Point{}, nil}}
	if _, err := geometryToFGB(gc, builder); !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry for nil member, got %v", err)
	}
}

func TestCoordinatesToXY(t *testing.T) {
	cs := []geom.Coordinate{geom.XY(0, 0), geom.XYZ(1, 2, 9), geom.XY(3, 4)}
	xy := coordinatesToXY(cs)

	expected := []float64{0, 0, 1, 2, 3, 4}
	if len(xy) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(xy))
	}
	for i := range expected {
		if xy[i] != expected[i] {
			t.Errorf("index %d: expected %f, got %f", i, expected[i], xy[i])
		}
	}
}

func TestPartsToXYEnds(t *testing.T) {
	shell := square(0, 0, 10)
	hole := square(2, 2, 2)

	xy, ends := partsToXYEnds([][]geom.Coordinate{shell, hole})

	if len(xy) != 20 {
		t.Errorf("expected 20 values, got %d", len(xy))
	}
	if len(ends) != 2 || ends[0] != 5 || ends[1] != 10 {
		t.Errorf("expected ends [5 10], got %v", ends)
	}

	xy, ends = partsToXYEnds(nil)
	if len(xy) != 0 || len(ends) != 0 {
		t.Errorf("expected no values for no parts, got %v %v", xy, ends)
	}
}
