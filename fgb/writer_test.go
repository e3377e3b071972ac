package fgb

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
)

func TestWrite_Points(t *testing.T) {
	geometries := []geom.Geometry{
		geom.Point{Coordinate: geom.XY(1, 2)},
		geom.Point{Coordinate: geom.XY(3, 4)},
		geom.Point{Coordinate: geom.XY(5, 6)},
	}

	var buf bytes.Buffer
	err := Write(&buf, geometries, nil)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 8 {
		t.Fatal("output too short")
	}

	expectedMagic := []byte{0x66, 0x67, 0x62, 0x03, 0x66, 0x67, 0x62, 0x00}
	for i, b := range expectedMagic {
		if data[i] != b {
			t.Errorf("magic byte %d: expected 0x%02x, got 0x%02x", i, b, data[i])
		}
	}
}

func TestWrite_Geometries(t *testing.T) {
	tests := []struct {
		name       string
		geometries []geom.Geometry
	}{
		{"line strings", []geom.Geometry{
			geom.LineString{Coordinates: line(0, 0, 1, 1, 2, 2)},
			geom.LineString{Coordinates: line(5, 5, 6, 6)},
		}},
		{"polygons", []geom.Geometry{
			geom.Polygon{Shell: square(0, 0, 10)},
			geom.Polygon{Shell: square(20, 20, 10)},
		}},
		{"mixed", []geom.Geometry{
			geom.Point{Coordinate: geom.XY(1, 2)},
			geom.LineString{Coordinates: line(0, 0, 1, 1)},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.geometries, nil); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("expected non-empty output")
			}
		})
	}
}

func TestWrite_EmptyGeometries(t *testing.T) {
	err := Write(&bytes.Buffer{}, []geom.Geometry{}, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWrite_WithOptions(t *testing.T) {
	opts := &Options{
		Name:         "test_layer",
		Description:  "A test layer",
		IncludeIndex: true,
		CRS:          WGS84(),
	}

	var buf bytes.Buffer
	err := Write(&buf, []geom.Geometry{geom.Point{Coordinate: geom.XY(1, 2)}}, opts)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFeatures_WithProperties(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(&feature.Feature{
			Geometry:   geom.Point{Coordinate: geom.XY(1, 2)},
			Attributes: feature.TableOf("name", "Point A", "value", 42, "active", true),
		}).
		Append(&feature.Feature{
			Geometry:   geom.Point{Coordinate: geom.XY(3, 4)},
			Attributes: feature.TableOf("name", "Point B", "value", 100.5, "active", false),
		})

	var buf bytes.Buffer
	err := WriteFeatures(&buf, fc, nil)
	if err != nil {
		t.Fatalf("WriteFeatures failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFeatures_NilCollection(t *testing.T) {
	err := WriteFeatures(&bytes.Buffer{}, nil, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeatures_EmptyCollection(t *testing.T) {
	err := WriteFeatures(&bytes.Buffer{}, feature.NewFeatureCollection(), nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeatures_BadMember(t *testing.T) {
	fc := feature.NewFeatureCollection().Append(feature.NewFeature(geom.GeometryCollection{
		Geometries: []geom.Geometry{geom.Point{Coordinate: geom.XY(1, 2)}, nil},
	}))

	err := WriteFeatures(&bytes.Buffer{}, fc, nil)
	if !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestWriteFeatures_NoGeometries(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(&feature.Feature{Attributes: feature.TableOf("a", 1)}).
		Append(nil).
		Append(&feature.Feature{Attributes: feature.TableOf("a", 2)})

	var buf bytes.Buffer
	err := WriteFeatures(&buf, fc, nil)
	if !errors.Is(err, ErrNilGeometry) {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %d bytes", buf.Len())
	}
}

func TestWriteFeatures_BadMemberAfterValid(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)})).
		Append(feature.NewFeature(geom.GeometryCollection{Geometries: []geom.Geometry{nil}}))

	for _, index := range []bool{true, false} {
		var buf bytes.Buffer
		err := WriteFeatures(&buf, fc, &Options{IncludeIndex: index})
		if !errors.Is(err, ErrNilGeometry) {
			t.Errorf("index=%v: expected ErrNilGeometry, got %v", index, err)
		}
		if buf.Len() != 0 {
			t.Errorf("index=%v: expected nothing written, got %d bytes", index, buf.Len())
		}
	}
}

func TestWriteFeatures_SkipsNilGeometry(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(&feature.Feature{Attributes: feature.TableOf("name", "empty")}).
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)}))

	var buf bytes.Buffer
	if err := WriteFeatures(&buf, fc, nil); err != nil {
		t.Fatalf("WriteFeatures failed: %v", err)
	}

	reader, err := NewReaderFromData(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReaderFromData failed: %v", err)
	}
	if got := reader.Header().FeaturesCount; got != 1 {
		t.Errorf("expected 1 feature, got %d", got)
	}
}

func TestWriteFeature_Single(t *testing.T) {
	f := feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)})
	f.Attributes = feature.TableOf("name", "test")

	var buf bytes.Buffer
	err := WriteFeature(&buf, f, nil)
	if err != nil {
		t.Fatalf("WriteFeature failed: %v", err)
	}

	if buf.Len() == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWriteFeature_Nil(t *testing.T) {
	err := WriteFeature(&bytes.Buffer{}, nil, nil)
	if err != ErrNilGeometry {
		t.Errorf("expected ErrNilGeometry, got %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.IncludeIndex {
		t.Error("expected IncludeIndex to be true by default")
	}

	if opts.CRS != nil {
		t.Error("expected CRS to be nil by default")
	}
}

func TestCRSFromSRID(t *testing.T) {
	tests := []struct {
		srid     int
		expected *CRS
	}{
		{4326, WGS84()},
		{3857, &CRS{Code: 3857}},
		{0, nil},
	}

	for _, tt := range tests {
		got := CRSFromSRID(tt.srid)
		if (got == nil) != (tt.expected == nil) || (got != nil && *got != *tt.expected) {
			t.Errorf("srid %d: expected %+v, got %+v", tt.srid, tt.expected, got)
		}
	}
}
