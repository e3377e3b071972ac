package fgb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
)

func writeFile(t *testing.T, fc *feature.FeatureCollection, opts *Options) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.fgb")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	err = WriteFeatures(file, fc, opts)
	_ = file.Close()
	if err != nil {
		t.Fatalf("WriteFeatures failed: %v", err)
	}

	return path
}

func openFile(t *testing.T, path string) *Reader {
	t.Helper()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	t.Cleanup(func() { _ = reader.Close() })

	return reader
}

// byName indexes features by their "name" attribute. Index order is not
// insertion order.
func byName(t *testing.T, fc *feature.FeatureCollection) map[string]*feature.Feature {
	t.Helper()

	m := make(map[string]*feature.Feature, len(fc.Features))
	for _, f := range fc.Features {
		v, ok := f.Attributes.Get("name")
		name, isString := v.StringValue()
		if !ok || !isString {
			t.Fatalf("feature without name: %+v", f)
		}
		m[name] = f
	}
	return m
}

func TestNewReaderFromData_Invalid(t *testing.T) {
	_, err := NewReaderFromData([]byte("not a flatgeobuf"))
	if err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestNewReaderFromData_Empty(t *testing.T) {
	_, err := NewReaderFromData([]byte{})
	if err == nil {
		t.Error("expected error for empty data")
	}
}

func TestNewReader_NonExistent(t *testing.T) {
	_, err := NewReader("/nonexistent/path/to/file.fgb")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestRoundTrip_Points(t *testing.T) {
	fc := feature.NewFeatureCollection()
	for i := 0; i < 10; i++ {
		fc.Append(&feature.Feature{
			Geometry:   geom.Point{Coordinate: geom.XY(float64(i), float64(i*2))},
			Attributes: feature.TableOf("index", i, "name", "point"),
		})
	}

	path := writeFile(t, fc, &Options{Name: "test_points", IncludeIndex: true, CRS: WGS84()})
	reader := openFile(t, path)

	header := reader.Header()
	if header == nil {
		t.Fatal("expected non-nil header")
	}
	if header.Name != "test_points" {
		t.Errorf("expected name 'test_points', got %q", header.Name)
	}
	if header.GeometryType != "Point" {
		t.Errorf("expected geometry type 'Point', got %q", header.GeometryType)
	}
	if header.FeaturesCount != 10 {
		t.Errorf("expected 10 features, got %d", header.FeaturesCount)
	}
	if !header.HasIndex {
		t.Error("expected index")
	}
	if header.CRS == nil || header.CRS.Code != 4326 {
		t.Errorf("expected EPSG:4326, got %+v", header.CRS)
	}
	if b := header.Bounds(); b != geom.NewEnvelope(0, 9, 0, 18) {
		t.Errorf("expected bounds [0 9 0 18], got %+v", b)
	}

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(read.Features) != 10 {
		t.Fatalf("expected 10 features, got %d", len(read.Features))
	}

	for _, f := range read.Features {
		v, _ := f.Attributes.Get("index")
		i, ok := v.IntValue()
		if !ok {
			t.Fatalf("expected integer index, got %v", v)
		}
		expected := geom.Point{Coordinate: geom.XY(float64(i), float64(i*2))}
		if !geom.Equal(f.Geometry, expected) {
			t.Errorf("index %d: expected %v, got %v", i, expected, f.Geometry)
		}
	}
}

func TestRoundTrip_AllKinds(t *testing.T) {
	geometries := map[string]geom.Geometry{
		"point":       geom.Point{Coordinate: geom.XY(1, 2)},
		"line":        geom.LineString{Coordinates: line(0, 0, 1, 1, 2, 0)},
		"polygon":     geom.Polygon{Shell: square(0, 0, 10), Holes: [][]geom.Coordinate{square(2, 2, 2)}},
		"multipoint":  geom.MultiPoint{Coordinates: line(5, 5, 6, 6)},
		"multiline":   geom.MultiLineString{LineStrings: []geom.LineString{{Coordinates: line(0, 5, 1, 6)}, {Coordinates: line(2, 7, 3, 8, 4, 9)}}},
		"multipoly":   geom.MultiPolygon{Polygons: []geom.Polygon{{Shell: square(20, 20, 1)}, {Shell: square(30, 30, 2)}}},
		"collection":  geom.GeometryCollection{Geometries: []geom.Geometry{geom.Point{Coordinate: geom.XY(7, 7)}, geom.LineString{Coordinates: line(7, 7, 8, 8)}}},
		"hole-free":   geom.Polygon{Shell: square(-5, -5, 3)},
		"long-string": geom.LineString{Coordinates: line(-1, -1, 0, 3, 4, 4, 9, 1)},
	}

	fc := feature.NewFeatureCollection()
	for name, g := range geometries {
		fc.Append(&feature.Feature{Geometry: g, Attributes: feature.TableOf("name", name)})
	}

	reader := openFile(t, writeFile(t, fc, nil))

	if header := reader.Header(); header.GeometryType != "Unknown" {
		t.Errorf("expected geometry type 'Unknown' for a mixed layer, got %q", header.GeometryType)
	}

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	got := byName(t, read)
	if len(got) != len(geometries) {
		t.Fatalf("expected %d features, got %d", len(geometries), len(got))
	}
	for name, expected := range geometries {
		f, ok := got[name]
		if !ok {
			t.Errorf("missing feature %q", name)
			continue
		}
		if !geom.Equal(f.Geometry, expected) {
			t.Errorf("%s: expected %v, got %v", name, expected, f.Geometry)
		}
	}
}

func TestRoundTrip_Attributes(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(&feature.Feature{
			Geometry: geom.Point{Coordinate: geom.XY(1, 2)},
			Attributes: feature.TableOf(
				"name", "a",
				"count", 3,
				"score", 1.5,
				"tags", feature.Array(feature.String("x"), feature.String("y")),
				"active", true,
			),
		}).
		Append(&feature.Feature{
			Geometry:   geom.Point{Coordinate: geom.XY(3, 4)},
			Attributes: feature.TableOf("name", "b", "count", int64(1)<<40, "score", nil),
		})

	reader := openFile(t, writeFile(t, fc, nil))

	columns := make(map[string]string)
	for _, col := range reader.Header().Columns {
		columns[col.Name] = col.Type
	}
	expectedColumns := map[string]string{
		"name":   "String",
		"count":  "Long",
		"score":  "Double",
		"tags":   "Json",
		"active": "Bool",
	}
	for name, typ := range expectedColumns {
		if columns[name] != typ {
			t.Errorf("column %q: expected %s, got %q", name, typ, columns[name])
		}
	}

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	got := byName(t, read)

	expectedA := feature.TableOf(
		"name", "a",
		"count", int64(3),
		"score", 1.5,
		"tags", feature.Array(feature.String("x"), feature.String("y")),
		"active", true,
	)
	if a := got["a"]; a == nil || !a.Attributes.Equal(expectedA) {
		t.Errorf("expected %v, got %+v", expectedA.Map(), a)
	}

	expectedB := feature.TableOf("name", "b", "count", int64(1)<<40)
	if b := got["b"]; b == nil || !b.Attributes.Equal(expectedB) {
		t.Errorf("expected %v, got %+v", expectedB.Map(), b)
	}
}

func TestRoundTrip_Search(t *testing.T) {
	fc := feature.NewFeatureCollection()
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			fc.Append(&feature.Feature{
				Geometry:   geom.Point{Coordinate: geom.XY(float64(x), float64(y))},
				Attributes: feature.TableOf("x", x, "y", y),
			})
		}
	}

	reader := openFile(t, writeFile(t, fc, &Options{IncludeIndex: true}))

	results, err := reader.Search(geom.NewEnvelope(2, 4, 2, 4))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results.Features) == 0 {
		t.Fatal("expected some results from search")
	}
	for _, f := range results.Features {
		p := f.Geometry.(geom.Point)
		if p.Coordinate.X < 2 || p.Coordinate.X > 4 || p.Coordinate.Y < 2 || p.Coordinate.Y > 4 {
			t.Errorf("result %v outside search bounds", p.Coordinate)
		}
	}
}

func TestSearchGeometries(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 1)})).
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(5, 5)})).
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(9, 9)}))

	reader := openFile(t, writeFile(t, fc, &Options{IncludeIndex: true}))

	geoms, err := reader.SearchGeometries(geom.NewEnvelope(0, 6, 0, 6))
	if err != nil {
		t.Fatalf("SearchGeometries failed: %v", err)
	}

	if len(geoms) != 2 {
		t.Errorf("expected 2 geometries, got %d", len(geoms))
	}
}

func TestReadGeometries(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)})).
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(3, 4)})).
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(5, 6)}))

	reader := openFile(t, writeFile(t, fc, &Options{IncludeIndex: true}))

	geoms, err := reader.ReadGeometries()
	if err != nil {
		t.Fatalf("ReadGeometries failed: %v", err)
	}

	if len(geoms) != 3 {
		t.Errorf("expected 3 geometries, got %d", len(geoms))
	}
}

func TestReadWithFactory(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1.4, 2.6)}))

	reader := openFile(t, writeFile(t, fc, nil)).
		WithFactory(&geom.Factory{Precision: geom.FixedDecimals(0)})

	geoms, err := reader.ReadGeometries()
	if err != nil {
		t.Fatalf("ReadGeometries failed: %v", err)
	}

	expected := geom.Point{Coordinate: geom.XY(1, 3)}
	if len(geoms) != 1 || !geom.Equal(geoms[0], expected) {
		t.Errorf("expected [%v], got %v", expected, geoms)
	}
}

func TestNoIndex(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)}))

	reader := openFile(t, writeFile(t, fc, &Options{IncludeIndex: false}))

	if reader.Header().HasIndex {
		t.Error("expected no index")
	}
	if _, err := reader.Search(geom.NewEnvelope(0, 10, 0, 10)); !errors.Is(err, ErrNoIndex) {
		t.Errorf("expected ErrNoIndex from Search, got %v", err)
	}
	if _, err := reader.ReadAll(); !errors.Is(err, ErrNoIndex) {
		t.Errorf("expected ErrNoIndex from ReadAll, got %v", err)
	}
	if _, err := reader.ReadGeometries(); !errors.Is(err, ErrNoIndex) {
		t.Errorf("expected ErrNoIndex from ReadGeometries, got %v", err)
	}
}

func TestReader_Close(t *testing.T) {
	fc := feature.NewFeatureCollection().
		Append(feature.NewFeature(geom.Point{Coordinate: geom.XY(1, 2)}))

	reader, err := NewReader(writeFile(t, fc, nil))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if err := reader.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if h := reader.Header(); h != nil {
		t.Errorf("expected nil header after Close, got %+v", h)
	}
	if _, err := reader.ReadAll(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from ReadAll, got %v", err)
	}
	if _, err := reader.Search(geom.NewEnvelope(0, 10, 0, 10)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Search, got %v", err)
	}
	if _, err := reader.SearchGeometries(geom.NewEnvelope(0, 10, 0, 10)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from SearchGeometries, got %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
