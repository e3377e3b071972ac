package geobson

import (
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson"
)

type parcel struct {
	Name     string           `bson:"name"`
	Location geom.Geometry    `bson:"location"`
	Area     geom.Polygon     `bson:"area"`
	Tags     *feature.Table   `bson:"tags,omitempty"`
	Extent   *geom.Envelope   `bson:"extent"`
	Score    feature.Value    `bson:"score"`
	Site     *feature.Feature `bson:"site"`
}

func TestRegistryStructFields(t *testing.T) {
	c := newTestCodec(t, nil)
	extent := geom.NewEnvelope(0, 4, 0, 4)

	tests := []struct {
		name  string
		input parcel
	}{
		{
			"populated",
			parcel{
				Name:     "north",
				Location: geom.Point{Coordinate: geom.XY(1, 2)},
				Area:     geom.Polygon{Shell: square(0, 0, 4)},
				Tags:     feature.TableOf("zone", "r1", "floors", 3),
				Extent:   &extent,
				Score:    feature.Double(0.75),
				Site:     feature.NewFeature(geom.MultiPoint{Coordinates: []geom.Coordinate{geom.XY(1, 1)}}),
			},
		},
		{
			"nil members",
			parcel{Name: "empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Marshal(tt.input)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var decoded parcel
			if err := c.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if decoded.Name != tt.input.Name {
				t.Errorf("expected name %q, got %q", tt.input.Name, decoded.Name)
			}
			if !geom.Equal(decoded.Location, tt.input.Location) {
				t.Errorf("expected location %v, got %v", tt.input.Location, decoded.Location)
			}
			if !geom.Equal(decoded.Area, tt.input.Area) {
				t.Errorf("expected area %v, got %v", tt.input.Area, decoded.Area)
			}
			if !decoded.Tags.Equal(tt.input.Tags) {
				t.Errorf("expected tags %v, got %v", tt.input.Tags.Map(), decoded.Tags.Map())
			}
			if (decoded.Extent == nil) != (tt.input.Extent == nil) || (decoded.Extent != nil && *decoded.Extent != *tt.input.Extent) {
				t.Errorf("expected extent %v, got %v", tt.input.Extent, decoded.Extent)
			}
			if !decoded.Score.Equal(tt.input.Score) {
				t.Errorf("expected score %v, got %v", tt.input.Score, decoded.Score)
			}
			if !decoded.Site.Equal(tt.input.Site) {
				t.Errorf("expected site %+v, got %+v", tt.input.Site, decoded.Site)
			}
		})
	}
}

func TestRegistryIsPerCodec(t *testing.T) {
	fixed := newTestCodec(t, &Options{Factory: &geom.Factory{Precision: geom.FixedDecimals(0)}})
	floating := newTestCodec(t, nil)

	p := geom.Point{Coordinate: geom.XY(1.4, 2.6)}

	data, err := fixed.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got := coordinateValues(t, data); got[0] != 1 || got[1] != 3 {
		t.Errorf("expected [1 3], got %v", got)
	}

	data, err = floating.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if got := coordinateValues(t, data); got[0] != 1.4 || got[1] != 2.6 {
		t.Errorf("expected [1.4 2.6], got %v", got)
	}
}

func TestMarshalGeoJSON(t *testing.T) {
	c := newTestCodec(t, nil)
	poly := geom.Polygon{Shell: square(0, 0, 2)}

	text, err := c.MarshalGeoJSON(poly)
	if err != nil {
		t.Fatalf("MarshalGeoJSON failed: %v", err)
	}
	if !strings.HasPrefix(string(text), `{"type":"Polygon","coordinates":[[[`) {
		t.Errorf("unexpected GeoJSON %s", text)
	}

	g, err := geojson.UnmarshalGeometry(text)
	if err != nil {
		t.Fatalf("orb failed to parse %s: %v", text, err)
	}
	if !orb.Equal(g.Geometry(), geom.ToOrb(poly)) {
		t.Errorf("expected %v, got %v", geom.ToOrb(poly), g.Geometry())
	}

	var decoded geom.Geometry
	if err := c.UnmarshalGeoJSON(text, &decoded); err != nil {
		t.Fatalf("UnmarshalGeoJSON failed: %v", err)
	}
	if !geom.Equal(poly, decoded) {
		t.Errorf("expected %v, got %v", poly, decoded)
	}
}

func TestUnmarshalGeoJSONFromOrb(t *testing.T) {
	c := newTestCodec(t, nil)

	f := geojson.NewFeature(orb.LineString{{0, 0}, {1.5, 1}, {2, 3}})
	f.ID = 7
	f.Properties["name"] = "trail"
	fc := geojson.NewFeatureCollection().Append(f)

	text, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("orb MarshalJSON failed: %v", err)
	}

	var decoded feature.FeatureCollection
	if err := c.UnmarshalGeoJSON(text, &decoded); err != nil {
		t.Fatalf("UnmarshalGeoJSON failed: %v", err)
	}
	if len(decoded.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(decoded.Features))
	}

	got := decoded.Features[0]
	if !orb.Equal(geom.ToOrb(got.Geometry), f.Geometry) {
		t.Errorf("expected %v, got %v", f.Geometry, geom.ToOrb(got.Geometry))
	}
	if id, ok := got.ID(); !ok || !id.Equal(feature.Int32(7)) {
		t.Errorf("expected id 7, got %v", id)
	}
	if name, _ := got.Attributes.Get("name"); !name.Equal(feature.String("trail")) {
		t.Errorf("expected name trail, got %v", name)
	}
}

func TestBSONCrossValidationWithOrb(t *testing.T) {
	c := newTestCodec(t, nil)

	t.Run("encode", func(t *testing.T) {
		f := &feature.Feature{
			Geometry:   geom.Polygon{Shell: square(0, 0, 3), Holes: [][]geom.Coordinate{square(1, 1, 1)}},
			Attributes: feature.TableOf("name", "lot", "id", "p-1"),
		}
		data, err := c.Marshal(f)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		var of geojson.Feature
		if err := of.UnmarshalBSON(data); err != nil {
			t.Fatalf("orb UnmarshalBSON failed: %v", err)
		}
		if !orb.Equal(of.Geometry, geom.ToOrb(f.Geometry)) {
			t.Errorf("expected %v, got %v", geom.ToOrb(f.Geometry), of.Geometry)
		}
		if of.ID != "p-1" {
			t.Errorf("expected id p-1, got %v", of.ID)
		}
		if of.Properties["name"] != "lot" {
			t.Errorf("expected name lot, got %v", of.Properties["name"])
		}
	})

	t.Run("decode", func(t *testing.T) {
		of := geojson.NewFeature(orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 4}}})
		of.ID = "m-1"
		of.Properties["speed"] = 2.5

		data, err := of.MarshalBSON()
		if err != nil {
			t.Fatalf("orb MarshalBSON failed: %v", err)
		}

		var f feature.Feature
		if err := c.Unmarshal(data, &f); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !orb.Equal(geom.ToOrb(f.Geometry), of.Geometry) {
			t.Errorf("expected %v, got %v", of.Geometry, geom.ToOrb(f.Geometry))
		}
		if !f.Attributes.Equal(feature.TableOf("speed", 2.5, "id", "m-1")) {
			t.Errorf("unexpected attributes %v", f.Attributes.Map())
		}
	})
}

func TestUnmarshalRejectsWrongTarget(t *testing.T) {
	c := newTestCodec(t, nil)
	data := marshalDoc(t, doc("type", "LineString", "coordinates", bson.A{bson.A{0.0, 0.0}, bson.A{1.0, 1.0}}))

	var p geom.Point
	if err := c.Unmarshal(data, &p); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}
