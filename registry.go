package geobson

import (
	"reflect"

	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Registry returns the codec's registry. It resolves every geometry type,
// the geom.Geometry interface, geom.Envelope, feature.Value, feature.Table,
// feature.Feature and feature.FeatureCollection on top of the driver
// defaults, so structs holding them can be marshalled with the usual
// bson functions.
func (c *Codec) Registry() *bsoncodec.Registry {
	return c.registry
}

// Marshal encodes v to BSON using the codec's registry.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return bson.MarshalWithRegistry(c.registry, v)
}

// Unmarshal decodes BSON into the value pointed to by v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return bson.UnmarshalWithRegistry(c.registry, data, v)
}

// MarshalGeoJSON encodes v as relaxed extended JSON. For geometry and
// feature content this is plain GeoJSON text.
func (c *Codec) MarshalGeoJSON(v any) ([]byte, error) {
	return bson.MarshalExtJSONWithRegistry(c.registry, v, false, false)
}

// UnmarshalGeoJSON decodes GeoJSON text into the value pointed to by v.
func (c *Codec) UnmarshalGeoJSON(data []byte, v any) error {
	return bson.UnmarshalExtJSONWithRegistry(c.registry, data, false, v)
}

func (c *Codec) buildRegistry() *bsoncodec.Registry {
	rb := bson.NewRegistryBuilder()

	registerType(rb, "PointCodec", c.point.encode, c.point.decode)
	registerType(rb, "LineStringCodec", c.lineString.encode, c.lineString.decode)
	registerType(rb, "PolygonCodec", c.polygon.encode, c.polygon.decode)
	registerType(rb, "MultiPointCodec", c.multiPoint.encode, c.multiPoint.decode)
	registerType(rb, "MultiLineStringCodec", c.multiLineString.encode, c.multiLineString.decode)
	registerType(rb, "MultiPolygonCodec", c.multiPolygon.encode, c.multiPolygon.decode)
	registerType(rb, "GeometryCollectionCodec", c.EncodeGeometryCollection, c.DecodeGeometryCollection)
	registerType(rb, "GeometryCodec", c.EncodeGeometry, c.DecodeGeometry)
	registerType(rb, "ValueCodec", c.EncodeValue, c.DecodeValue)

	registerType(rb, "EnvelopeCodec", c.EncodeEnvelope,
		func(vr bsonrw.ValueReader) (geom.Envelope, error) {
			e, err := c.DecodeEnvelope(vr)
			if e == nil || err != nil {
				return geom.Envelope{}, err
			}
			return *e, nil
		})
	registerType(rb, "TableCodec",
		func(vw bsonrw.ValueWriter, t feature.Table) error {
			return c.EncodeAttributes(vw, &t)
		},
		func(vr bsonrw.ValueReader) (feature.Table, error) {
			t, err := c.DecodeAttributes(vr)
			if t == nil || err != nil {
				return feature.Table{}, err
			}
			return *t, nil
		})
	registerType(rb, "FeatureCodec",
		func(vw bsonrw.ValueWriter, f feature.Feature) error {
			return c.EncodeFeature(vw, &f)
		},
		func(vr bsonrw.ValueReader) (feature.Feature, error) {
			f, err := c.DecodeFeature(vr)
			if f == nil || err != nil {
				return feature.Feature{}, err
			}
			return *f, nil
		})
	registerType(rb, "FeatureCollectionCodec",
		func(vw bsonrw.ValueWriter, fc feature.FeatureCollection) error {
			return c.EncodeFeatureCollection(vw, &fc)
		},
		func(vr bsonrw.ValueReader) (feature.FeatureCollection, error) {
			fc, err := c.DecodeFeatureCollection(vr)
			if fc == nil || err != nil {
				return feature.FeatureCollection{}, err
			}
			return *fc, nil
		})

	return rb.Build()
}

// registerType binds an encode and a decode function for T. Pointers to T
// are handled by the driver's pointer codec. BSON null decodes to the zero
// T.
func registerType[T any](
	rb *bsoncodec.RegistryBuilder,
	name string,
	encode func(bsonrw.ValueWriter, T) error,
	decode func(bsonrw.ValueReader) (T, error),
) {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	rb.RegisterTypeEncoder(typ, bsoncodec.ValueEncoderFunc(
		func(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
			if !val.IsValid() || val.Type() != typ {
				return bsoncodec.ValueEncoderError{Name: name, Types: []reflect.Type{typ}, Received: val}
			}
			var v T
			if val.Kind() != reflect.Interface || !val.IsNil() {
				v = val.Interface().(T)
			}
			return encode(vw, v)
		}))

	rb.RegisterTypeDecoder(typ, bsoncodec.ValueDecoderFunc(
		func(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
			if !val.CanSet() || val.Type() != typ {
				return bsoncodec.ValueDecoderError{Name: name, Types: []reflect.Type{typ}, Received: val}
			}
			if vr.Type() == bsontype.Null {
				val.Set(reflect.Zero(typ))
				return vr.ReadNull()
			}
			v, err := decode(vr)
			if err != nil {
				return err
			}
			val.Set(reflect.ValueOf(&v).Elem())
			return nil
		}))
}
