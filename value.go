package geobson

import (
	"fmt"
	"time"

	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// EncodeValue writes a dynamic attribute value. Nested tables are written
// with every key, including "id".
func (c *Codec) EncodeValue(vw bsonrw.ValueWriter, v feature.Value) error {
	switch v.Kind() {
	case feature.NullValue:
		return vw.WriteNull()
	case feature.BoolValue:
		b, _ := v.BoolValue()
		return vw.WriteBoolean(b)
	case feature.Int32Value:
		i, _ := v.IntValue()
		return vw.WriteInt32(int32(i))
	case feature.Int64Value:
		i, _ := v.IntValue()
		return vw.WriteInt64(i)
	case feature.DoubleValue:
		f, _ := v.DoubleValue()
		return vw.WriteDouble(f)
	case feature.StringValue:
		s, _ := v.StringValue()
		return vw.WriteString(s)
	case feature.ArrayValue:
		values, _ := v.ArrayValue()
		aw, err := vw.WriteArray()
		if err != nil {
			return err
		}
		for _, e := range values {
			evw, err := aw.WriteArrayElement()
			if err != nil {
				return err
			}
			if err := c.EncodeValue(evw, e); err != nil {
				return err
			}
		}
		return aw.WriteArrayEnd()
	case feature.ObjectValue:
		t, _ := v.ObjectValue()
		return c.writeTable(vw, t, false)
	case feature.GeometryValue:
		g, _ := v.GeometryValue()
		return c.EncodeGeometry(vw, g)
	case feature.DateTimeValue:
		t, _ := v.DateTimeValue()
		return vw.WriteDateTime(t.UnixMilli())
	case feature.ObjectIDValue:
		oid, _ := v.ObjectIDValue()
		return vw.WriteObjectID(oid)
	default:
		return fmt.Errorf("%w: %s", feature.ErrUnsupportedValue, v.Kind())
	}
}

// DecodeValue reads any supported BSON value. Embedded documents become
// tables, or geometries when the codec was built with GeometryAttributes
// and the document's "type" names a geometry kind.
func (c *Codec) DecodeValue(vr bsonrw.ValueReader) (feature.Value, error) {
	switch t := vr.Type(); t {
	case bsontype.Null:
		return feature.Null(), vr.ReadNull()
	case bsontype.Undefined:
		return feature.Null(), vr.ReadUndefined()
	case bsontype.Boolean:
		b, err := vr.ReadBoolean()
		return feature.Bool(b), err
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		return feature.Int32(i), err
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		return feature.Int64(i), err
	case bsontype.Double:
		f, err := vr.ReadDouble()
		return feature.Double(f), err
	case bsontype.String:
		s, err := vr.ReadString()
		return feature.String(s), err
	case bsontype.Array:
		values := []feature.Value{}
		err := readArray(vr, "array value", func(evr bsonrw.ValueReader) error {
			v, err := c.DecodeValue(evr)
			if err != nil {
				return err
			}
			values = append(values, v)
			return nil
		})
		if err != nil {
			return feature.Value{}, err
		}
		return feature.Array(values...), nil
	case bsontype.EmbeddedDocument, bsontype.Type(0):
		return c.decodeDocumentValue(vr)
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		return feature.DateTime(time.UnixMilli(ms).UTC()), err
	case bsontype.ObjectID:
		oid, err := vr.ReadObjectID()
		return feature.ObjectID(oid), err
	default:
		return feature.Value{}, fmt.Errorf("%w: BSON %s", feature.ErrUnsupportedValue, t)
	}
}

func (c *Codec) decodeDocumentValue(vr bsonrw.ValueReader) (feature.Value, error) {
	if !c.geometryAttributes {
		t, err := c.readTable(vr)
		if err != nil {
			return feature.Value{}, err
		}
		return feature.Object(t), nil
	}

	raw, _, err := bufferDocument(vr, "attribute value")
	if err != nil {
		return feature.Value{}, err
	}
	if name, err := peek(raw, "attribute value"); err == nil {
		if _, ok := geom.ParseKind(name); ok {
			g, err := c.DecodeGeometry(bsonrw.NewBSONDocumentReader(raw))
			if err != nil {
				return feature.Value{}, err
			}
			return feature.Geometry(g), nil
		}
	}

	t, err := c.readTable(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return feature.Value{}, err
	}
	return feature.Object(t), nil
}
