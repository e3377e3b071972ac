package geobson

import (
	"github.com/tingold/geobson/feature"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

const (
	featureType           = "Feature"
	featureCollectionType = "FeatureCollection"
)

var featureMembers = newMemberSet(featureType,
	required("type", memberType),
	optional("id", memberID),
	optional("bbox", memberBBox),
	required("geometry", memberGeometry),
	optional("properties", memberProperties),
)

var featureCollectionMembers = newMemberSet(featureCollectionType,
	required("type", memberType),
	required("features", memberFeatures),
	optional("bbox", memberBBox),
)

// EncodeFeature writes type, id, bbox, geometry and properties in that
// order. id is taken from the attribute table and written only when it is
// non-null; the other optional members only when set. A nil feature is
// written as BSON null.
func (c *Codec) EncodeFeature(vw bsonrw.ValueWriter, f *feature.Feature) error {
	if f == nil {
		return vw.WriteNull()
	}

	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}
	if err := writeDiscriminator(dw, featureType); err != nil {
		return err
	}

	if id, ok := f.ID(); ok {
		evw, err := dw.WriteDocumentElement("id")
		if err != nil {
			return err
		}
		if err := c.EncodeValue(evw, id); err != nil {
			return err
		}
	}

	if f.BoundingBox != nil {
		evw, err := dw.WriteDocumentElement("bbox")
		if err != nil {
			return err
		}
		if err := c.EncodeEnvelope(evw, *f.BoundingBox); err != nil {
			return err
		}
	}

	if f.Geometry != nil {
		evw, err := dw.WriteDocumentElement("geometry")
		if err != nil {
			return err
		}
		if err := c.EncodeGeometry(evw, f.Geometry); err != nil {
			return err
		}
	}

	if f.Attributes != nil {
		evw, err := dw.WriteDocumentElement("properties")
		if err != nil {
			return err
		}
		if err := c.EncodeAttributes(evw, f.Attributes); err != nil {
			return err
		}
	}

	return dw.WriteDocumentEnd()
}

// DecodeFeature reads a feature. A top-level "id" is merged into the
// properties once the whole document has been read, replacing any "id"
// already there. BSON null decodes to nil.
func (c *Codec) DecodeFeature(vr bsonrw.ValueReader) (*feature.Feature, error) {
	if null, err := readNullable(vr); null || err != nil {
		return nil, err
	}

	var (
		f  = &feature.Feature{}
		id feature.Value
	)

	err := featureMembers.decode(vr, c.log, func(flag memberFlag, evr bsonrw.ValueReader) error {
		var err error
		switch flag {
		case memberType:
			err = readDiscriminator(evr, featureType)
		case memberID:
			id, err = c.DecodeValue(evr)
		case memberBBox:
			f.BoundingBox, err = c.DecodeEnvelope(evr)
		case memberGeometry:
			f.Geometry, err = c.DecodeGeometry(evr)
		case memberProperties:
			f.Attributes, err = c.DecodeAttributes(evr)
		default:
			err = evr.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if !id.IsNull() {
		f.SetID(id)
	}

	return f, nil
}

// EncodeFeatureCollection writes type, features and bbox. A nil collection
// is written as BSON null.
func (c *Codec) EncodeFeatureCollection(vw bsonrw.ValueWriter, fc *feature.FeatureCollection) error {
	if fc == nil {
		return vw.WriteNull()
	}

	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}
	if err := writeDiscriminator(dw, featureCollectionType); err != nil {
		return err
	}

	fvw, err := dw.WriteDocumentElement("features")
	if err != nil {
		return err
	}
	aw, err := fvw.WriteArray()
	if err != nil {
		return err
	}
	for _, f := range fc.Features {
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}
		if err := c.EncodeFeature(evw, f); err != nil {
			return err
		}
	}
	if err := aw.WriteArrayEnd(); err != nil {
		return err
	}

	if fc.BoundingBox != nil {
		evw, err := dw.WriteDocumentElement("bbox")
		if err != nil {
			return err
		}
		if err := c.EncodeEnvelope(evw, *fc.BoundingBox); err != nil {
			return err
		}
	}

	return dw.WriteDocumentEnd()
}

// DecodeFeatureCollection reads a feature collection. BSON null decodes to
// nil.
func (c *Codec) DecodeFeatureCollection(vr bsonrw.ValueReader) (*feature.FeatureCollection, error) {
	if null, err := readNullable(vr); null || err != nil {
		return nil, err
	}

	fc := feature.NewFeatureCollection()
	err := featureCollectionMembers.decode(vr, c.log, func(flag memberFlag, evr bsonrw.ValueReader) error {
		switch flag {
		case memberType:
			return readDiscriminator(evr, featureCollectionType)
		case memberFeatures:
			return readArray(evr, "features", func(fvr bsonrw.ValueReader) error {
				f, err := c.DecodeFeature(fvr)
				if err != nil {
					return err
				}
				fc.Append(f)
				return nil
			})
		case memberBBox:
			var err error
			fc.BoundingBox, err = c.DecodeEnvelope(evr)
			return err
		default:
			return evr.Skip()
		}
	})
	if err != nil {
		return nil, err
	}

	return fc, nil
}
