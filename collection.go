package geobson

import (
	"fmt"

	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

var collectionMembers = newMemberSet(geom.KindGeometryCollection.String(),
	required("type", memberType),
	optional("crs", memberCRS),
	optional("bbox", memberBBox),
	required("geometries", memberGeometries),
)

// EncodeGeometryCollection writes { type, geometries }. Members are written
// through the polymorphic encoder and must not be nil.
func (c *Codec) EncodeGeometryCollection(vw bsonrw.ValueWriter, gc geom.GeometryCollection) error {
	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}
	if err := writeDiscriminator(dw, geom.KindGeometryCollection.String()); err != nil {
		return err
	}

	gvw, err := dw.WriteDocumentElement("geometries")
	if err != nil {
		return err
	}
	aw, err := gvw.WriteArray()
	if err != nil {
		return err
	}
	for i, g := range gc.Geometries {
		if g == nil {
			return fmt.Errorf("geobson: geometry collection member %d: %w", i, geom.ErrNilGeometry)
		}
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}
		if err := c.EncodeGeometry(evw, g); err != nil {
			return err
		}
	}
	if err := aw.WriteArrayEnd(); err != nil {
		return err
	}

	return dw.WriteDocumentEnd()
}

// DecodeGeometryCollection reads a geometry collection, dispatching every
// member on its own discriminator.
func (c *Codec) DecodeGeometryCollection(vr bsonrw.ValueReader) (geom.GeometryCollection, error) {
	geometries := []geom.Geometry{}

	err := collectionMembers.decode(vr, c.log, func(flag memberFlag, evr bsonrw.ValueReader) error {
		switch flag {
		case memberType:
			return readDiscriminator(evr, geom.KindGeometryCollection.String())
		case memberGeometries:
			return readArray(evr, "geometries", func(gvr bsonrw.ValueReader) error {
				g, err := c.DecodeGeometry(gvr)
				if err != nil {
					return err
				}
				geometries = append(geometries, g)
				return nil
			})
		default:
			return evr.Skip()
		}
	})
	if err != nil {
		return geom.GeometryCollection{}, err
	}

	gc, err := c.factory.CreateGeometryCollection(geometries)
	if err != nil {
		return geom.GeometryCollection{}, fmt.Errorf("geobson: %s: %w", geom.KindGeometryCollection, err)
	}
	return gc, nil
}

// collectionCoder adapts the collection codec to the dispatch table.
type collectionCoder struct {
	c *Codec
}

func (cc collectionCoder) encodeGeometry(vw bsonrw.ValueWriter, g geom.Geometry) error {
	gc, ok := g.(geom.GeometryCollection)
	if !ok {
		return fmt.Errorf("%w: %T passed to %s codec", ErrUnsupportedGeometry, g, geom.KindGeometryCollection)
	}
	return cc.c.EncodeGeometryCollection(vw, gc)
}

func (cc collectionCoder) decodeGeometry(vr bsonrw.ValueReader) (geom.Geometry, error) {
	gc, err := cc.c.DecodeGeometryCollection(vr)
	if err != nil {
		return nil, err
	}
	return gc, nil
}
