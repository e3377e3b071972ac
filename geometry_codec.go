package geobson

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// geometryCoder is the type-erased view of a concrete geometry codec used
// by the polymorphic dispatcher.
type geometryCoder interface {
	encodeGeometry(vw bsonrw.ValueWriter, g geom.Geometry) error
	decodeGeometry(vr bsonrw.ValueReader) (geom.Geometry, error)
}

// kindCodec is the shared document skeleton of the simple geometry kinds:
// { type, [crs], [bbox], coordinates }. G is the geometry and C the
// coordinate shape read from the wire before construction.
type kindCodec[G geom.Geometry, C any] struct {
	kind    geom.Kind
	members memberSet
	log     zerolog.Logger

	write  func(bsonrw.ValueWriter, G) error
	read   func(bsonrw.ValueReader) (C, error)
	create func(C) (G, error)
}

func newKindCodec[G geom.Geometry, C any](
	kind geom.Kind,
	log zerolog.Logger,
	write func(bsonrw.ValueWriter, G) error,
	read func(bsonrw.ValueReader) (C, error),
	create func(C) (G, error),
) *kindCodec[G, C] {
	return &kindCodec[G, C]{
		kind: kind,
		members: newMemberSet(kind.String(),
			required("type", memberType),
			optional("crs", memberCRS),
			optional("bbox", memberBBox),
			required("coordinates", memberCoordinates),
		),
		log:    log,
		write:  write,
		read:   read,
		create: create,
	}
}

func (kc *kindCodec[G, C]) encode(vw bsonrw.ValueWriter, g G) error {
	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}
	if err := writeDiscriminator(dw, kc.kind.String()); err != nil {
		return err
	}

	cvw, err := dw.WriteDocumentElement("coordinates")
	if err != nil {
		return err
	}
	if err := kc.write(cvw, g); err != nil {
		return err
	}

	return dw.WriteDocumentEnd()
}

func (kc *kindCodec[G, C]) decode(vr bsonrw.ValueReader) (G, error) {
	var (
		zero   G
		coords C
	)

	err := kc.members.decode(vr, kc.log, func(flag memberFlag, evr bsonrw.ValueReader) error {
		switch flag {
		case memberType:
			return readDiscriminator(evr, kc.kind.String())
		case memberCoordinates:
			var err error
			coords, err = kc.read(evr)
			return err
		default:
			return evr.Skip()
		}
	})
	if err != nil {
		return zero, err
	}

	g, err := kc.create(coords)
	if err != nil {
		return zero, fmt.Errorf("geobson: %s: %w", kc.kind, err)
	}
	return g, nil
}

func (kc *kindCodec[G, C]) encodeGeometry(vw bsonrw.ValueWriter, g geom.Geometry) error {
	v, ok := g.(G)
	if !ok {
		return fmt.Errorf("%w: %T passed to %s codec", ErrUnsupportedGeometry, g, kc.kind)
	}
	return kc.encode(vw, v)
}

func (kc *kindCodec[G, C]) decodeGeometry(vr bsonrw.ValueReader) (geom.Geometry, error) {
	g, err := kc.decode(vr)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// position is a point's coordinate together with the number of tokens it
// was read from. Zero tokens is the empty point.
type position struct {
	c geom.Coordinate
	n int
}

// buildGeometryCoders builds the static discriminator table. It is called
// once from NewCodec.
func (c *Codec) buildGeometryCoders() map[geom.Kind]geometryCoder {
	f, pm := c.factory, c.precision

	writePolygon := func(vw bsonrw.ValueWriter, p geom.Polygon) error {
		return writeCoordinateLists(vw, p.Rings(), pm)
	}
	createPolygon := func(rings [][]geom.Coordinate) (geom.Polygon, error) {
		return f.CreatePolygon(rings)
	}

	c.point = newKindCodec(geom.KindPoint, c.log,
		func(vw bsonrw.ValueWriter, p geom.Point) error {
			if p.Empty {
				return writeCoordinates(vw, nil, pm)
			}
			return writeCoordinate(vw, p.Coordinate, pm)
		},
		func(vr bsonrw.ValueReader) (position, error) {
			coord, n, err := readPosition(vr, pm)
			return position{c: coord, n: n}, err
		},
		func(pos position) (geom.Point, error) {
			if pos.n == 0 {
				return geom.Point{Empty: true}, nil
			}
			return f.CreatePoint(pos.c), nil
		},
	)

	c.lineString = newKindCodec(geom.KindLineString, c.log,
		func(vw bsonrw.ValueWriter, ls geom.LineString) error {
			return writeCoordinates(vw, ls.Coordinates, pm)
		},
		func(vr bsonrw.ValueReader) ([]geom.Coordinate, error) {
			return readCoordinates(vr, pm)
		},
		f.CreateLineString,
	)

	c.polygon = newKindCodec(geom.KindPolygon, c.log,
		writePolygon,
		func(vr bsonrw.ValueReader) ([][]geom.Coordinate, error) {
			return readCoordinateLists(vr, pm)
		},
		createPolygon,
	)

	c.multiPoint = newKindCodec(geom.KindMultiPoint, c.log,
		func(vw bsonrw.ValueWriter, mp geom.MultiPoint) error {
			return writeCoordinates(vw, mp.Coordinates, pm)
		},
		func(vr bsonrw.ValueReader) ([]geom.Coordinate, error) {
			return readCoordinates(vr, pm)
		},
		func(cs []geom.Coordinate) (geom.MultiPoint, error) {
			return f.CreateMultiPoint(cs), nil
		},
	)

	c.multiLineString = newKindCodec(geom.KindMultiLineString, c.log,
		func(vw bsonrw.ValueWriter, ml geom.MultiLineString) error {
			lines := make([][]geom.Coordinate, 0, len(ml.LineStrings))
			for _, ls := range ml.LineStrings {
				lines = append(lines, ls.Coordinates)
			}
			return writeCoordinateLists(vw, lines, pm)
		},
		func(vr bsonrw.ValueReader) ([][]geom.Coordinate, error) {
			return readCoordinateLists(vr, pm)
		},
		f.CreateMultiLineString,
	)

	c.multiPolygon = newKindCodec(geom.KindMultiPolygon, c.log,
		func(vw bsonrw.ValueWriter, mp geom.MultiPolygon) error {
			aw, err := vw.WriteArray()
			if err != nil {
				return err
			}
			for _, p := range mp.Polygons {
				evw, err := aw.WriteArrayElement()
				if err != nil {
					return err
				}
				if err := writePolygon(evw, p); err != nil {
					return err
				}
			}
			return aw.WriteArrayEnd()
		},
		func(vr bsonrw.ValueReader) ([][][]geom.Coordinate, error) {
			return readCoordinateListLists(vr, pm)
		},
		func(polygons [][][]geom.Coordinate) (geom.MultiPolygon, error) {
			out := make([]geom.Polygon, 0, len(polygons))
			for i, rings := range polygons {
				p, err := createPolygon(rings)
				if err != nil {
					return geom.MultiPolygon{}, fmt.Errorf("polygon %d: %w", i, err)
				}
				out = append(out, p)
			}
			return f.CreateMultiPolygon(out), nil
		},
	)

	return map[geom.Kind]geometryCoder{
		geom.KindPoint:              c.point,
		geom.KindLineString:         c.lineString,
		geom.KindPolygon:            c.polygon,
		geom.KindMultiPoint:         c.multiPoint,
		geom.KindMultiLineString:    c.multiLineString,
		geom.KindMultiPolygon:       c.multiPolygon,
		geom.KindGeometryCollection: collectionCoder{c},
	}
}
