package geobson

import (
	"math"

	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// writeCoordinate writes c as [x, y], [x, y, z] or [x, y, z, m]. Z is
// written when carried and finite; M only when carried, finite and a Z
// was written.
func writeCoordinate(vw bsonrw.ValueWriter, c geom.Coordinate, pm geom.PrecisionModel) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}

	if err := writeArrayDouble(aw, pm.MakePrecise(c.X)); err != nil {
		return err
	}
	if err := writeArrayDouble(aw, pm.MakePrecise(c.Y)); err != nil {
		return err
	}

	wroteZ := false
	if c.HasZ() && isFinite(c.Z) {
		if err := writeArrayDouble(aw, pm.MakePrecise(c.Z)); err != nil {
			return err
		}
		wroteZ = true
	}
	if wroteZ && c.HasM() && isFinite(c.M) {
		if err := writeArrayDouble(aw, pm.MakePrecise(c.M)); err != nil {
			return err
		}
	}

	return aw.WriteArrayEnd()
}

// writeCoordinates writes a coordinate sequence; nil and empty both
// become [].
func writeCoordinates(vw bsonrw.ValueWriter, cs []geom.Coordinate, pm geom.PrecisionModel) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}
	for _, c := range cs {
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}
		if err := writeCoordinate(evw, c, pm); err != nil {
			return err
		}
	}
	return aw.WriteArrayEnd()
}

// writeCoordinateLists writes one nesting level above writeCoordinates.
func writeCoordinateLists(vw bsonrw.ValueWriter, lists [][]geom.Coordinate, pm geom.PrecisionModel) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}
	for _, cs := range lists {
		evw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}
		if err := writeCoordinates(evw, cs, pm); err != nil {
			return err
		}
	}
	return aw.WriteArrayEnd()
}

func writeArrayDouble(aw bsonrw.ArrayWriter, f float64) error {
	evw, err := aw.WriteArrayElement()
	if err != nil {
		return err
	}
	return evw.WriteDouble(f)
}

// readCoordinate reads one position. Null tokens stand for missing Z or
// M. Two, three or four tokens select the layout; any other count yields
// the zero XY coordinate.
func readCoordinate(vr bsonrw.ValueReader, pm geom.PrecisionModel) (geom.Coordinate, error) {
	c, _, err := readPosition(vr, pm)
	return c, err
}

// readPosition is readCoordinate that also reports the token count.
func readPosition(vr bsonrw.ValueReader, pm geom.PrecisionModel) (geom.Coordinate, int, error) {
	if vr.Type() != bsontype.Array {
		return geom.Coordinate{}, 0, malformed("coordinate", "expected array, got %s", vr.Type())
	}
	ar, err := vr.ReadArray()
	if err != nil {
		return geom.Coordinate{}, 0, err
	}

	xyzm := make([]float64, 0, 4)
	for {
		evr, err := ar.ReadValue()
		if err == bsonrw.ErrEOA {
			break
		}
		if err != nil {
			return geom.Coordinate{}, 0, err
		}

		if evr.Type() == bsontype.Null {
			if err := evr.ReadNull(); err != nil {
				return geom.Coordinate{}, 0, err
			}
			xyzm = append(xyzm, geom.NullOrdinate)
			continue
		}

		f, ok, err := readNumber(evr)
		if err != nil {
			return geom.Coordinate{}, 0, err
		}
		if !ok {
			return geom.Coordinate{}, 0, malformed("coordinate", "ordinate %d is %s", len(xyzm), evr.Type())
		}
		xyzm = append(xyzm, f)
	}

	var c geom.Coordinate
	switch len(xyzm) {
	case 2:
		c = geom.XY(xyzm[0], xyzm[1])
	case 3:
		c = geom.XYZ(xyzm[0], xyzm[1], xyzm[2])
	case 4:
		c = geom.XYZM(xyzm[0], xyzm[1], xyzm[2], xyzm[3])
	default:
		c = geom.XY(0, 0)
	}

	return pm.MakePreciseCoordinate(c), len(xyzm), nil
}

// readCoordinates reads [[x, y], ...].
func readCoordinates(vr bsonrw.ValueReader, pm geom.PrecisionModel) ([]geom.Coordinate, error) {
	cs := []geom.Coordinate{}
	err := readArray(vr, "coordinate sequence", func(evr bsonrw.ValueReader) error {
		c, err := readCoordinate(evr, pm)
		if err != nil {
			return err
		}
		cs = append(cs, c)
		return nil
	})
	return cs, err
}

// readCoordinateLists reads [[[x, y], ...], ...].
func readCoordinateLists(vr bsonrw.ValueReader, pm geom.PrecisionModel) ([][]geom.Coordinate, error) {
	lists := [][]geom.Coordinate{}
	err := readArray(vr, "coordinate sequence list", func(evr bsonrw.ValueReader) error {
		cs, err := readCoordinates(evr, pm)
		if err != nil {
			return err
		}
		lists = append(lists, cs)
		return nil
	})
	return lists, err
}

// readCoordinateListLists reads the four level nesting of a multi polygon.
func readCoordinateListLists(vr bsonrw.ValueReader, pm geom.PrecisionModel) ([][][]geom.Coordinate, error) {
	out := [][][]geom.Coordinate{}
	err := readArray(vr, "polygon list", func(evr bsonrw.ValueReader) error {
		lists, err := readCoordinateLists(evr, pm)
		if err != nil {
			return err
		}
		out = append(out, lists)
		return nil
	})
	return out, err
}

// readArray calls fn for each element of the array at vr.
func readArray(vr bsonrw.ValueReader, what string, fn func(bsonrw.ValueReader) error) error {
	if vr.Type() != bsontype.Array {
		return malformed(what, "expected array, got %s", vr.Type())
	}
	ar, err := vr.ReadArray()
	if err != nil {
		return err
	}
	for {
		evr, err := ar.ReadValue()
		if err == bsonrw.ErrEOA {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(evr); err != nil {
			return err
		}
	}
}

// readNumber consumes a double, int32 or int64. For any other type it
// consumes nothing and reports false.
func readNumber(vr bsonrw.ValueReader) (float64, bool, error) {
	switch vr.Type() {
	case bsontype.Double:
		f, err := vr.ReadDouble()
		return f, err == nil, err
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		return float64(i), err == nil, err
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		return float64(i), err == nil, err
	default:
		return 0, false, nil
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
