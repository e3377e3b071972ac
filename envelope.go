package geobson

import (
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// EncodeEnvelope writes e as [minX, minY, maxX, maxY] rounded with the
// envelope precision model.
func (c *Codec) EncodeEnvelope(vw bsonrw.ValueWriter, e geom.Envelope) error {
	aw, err := vw.WriteArray()
	if err != nil {
		return err
	}
	for _, f := range [4]float64{e.MinX, e.MinY, e.MaxX, e.MaxY} {
		if err := writeArrayDouble(aw, c.envelopePrecision.MakePrecise(f)); err != nil {
			return err
		}
	}
	return aw.WriteArrayEnd()
}

// DecodeEnvelope reads a bounding box array. Non-numeric tokens are
// skipped and the first four numbers are used. BSON null decodes to nil.
func (c *Codec) DecodeEnvelope(vr bsonrw.ValueReader) (*geom.Envelope, error) {
	if null, err := readNullable(vr); null || err != nil {
		return nil, err
	}

	numbers := make([]float64, 0, 4)
	err := readArray(vr, "bbox", func(evr bsonrw.ValueReader) error {
		f, ok, err := readNumber(evr)
		if err != nil {
			return err
		}
		if !ok {
			return evr.Skip()
		}
		numbers = append(numbers, c.envelopePrecision.MakePrecise(f))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(numbers) < 4 {
		return nil, malformed("bbox", "expected 4 numbers, got %d", len(numbers))
	}

	minX, minY, maxX, maxY := numbers[0], numbers[1], numbers[2], numbers[3]
	e := geom.NewEnvelope(minX, maxX, minY, maxY)
	return &e, nil
}
