package geobson

import (
	"github.com/tingold/geobson/feature"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// EncodeAttributes writes t as a document in table order, leaving out the
// reserved "id" key. A nil table is written as BSON null.
func (c *Codec) EncodeAttributes(vw bsonrw.ValueWriter, t *feature.Table) error {
	if t == nil {
		return vw.WriteNull()
	}
	return c.writeTable(vw, t, true)
}

// DecodeAttributes reads a document into a fresh table. Every member is
// kept, "id" included. BSON null decodes to nil.
func (c *Codec) DecodeAttributes(vr bsonrw.ValueReader) (*feature.Table, error) {
	if null, err := readNullable(vr); null || err != nil {
		return nil, err
	}
	return c.readTable(vr)
}

func (c *Codec) writeTable(vw bsonrw.ValueWriter, t *feature.Table, skipID bool) error {
	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}

	t.Range(func(name string, v feature.Value) bool {
		if skipID && name == feature.IDKey {
			return true
		}
		var evw bsonrw.ValueWriter
		if evw, err = dw.WriteDocumentElement(name); err != nil {
			return false
		}
		err = c.EncodeValue(evw, v)
		return err == nil
	})
	if err != nil {
		return err
	}

	return dw.WriteDocumentEnd()
}

func (c *Codec) readTable(vr bsonrw.ValueReader) (*feature.Table, error) {
	if t := vr.Type(); t != bsontype.EmbeddedDocument && t != bsontype.Type(0) {
		return nil, malformed("attributes", "expected document, got %s", t)
	}
	dr, err := vr.ReadDocument()
	if err != nil {
		return nil, err
	}

	t := feature.NewTable()
	for {
		name, evr, err := dr.ReadElement()
		if err == bsonrw.ErrEOD {
			return t, nil
		}
		if err != nil {
			return nil, err
		}

		v, err := c.DecodeValue(evr)
		if err != nil {
			return nil, err
		}
		if err := t.Add(name, v); err != nil {
			return nil, err
		}
	}
}
