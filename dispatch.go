package geobson

import (
	"errors"
	"fmt"

	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// EncodeGeometry writes g with the codec selected by its kind. A nil
// geometry is written as BSON null.
func (c *Codec) EncodeGeometry(vw bsonrw.ValueWriter, g geom.Geometry) error {
	if g == nil {
		return vw.WriteNull()
	}
	coder, ok := c.geometries[g.Kind()]
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
	return coder.encodeGeometry(vw, g)
}

// DecodeGeometry reads a geometry of any kind. The document is buffered so
// its "type" member can be inspected wherever it appears, then decoded from
// the start by the codec registered for that discriminator. BSON null
// decodes to a nil geometry.
func (c *Codec) DecodeGeometry(vr bsonrw.ValueReader) (geom.Geometry, error) {
	raw, null, err := bufferDocument(vr, "geometry")
	if err != nil || null {
		return nil, err
	}

	name, err := peek(raw, "geometry")
	if err != nil {
		return nil, err
	}
	kind, ok := geom.ParseKind(name)
	if !ok {
		return nil, &UnknownDiscriminatorError{Value: name}
	}

	return c.geometries[kind].decodeGeometry(bsonrw.NewBSONDocumentReader(raw))
}

// Peek returns the "type" discriminator of a document without decoding it.
func Peek(raw bson.Raw) (string, error) {
	return peek(raw, "document")
}

func peek(raw bson.Raw, document string) (string, error) {
	v, err := raw.LookupErr("type")
	if errors.Is(err, bsoncore.ErrElementNotFound) {
		return "", &MissingMemberError{Document: document, Member: "type"}
	}
	if err != nil {
		return "", err
	}
	name, ok := v.StringValueOK()
	if !ok {
		return "", malformed("type member", "expected string, got %s", v.Type)
	}
	return name, nil
}

// bufferDocument copies the document at vr into memory. The second result
// is true when vr held BSON null, which is consumed.
func bufferDocument(vr bsonrw.ValueReader, what string) (bson.Raw, bool, error) {
	switch vr.Type() {
	case bsontype.Null:
		return nil, true, vr.ReadNull()
	case bsontype.EmbeddedDocument, bsontype.Type(0):
	default:
		return nil, false, malformed(what, "expected document, got %s", vr.Type())
	}

	b, err := bsonrw.Copier{}.CopyDocumentToBytes(vr)
	if err != nil {
		return nil, false, err
	}
	return bson.Raw(b), false, nil
}

// readNullable consumes a BSON null and reports true, or reports false
// and leaves vr untouched.
func readNullable(vr bsonrw.ValueReader) (bool, error) {
	if vr.Type() != bsontype.Null {
		return false, nil
	}
	return true, vr.ReadNull()
}
