package geobson

import (
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// memberFlag identifies a declared member. Flags are distinct bits so the
// set of seen members fits in one word.
type memberFlag uint32

const (
	memberType memberFlag = 1 << iota
	memberCRS
	memberBBox
	memberCoordinates
	memberGeometries
	memberID
	memberGeometry
	memberProperties
	memberFeatures
)

type member struct {
	name            string
	flag            memberFlag
	optional        bool
	allowDuplicates bool
}

func required(name string, flag memberFlag) member {
	return member{name: name, flag: flag}
}

func optional(name string, flag memberFlag) member {
	return member{name: name, flag: flag, optional: true}
}

// memberSet is the declared member table of one document shape.
type memberSet struct {
	document string
	members  []member
	required memberFlag
}

func newMemberSet(document string, members ...member) memberSet {
	s := memberSet{document: document, members: members}
	for _, m := range members {
		if !m.optional {
			s.required |= m.flag
		}
	}
	return s
}

func (s memberSet) lookup(name string) (member, bool) {
	for _, m := range s.members {
		if m.name == name {
			return m, true
		}
	}
	return member{}, false
}

// decode reads the document at vr and calls handle for every declared
// member. handle must consume the value. Undeclared members are skipped.
// Required members not seen by the end of the document are an error.
func (s memberSet) decode(vr bsonrw.ValueReader, log zerolog.Logger, handle func(memberFlag, bsonrw.ValueReader) error) error {
	if t := vr.Type(); t != bsontype.EmbeddedDocument && t != bsontype.Type(0) {
		return malformed(s.document, "expected document, got %s", t)
	}
	dr, err := vr.ReadDocument()
	if err != nil {
		return err
	}

	var seen memberFlag
	for {
		name, evr, err := dr.ReadElement()
		if err == bsonrw.ErrEOD {
			break
		}
		if err != nil {
			return err
		}

		m, ok := s.lookup(name)
		if !ok {
			log.Trace().Str("document", s.document).Str("member", name).Msg("skipping unknown member")
			if err := evr.Skip(); err != nil {
				return err
			}
			continue
		}

		if seen&m.flag != 0 && !m.allowDuplicates {
			return &DuplicateMemberError{Document: s.document, Member: name}
		}
		seen |= m.flag

		if err := handle(m.flag, evr); err != nil {
			return err
		}
	}

	if missing := s.required &^ seen; missing != 0 {
		for _, m := range s.members {
			if missing&m.flag != 0 {
				return &MissingMemberError{Document: s.document, Member: m.name}
			}
		}
	}

	return nil
}

// readDiscriminator reads the "type" member and checks it equals expected.
func readDiscriminator(vr bsonrw.ValueReader, expected string) error {
	if vr.Type() != bsontype.String {
		return malformed("type member", "expected string, got %s", vr.Type())
	}
	actual, err := vr.ReadString()
	if err != nil {
		return err
	}
	if actual != expected {
		return &TypeMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// writeDiscriminator writes the leading "type" member.
func writeDiscriminator(dw bsonrw.DocumentWriter, name string) error {
	vw, err := dw.WriteDocumentElement("type")
	if err != nil {
		return err
	}
	return vw.WriteString(name)
}
