// Package geobson encodes geom geometries and feature values as
// GeoJSON-shaped BSON documents and decodes them back. Codecs work
// directly on the mongo-driver bsonrw readers and writers, and a Codec
// also exposes an immutable bsoncodec.Registry so the types can be used
// as fields of ordinary structs.
package geobson

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

// Common errors returned by this package. The typed errors below match
// these with errors.Is.
var (
	ErrTypeMismatch         = errors.New("geobson: type mismatch")
	ErrUnknownDiscriminator = errors.New("geobson: unknown discriminator")
	ErrMissingMember        = errors.New("geobson: missing required member")
	ErrDuplicateMember      = errors.New("geobson: duplicate member")
	ErrMalformedShape       = errors.New("geobson: malformed shape")
	ErrUnsupportedGeometry  = errors.New("geobson: unsupported geometry")
)

// TypeMismatchError reports a "type" member that disagrees with the
// expected discriminator.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("geobson: invalid GeoJSON type %q, expected %q", e.Actual, e.Expected)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// UnknownDiscriminatorError reports a geometry "type" with no codec.
type UnknownDiscriminatorError struct {
	Value string
}

func (e *UnknownDiscriminatorError) Error() string {
	return fmt.Sprintf("geobson: the type field of the geometry is not valid: %q", e.Value)
}

func (e *UnknownDiscriminatorError) Is(target error) bool { return target == ErrUnknownDiscriminator }

// MissingMemberError reports a required member absent when the document
// closed.
type MissingMemberError struct {
	Document string
	Member   string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("geobson: %s document is missing required member %q", e.Document, e.Member)
}

func (e *MissingMemberError) Is(target error) bool { return target == ErrMissingMember }

// DuplicateMemberError reports a member that appeared twice.
type DuplicateMemberError struct {
	Document string
	Member   string
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("geobson: %s document has duplicate member %q", e.Document, e.Member)
}

func (e *DuplicateMemberError) Is(target error) bool { return target == ErrDuplicateMember }

// MalformedShapeError reports a value whose BSON shape does not fit the
// position it was read from.
type MalformedShapeError struct {
	What   string
	Reason string
}

func (e *MalformedShapeError) Error() string {
	return fmt.Sprintf("geobson: malformed %s: %s", e.What, e.Reason)
}

func (e *MalformedShapeError) Is(target error) bool { return target == ErrMalformedShape }

func malformed(what, format string, args ...any) error {
	return &MalformedShapeError{What: what, Reason: fmt.Sprintf(format, args...)}
}

// Options configures a Codec.
type Options struct {
	// Factory builds geometries and supplies the ordinate precision model.
	Factory *geom.Factory
	// EnvelopePrecision rounds bounding boxes. Nil uses Factory.Precision.
	EnvelopePrecision *geom.PrecisionModel
	// GeometryAttributes decodes nested attribute documents whose "type"
	// names a geometry kind as geometry values instead of tables.
	GeometryAttributes bool
	// Logger receives trace output about skipped members.
	Logger zerolog.Logger
}

// DefaultOptions returns options using the WGS84 factory.
func DefaultOptions() *Options {
	return &Options{
		Factory: geom.WGS84(),
		Logger:  zerolog.Nop(),
	}
}

// Codec encodes and decodes geometries, envelopes, attribute tables,
// features and feature collections. A Codec is immutable and safe for
// concurrent use.
type Codec struct {
	factory            *geom.Factory
	precision          geom.PrecisionModel
	envelopePrecision  geom.PrecisionModel
	geometryAttributes bool
	log                zerolog.Logger

	point           *kindCodec[geom.Point, position]
	lineString      *kindCodec[geom.LineString, []geom.Coordinate]
	polygon         *kindCodec[geom.Polygon, [][]geom.Coordinate]
	multiPoint      *kindCodec[geom.MultiPoint, []geom.Coordinate]
	multiLineString *kindCodec[geom.MultiLineString, [][]geom.Coordinate]
	multiPolygon    *kindCodec[geom.MultiPolygon, [][][]geom.Coordinate]
	geometries      map[geom.Kind]geometryCoder
	registry        *bsoncodec.Registry
}

// NewCodec builds a codec. Nil options use DefaultOptions.
func NewCodec(opts *Options) (*Codec, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	factory := opts.Factory
	if factory == nil {
		factory = geom.WGS84()
	}
	if err := factory.Precision.Validate(); err != nil {
		return nil, err
	}

	envelopePrecision := factory.Precision
	if opts.EnvelopePrecision != nil {
		if err := opts.EnvelopePrecision.Validate(); err != nil {
			return nil, err
		}
		envelopePrecision = *opts.EnvelopePrecision
	}

	c := &Codec{
		factory:            factory,
		precision:          factory.Precision,
		envelopePrecision:  envelopePrecision,
		geometryAttributes: opts.GeometryAttributes,
		log:                opts.Logger,
	}
	c.geometries = c.buildGeometryCoders()
	c.registry = c.buildRegistry()

	return c, nil
}

// MustNewCodec is NewCodec for options known to be valid.
func MustNewCodec(opts *Options) *Codec {
	c, err := NewCodec(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Factory returns the geometry factory used for decoding.
func (c *Codec) Factory() *geom.Factory {
	return c.factory
}
