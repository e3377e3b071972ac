// Package feature provides GeoJSON features, feature collections and the
// ordered attribute tables and dynamic values attached to them.
package feature

import (
	"errors"

	"github.com/tingold/geobson/geom"
)

// Common errors returned by this package.
var (
	ErrUnsupportedValue   = errors.New("feature: unsupported value type")
	ErrDuplicateAttribute = errors.New("feature: duplicate attribute")
)

// Feature is a geometry with attributes and an optional bounding box.
// The feature identifier lives in the attribute table under IDKey.
type Feature struct {
	Geometry    geom.Geometry
	Attributes  *Table
	BoundingBox *geom.Envelope
}

// NewFeature returns a feature for g with no attributes.
func NewFeature(g geom.Geometry) *Feature {
	return &Feature{Geometry: g}
}

// ID returns the non-null "id" attribute.
func (f *Feature) ID() (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	id, ok := f.Attributes.Get(IDKey)
	if !ok || id.IsNull() {
		return Value{}, false
	}
	return id, true
}

// SetID stores id under IDKey, creating the attribute table if needed.
func (f *Feature) SetID(id Value) {
	if f.Attributes == nil {
		f.Attributes = NewTable()
	}
	f.Attributes.Set(IDKey, id)
}

// Equal compares geometry, attributes and bounding box.
func (f *Feature) Equal(o *Feature) bool {
	if f == nil || o == nil {
		return f == nil && o == nil
	}
	if !geom.Equal(f.Geometry, o.Geometry) || !f.Attributes.Equal(o.Attributes) {
		return false
	}
	return envelopesEqual(f.BoundingBox, o.BoundingBox)
}

// FeatureCollection is an ordered list of features.
type FeatureCollection struct {
	Features    []*Feature
	BoundingBox *geom.Envelope
}

// NewFeatureCollection returns an empty collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Features: []*Feature{}}
}

// Append adds a feature and returns the collection.
func (fc *FeatureCollection) Append(f *Feature) *FeatureCollection {
	fc.Features = append(fc.Features, f)
	return fc
}

// Envelope returns the combined bounds of every feature geometry.
func (fc *FeatureCollection) Envelope() (geom.Envelope, bool) {
	var (
		env   geom.Envelope
		found bool
	)
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		e, ok := geom.EnvelopeOf(f.Geometry)
		if !ok {
			continue
		}
		if !found {
			env, found = e, true
			continue
		}
		env = env.ExpandToInclude(e)
	}
	return env, found
}

// Equal compares every feature in order and the bounding box.
func (fc *FeatureCollection) Equal(o *FeatureCollection) bool {
	if fc == nil || o == nil {
		return fc == nil && o == nil
	}
	if len(fc.Features) != len(o.Features) || !envelopesEqual(fc.BoundingBox, o.BoundingBox) {
		return false
	}
	for i := range fc.Features {
		if !fc.Features[i].Equal(o.Features[i]) {
			return false
		}
	}
	return true
}

func envelopesEqual(a, b *geom.Envelope) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
