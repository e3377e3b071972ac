package geom

import (
	"github.com/paulmach/orb"
)

// Envelope is an axis aligned bounding box.
type Envelope struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// NewEnvelope builds an envelope from an X pair followed by a Y pair.
// Each pair may be given in either order.
func NewEnvelope(x1, x2, y1, y2 float64) Envelope {
	e := Envelope{MinX: x1, MaxX: x2, MinY: y1, MaxY: y2}
	if x2 < x1 {
		e.MinX, e.MaxX = x2, x1
	}
	if y2 < y1 {
		e.MinY, e.MaxY = y2, y1
	}
	return e
}

// Width returns MaxX - MinX.
func (e Envelope) Width() float64 { return e.MaxX - e.MinX }

// Height returns MaxY - MinY.
func (e Envelope) Height() float64 { return e.MaxY - e.MinY }

// Bound converts the envelope to an orb.Bound.
func (e Envelope) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.MinX, e.MinY}, Max: orb.Point{e.MaxX, e.MaxY}}
}

// EnvelopeFromBound converts an orb.Bound.
func EnvelopeFromBound(b orb.Bound) Envelope {
	return NewEnvelope(b.Min[0], b.Max[0], b.Min[1], b.Max[1])
}

// EnvelopeOf returns the XY bounds of g. The second result is false for
// nil or empty geometries.
func EnvelopeOf(g Geometry) (Envelope, bool) {
	if g == nil || isEmptyDeep(g) {
		return Envelope{}, false
	}
	return EnvelopeFromBound(ToOrb(g).Bound()), true
}

// ExpandToInclude returns the smallest envelope containing e and o.
func (e Envelope) ExpandToInclude(o Envelope) Envelope {
	return EnvelopeFromBound(e.Bound().Union(o.Bound()))
}

func isEmptyDeep(g Geometry) bool {
	gc, ok := g.(GeometryCollection)
	if !ok {
		return g.IsEmpty()
	}
	for _, child := range gc.Geometries {
		if child != nil && !isEmptyDeep(child) {
			return false
		}
	}
	return true
}
