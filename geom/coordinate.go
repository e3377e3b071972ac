package geom

import (
	"fmt"
	"math"
)

// NullOrdinate marks a Z or M ordinate that has no value.
var NullOrdinate = math.NaN()

// Layout is the dimensionality of a coordinate.
type Layout uint8

const (
	XYLayout Layout = iota
	XYZLayout
	XYZMLayout
)

// Dims returns the number of ordinates carried by the layout.
func (l Layout) Dims() int {
	switch l {
	case XYZLayout:
		return 3
	case XYZMLayout:
		return 4
	default:
		return 2
	}
}

func (l Layout) String() string {
	switch l {
	case XYZLayout:
		return "XYZ"
	case XYZMLayout:
		return "XYZM"
	default:
		return "XY"
	}
}

// Coordinate is a position with optional Z and M ordinates. Ordinates the
// layout does not carry are NaN.
type Coordinate struct {
	X, Y, Z, M float64
	Layout     Layout
}

// XY returns a two dimensional coordinate.
func XY(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: NullOrdinate, M: NullOrdinate, Layout: XYLayout}
}

// XYZ returns a coordinate with an elevation.
func XYZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, M: NullOrdinate, Layout: XYZLayout}
}

// XYZM returns a coordinate with an elevation and a measure.
func XYZM(x, y, z, m float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, M: m, Layout: XYZMLayout}
}

// HasZ reports whether the layout carries a Z ordinate.
func (c Coordinate) HasZ() bool {
	return c.Layout == XYZLayout || c.Layout == XYZMLayout
}

// HasM reports whether the layout carries an M ordinate.
func (c Coordinate) HasM() bool {
	return c.Layout == XYZMLayout
}

// Equal compares layout and every carried ordinate. NaN equals NaN.
func (c Coordinate) Equal(o Coordinate) bool {
	if c.Layout != o.Layout {
		return false
	}
	if !ordinateEqual(c.X, o.X) || !ordinateEqual(c.Y, o.Y) {
		return false
	}
	if c.HasZ() && !ordinateEqual(c.Z, o.Z) {
		return false
	}
	if c.HasM() && !ordinateEqual(c.M, o.M) {
		return false
	}
	return true
}

// Equal2D compares X and Y only.
func (c Coordinate) Equal2D(o Coordinate) bool {
	return ordinateEqual(c.X, o.X) && ordinateEqual(c.Y, o.Y)
}

func (c Coordinate) String() string {
	switch c.Layout {
	case XYZLayout:
		return fmt.Sprintf("(%g %g %g)", c.X, c.Y, c.Z)
	case XYZMLayout:
		return fmt.Sprintf("(%g %g %g %g)", c.X, c.Y, c.Z, c.M)
	default:
		return fmt.Sprintf("(%g %g)", c.X, c.Y)
	}
}

func ordinateEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
