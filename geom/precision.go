package geom

import (
	"fmt"
	"math"
)

// PrecisionType selects how a PrecisionModel rounds ordinates.
type PrecisionType uint8

const (
	// Floating keeps full float64 precision.
	Floating PrecisionType = iota
	// FloatingSingle narrows every ordinate to float32 precision.
	FloatingSingle
	// Fixed rounds to a grid of 1/Scale.
	Fixed
)

func (t PrecisionType) String() string {
	switch t {
	case FloatingSingle:
		return "floating_single"
	case Fixed:
		return "fixed"
	default:
		return "floating"
	}
}

// PrecisionModel is the rounding policy applied to ordinates before they
// are written and after they are read. The zero value is Floating.
type PrecisionModel struct {
	Type  PrecisionType
	Scale float64 // Fixed only: 100 rounds to two decimal places
}

// FixedDecimals returns a Fixed model rounding to n decimal places.
func FixedDecimals(n int) PrecisionModel {
	return PrecisionModel{Type: Fixed, Scale: math.Pow10(n)}
}

// Validate checks the model is usable.
func (pm PrecisionModel) Validate() error {
	if pm.Type == Fixed && (pm.Scale <= 0 || math.IsNaN(pm.Scale) || math.IsInf(pm.Scale, 0)) {
		return fmt.Errorf("geom: fixed precision needs a positive scale, got %v", pm.Scale)
	}
	return nil
}

// MakePrecise rounds v according to the model. NaN is returned unchanged.
func (pm PrecisionModel) MakePrecise(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}

	switch pm.Type {
	case FloatingSingle:
		return float64(float32(v))
	case Fixed:
		if pm.Scale <= 0 {
			return v
		}
		return math.RoundToEven(v*pm.Scale) / pm.Scale
	default:
		return v
	}
}

// MakePreciseCoordinate rounds every ordinate of c.
func (pm PrecisionModel) MakePreciseCoordinate(c Coordinate) Coordinate {
	c.X = pm.MakePrecise(c.X)
	c.Y = pm.MakePrecise(c.Y)
	c.Z = pm.MakePrecise(c.Z)
	c.M = pm.MakePrecise(c.M)
	return c
}

func (pm PrecisionModel) String() string {
	if pm.Type == Fixed {
		return fmt.Sprintf("fixed(%g)", pm.Scale)
	}
	return pm.Type.String()
}
