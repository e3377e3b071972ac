// Package fgb exports and imports feature collections as FlatGeobuf.
// Geometries are written as XY; Z and M ordinates present in a file are
// read back. Attribute tables become typed FlatGeobuf columns.
package fgb

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/tingold/geobson/geom"
)

// Common errors returned by this package.
var (
	ErrNilGeometry      = errors.New("fgb: nil geometry")
	ErrUnsupportedType  = errors.New("fgb: unsupported geometry type")
	ErrInvalidData      = errors.New("fgb: invalid data")
	ErrNoIndex          = errors.New("fgb: file has no spatial index")
	ErrPropertyMismatch = errors.New("fgb: property type mismatch")
	ErrClosed           = errors.New("fgb: reader is closed")
)

// CRS represents a coordinate reference system.
type CRS struct {
	Code        int    // EPSG code
	Name        string // CRS name
	Description string // CRS description
	WKT         string // Well-Known Text representation
}

// WGS84 returns EPSG:4326.
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
	}
}

// CRSFromSRID returns an EPSG CRS for a positive SRID and nil otherwise.
func CRSFromSRID(srid int) *CRS {
	switch {
	case srid == 4326:
		return WGS84()
	case srid > 0:
		return &CRS{Code: srid}
	default:
		return nil
	}
}

// Options configures writing.
type Options struct {
	Name         string // Layer name
	Description  string // Layer description
	IncludeIndex bool   // Include the packed R-tree index
	CRS          *CRS   // Coordinate reference system (optional)

	Logger zerolog.Logger
}

// DefaultOptions returns options with the spatial index enabled.
func DefaultOptions() *Options {
	return &Options{
		IncludeIndex: true,
		Logger:       zerolog.Nop(),
	}
}

// ColumnInfo describes a property column.
type ColumnInfo struct {
	Name        string
	Type        string // "Bool", "Int", "Long", "Double", "String", "Json", ...
	Title       string
	Description string
	Nullable    bool
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string
	Description   string
	GeometryType  string // "Point", "Polygon", "Unknown", ...
	FeaturesCount uint64
	Envelope      [4]float64 // [minX, minY, maxX, maxY]
	CRS           *CRS
	HasIndex      bool
	Columns       []ColumnInfo
}

// Bounds returns the header envelope.
func (h *Header) Bounds() geom.Envelope {
	return geom.NewEnvelope(h.Envelope[0], h.Envelope[2], h.Envelope[1], h.Envelope[3])
}
