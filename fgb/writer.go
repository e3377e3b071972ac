package fgb

import (
	"fmt"
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
)

// Write writes bare geometries, without properties.
func Write(w io.Writer, geometries []geom.Geometry, opts *Options) error {
	if len(geometries) == 0 {
		return ErrNilGeometry
	}

	fc := feature.NewFeatureCollection()
	for _, g := range geometries {
		fc.Append(feature.NewFeature(g))
	}

	return WriteFeatures(w, fc, opts)
}

// WriteFeatures writes a feature collection. Features without a geometry
// are skipped. Attribute tables are written against a column schema
// inferred from the whole collection.
func WriteFeatures(w io.Writer, fc *feature.FeatureCollection, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}

	if fc == nil || len(fc.Features) == 0 {
		return ErrNilGeometry
	}

	geometries := make([]geom.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f != nil {
			geometries = append(geometries, f.Geometry)
		}
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(layerType(geometries))

	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}

	s := inferSchema(fc.Features)
	if columns := s.columns(builder); len(columns) > 0 {
		header.SetColumns(columns)
	}

	if c := opts.CRS; c != nil {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		if c.Code > 0 {
			crs.SetCode(int32(c.Code))
		}
		if c.Name != "" {
			crs.SetName(c.Name)
		}
		switch {
		case c.Description != "":
			crs.SetDescription(c.Description)
		case c.WKT != "":
			crs.SetDescription(c.WKT)
		}
		header.SetCrs(crs)
	}

	converted, skipped, err := convertFeatures(fc.Features, s)
	if err != nil {
		return err
	}
	if len(converted) == 0 {
		return ErrNilGeometry
	}

	fw := writer.NewWriter(header, opts.IncludeIndex, &featureGenerator{features: converted}, nil)
	if _, err := fw.Write(w); err != nil {
		return err
	}

	opts.Logger.Debug().
		Str("name", opts.Name).
		Int("features", len(converted)).
		Int("skipped", skipped).
		Int("columns", len(s.names)).
		Str("geometry_type", flattypes.EnumNamesGeometryType[layerType(geometries)]).
		Bool("index", opts.IncludeIndex).
		Msg("wrote flatgeobuf")

	return nil
}

// WriteFeature writes a single feature.
func WriteFeature(w io.Writer, f *feature.Feature, opts *Options) error {
	if f == nil {
		return ErrNilGeometry
	}

	return WriteFeatures(w, feature.NewFeatureCollection().Append(f), opts)
}

// convertFeatures builds the FlatGeobuf features up front so that conversion
// errors surface before the writer starts. Features without a geometry are
// counted as skipped.
func convertFeatures(features []*feature.Feature, s *schema) ([]*writer.Feature, int, error) {
	out := make([]*writer.Feature, 0, len(features))
	skipped := 0
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		wf, err := convertFeature(f, s)
		if err != nil {
			return nil, 0, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, wf)
	}
	return out, skipped, nil
}

// featureGenerator feeds converted features to the FlatGeobuf writer.
type featureGenerator struct {
	features []*writer.Feature
	index    int
}

func (g *featureGenerator) Generate() *writer.Feature {
	if g.index >= len(g.features) {
		return nil
	}
	f := g.features[g.index]
	g.index++
	return f
}

func convertFeature(f *feature.Feature, s *schema) (*writer.Feature, error) {
	builder := flatbuffers.NewBuilder(1024)

	fg, err := geometryToFGB(f.Geometry, builder)
	if err != nil {
		return nil, err
	}

	out := writer.NewFeature(builder)
	out.SetGeometry(fg)

	props, err := s.encodeProperties(f.Attributes)
	if err != nil {
		return nil, err
	}
	if len(props) > 0 {
		out.SetProperties(props)
	}

	return out, nil
}
