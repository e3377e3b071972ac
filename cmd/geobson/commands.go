package main

import (
	"github.com/tingold/geobson"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/fgb"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EncodeCommand struct {
	Input  string `short:"i" long:"input"  description:"GeoJSON input, - for stdin" default:"-"`
	Output string `short:"o" long:"output" description:"BSON output, - for stdout" default:"-"`
}

func (cmd *EncodeCommand) Execute([]string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}
	return convert(c, cmd.Input, cmd.Output, formatGeoJSON, formatBSON, writeOptions{})
}

type DecodeCommand struct {
	Input  string `short:"i" long:"input"  description:"BSON input, - for stdin" default:"-"`
	Output string `short:"o" long:"output" description:"GeoJSON output, - for stdout" default:"-"`
	Indent bool   `long:"indent" description:"Indent GeoJSON output"`
}

func (cmd *DecodeCommand) Execute([]string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}
	return convert(c, cmd.Input, cmd.Output, formatBSON, formatGeoJSON, writeOptions{Indent: cmd.Indent})
}

type FGBCommand struct {
	Input       string `short:"i" long:"input"       description:"GeoJSON or BSON input, - for stdin" default:"-"`
	Output      string `short:"o" long:"output"      description:"FlatGeobuf output, - for stdout" default:"-"`
	Name        string `short:"n" long:"name"        description:"Layer name"`
	Description string `long:"description"           description:"Layer description"`
	NoIndex     bool   `long:"no-index"              description:"Do not write a spatial index"`
}

func (cmd *FGBCommand) Execute([]string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}

	return convert(c, cmd.Input, cmd.Output, formatGeoJSON, formatFGB, writeOptions{
		FGB: &fgb.Options{
			Name:         cmd.Name,
			Description:  cmd.Description,
			IncludeIndex: !cmd.NoIndex,
			CRS:          fgb.CRSFromSRID(c.Factory().SRID),
			Logger:       log.Logger,
		},
	})
}

func convert(c *geobson.Codec, input, output string, in, out format, wo writeOptions) error {
	d, err := readDocument(c, input, in)
	if err != nil {
		return err
	}

	n, err := writeDocument(c, output, d, out, wo)
	if err != nil {
		return err
	}

	log.Info().
		Str("input", input).
		Str("output", output).
		Str("type", d.kind()).
		Stringer("format", formatOf(output, out)).
		Int("bytes", n).
		Msg("Converted")
	return nil
}

type InspectCommand struct {
	Input string `short:"i" long:"input" description:"GeoJSON, BSON or FlatGeobuf input, - for stdin" default:"-"`
}

func (cmd *InspectCommand) Execute([]string) error {
	c, err := newCodec()
	if err != nil {
		return err
	}

	d, err := readDocument(c, cmd.Input, formatBSON)
	if err != nil {
		return err
	}

	if d.Header != nil {
		logHeader(d.Header)
	}

	summarize(log.Info(), d).Str("input", cmd.Input).Msg("Inspected")
	return nil
}

func logHeader(h *fgb.Header) {
	columns := make([]string, 0, len(h.Columns))
	for _, col := range h.Columns {
		columns = append(columns, col.Name+":"+col.Type)
	}

	ev := log.Info().
		Str("name", h.Name).
		Str("geometry_type", h.GeometryType).
		Uint64("features", h.FeaturesCount).
		Bool("index", h.HasIndex).
		Strs("columns", columns)
	if h.CRS != nil {
		ev = ev.Int("crs", h.CRS.Code)
	}
	ev.Msg("FlatGeobuf header")
}

// summarize adds feature counts, geometry kinds and bounds to ev.
func summarize(ev *zerolog.Event, d *document) *zerolog.Event {
	fc := d.collection()

	kinds := make(map[string]int)
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			kinds["null"]++
			continue
		}
		kinds[f.Geometry.Kind().String()]++
	}

	ev = ev.Str("type", d.kind()).
		Int("features", len(fc.Features)).
		Interface("kinds", kinds).
		Int("attributes", attributeCount(fc))

	if env, ok := fc.Envelope(); ok {
		ev = ev.Floats64("bbox", []float64{env.MinX, env.MinY, env.MaxX, env.MaxY})
	}
	return ev
}

// attributeCount returns the number of distinct attribute names.
func attributeCount(fc *feature.FeatureCollection) int {
	names := make(map[string]struct{})
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		for _, name := range f.Attributes.Names() {
			names[name] = struct{}{}
		}
	}
	return len(names)
}
