package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tingold/geobson"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/fgb"
	"github.com/tingold/geobson/geom"
	"github.com/tingold/geobson/internal/fileio"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
)

type format uint8

const (
	formatGeoJSON format = iota + 1
	formatBSON
	formatFGB
)

func (f format) String() string {
	switch f {
	case formatGeoJSON:
		return "geojson"
	case formatBSON:
		return "bson"
	case formatFGB:
		return "flatgeobuf"
	default:
		return "unknown"
	}
}

// formatOf picks a format from the file extension. Stdin, stdout and
// unrecognised extensions use fallback.
func formatOf(path string, fallback format) format {
	switch fileio.Ext(path) {
	case ".geojson", ".json":
		return formatGeoJSON
	case ".bson":
		return formatBSON
	case ".fgb":
		return formatFGB
	default:
		return fallback
	}
}

// document holds exactly one of a geometry, a feature or a collection.
// Header is set for documents read from FlatGeobuf.
type document struct {
	Geometry   geom.Geometry
	Feature    *feature.Feature
	Collection *feature.FeatureCollection
	Header     *fgb.Header
}

func (d *document) kind() string {
	switch {
	case d.Collection != nil:
		return "FeatureCollection"
	case d.Feature != nil:
		return "Feature"
	case d.Geometry != nil:
		return d.Geometry.Kind().String()
	default:
		return "null"
	}
}

func (d *document) value() any {
	switch {
	case d.Collection != nil:
		return d.Collection
	case d.Feature != nil:
		return d.Feature
	default:
		return d.Geometry
	}
}

// collection returns the document as a feature collection, wrapping a
// lone feature or geometry.
func (d *document) collection() *feature.FeatureCollection {
	switch {
	case d.Collection != nil:
		return d.Collection
	case d.Feature != nil:
		return feature.NewFeatureCollection().Append(d.Feature)
	case d.Geometry != nil:
		return feature.NewFeatureCollection().Append(feature.NewFeature(d.Geometry))
	default:
		return feature.NewFeatureCollection()
	}
}

func readDocument(c *geobson.Codec, path string, fallback format) (*document, error) {
	data, err := fileio.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch formatOf(path, fallback) {
	case formatFGB:
		return readFGB(c, data)
	case formatGeoJSON:
		var raw bson.Raw
		if err := c.UnmarshalGeoJSON(data, &raw); err != nil {
			return nil, fmt.Errorf("parse geojson: %w", err)
		}
		data = raw
	}

	return decodeDocument(c, data)
}

func decodeDocument(c *geobson.Codec, raw bson.Raw) (*document, error) {
	kind, err := geobson.Peek(raw)
	if err != nil {
		return nil, err
	}

	var d document
	switch kind {
	case "FeatureCollection":
		var fc feature.FeatureCollection
		err = c.Unmarshal(raw, &fc)
		d.Collection = &fc
	case "Feature":
		var f feature.Feature
		err = c.Unmarshal(raw, &f)
		d.Feature = &f
	default:
		err = c.Unmarshal(raw, &d.Geometry)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func readFGB(c *geobson.Codec, data []byte) (*document, error) {
	r, err := fgb.NewReaderFromData(data)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fc, err := r.WithFactory(c.Factory()).WithLogger(log.Logger).ReadAll()
	if err != nil {
		return nil, err
	}
	return &document{Collection: fc, Header: r.Header()}, nil
}

// writeOptions controls how writeDocument renders its output.
type writeOptions struct {
	Indent bool
	FGB    *fgb.Options
}

func encodeDocument(c *geobson.Codec, d *document, f format, wo writeOptions) ([]byte, error) {
	switch f {
	case formatGeoJSON:
		data, err := c.MarshalGeoJSON(d.value())
		if err != nil || !wo.Indent {
			return data, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil

	case formatBSON:
		return c.Marshal(d.value())

	case formatFGB:
		fgbOpts := wo.FGB
		if fgbOpts == nil {
			fgbOpts = fgb.DefaultOptions()
			fgbOpts.CRS = fgb.CRSFromSRID(c.Factory().SRID)
		}
		var buf bytes.Buffer
		if err := fgb.WriteFeatures(&buf, d.collection(), fgbOpts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported output format %s", f)
	}
}

func writeDocument(c *geobson.Codec, path string, d *document, fallback format, wo writeOptions) (int, error) {
	data, err := encodeDocument(c, d, formatOf(path, fallback), wo)
	if err != nil {
		return 0, err
	}
	return len(data), fileio.WriteFile(path, data)
}
