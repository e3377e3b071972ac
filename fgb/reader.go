package fgb

import (
	"fmt"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/rs/zerolog"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
)

// Reader provides read access to a FlatGeobuf file. Features are read
// through the spatial index, so files written without one can report
// their header but not their features.
type Reader struct {
	fgb   *flatgeobuf.FlatGeoBuf
	geoms geometryReader
	log   zerolog.Logger
}

// NewReader opens a file. The file is memory-mapped.
func NewReader(path string) (*Reader, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}

	return newReader(fgb), nil
}

// NewReaderFromData creates a reader over an in-memory file.
func NewReaderFromData(data []byte) (*Reader, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}

	return newReader(fgb), nil
}

func newReader(fgb *flatgeobuf.FlatGeoBuf) *Reader {
	r := &Reader{
		fgb:   fgb,
		geoms: geometryReader{factory: geom.WGS84()},
		log:   zerolog.Nop(),
	}
	if h := fgb.Header(); h != nil {
		r.geoms.layer = h.GeometryType()
	}
	return r
}

// WithFactory makes the reader build geometries through f, applying its
// precision model and validation.
func (r *Reader) WithFactory(f *geom.Factory) *Reader {
	if f != nil {
		r.geoms.factory = f
	}
	return r
}

// WithLogger sets the logger used to report skipped features.
func (r *Reader) WithLogger(l zerolog.Logger) *Reader {
	r.log = l
	return r
}

// Header returns metadata about the file, or nil once the reader is
// closed.
func (r *Reader) Header() *Header {
	if r.fgb == nil {
		return nil
	}
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{
			h.Envelope(0),
			h.Envelope(1),
			h.Envelope(2),
			h.Envelope(3),
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
		}
	}

	if n := h.ColumnsLength(); n > 0 {
		header.Columns = make([]ColumnInfo, 0, n)
		for i := 0; i < n; i++ {
			var col flattypes.Column
			if h.Columns(&col, i) {
				header.Columns = append(header.Columns, ColumnInfo{
					Name:        string(col.Name()),
					Type:        flattypes.EnumNamesColumnType[col.Type()],
					Title:       string(col.Title()),
					Description: string(col.Description()),
					Nullable:    col.Nullable(),
				})
			}
		}
	}

	return header
}

// ReadAll reads every feature by searching the index with the header
// envelope. Files written without an index record no feature count, so
// they always return ErrNoIndex.
func (r *Reader) ReadAll() (*feature.FeatureCollection, error) {
	if r.fgb == nil {
		return nil, ErrClosed
	}
	h := r.fgb.Header()
	if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return nil, ErrNoIndex
	}
	if h.FeaturesCount() == 0 {
		return feature.NewFeatureCollection(), nil
	}

	return r.search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
}

// ReadGeometries reads all geometries without properties.
func (r *Reader) ReadGeometries() ([]geom.Geometry, error) {
	fc, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return geometries(fc), nil
}

// Search returns features whose bounding boxes intersect bounds.
func (r *Reader) Search(bounds geom.Envelope) (*feature.FeatureCollection, error) {
	if r.fgb == nil {
		return nil, ErrClosed
	}
	if r.fgb.Header().IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	return r.search(bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY)
}

// SearchGeometries is Search returning only geometries.
func (r *Reader) SearchGeometries(bounds geom.Envelope) ([]geom.Geometry, error) {
	fc, err := r.Search(bounds)
	if err != nil {
		return nil, err
	}
	return geometries(fc), nil
}

// Close releases the file. The underlying mapping has no explicit close;
// dropping the reference lets it be collected. Later reads return
// ErrClosed.
func (r *Reader) Close() error {
	r.fgb = nil
	return nil
}

func (r *Reader) search(minX, minY, maxX, maxY float64) (*feature.FeatureCollection, error) {
	h := r.fgb.Header()

	found, err := r.fgb.Search(minX, minY, maxX, maxY)
	if err != nil {
		return nil, err
	}

	fc := feature.NewFeatureCollection()
	for i, ff := range found {
		f, err := r.convertFeature(ff, h)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if f == nil {
			r.log.Debug().Int("feature", i).Msg("skipping feature without geometry")
			continue
		}
		fc.Append(f)
	}

	return fc, nil
}

// convertFeature returns nil for a feature that carries no geometry.
func (r *Reader) convertFeature(ff *flattypes.Feature, h *flattypes.Header) (*feature.Feature, error) {
	if ff == nil {
		return nil, nil
	}

	var fg flattypes.Geometry
	if ff.Geometry(&fg) == nil {
		return nil, nil
	}

	g, err := r.geoms.read(&fg)
	if err != nil {
		return nil, err
	}

	f := feature.NewFeature(g)

	if n := ff.PropertiesLength(); n > 0 && h.ColumnsLength() > 0 {
		data := make([]byte, n)
		for i := 0; i < n; i++ {
			data[i] = byte(ff.Properties(i))
		}
		if f.Attributes, err = decodeProperties(data, h); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func geometries(fc *feature.FeatureCollection) []geom.Geometry {
	out := make([]geom.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f != nil && f.Geometry != nil {
			out = append(out, f.Geometry)
		}
	}
	return out
}
