package fgb

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
	"github.com/tingold/geobson/feature"
	"github.com/tingold/geobson/geom"
)

// schema is the column layout of a layer in first-seen attribute order.
type schema struct {
	names []string
	types []flattypes.ColumnType
	index map[string]int
}

// inferSchema walks every attribute table and picks one column type per
// name. Columns that only ever hold null become String columns.
func inferSchema(features []*feature.Feature) *schema {
	s := &schema{index: make(map[string]int)}
	seen := make([]bool, 0)

	for _, f := range features {
		if f == nil {
			continue
		}
		f.Attributes.Range(func(name string, v feature.Value) bool {
			i, ok := s.index[name]
			if !ok {
				i = len(s.names)
				s.index[name] = i
				s.names = append(s.names, name)
				s.types = append(s.types, flattypes.ColumnTypeString)
				seen = append(seen, false)
			}
			if v.IsNull() {
				return true
			}
			t := columnType(v)
			if seen[i] {
				t = promoteColumnType(s.types[i], t)
			}
			s.types[i] = t
			seen[i] = true
			return true
		})
	}

	return s
}

// columns builds the header column tables.
func (s *schema) columns(builder *flatbuffers.Builder) []*writer.Column {
	if len(s.names) == 0 {
		return nil
	}
	columns := make([]*writer.Column, 0, len(s.names))
	for i, name := range s.names {
		col := writer.NewColumn(builder)
		col.SetName(name)
		col.SetTitle(name) // JS readers display the title
		col.SetType(s.types[i])
		col.SetNullable(true)
		columns = append(columns, col)
	}
	return columns
}

// columnType determines the column type for a single value.
func columnType(v feature.Value) flattypes.ColumnType {
	switch v.Kind() {
	case feature.BoolValue:
		return flattypes.ColumnTypeBool
	case feature.Int32Value:
		return flattypes.ColumnTypeInt
	case feature.Int64Value:
		return flattypes.ColumnTypeLong
	case feature.DoubleValue:
		return flattypes.ColumnTypeDouble
	case feature.StringValue, feature.ObjectIDValue:
		return flattypes.ColumnTypeString
	case feature.DateTimeValue:
		return flattypes.ColumnTypeDateTime
	default:
		return flattypes.ColumnTypeJson
	}
}

var numericRank = map[flattypes.ColumnType]int{
	flattypes.ColumnTypeBool:   0,
	flattypes.ColumnTypeByte:   1,
	flattypes.ColumnTypeUByte:  2,
	flattypes.ColumnTypeShort:  3,
	flattypes.ColumnTypeUShort: 4,
	flattypes.ColumnTypeInt:    5,
	flattypes.ColumnTypeUInt:   6,
	flattypes.ColumnTypeLong:   7,
	flattypes.ColumnTypeULong:  8,
	flattypes.ColumnTypeFloat:  9,
	flattypes.ColumnTypeDouble: 10,
}

// promoteColumnType returns the more general type when two values of one
// column disagree.
func promoteColumnType(a, b flattypes.ColumnType) flattypes.ColumnType {
	if a == b {
		return a
	}
	if a == flattypes.ColumnTypeJson || b == flattypes.ColumnTypeJson {
		return flattypes.ColumnTypeJson
	}
	if a == flattypes.ColumnTypeString || b == flattypes.ColumnTypeString {
		return flattypes.ColumnTypeString
	}

	rankA, okA := numericRank[a]
	rankB, okB := numericRank[b]
	if okA && okB {
		if rankA > rankB {
			return a
		}
		return b
	}

	return flattypes.ColumnTypeJson
}

// encodeProperties encodes an attribute table as repeated
// [uint16 column index][value] records. Null attributes are omitted.
func (s *schema) encodeProperties(t *feature.Table) ([]byte, error) {
	if t.Len() == 0 || len(s.names) == 0 {
		return nil, nil
	}

	var (
		buf bytes.Buffer
		err error
	)
	t.Range(func(name string, v feature.Value) bool {
		if v.IsNull() {
			return true
		}
		i, ok := s.index[name]
		if !ok {
			return true
		}
		_ = binary.Write(&buf, binary.LittleEndian, uint16(i))
		if err = writePropertyValue(&buf, v, s.types[i]); err != nil {
			err = fmt.Errorf("property %q: %w", name, err)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// writePropertyValue writes v in the encoding of the column type, widening
// numbers as the column requires.
func writePropertyValue(buf *bytes.Buffer, v feature.Value, colType flattypes.ColumnType) error {
	mismatch := func() error {
		return fmt.Errorf("%w: %s value in %s column", ErrPropertyMismatch, v.Kind(), flattypes.EnumNamesColumnType[colType])
	}

	switch colType {
	case flattypes.ColumnTypeBool:
		b, ok := v.BoolValue()
		if !ok {
			return mismatch()
		}
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}

	case flattypes.ColumnTypeInt:
		i, ok := toInt64(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return mismatch()
		}
		_ = binary.Write(buf, binary.LittleEndian, int32(i))

	case flattypes.ColumnTypeLong:
		i, ok := toInt64(v)
		if !ok {
			return mismatch()
		}
		_ = binary.Write(buf, binary.LittleEndian, i)

	case flattypes.ColumnTypeDouble:
		f, ok := toFloat64(v)
		if !ok {
			return mismatch()
		}
		_ = binary.Write(buf, binary.LittleEndian, math.Float64bits(f))

	case flattypes.ColumnTypeString:
		writeString(buf, toString(v))

	case flattypes.ColumnTypeDateTime:
		if ts, ok := v.DateTimeValue(); ok {
			writeString(buf, ts.UTC().Format(time.RFC3339Nano))
			break
		}
		s, ok := v.StringValue()
		if !ok {
			return mismatch()
		}
		writeString(buf, s)

	case flattypes.ColumnTypeJson:
		b, err := json.Marshal(jsonValue(v))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPropertyMismatch, err)
		}
		writeString(buf, string(b))

	default:
		return mismatch()
	}

	return nil
}

// writeString writes a length-prefixed UTF-8 string.
func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(s)))
	buf.WriteString(s)
}

func toInt64(v feature.Value) (int64, bool) {
	if i, ok := v.IntValue(); ok {
		return i, true
	}
	if b, ok := v.BoolValue(); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat64(v feature.Value) (float64, bool) {
	if f, ok := v.DoubleValue(); ok {
		return f, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toString(v feature.Value) string {
	switch v.Kind() {
	case feature.StringValue:
		s, _ := v.StringValue()
		return s
	case feature.ObjectIDValue:
		oid, _ := v.ObjectIDValue()
		return oid.Hex()
	case feature.DateTimeValue:
		ts, _ := v.DateTimeValue()
		return ts.UTC().Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(jsonValue(v))
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// jsonValue maps v onto types encoding/json renders as GeoJSON-friendly
// text. Geometries become GeoJSON geometry objects.
func jsonValue(v feature.Value) any {
	switch v.Kind() {
	case feature.ArrayValue:
		arr, _ := v.ArrayValue()
		out := make([]any, 0, len(arr))
		for _, e := range arr {
			out = append(out, jsonValue(e))
		}
		return out
	case feature.ObjectValue:
		t, _ := v.ObjectValue()
		out := make(map[string]any, t.Len())
		t.Range(func(name string, e feature.Value) bool {
			out[name] = jsonValue(e)
			return true
		})
		return out
	case feature.GeometryValue:
		g, _ := v.GeometryValue()
		return geojson.NewGeometry(geom.ToOrb(g))
	case feature.ObjectIDValue, feature.DateTimeValue:
		return toString(v)
	default:
		return v.Interface()
	}
}

// decodeProperties decodes the property buffer of one feature against the
// header columns.
func decodeProperties(data []byte, header *flattypes.Header) (*feature.Table, error) {
	if len(data) == 0 || header == nil {
		return nil, nil
	}

	t := feature.NewTable()
	offset := 0

	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated column index", ErrInvalidData)
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return nil, fmt.Errorf("%w: column %d out of range", ErrInvalidData, colIndex)
		}

		name := string(col.Name())
		v, n, err := readPropertyValue(data[offset:], col.Type())
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		offset += n

		t.Set(name, v)
	}

	return t, nil
}

// readPropertyValue reads one value and returns it with the number of
// bytes consumed.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (feature.Value, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrInvalidData, flattypes.EnumNamesColumnType[colType], n, len(data))
		}
		return nil
	}

	switch colType {
	case flattypes.ColumnTypeBool:
		if err := need(1); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Bool(data[0] != 0), 1, nil

	case flattypes.ColumnTypeByte:
		if err := need(1); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int32(int32(int8(data[0]))), 1, nil

	case flattypes.ColumnTypeUByte:
		if err := need(1); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int32(int32(data[0])), 1, nil

	case flattypes.ColumnTypeShort:
		if err := need(2); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int32(int32(int16(binary.LittleEndian.Uint16(data)))), 2, nil

	case flattypes.ColumnTypeUShort:
		if err := need(2); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int32(int32(binary.LittleEndian.Uint16(data))), 2, nil

	case flattypes.ColumnTypeInt:
		if err := need(4); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int32(int32(binary.LittleEndian.Uint32(data))), 4, nil

	case flattypes.ColumnTypeUInt:
		if err := need(4); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int64(int64(binary.LittleEndian.Uint32(data))), 4, nil

	case flattypes.ColumnTypeLong:
		if err := need(8); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Int64(int64(binary.LittleEndian.Uint64(data))), 8, nil

	case flattypes.ColumnTypeULong:
		if err := need(8); err != nil {
			return feature.Value{}, 0, err
		}
		u := binary.LittleEndian.Uint64(data)
		if u > math.MaxInt64 {
			return feature.Double(float64(u)), 8, nil
		}
		return feature.Int64(int64(u)), 8, nil

	case flattypes.ColumnTypeFloat:
		if err := need(4); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Double(float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))), 4, nil

	case flattypes.ColumnTypeDouble:
		if err := need(8); err != nil {
			return feature.Value{}, 0, err
		}
		return feature.Double(math.Float64frombits(binary.LittleEndian.Uint64(data))), 8, nil

	case flattypes.ColumnTypeString, flattypes.ColumnTypeDateTime, flattypes.ColumnTypeJson, flattypes.ColumnTypeBinary:
		if err := need(4); err != nil {
			return feature.Value{}, 0, err
		}
		size := int(binary.LittleEndian.Uint32(data))
		if err := need(4 + size); err != nil {
			return feature.Value{}, 0, err
		}
		raw := data[4 : 4+size]
		v, err := stringColumnValue(raw, colType)
		return v, 4 + size, err

	default:
		return feature.Value{}, 0, fmt.Errorf("%w: column type %d", ErrInvalidData, colType)
	}
}

func stringColumnValue(raw []byte, colType flattypes.ColumnType) (feature.Value, error) {
	switch colType {
	case flattypes.ColumnTypeDateTime:
		if ts, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			return feature.DateTime(ts.UTC()), nil
		}
		return feature.String(string(raw)), nil

	case flattypes.ColumnTypeJson:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var x any
		if err := dec.Decode(&x); err != nil {
			return feature.Value{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return valueFromJSON(x), nil

	case flattypes.ColumnTypeBinary:
		return feature.String(hex.EncodeToString(raw)), nil

	default:
		return feature.String(string(raw)), nil
	}
}

// valueFromJSON converts decoded JSON, numbers kept as json.Number, into a
// value. Integral numbers stay integers.
func valueFromJSON(x any) feature.Value {
	switch v := x.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return feature.Int32(int32(i))
			}
			return feature.Int64(i)
		}
		f, _ := v.Float64()
		return feature.Double(f)
	case []any:
		values := make([]feature.Value, 0, len(v))
		for _, e := range v {
			values = append(values, valueFromJSON(e))
		}
		return feature.Array(values...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := feature.NewTable()
		for _, k := range keys {
			t.Set(k, valueFromJSON(v[k]))
		}
		return feature.Object(t)
	default:
		fv, err := feature.ValueOf(v)
		if err != nil {
			return feature.Null()
		}
		return fv
	}
}
