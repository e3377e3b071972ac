package feature

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tingold/geobson/geom"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	NullValue ValueKind = iota
	BoolValue
	Int32Value
	Int64Value
	DoubleValue
	StringValue
	ArrayValue
	ObjectValue
	GeometryValue
	DateTimeValue
	ObjectIDValue
)

func (k ValueKind) String() string {
	switch k {
	case NullValue:
		return "null"
	case BoolValue:
		return "bool"
	case Int32Value:
		return "int32"
	case Int64Value:
		return "int64"
	case DoubleValue:
		return "double"
	case StringValue:
		return "string"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	case GeometryValue:
		return "geometry"
	case DateTimeValue:
		return "datetime"
	case ObjectIDValue:
		return "objectid"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Value is a dynamically typed attribute value. The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Table
	geom geom.Geometry
	t    time.Time
	oid  primitive.ObjectID
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: BoolValue, b: b} }

// Int32 wraps a 32-bit integer.
func Int32(i int32) Value { return Value{kind: Int32Value, i: int64(i)} }

// Int64 wraps a 64-bit integer.
func Int64(i int64) Value { return Value{kind: Int64Value, i: i} }

// Int wraps i as Int32 when it fits and Int64 otherwise.
func Int(i int) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return Int32(int32(i))
	}
	return Int64(int64(i))
}

// Double wraps a float64.
func Double(f float64) Value { return Value{kind: DoubleValue, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: StringValue, s: s} }

// Array wraps an ordered list of values.
func Array(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{kind: ArrayValue, arr: values}
}

// Object wraps a nested table. A nil table is null.
func Object(t *Table) Value {
	if t == nil {
		return Null()
	}
	return Value{kind: ObjectValue, obj: t}
}

// Geometry wraps a geometry. A nil geometry is null.
func Geometry(g geom.Geometry) Value {
	if g == nil {
		return Null()
	}
	return Value{kind: GeometryValue, geom: g}
}

// DateTime wraps a timestamp, truncated to the millisecond precision of
// the document format.
func DateTime(t time.Time) Value {
	return Value{kind: DateTimeValue, t: t.Truncate(time.Millisecond)}
}

// ObjectID wraps a document identifier.
func ObjectID(id primitive.ObjectID) Value {
	return Value{kind: ObjectIDValue, oid: id}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == NullValue }

// BoolValue returns the boolean and whether v holds one.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == BoolValue }

// IntValue returns the integer of an Int32 or Int64 value.
func (v Value) IntValue() (int64, bool) {
	return v.i, v.kind == Int32Value || v.kind == Int64Value
}

// DoubleValue returns the float of a Double value.
func (v Value) DoubleValue() (float64, bool) { return v.f, v.kind == DoubleValue }

// StringValue returns the string of a String value.
func (v Value) StringValue() (string, bool) { return v.s, v.kind == StringValue }

// ArrayValue returns the elements of an Array value.
func (v Value) ArrayValue() ([]Value, bool) { return v.arr, v.kind == ArrayValue }

// ObjectValue returns the table of an Object value.
func (v Value) ObjectValue() (*Table, bool) { return v.obj, v.kind == ObjectValue }

// GeometryValue returns the geometry of a Geometry value.
func (v Value) GeometryValue() (geom.Geometry, bool) { return v.geom, v.kind == GeometryValue }

// DateTimeValue returns the time of a DateTime value.
func (v Value) DateTimeValue() (time.Time, bool) { return v.t, v.kind == DateTimeValue }

// ObjectIDValue returns the identifier of an ObjectID value.
func (v Value) ObjectIDValue() (primitive.ObjectID, bool) { return v.oid, v.kind == ObjectIDValue }

// ValueOf converts a Go value into a Value. Supported inputs are nil,
// bool, the integer and float types, string, time.Time,
// primitive.ObjectID, geom.Geometry, *Table, Value, []Value, []any,
// []float64, []string and map[string]any (keys sorted).
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int8:
		return Int32(int32(v)), nil
	case int16:
		return Int32(int32(v)), nil
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case uint8:
		return Int32(int32(v)), nil
	case uint16:
		return Int32(int32(v)), nil
	case uint32:
		return Int64(int64(v)), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, v)
		}
		return Int64(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, v)
		}
		return Int64(int64(v)), nil
	case float32:
		return Double(float64(v)), nil
	case float64:
		return Double(v), nil
	case string:
		return String(v), nil
	case time.Time:
		return DateTime(v), nil
	case primitive.ObjectID:
		return ObjectID(v), nil
	case primitive.DateTime:
		return DateTime(v.Time()), nil
	case geom.Geometry:
		return Geometry(v), nil
	case *Table:
		return Object(v), nil
	case []Value:
		return Array(v...), nil
	case []float64:
		values := make([]Value, 0, len(v))
		for _, f := range v {
			values = append(values, Double(f))
		}
		return Array(values...), nil
	case []string:
		values := make([]Value, 0, len(v))
		for _, s := range v {
			values = append(values, String(s))
		}
		return Array(values...), nil
	case []any:
		values := make([]Value, 0, len(v))
		for i, e := range v {
			ev, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			values = append(values, ev)
		}
		return Array(values...), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := NewTable()
		for _, k := range keys {
			ev, err := ValueOf(v[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			t.Set(k, ev)
		}
		return Object(t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
	}
}

// MustValueOf is ValueOf for literals known to be supported.
func MustValueOf(x any) Value {
	v, err := ValueOf(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Interface returns the natural Go representation: nil, bool, int32,
// int64, float64, string, []any, map[string]any, geom.Geometry,
// time.Time or primitive.ObjectID.
func (v Value) Interface() any {
	switch v.kind {
	case BoolValue:
		return v.b
	case Int32Value:
		return int32(v.i)
	case Int64Value:
		return v.i
	case DoubleValue:
		return v.f
	case StringValue:
		return v.s
	case ArrayValue:
		out := make([]any, 0, len(v.arr))
		for _, e := range v.arr {
			out = append(out, e.Interface())
		}
		return out
	case ObjectValue:
		return v.obj.Map()
	case GeometryValue:
		return v.geom
	case DateTimeValue:
		return v.t
	case ObjectIDValue:
		return v.oid
	default:
		return nil
	}
}

// Equal reports whether a and b hold the same variant and content.
// Doubles compare NaN equal to NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case NullValue:
		return true
	case BoolValue:
		return v.b == o.b
	case Int32Value, Int64Value:
		return v.i == o.i
	case DoubleValue:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case StringValue:
		return v.s == o.s
	case ArrayValue:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case ObjectValue:
		return v.obj.Equal(o.obj)
	case GeometryValue:
		return geom.Equal(v.geom, o.geom)
	case DateTimeValue:
		return v.t.Equal(o.t)
	case ObjectIDValue:
		return v.oid == o.oid
	}

	return false
}

func (v Value) String() string {
	switch v.kind {
	case NullValue:
		return "null"
	case StringValue:
		return fmt.Sprintf("%q", v.s)
	case ObjectValue:
		return fmt.Sprintf("object(%d keys)", v.obj.Len())
	case GeometryValue:
		return v.geom.Kind().String()
	default:
		return fmt.Sprint(v.Interface())
	}
}
