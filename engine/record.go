package engine

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Record is a single output record produced by a script. Records are compared
// by their string rendering.
type Record interface {
	fmt.Stringer
	// Len returns the number of fields in the record.
	Len() int
	// Field returns the field at index i.
	Field(i int) any
}

// Tuple is a fixed-arity, ordered record. It must not be modified once produced.
type Tuple []any

var _ Record = Tuple(nil)

// NewTuple copies the given fields into a new Tuple.
func NewTuple(fields ...any) Tuple {
	return slices.Clone(Tuple(fields))
}

// Len returns the number of fields in the tuple.
func (t Tuple) Len() int {
	return len(t)
}

// Field returns the field at index i.
func (t Tuple) Field(i int) any {
	return t[i]
}

// String renders the tuple as "(f1,f2,...)".
func (t Tuple) String() string {
	var b strings.Builder
	writeTuple(&b, t)

	return b.String()
}

func writeTuple(b *strings.Builder, fields []any) {
	b.WriteByte('(')
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		writeField(b, field)
	}
	b.WriteByte(')')
}

// writeField renders a single field: nested tuples recursively, maps as [k#v,...] with
// sorted keys, nil as the empty string and integral floats without a fraction.
func writeField(b *strings.Builder, field any) {
	switch v := field.(type) {
	case nil:
	case string:
		b.WriteString(v)
	case Tuple:
		writeTuple(b, v)
	case []any:
		writeTuple(b, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		b.WriteByte('[')
		for i, key := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(key)
			b.WriteByte('#')
			writeField(b, v[key])
		}
		b.WriteByte(']')
	case float64:
		b.WriteString(formatFloat(v))
	case float32:
		b.WriteString(formatFloat(float64(v)))
	case fmt.Stringer:
		b.WriteString(v.String())
	default:
		fmt.Fprint(b, v)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FromValue converts an arbitrary decoded value into a Record. Tuples and slices
// become tuples field by field; any other value becomes a single-field tuple.
func FromValue(value any) Record {
	switch v := value.(type) {
	case Tuple:
		return v
	case []any:
		return NewTuple(v...)
	case []string:
		fields := make(Tuple, len(v))
		for i, s := range v {
			fields[i] = s
		}
		return fields
	default:
		return Tuple{v}
	}
}
