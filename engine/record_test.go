package engine

import (
	"testing"
)

func TestTupleString(t *testing.T) {
	tests := []struct {
		name  string
		tuple Tuple
		want  string
	}{
		{
			name:  "empty tuple",
			tuple: Tuple{},
			want:  "()",
		},
		{
			name:  "integers and strings",
			tuple: NewTuple(1, "a", int64(2)),
			want:  "(1,a,2)",
		},
		{
			name:  "integral floats drop the fraction",
			tuple: NewTuple(float64(3), 4.5),
			want:  "(3,4.5)",
		},
		{
			name:  "nil renders empty",
			tuple: NewTuple("x", nil, "y"),
			want:  "(x,,y)",
		},
		{
			name:  "nested tuples and slices",
			tuple: NewTuple(Tuple{1, 2}, []any{"a", []any{true}}),
			want:  "((1,2),(a,(true)))",
		},
		{
			name:  "maps with sorted keys",
			tuple: NewTuple(map[string]any{"b": 2.0, "a": "x"}),
			want:  "([a#x,b#2])",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tuple.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTupleCopies(t *testing.T) {
	fields := []any{1, 2}
	tuple := NewTuple(fields...)
	fields[0] = 99

	if tuple.Field(0) != 1 {
		t.Errorf("Expected tuple to be unaffected by caller mutation, got %v", tuple.Field(0))
	}

	if tuple.Len() != 2 {
		t.Errorf("Expected 2 fields, got %d", tuple.Len())
	}
}

func TestFromValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"slice of any", []any{1.0, "b"}, "(1,b)"},
		{"slice of strings", []string{"x", "y"}, "(x,y)"},
		{"scalar", "solo", "(solo)"},
		{"number", 7.0, "(7)"},
		{"tuple passthrough", Tuple{"t"}, "(t)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromValue(tt.value).String(); got != tt.want {
				t.Errorf("FromValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
