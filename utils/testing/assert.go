// Package testing provides assertion and fixture helpers shared by scriptcheck tests.
package testing

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
)

// AssertError validates that an error matches expected results.
func AssertError(t *testing.T, err error, wantErr bool) {
	t.Helper()

	if wantErr != (err != nil) {
		t.Fatalf("Expected error = %v, got: %v", wantErr, err)
	}
}

// AssertErrorIs verifies that err wraps target.
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()

	if !errors.Is(err, target) {
		t.Fatalf("Expected error wrapping %q, got: %v", target, err)
	}
}

// AssertEqual verifies two comparable values are equal.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()

	if got != want {
		t.Errorf("got = %v, want: %v", got, want)
	}
}

// AssertLength verifies the length of a string, slice, map, array or channel.
func AssertLength(t *testing.T, got any, want int) {
	t.Helper()

	v := reflect.ValueOf(got)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
	default:
		t.Fatalf("AssertLength called with unsupported type: %T", got)
	}

	if v.Len() != want {
		t.Fatalf("Expected length %d, got %d: %v", want, v.Len(), got)
	}
}

// AssertLines verifies that got holds exactly the lines in want, in order.
func AssertLines(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("Expected %d lines %q, got %d: %q", len(want), want, len(got), got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected line[%d] = %q, got: %q", i, want[i], got[i])
		}
	}
}

// AssertContains verifies that got contains every value in want.
// got may be a string (substring match) or a []string (any element holding the
// substring); want may be a string or a []string.
func AssertContains(t *testing.T, got any, want any) {
	t.Helper()

	contains := searcher(t, got)
	if contains == nil {
		return
	}

	for _, needle := range needles(t, want) {
		if !contains(needle) {
			t.Errorf("Expected output to contain %q, got: %v", needle, got)
		}
	}
}

// AssertNotContains verifies that got contains none of the unwanted values.
func AssertNotContains(t *testing.T, got any, unwanted []string) {
	t.Helper()

	contains := searcher(t, got)
	if contains == nil {
		return
	}

	for _, needle := range unwanted {
		if contains(needle) {
			t.Errorf("Expected output to not contain %q, got: %v", needle, got)
		}
	}
}

func searcher(t *testing.T, got any) func(string) bool {
	t.Helper()

	switch val := got.(type) {
	case string:
		return func(needle string) bool {
			return strings.Contains(val, needle)
		}
	case []string:
		set := mapset.NewThreadUnsafeSet(val...)
		return func(needle string) bool {
			if set.Contains(needle) {
				return true
			}
			for item := range set.Iter() {
				if strings.Contains(item, needle) {
					return true
				}
			}
			return false
		}
	default:
		t.Fatalf("got must be string or []string, got %T", got)
		return nil
	}
}

func needles(t *testing.T, want any) []string {
	t.Helper()

	switch val := want.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	default:
		t.Fatalf("want must be string or []string, got %T", want)
		return nil
	}
}
