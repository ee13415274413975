package harness

import (
	"strings"
)

// Binding is a named script parameter.
type Binding struct {
	Name  string
	Value string
}

func (b Binding) String() string {
	return b.Name + "=" + b.Value
}

// ParseBindings converts `name=value` strings into bindings, splitting on the first
// `=`. Entries without a `=` are ignored. Declaration order is kept.
func ParseBindings(params ...string) []Binding {
	bindings := make([]Binding, 0, len(params))

	for _, param := range params {
		name, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}

		bindings = append(bindings, Binding{Name: name, Value: value})
	}

	return bindings
}

// DefaultBindings returns the bindings applied before any caller-supplied ones.
func (tc *TestContext) DefaultBindings() []Binding {
	return []Binding{
		{Name: "DATA_DIR", Value: tc.DataPath()},
	}
}

// Substitute replaces every literal `$name` in every line with the bound value,
// one binding at a time in order. A value that itself contains a later binding's
// placeholder is rewritten by that binding.
func Substitute(lines []string, bindings []Binding) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	for _, b := range bindings {
		placeholder := "$" + b.Name

		for i := range out {
			out[i] = strings.ReplaceAll(out[i], placeholder, b.Value)
		}
	}

	return out
}
