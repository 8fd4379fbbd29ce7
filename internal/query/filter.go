// Package query is the pure filter/sort/derive layer the list pages and
// dashboard share. Every function here is a side-effect-free computation
// over a collection snapshot; the reference time is always a parameter.
package query

import "strconv"

// Constraints maps a field name to an expected value, typically straight
// from a selection UI. An empty value means "no constraint on this field".
type Constraints map[string]string

// Fielder is satisfied by any record kind exposing named field access.
type Fielder interface {
	FieldValue(name string) (any, bool)
}

// Filter returns the records satisfying every non-empty constraint,
// preserving input order. Constraints combine with logical AND. Numeric
// fields are compared by coerced numeric equality since constraint values
// arrive as text; a constraint naming a field the kind does not expose
// matches nothing.
func Filter[T Fielder](records []T, c Constraints) []T {
	active := make(Constraints, len(c))
	for name, want := range c {
		if want != "" {
			active[name] = want
		}
	}
	if len(active) == 0 {
		out := make([]T, len(records))
		copy(out, records)
		return out
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if matches(rec, active) {
			out = append(out, rec)
		}
	}
	return out
}

func matches[T Fielder](rec T, c Constraints) bool {
	for name, want := range c {
		got, ok := rec.FieldValue(name)
		if !ok || !valueEquals(got, want) {
			return false
		}
	}
	return true
}

func valueEquals(got any, want string) bool {
	switch v := got.(type) {
	case nil:
		return false
	case string:
		return v == want
	case int64:
		n, err := strconv.ParseInt(want, 10, 64)
		return err == nil && n == v
	case int:
		n, err := strconv.Atoi(want)
		return err == nil && n == v
	case float64:
		f, err := strconv.ParseFloat(want, 64)
		return err == nil && f == v
	}
	return false
}
