package rbac

import "strings"

// CheckConstraints evaluates a permission's constraint map against
// request-specific values supplied by the caller. The engine itself never
// calls this; constraint enforcement stays an explicit caller-side check.
//
// Contract: every constraint key must be satisfied by the request value of
// the same key (without the max_/min_ prefix where present), otherwise the
// check fails. Keys prefixed "max_" require the request number to be less
// than or equal to the constraint; "min_" requires greater than or equal.
// All other keys require exact equality of strings, booleans, or numbers.
// Numbers of any Go numeric type are compared as float64. A constraint whose
// request value is absent fails closed.
func CheckConstraints(constraints, request map[string]any) bool {
	for key, bound := range constraints {
		switch {
		case strings.HasPrefix(key, "max_"):
			got, ok1 := toFloat(request[strings.TrimPrefix(key, "max_")])
			limit, ok2 := toFloat(bound)
			if !ok1 || !ok2 || got > limit {
				return false
			}
		case strings.HasPrefix(key, "min_"):
			got, ok1 := toFloat(request[strings.TrimPrefix(key, "min_")])
			limit, ok2 := toFloat(bound)
			if !ok1 || !ok2 || got < limit {
				return false
			}
		default:
			got, present := request[key]
			if !present || !scalarEqual(bound, got) {
				return false
			}
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
