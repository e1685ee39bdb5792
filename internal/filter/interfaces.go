// Package filter evaluates the metadata predicate tree against a
// collection entry's tagged-value metadata map.
package filter

import "fmt"

// Kind tags the runtime type of a metadata Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

// Value is a tagged variant over the four metadata types a
// VectorEntry may carry. Comparisons between Values of different
// Kinds are false rather than an error, except that Int and Float
// promote to Float for ordering comparisons (gt/gte/lt/lte).
type Value struct {
	Kind Kind
	Str  string
	Int  int64
	Flt  float64
	Bool bool
}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Int(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Flt)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "<invalid>"
	}
}

func (v Value) asFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Flt, true
	default:
		return 0, false
	}
}

// Equal implements the eq semantics of §4.2: same-type comparison
// only, cross-type is false, never an error.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Flt == other.Flt
	case KindBool:
		return v.Bool == other.Bool
	default:
		return false
	}
}

// Less reports whether v orders strictly before other under numeric
// promotion (int/float only). ok is false for any other type pairing.
func (v Value) Less(other Value) (result, ok bool) {
	vf, vok := v.asFloat()
	of, ook := other.asFloat()
	if !vok || !ook {
		return false, false
	}
	return vf < of, true
}

// Metadata is an entry's tagged-value metadata map.
type Metadata map[string]Value

// Predicate is a node in the filter tree: a leaf comparison or an
// internal logical combinator.
type Predicate interface {
	Eval(md Metadata) bool
	String() string
}

// Error reports a malformed predicate, e.g. an empty field name.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("filter error on field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("filter error: %s", e.Message)
}
