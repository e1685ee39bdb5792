package filter

import (
	"fmt"
	"strings"
)

// ContainmentFilter implements in/nin: same-type membership test
// against a fixed value set. An absent key means in is false, nin is
// true. in(k, []) is always false, per §8 property 8.
type ContainmentFilter struct {
	Field  string
	Values []Value
	Negate bool
}

func NewInFilter(field string, values []Value) *ContainmentFilter {
	return &ContainmentFilter{Field: field, Values: values}
}

func NewNotInFilter(field string, values []Value) *ContainmentFilter {
	return &ContainmentFilter{Field: field, Values: values, Negate: true}
}

func (f *ContainmentFilter) Eval(md Metadata) bool {
	actual, exists := md[f.Field]
	in := false
	if exists {
		for _, v := range f.Values {
			if actual.Equal(v) {
				in = true
				break
			}
		}
	}
	if f.Negate {
		return !in
	}
	return in
}

func (f *ContainmentFilter) Validate() error {
	if f.Field == "" {
		return &Error{Message: "field name cannot be empty"}
	}
	return nil
}

func (f *ContainmentFilter) EstimateSelectivity() float64 {
	if len(f.Values) == 0 {
		if f.Negate {
			return 1.0
		}
		return 0.0
	}
	est := 0.1 * float64(len(f.Values))
	if est > 0.9 {
		est = 0.9
	}
	if f.Negate {
		return 1 - est
	}
	return est
}

func (f *ContainmentFilter) String() string {
	parts := make([]string, len(f.Values))
	for i, v := range f.Values {
		parts[i] = v.String()
	}
	op := "in"
	if f.Negate {
		op = "nin"
	}
	return fmt.Sprintf("%s %s [%s]", f.Field, op, strings.Join(parts, ", "))
}
