package filter

import (
	"fmt"
	"strings"
)

// LogicalOperator combines or inverts child predicates.
type LogicalOperator int

const (
	And LogicalOperator = iota
	Or
	Not
)

// LogicalFilter implements and/or/not with short-circuit evaluation.
// Not takes exactly one child; And/Or take any number.
type LogicalFilter struct {
	Operator LogicalOperator
	Children []Predicate
}

func NewAnd(children ...Predicate) *LogicalFilter {
	return &LogicalFilter{Operator: And, Children: children}
}

func NewOr(children ...Predicate) *LogicalFilter {
	return &LogicalFilter{Operator: Or, Children: children}
}

func NewNot(child Predicate) *LogicalFilter {
	return &LogicalFilter{Operator: Not, Children: []Predicate{child}}
}

func (f *LogicalFilter) Eval(md Metadata) bool {
	switch f.Operator {
	case And:
		for _, c := range f.Children {
			if !c.Eval(md) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range f.Children {
			if c.Eval(md) {
				return true
			}
		}
		return false
	case Not:
		if len(f.Children) == 0 {
			return true
		}
		return !f.Children[0].Eval(md)
	default:
		return false
	}
}

func (f *LogicalFilter) Validate() error {
	if f.Operator == Not && len(f.Children) != 1 {
		return &Error{Message: "not requires exactly one child predicate"}
	}
	return nil
}

func (f *LogicalFilter) EstimateSelectivity() float64 {
	switch f.Operator {
	case And:
		sel := 1.0
		for _, c := range f.Children {
			if e, ok := c.(interface{ EstimateSelectivity() float64 }); ok {
				sel *= e.EstimateSelectivity()
			}
		}
		return sel
	case Or:
		sel := 0.0
		for _, c := range f.Children {
			if e, ok := c.(interface{ EstimateSelectivity() float64 }); ok {
				sel = sel + e.EstimateSelectivity() - sel*e.EstimateSelectivity()
			}
		}
		return sel
	case Not:
		if len(f.Children) == 0 {
			return 1.0
		}
		if e, ok := f.Children[0].(interface{ EstimateSelectivity() float64 }); ok {
			return 1 - e.EstimateSelectivity()
		}
		return 0.5
	default:
		return 0.5
	}
}

func (f *LogicalFilter) String() string {
	parts := make([]string, len(f.Children))
	for i, c := range f.Children {
		parts[i] = c.String()
	}
	switch f.Operator {
	case And:
		return "(" + strings.Join(parts, " AND ") + ")"
	case Or:
		return "(" + strings.Join(parts, " OR ") + ")"
	case Not:
		return fmt.Sprintf("NOT %s", strings.Join(parts, ""))
	default:
		return "?"
	}
}
