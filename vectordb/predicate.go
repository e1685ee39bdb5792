package vectordb

import "github.com/xDarkicex/vectordb/internal/filter"

// Predicate is a node in a query's where-clause tree: a leaf
// comparison or a logical combinator. Build one with Eq/Ne/In/NotIn/
// Gt/Gte/Lt/Lte/And/Or/Not, or use Match for the top-level
// map-literal sugar of §4.2.
type Predicate struct {
	p filter.Predicate
}

func wrap(p filter.Predicate) Predicate { return Predicate{p: p} }

func Eq(field string, value interface{}) Predicate {
	v, err := toValue(value)
	if err != nil {
		return wrap(filter.False)
	}
	return wrap(filter.NewEqualityFilter(field, v))
}

func Ne(field string, value interface{}) Predicate {
	v, err := toValue(value)
	if err != nil {
		return wrap(filter.True)
	}
	return wrap(filter.NewInequalityFilter(field, v))
}

func In(field string, values ...interface{}) Predicate {
	vs := make([]filter.Value, 0, len(values))
	for _, val := range values {
		v, err := toValue(val)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	return wrap(filter.NewInFilter(field, vs))
}

func NotIn(field string, values ...interface{}) Predicate {
	vs := make([]filter.Value, 0, len(values))
	for _, val := range values {
		v, err := toValue(val)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	return wrap(filter.NewNotInFilter(field, vs))
}

func Gt(field string, value interface{}) Predicate  { return rangePredicate(field, filter.GT, value) }
func Gte(field string, value interface{}) Predicate { return rangePredicate(field, filter.GTE, value) }
func Lt(field string, value interface{}) Predicate  { return rangePredicate(field, filter.LT, value) }
func Lte(field string, value interface{}) Predicate { return rangePredicate(field, filter.LTE, value) }

func rangePredicate(field string, op filter.RangeOp, value interface{}) Predicate {
	v, err := toValue(value)
	if err != nil {
		return wrap(filter.False)
	}
	return wrap(filter.NewRangeFilter(field, op, v))
}

func And(preds ...Predicate) Predicate {
	children := make([]filter.Predicate, len(preds))
	for i, p := range preds {
		children[i] = p.p
	}
	return wrap(filter.NewAnd(children...))
}

func Or(preds ...Predicate) Predicate {
	children := make([]filter.Predicate, len(preds))
	for i, p := range preds {
		children[i] = p.p
	}
	return wrap(filter.NewOr(children...))
}

func Not(p Predicate) Predicate {
	return wrap(filter.NewNot(p.p))
}

// Match builds the and(eq, eq, ...) sugar for a top-level map literal
// where-clause: {k1: v1, k2: v2} means every key must eq its value.
func Match(fields map[string]interface{}) Predicate {
	children := make([]filter.Predicate, 0, len(fields))
	for k, v := range fields {
		val, err := toValue(v)
		if err != nil {
			continue
		}
		children = append(children, filter.NewEqualityFilter(k, val))
	}
	return wrap(filter.NewAnd(children...))
}
