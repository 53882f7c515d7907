package query

import (
	"strings"
)

// Criteria is the remote-call encoding of a filter list. The zero value is
// NoCriteria, which the backend reads as "match all". A present but empty
// list is a different value and Build never produces it.
type Criteria struct {
	present    bool
	predicates []Predicate
}

// NoCriteria is the explicit "no predicate" marker.
var NoCriteria = Criteria{}

// Some returns present criteria holding the given predicates.
func Some(predicates ...Predicate) Criteria {
	return Criteria{present: true, predicates: append([]Predicate{}, predicates...)}
}

// IsSet reports whether criteria are present (even if empty).
func (c Criteria) IsSet() bool { return c.present }

func (c Criteria) Len() int { return len(c.predicates) }

// Predicates returns a copy of the predicates.
func (c Criteria) Predicates() []Predicate {
	if len(c.predicates) == 0 {
		return nil
	}
	return append([]Predicate(nil), c.predicates...)
}

func (c Criteria) CacheKey() string {
	if !c.present {
		return "none"
	}
	parts := make([]string, len(c.predicates))
	for i, p := range c.predicates {
		parts[i] = p.Key + "|" + string(p.Op) + "|" + p.Value.CacheKey()
	}
	return "some[" + strings.Join(parts, ",") + "]"
}

// Args is the positional argument shape of a find call.
type Args struct {
	Criteria Criteria
	Order    []Order
	Limit    *Limit
}

// OrderClause renders the sort clauses as [key, dir] pairs.
func (a Args) OrderClause() [][2]string {
	out := make([][2]string, len(a.Order))
	for i, o := range a.Order {
		out[i] = [2]string{o.Key, string(o.Dir)}
	}
	return out
}

// LimitClause renders the optional limit as a zero or one element list of
// [offset, size] pairs.
func (a Args) LimitClause() [][2]int {
	if a.Limit == nil {
		return [][2]int{}
	}
	return [][2]int{{a.Limit.Offset, a.Limit.Size}}
}

func (a Args) CacheKey() string {
	orders := make([]string, len(a.Order))
	for i, o := range a.Order {
		orders[i] = o.String()
	}
	limit := "none"
	if a.Limit != nil {
		limit = a.Limit.String()
	}
	return "criteria=" + a.Criteria.CacheKey() + ";order=" + strings.Join(orders, ",") + ";limit=" + limit
}

// Policy carries per-entity defaults. Only the entities that page by default
// set DefaultLimit; the builder never applies a global default.
type Policy struct {
	DefaultLimit *Limit
}

// Build translates filters, sort clauses and an optional limit into call
// arguments. It is pure and only fails on malformed input.
func Build(filters []Filter, orders []Order, limit *Limit) (Args, error) {
	return BuildFor(Policy{}, filters, orders, limit)
}

// BuildFor is Build with an entity policy applied when limit is nil.
func BuildFor(policy Policy, filters []Filter, orders []Order, limit *Limit) (Args, error) {
	var args Args

	predicates := make([]Predicate, 0, len(filters))
	for i, f := range filters {
		value, err := ValueOf(f.Value)
		if err != nil {
			return Args{}, err
		}
		if value.IsEmpty() {
			continue
		}
		if err := f.Validate(); err != nil {
			return Args{}, argumentError(err, "invalid filter", map[string]any{"index": i, "key": f.Key})
		}
		predicates = append(predicates, Predicate{Key: f.Key, Op: f.Op, Value: value})
	}
	if len(predicates) > 0 {
		args.Criteria = Some(predicates...)
	}

	for i, o := range orders {
		if err := o.Validate(); err != nil {
			return Args{}, argumentError(err, "invalid order", map[string]any{"index": i, "key": o.Key})
		}
	}
	if len(orders) > 0 {
		args.Order = append([]Order(nil), orders...)
	}

	switch {
	case limit != nil:
		if err := limit.Validate(); err != nil {
			return Args{}, argumentError(err, "invalid limit", nil)
		}
		l := *limit
		args.Limit = &l
	case policy.DefaultLimit != nil:
		l := *policy.DefaultLimit
		args.Limit = &l
	}

	return args, nil
}

// Decode turns criteria back into filters with host typed values.
func Decode(c Criteria) []Filter {
	if len(c.predicates) == 0 {
		return nil
	}
	out := make([]Filter, len(c.predicates))
	for i, p := range c.predicates {
		out[i] = Filter{Key: p.Key, Op: p.Op, Value: p.Value.Interface()}
	}
	return out
}

// Builder accumulates query parts fluently.
type Builder struct {
	policy  Policy
	filters []Filter
	orders  []Order
	limit   *Limit
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) WithPolicy(p Policy) *Builder {
	b.policy = p
	return b
}

func (b *Builder) Where(key string, op Op, value any) *Builder {
	b.filters = append(b.filters, Filter{Key: key, Op: op, Value: value})
	return b
}

func (b *Builder) Filter(filters ...Filter) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

func (b *Builder) OrderBy(key string, dir Direction) *Builder {
	b.orders = append(b.orders, Order{Key: key, Dir: dir})
	return b
}

func (b *Builder) Page(offset, size int) *Builder {
	b.limit = &Limit{Offset: offset, Size: size}
	return b
}

func (b *Builder) Build() (Args, error) {
	return BuildFor(b.policy, b.filters, b.orders, b.limit)
}
