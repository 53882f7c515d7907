package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
)

func usageError(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryBadInput).
		WithTextCode("USAGE")
}

// parseFilter reads key:op:value. The value keeps any further colons.
func parseFilter(s string) (query.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return query.Filter{}, usageError("filter %q: want key:op:value", s)
	}
	op, ok := query.ParseOp(parts[1])
	if !ok {
		return query.Filter{}, usageError("filter %q: unknown operator %q", s, parts[1])
	}
	return query.Filter{Key: parts[0], Op: op, Value: parseValue(parts[2])}, nil
}

// parseValue types a literal: true and false are booleans, integers are
// numbers, a double quoted literal is always text.
func parseValue(s string) any {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func parseOrder(s string) (query.Order, error) {
	key, dir, found := strings.Cut(s, ":")
	if key == "" {
		return query.Order{}, usageError("order %q: want key:asc|desc", s)
	}
	if !found {
		return query.Order{Key: key, Dir: query.Asc}, nil
	}
	switch d := query.Direction(strings.ToLower(dir)); d {
	case query.Asc, query.Desc:
		return query.Order{Key: key, Dir: d}, nil
	default:
		return query.Order{}, usageError("order %q: direction must be asc or desc", s)
	}
}

func parseLimit(s string) (*query.Limit, error) {
	if s == "" {
		return nil, nil
	}
	o, sz, found := strings.Cut(s, ":")
	if !found {
		return nil, usageError("limit %q: want offset:size", s)
	}
	offset, err1 := strconv.Atoi(o)
	size, err2 := strconv.Atoi(sz)
	if err1 != nil || err2 != nil {
		return nil, usageError("limit %q: offset and size must be integers", s)
	}
	return &query.Limit{Offset: offset, Size: size}, nil
}

type listFlags struct {
	filters []string
	orders  []string
	limit   string
}

func (f listFlags) parse() ([]query.Filter, []query.Order, *query.Limit, error) {
	filters := make([]query.Filter, 0, len(f.filters))
	for _, s := range f.filters {
		flt, err := parseFilter(s)
		if err != nil {
			return nil, nil, nil, err
		}
		filters = append(filters, flt)
	}
	orders := make([]query.Order, 0, len(f.orders))
	for _, s := range f.orders {
		o, err := parseOrder(s)
		if err != nil {
			return nil, nil, nil, err
		}
		orders = append(orders, o)
	}
	limit, err := parseLimit(f.limit)
	if err != nil {
		return nil, nil, nil, err
	}
	return filters, orders, limit, nil
}
