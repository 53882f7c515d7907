package collectioncache

import (
	"context"
	"sort"
	"strings"
)

type scopeContextKey struct{}

// WithScope tags reads made with ctx, so the same query issued for two
// different parents is cached under two keys:
//
//	ctx = collectioncache.WithScope(ctx, "campaign", id.String())
//	comments, err := cached.Query(ctx, nil, nil, nil)
func WithScope(ctx context.Context, kind, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	kind = toSnake(kind)
	if kind == "" || id == "" {
		return ctx
	}

	combined := dedupeStrings(append(scopeFromContext(ctx), kind+"="+id))
	return context.WithValue(ctx, scopeContextKey{}, combined)
}

func scopeFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(scopeContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

// scopeKey renders the scope as one key segment, "" when unscoped.
func scopeKey(ctx context.Context) string {
	tags := scopeFromContext(ctx)
	if len(tags) == 0 {
		return ""
	}
	return "scope[" + strings.Join(tags, ",") + "]"
}

// dedupeStrings returns the distinct values sorted.
func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
