package cache

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidResultType is returned by GetOrFetch when the stored value is not
// of the requested type. Two callers sharing a key with different result types
// is the usual cause.
var ErrInvalidResultType = goerrors.New("cache: stored value has an unexpected type", goerrors.CategoryInternal).
	WithTextCode("INVALID_RESULT_TYPE")

// KeySerializer builds a cache key from a namespace, a method name and
// arbitrary args. It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace, method string, args ...any) string
}

// KeyPart lets a value choose its own key segment. Types with unexported state
// (query values, criteria) implement it so reflection does not collapse them.
type KeyPart interface {
	CacheKey() string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through operations the query cache builds on.
// Concurrent GetOrFetch calls for one key must share a single fetch, and a
// failed fetch must not be stored.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Peek(key string) (any, bool)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}

	// nil interface results come back from fetches returning a nil T
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrInvalidResultType, key, result, zero)
	}
	return typed, nil
}
