package cacheinfra

import (
	"context"
	"reflect"
	"strings"

	"github.com/viccon/sturdyc"
	"go.uber.org/zap"
)

// sturdycService wraps a sturdyc client. sturdyc already collapses concurrent
// GetOrFetch calls for one key into a single fetch, which is the property the
// query cache builds on.
type sturdycService struct {
	client *sturdyc.Client[any]
	logger *zap.Logger
}

// NewSturdycService validates cfg and builds a sturdyc backed service.
func NewSturdycService(cfg Config, logger *zap.Logger) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.EffectiveTTL(),
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client, logger: logger}, nil
}

// validateFetchFn checks that fetchFn has the shape func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}

	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}

	contextType := reflect.TypeOf((*context.Context)(nil)).Elem()
	if !fnType.In(0).Implements(contextType) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}

	errorType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}

	return nil
}

// GetOrFetch returns the cached value for key or runs fetchFn once to fill it.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		s.logger.Debug("cache miss", zap.String("key", key))
		return callFetchFunction(ctx, fetchFn)
	})
}

// callFetchFunction calls a pre-validated func(context.Context) (T, error).
func callFetchFunction(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	if v := results[0]; v.IsValid() && v.CanInterface() {
		result = v.Interface()
	}

	var err error
	if v := results[1]; v.IsValid() && !v.IsNil() {
		err = v.Interface().(error)
	}

	return result, err
}

// Peek returns the stored value without fetching.
func (s *sturdycService) Peek(key string) (any, bool) {
	return s.client.Get(key)
}

// Delete removes a single entry.
func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	s.logger.Debug("cache delete", zap.String("key", key))
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *sturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	removed := 0
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
			removed++
		}
	}
	s.logger.Debug("cache delete by prefix", zap.String("prefix", prefix), zap.Int("removed", removed))
	return nil
}

// InvalidateKeys removes the given entries.
func (s *sturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	s.logger.Debug("cache invalidate keys", zap.Int("count", len(keys)))
	return nil
}

// Size reports the number of stored entries.
func (s *sturdycService) Size() int {
	return s.client.Size()
}
