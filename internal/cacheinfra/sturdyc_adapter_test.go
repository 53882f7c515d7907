package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// service is the surface the public cache package builds on. Declared here so
// the test does not import cache, which imports this package.
type service interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Peek(key string) (any, bool)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

var _ service = (*sturdycService)(nil)

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          2,
		EvictionPercentage: 10,
	}
}

func newTestService(t *testing.T) *sturdycService {
	t.Helper()
	svc, err := NewSturdycService(testConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.TTL != 0 {
		t.Errorf("expected TTL to be 0, got %v", cfg.TTL)
	}
	if cfg.EffectiveTTL() != NoExpiry {
		t.Errorf("expected EffectiveTTL to be NoExpiry, got %v", cfg.EffectiveTTL())
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
	if cfg.MissingRecordStorage {
		t.Error("expected MissingRecordStorage to be false")
	}
	if cfg.EarlyRefresh != nil {
		t.Error("expected EarlyRefresh to be disabled")
	}
}

func TestConfig_EffectiveTTL(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = time.Minute
	if cfg.EffectiveTTL() != time.Minute {
		t.Errorf("expected finite TTL to pass through, got %v", cfg.EffectiveTTL())
	}
}

func TestConfig_Validate(t *testing.T) {
	early := &EarlyRefreshConfig{
		MinAsyncRefreshTime: 10 * time.Second,
		MaxAsyncRefreshTime: 20 * time.Second,
		SyncRefreshTime:     30 * time.Second,
		RetryBaseDelay:      100 * time.Millisecond,
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "valid with finite ttl and early refresh", mutate: func(c *Config) {
			c.TTL = time.Minute
			c.EarlyRefresh = early
		}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, wantField: "NumShards"},
		{name: "more shards than capacity", mutate: func(c *Config) { c.NumShards = 1000 }, wantField: "NumShards"},
		{name: "negative ttl", mutate: func(c *Config) { c.TTL = -time.Second }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{name: "early refresh without ttl", mutate: func(c *Config) { c.EarlyRefresh = early }, wantField: "EarlyRefresh"},
		{name: "early refresh negative min", mutate: func(c *Config) {
			c.TTL = time.Minute
			c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second, MaxAsyncRefreshTime: time.Second}
		}, wantField: "EarlyRefresh.MinAsyncRefreshTime"},
		{name: "early refresh max below min", mutate: func(c *Config) {
			c.TTL = time.Minute
			c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: 2 * time.Second, MaxAsyncRefreshTime: time.Second}
		}, wantField: "EarlyRefresh.MaxAsyncRefreshTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no validation error but got: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	if n := len(DefaultConfig().ToSturdycOptions()); n != 0 {
		t.Errorf("expected no sturdyc options for default config, got %d", n)
	}

	cfg := testConfig()
	cfg.MissingRecordStorage = true
	if n := len(cfg.ToSturdycOptions()); n != 1 {
		t.Errorf("expected 1 sturdyc option, got %d", n)
	}

	cfg.TTL = time.Minute
	cfg.EvictionInterval = time.Second
	cfg.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: time.Second, MaxAsyncRefreshTime: 2 * time.Second}
	if n := len(cfg.ToSturdycOptions()); n != 3 {
		t.Errorf("expected 3 sturdyc options, got %d", n)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TestField", Message: "test message"}

	expected := "config error in field TestField: test message"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestNewSturdycService(t *testing.T) {
	svc, err := NewSturdycService(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}
	if svc == nil || svc.logger == nil {
		t.Fatal("expected service with a fallback logger")
	}

	bad := testConfig()
	bad.Capacity = 0
	svc, err = NewSturdycService(bad, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if err.Error() != "config error in field Capacity: must be greater than 0" {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if svc != nil {
		t.Error("expected service to be nil when error occurs")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		calls := 0
		fetchFn := func(ctx context.Context) (any, error) {
			calls++
			return "test-value", nil
		}

		for i := 0; i < 2; i++ {
			result, err := svc.GetOrFetch(ctx, "test-key", fetchFn)
			if err != nil {
				t.Fatalf("expected no error but got: %v", err)
			}
			if result != "test-value" {
				t.Errorf("expected result test-value, got %v", result)
			}
		}

		if calls != 1 {
			t.Errorf("expected fetch to run once, ran %d times", calls)
		}
	})

	t.Run("errors are not stored", func(t *testing.T) {
		calls := 0
		fetchFn := func(ctx context.Context) (any, error) {
			calls++
			return nil, errors.New("fetch failed")
		}

		for i := 0; i < 2; i++ {
			if _, err := svc.GetOrFetch(ctx, "error-key", fetchFn); err == nil {
				t.Fatal("expected error but got none")
			}
		}

		if calls != 2 {
			t.Errorf("expected every call to reach the fetch, got %d", calls)
		}
		if _, ok := svc.Peek("error-key"); ok {
			t.Error("failed fetch must not leave an entry")
		}
	})

	t.Run("typed fetch function", func(t *testing.T) {
		fetchFn := func(ctx context.Context) ([]string, error) {
			return []string{"a", "b"}, nil
		}

		result, err := svc.GetOrFetch(ctx, "typed-key", fetchFn)
		if err != nil {
			t.Fatalf("expected no error but got: %v", err)
		}
		if got, ok := result.([]string); !ok || len(got) != 2 {
			t.Errorf("expected []string of two, got %#v", result)
		}
	})

	invalid := []struct {
		name    string
		fetchFn any
		message string
	}{
		{name: "nil", fetchFn: nil, message: "cannot be nil"},
		{name: "not a function", fetchFn: "nope", message: "must be a function"},
		{name: "no parameters", fetchFn: func() (any, error) { return nil, nil }},
		{name: "extra parameter", fetchFn: func(context.Context, string) (any, error) { return nil, nil }},
		{name: "no error result", fetchFn: func(context.Context) (any, string) { return nil, "" }},
	}

	for _, tt := range invalid {
		t.Run("invalid fetch "+tt.name, func(t *testing.T) {
			result, err := svc.GetOrFetch(ctx, "invalid-"+tt.name, tt.fetchFn)
			if result != nil {
				t.Errorf("expected nil result but got: %v", result)
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError but got: %T", err)
			}
			if cfgErr.Field != "fetchFn" {
				t.Errorf("expected error field fetchFn, got %q", cfgErr.Field)
			}
			if tt.message != "" && cfgErr.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, cfgErr.Message)
			}
		})
	}
}

func TestSturdycService_GetOrFetchDeduplicatesInFlight(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var calls atomic.Int32
	gate := make(chan struct{})
	fetchFn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-gate
		return "shared", nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.GetOrFetch(ctx, "shared-key", fetchFn)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected a single fetch for concurrent callers, got %d", n)
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("caller %d got %v", i, r)
		}
	}
}

func TestSturdycService_Peek(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, ok := svc.Peek("peek-key"); ok {
		t.Fatal("expected miss before fetch")
	}

	_, err := svc.GetOrFetch(ctx, "peek-key", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("failed to cache value: %v", err)
	}

	v, ok := svc.Peek("peek-key")
	if !ok || v != 42 {
		t.Errorf("expected stored 42, got %v (%v)", v, ok)
	}
	if svc.Size() != 1 {
		t.Errorf("expected size 1, got %d", svc.Size())
	}
}

func populate(t *testing.T, svc *sturdycService, keys ...string) {
	t.Helper()
	for _, key := range keys {
		value := "value-" + key
		_, err := svc.GetOrFetch(context.Background(), key, func(ctx context.Context) (any, error) {
			return value, nil
		})
		if err != nil {
			t.Fatalf("failed to cache value for key %s: %v", key, err)
		}
	}
}

func assertCached(t *testing.T, svc *sturdycService, want map[string]bool) {
	t.Helper()
	for key, cached := range want {
		_, ok := svc.Peek(key)
		if ok != cached {
			t.Errorf("key %s: expected cached=%v, got %v", key, cached, ok)
		}
	}
}

func TestSturdycService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	populate(t, svc, "campaign::FindByID::1", "campaign::FindByID::2")

	if err := svc.Delete(ctx, "campaign::FindByID::1"); err != nil {
		t.Errorf("expected no error from Delete but got: %v", err)
	}
	assertCached(t, svc, map[string]bool{
		"campaign::FindByID::1": false,
		"campaign::FindByID::2": true,
	})

	if err := svc.Delete(ctx, ""); err != nil {
		t.Errorf("expected no error from Delete with empty key but got: %v", err)
	}
}

func TestSturdycService_DeleteByPrefix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	populate(t, svc,
		"campaign::Find::none",
		"campaign::Find::some[title contains text:road]",
		"campaign::FindByID::1",
		"comment::Find::none",
	)

	if err := svc.DeleteByPrefix(ctx, "campaign::Find::"); err != nil {
		t.Errorf("expected no error from DeleteByPrefix but got: %v", err)
	}
	assertCached(t, svc, map[string]bool{
		"campaign::Find::none":                           false,
		"campaign::Find::some[title contains text:road]": false,
		"campaign::FindByID::1":                          true,
		"comment::Find::none":                            true,
	})

	for _, prefix := range []string{"nonexistent::", ""} {
		if err := svc.DeleteByPrefix(ctx, prefix); err != nil {
			t.Errorf("prefix %q: expected no error but got: %v", prefix, err)
		}
	}
	if svc.Size() != 0 {
		t.Errorf("empty prefix should clear everything, %d left", svc.Size())
	}
}

func TestSturdycService_InvalidateKeys(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	populate(t, svc, "key1", "key2", "key3", "key4")

	if err := svc.InvalidateKeys(ctx, []string{"key1", "key3", "key4"}); err != nil {
		t.Errorf("expected no error from InvalidateKeys but got: %v", err)
	}
	assertCached(t, svc, map[string]bool{
		"key1": false,
		"key2": true,
		"key3": false,
		"key4": false,
	})

	for name, keys := range map[string][]string{
		"empty":       {},
		"nil":         nil,
		"nonexistent": {"nonexistent1", "nonexistent2"},
	} {
		if err := svc.InvalidateKeys(ctx, keys); err != nil {
			t.Errorf("%s: expected no error but got: %v", name, err)
		}
	}
}

func TestCallFetchFunction_ReflectsTypedResults(t *testing.T) {
	result, err := callFetchFunction(context.Background(), func(ctx context.Context) (*strings.Builder, error) {
		return nil, errors.New("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if b, ok := result.(*strings.Builder); !ok || b != nil {
		t.Errorf("expected typed nil pointer, got %#v", result)
	}
}
