package querycache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-campaign-client/cache"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// FetchFn loads the data for one key from the remote source.
type FetchFn[T any] func(ctx context.Context) (T, error)

type entry struct {
	mu          sync.Mutex
	status      Status
	err         error
	generation  uint64
	updatedAt   time.Time
	fetches     atomic.Uint64
	subscribers map[uint64]chan Event
}

// Client is the process wide query cache. Entries are keyed by caller chosen
// strings; data lives in the underlying cache service under the key plus the
// entry generation, so an invalidated generation can never be read again.
type Client struct {
	store   cache.CacheService
	entries *xsync.MapOf[string, *entry]
	logger  *zap.Logger
	now     func() time.Time
	subSeq  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Fetches and invalidations are logged at debug.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a Client over store. store must not be nil; it is expected
// to share in-flight fetches per key and to never store failures, as the
// services from cache.NewCacheService do.
func NewClient(store cache.CacheService, opts ...Option) *Client {
	c := &Client{
		store:   store,
		entries: xsync.NewMapOf[string, *entry](),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultClient builds a Client over a sturdyc cache with cache.DefaultConfig.
func NewDefaultClient(logger *zap.Logger) (*Client, error) {
	store, err := cache.NewCacheService(cache.DefaultConfig(), logger)
	if err != nil {
		return nil, err
	}
	return NewClient(store, WithLogger(logger)), nil
}

func storageKey(key string, generation uint64) string {
	return key + "#" + strconv.FormatUint(generation, 10)
}

func (c *Client) entry(key string) *entry {
	e, _ := c.entries.LoadOrCompute(key, func() *entry {
		return &entry{subscribers: map[uint64]chan Event{}}
	})
	return e
}

// Query observes key. The first observation, or the first after an error or
// an invalidation, runs fetch once; every concurrent observer of the same key
// waits on that single fetch. A successful result is served from the cache
// until the key is invalidated.
//
// Cancelling ctx returns the caller early with ctx.Err(); the shared fetch
// keeps running and its result still lands in the cache.
func Query[T any](ctx context.Context, c *Client, key string, fetch FetchFn[T]) Snapshot[T] {
	e := c.entry(key)

	e.mu.Lock()
	gen := e.generation
	sk := storageKey(key, gen)
	if e.status == StatusSuccess {
		if v, ok := c.store.Peek(sk); ok {
			if data, ok := v.(T); ok {
				snap := Snapshot[T]{Key: key, Status: StatusSuccess, Data: data, UpdatedAt: e.updatedAt}
				e.mu.Unlock()
				return snap
			}
		}
	}
	if e.status != StatusPending && e.status != StatusSuccess {
		c.transition(e, key, StatusPending, nil)
	}
	e.mu.Unlock()

	wrapped := func(ctx context.Context) (T, error) {
		n := e.fetches.Add(1)
		c.logger.Debug("query fetch",
			zap.String("key", key),
			zap.Uint64("generation", gen),
			zap.Uint64("fetches", n),
		)
		return fetch(ctx)
	}

	type result struct {
		data T
		err  error
	}

	run := func() result {
		data, err := cache.GetOrFetch[T](context.WithoutCancel(ctx), c.store, sk, wrapped)
		return result{data: data, err: err}
	}

	var res result
	if ctx.Done() == nil {
		res = run()
	} else {
		done := make(chan result, 1)
		go func() { done <- run() }()

		select {
		case res = <-done:
		case <-ctx.Done():
			go func() { c.settle(e, key, gen, sk, (<-done).err) }()
			return Snapshot[T]{Key: key, Status: StatusPending, Err: ctx.Err()}
		}
	}

	status, updatedAt := c.settle(e, key, gen, sk, res.err)
	return Snapshot[T]{Key: key, Status: status, Data: res.data, Err: res.err, UpdatedAt: updatedAt}
}

// settle records the outcome of a fetch started under generation gen. A
// fetch that was overtaken by an invalidation only cleans up after itself.
func (c *Client) settle(e *entry, key string, gen uint64, sk string, err error) (Status, time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		if err == nil {
			_ = c.store.Delete(context.Background(), sk)
		}
		c.logger.Debug("discarding result of invalidated fetch",
			zap.String("key", key),
			zap.Uint64("generation", gen),
		)
		return StatusStale, e.updatedAt
	}

	if err != nil {
		// every waiter of a shared fetch settles; only the first one transitions
		if e.status != StatusError {
			c.logger.Debug("query fetch failed", zap.String("key", key), zap.Error(err))
			c.transition(e, key, StatusError, err)
		}
		return StatusError, e.updatedAt
	}

	if e.status != StatusSuccess {
		c.transition(e, key, StatusSuccess, nil)
	}
	return StatusSuccess, e.updatedAt
}

// transition must be called with e.mu held.
func (c *Client) transition(e *entry, key string, status Status, err error) {
	e.status = status
	e.err = err
	at := c.now()
	if status == StatusSuccess || status == StatusError {
		e.updatedAt = at
	}

	ev := Event{Key: key, Status: status, Err: err, At: at}
	for _, ch := range e.subscribers {
		publish(ch, ev)
	}
}

// publish delivers ev without blocking; a slow subscriber only keeps the
// latest event.
func publish(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Invalidate marks key stale and drops its data. The next observation fetches
// exactly once. It reports whether the key was known.
func (c *Client) Invalidate(ctx context.Context, key string) bool {
	e, ok := c.entries.Load(key)
	if !ok {
		return false
	}
	c.invalidate(ctx, key, e)
	return true
}

func (c *Client) invalidate(ctx context.Context, key string, e *entry) {
	e.mu.Lock()
	old := storageKey(key, e.generation)
	e.generation++
	if e.status != StatusIdle {
		c.transition(e, key, StatusStale, nil)
	}
	e.mu.Unlock()

	if err := c.store.Delete(ctx, old); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", old), zap.Error(err))
	}
	c.logger.Debug("query invalidated", zap.String("key", key))
}

// InvalidatePrefix invalidates every known key starting with prefix and
// returns how many there were. Use cache.KeyPrefix to stay on segment
// boundaries.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) int {
	var matched []string
	c.entries.Range(func(key string, _ *entry) bool {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
		return true
	})

	for _, key := range matched {
		c.Invalidate(ctx, key)
	}
	if len(matched) > 0 {
		c.logger.Debug("query prefix invalidated", zap.String("prefix", prefix), zap.Int("keys", len(matched)))
	}
	return len(matched)
}

// InvalidateAll invalidates every known key.
func (c *Client) InvalidateAll(ctx context.Context) int {
	return c.InvalidatePrefix(ctx, "")
}

// Subscribe returns a channel of status transitions for key and a function
// that ends the subscription. The channel keeps only the most recent
// undelivered event.
func (c *Client) Subscribe(key string) (<-chan Event, func()) {
	e := c.entry(key)
	id := c.subSeq.Add(1)
	ch := make(chan Event, 1)

	e.mu.Lock()
	e.subscribers[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subscribers, id)
			e.mu.Unlock()
			close(ch)
		})
	}
}

// Status returns the status of key, StatusIdle when unknown.
func (c *Client) Status(key string) Status {
	e, ok := c.entries.Load(key)
	if !ok {
		return StatusIdle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Info returns the introspection view of key.
func (c *Client) Info(key string) (Info, bool) {
	e, ok := c.entries.Load(key)
	if !ok {
		return Info{Key: key}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Info{
		Key:        key,
		Status:     e.status,
		Generation: e.generation,
		Fetches:    e.fetches.Load(),
		UpdatedAt:  e.updatedAt,
		Err:        e.err,
	}, true
}

// Len returns the number of known keys.
func (c *Client) Len() int {
	return c.entries.Size()
}

// Keys returns the known keys in sorted order.
func (c *Client) Keys() []string {
	keys := make([]string, 0, c.entries.Size())
	c.entries.Range(func(key string, _ *entry) bool {
		keys = append(keys, key)
		return true
	})
	sort.Strings(keys)
	return keys
}
