package collectioncache

import (
	"context"

	"github.com/goliatone/go-campaign-client/cache"
	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/query"
	"github.com/goliatone/go-campaign-client/querycache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Method names used as the second key segment.
const (
	MethodFind     = "Find"
	MethodFindByID = "FindByID"
	MethodFindBy   = "FindBy"
	MethodCount    = "Count"
)

// listMethods are invalidated after any successful mutation.
var listMethods = []string{MethodFind, MethodFindBy, MethodCount}

// GatewayProvider hands out the current gateway, nil before a connection.
type GatewayProvider interface {
	Gateway() *gateway.Gateway
}

// GatewayFunc adapts a function to GatewayProvider.
type GatewayFunc func() *gateway.Gateway

func (f GatewayFunc) Gateway() *gateway.Gateway { return f() }

// Selector picks the collection of T off a gateway.
type Selector[T gateway.Record] func(*gateway.Gateway) *gateway.Collection[T]

// ErrorHandler receives failed mutations, named by operation.
type ErrorHandler func(op string, err error)

// CachedCollection serves reads of one entity through the query cache and
// keeps it coherent after its own mutations.
type CachedCollection[T gateway.Record] struct {
	provider   GatewayProvider
	selector   Selector[T]
	queries    *querycache.Client
	keys       cache.KeySerializer
	desc       entity.Descriptor
	namespace  string
	dependents []string
	onError    ErrorHandler
	logger     *zap.Logger
}

type Option func(*options)

type options struct {
	keys       cache.KeySerializer
	namespace  string
	dependents []string
	onError    ErrorHandler
	logger     *zap.Logger
}

// WithKeySerializer replaces the default reflection based serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(o *options) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithNamespace overrides the entity name as first key segment.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = toSnake(namespace)
	}
}

// WithDependents names entities whose cached reads go stale when this one
// changes, e.g. campaign totals after a new signature.
func WithDependents(entities ...string) Option {
	return func(o *options) {
		o.dependents = append(o.dependents, entities...)
	}
}

func OnError(fn ErrorHandler) Option {
	return func(o *options) {
		o.onError = fn
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds the cached collection of T.
func New[T gateway.Record](provider GatewayProvider, selector Selector[T], queries *querycache.Client, opts ...Option) *CachedCollection[T] {
	desc := gateway.Describe[T]()
	o := options{
		keys:      cache.NewDefaultKeySerializer(),
		namespace: toSnake(desc.Name),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dependents := make([]string, 0, len(o.dependents))
	for _, d := range o.dependents {
		if dd, ok := entity.Lookup(d); ok && dd.Name != desc.Name {
			dependents = append(dependents, dd.Name)
		}
	}

	return &CachedCollection[T]{
		provider:   provider,
		selector:   selector,
		queries:    queries,
		keys:       o.keys,
		desc:       desc,
		namespace:  o.namespace,
		dependents: dedupeStrings(dependents),
		onError:    o.onError,
		logger:     o.logger.With(zap.String("entity", desc.Name)),
	}
}

func (c *CachedCollection[T]) Descriptor() entity.Descriptor { return c.desc }

// Namespace is the first segment of every key of this collection.
func (c *CachedCollection[T]) Namespace() string { return c.namespace }

// remote returns the gateway collection, nil when no gateway is connected.
func (c *CachedCollection[T]) remote() *gateway.Collection[T] {
	if c.provider == nil {
		return nil
	}
	gw := c.provider.Gateway()
	if gw == nil {
		return nil
	}
	return c.selector(gw)
}

// Key returns the cache key of a read.
func (c *CachedCollection[T]) Key(ctx context.Context, method string, args ...any) string {
	if scope := scopeKey(ctx); scope != "" {
		args = append(args, scope)
	}
	return c.keys.SerializeKey(c.namespace, method, args...)
}

// Query builds arguments with the entity's policy and runs Find.
func (c *CachedCollection[T]) Query(ctx context.Context, filters []query.Filter, orders []query.Order, limit *query.Limit) ([]T, error) {
	args, err := query.BuildFor(c.desc.Policy, filters, orders, limit)
	if err != nil {
		return nil, err
	}
	return c.Find(ctx, args)
}

// Find returns the records matching args. Without a gateway it returns an
// empty list and leaves the cache untouched.
func (c *CachedCollection[T]) Find(ctx context.Context, args query.Args) ([]T, error) {
	remote := c.remote()
	if remote == nil {
		return []T{}, nil
	}
	snap := querycache.Query(ctx, c.queries, c.Key(ctx, MethodFind, args), func(ctx context.Context) ([]T, error) {
		return remote.Find(ctx, args)
	})
	return snap.Data, snap.Err
}

// FindByID returns the record with id, the zero T without a gateway.
func (c *CachedCollection[T]) FindByID(ctx context.Context, id uuid.UUID) (T, error) {
	remote := c.remote()
	if remote == nil {
		var zero T
		return zero, nil
	}
	snap := querycache.Query(ctx, c.queries, c.idKey(id), func(ctx context.Context) (T, error) {
		return remote.FindByID(ctx, id)
	})
	return snap.Data, snap.Err
}

// idKey is unscoped: a record is the same whoever asks for it.
func (c *CachedCollection[T]) idKey(id uuid.UUID) string {
	return c.keys.SerializeKey(c.namespace, MethodFindByID, id.String())
}

func (c *CachedCollection[T]) FindBy(ctx context.Context, field string, value any) ([]T, error) {
	remote := c.remote()
	if remote == nil {
		return []T{}, nil
	}
	v, err := query.ValueOf(value)
	if err != nil {
		return nil, err
	}
	snap := querycache.Query(ctx, c.queries, c.Key(ctx, MethodFindBy, field, v), func(ctx context.Context) ([]T, error) {
		return remote.FindBy(ctx, field, value)
	})
	return snap.Data, snap.Err
}

func (c *CachedCollection[T]) Count(ctx context.Context, criteria query.Criteria) (int, error) {
	remote := c.remote()
	if remote == nil {
		return 0, nil
	}
	snap := querycache.Query(ctx, c.queries, c.Key(ctx, MethodCount, criteria), func(ctx context.Context) (int, error) {
		return remote.Count(ctx, criteria)
	})
	return snap.Data, snap.Err
}

// Status reports the cache status of a Find with args.
func (c *CachedCollection[T]) Status(ctx context.Context, args query.Args) querycache.Status {
	return c.queries.Status(c.Key(ctx, MethodFind, args))
}

func (c *CachedCollection[T]) Create(ctx context.Context, record T) (T, error) {
	remote := c.remote()
	if remote == nil {
		var zero T
		return zero, c.fail(gateway.OpCreate, gateway.ErrNotReady)
	}
	created, err := remote.Create(ctx, record)
	if err != nil {
		return created, c.fail(gateway.OpCreate, err)
	}
	c.invalidateAfterWrite(ctx, uuid.Nil)
	return created, nil
}

func (c *CachedCollection[T]) Update(ctx context.Context, id uuid.UUID, record T) (T, error) {
	remote := c.remote()
	if remote == nil {
		var zero T
		return zero, c.fail(gateway.OpUpdate, gateway.ErrNotReady)
	}
	updated, err := remote.Update(ctx, id, record)
	if err != nil {
		return updated, c.fail(gateway.OpUpdate, err)
	}
	c.invalidateAfterWrite(ctx, id)
	return updated, nil
}

func (c *CachedCollection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	remote := c.remote()
	if remote == nil {
		return c.fail(gateway.OpDelete, gateway.ErrNotReady)
	}
	if err := remote.Delete(ctx, id); err != nil {
		return c.fail(gateway.OpDelete, err)
	}
	c.invalidateAfterWrite(ctx, id)
	return nil
}

// Invalidate drops every cached read of this collection.
func (c *CachedCollection[T]) Invalidate(ctx context.Context) int {
	return c.queries.InvalidatePrefix(ctx, cache.KeyPrefix(c.namespace))
}

func (c *CachedCollection[T]) fail(op string, err error) error {
	c.logger.Debug("mutation failed", zap.String("op", op), zap.Error(err))
	if c.onError != nil {
		c.onError(op, err)
	}
	return err
}

// invalidateAfterWrite marks the list family stale, the record itself when
// id is set, and every dependent collection.
func (c *CachedCollection[T]) invalidateAfterWrite(ctx context.Context, id uuid.UUID) {
	n := 0
	for _, m := range listMethods {
		n += c.queries.InvalidatePrefix(ctx, cache.KeyPrefix(c.namespace, m))
	}
	if id != uuid.Nil && c.queries.Invalidate(ctx, c.idKey(id)) {
		n++
	}
	for _, dep := range c.dependents {
		n += c.queries.InvalidatePrefix(ctx, cache.KeyPrefix(dep))
	}
	c.logger.Debug("invalidated after write", zap.Int("keys", n), zap.Strings("dependents", c.dependents))
}

// DefaultDependents lists, per entity, the entities whose records aggregate
// it: donations move campaign totals, signatures move petition counts.
var DefaultDependents = map[string][]string{
	entity.DonationEntity:  {entity.CampaignEntity},
	entity.SignatureEntity: {entity.PetitionEntity, entity.CampaignEntity},
	entity.VoteEntity:      {entity.CampaignEntity},
	entity.UpdateEntity:    {entity.CampaignEntity},
}
