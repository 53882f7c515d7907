package di

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-campaign-client/cache"
	"github.com/goliatone/go-campaign-client/collectioncache"
	"github.com/goliatone/go-campaign-client/config"
	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/gateway/httpactor"
	"github.com/goliatone/go-campaign-client/querycache"
	"go.uber.org/zap"
)

// Container owns the process wide cache, the query cache built on it and the
// current gateway. It is the GatewayProvider of every collection it builds,
// so swapping the gateway re-targets them all at once.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	queries       *querycache.Client
	config        config.Config
	logger        *zap.Logger
	gatewayOpts   []gateway.Option

	mu      sync.Mutex
	actor   gateway.Actor
	gateway atomic.Pointer[gateway.Gateway]

	collectionsOnce sync.Once
	collections     *Collections
}

type Option func(*Container)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithKeySerializer replaces the default serializer, e.g. with
// cache.NewHashedKeySerializer for long argument lists.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(c *Container) {
		if keys != nil {
			c.keySerializer = keys
		}
	}
}

// WithGatewayOptions are applied to every gateway the container creates.
func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(c *Container) {
		c.gatewayOpts = append(c.gatewayOpts, opts...)
	}
}

// NewContainer creates a container from cfg. No gateway is connected yet.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	c := &Container{
		keySerializer: cache.NewDefaultKeySerializer(),
		config:        cfg,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cacheService, err := cache.NewCacheService(cfg.CacheConfig(), c.logger.Named("cache"))
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService
	c.queries = querycache.NewClient(cacheService, querycache.WithLogger(c.logger.Named("querycache")))
	return c, nil
}

// NewContainerWithDefaults uses config.Default.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

func (c *Container) CacheService() cache.CacheService { return c.cacheService }

func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

func (c *Container) QueryCache() *querycache.Client { return c.queries }

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() config.Config { return c.config }

func (c *Container) Logger() *zap.Logger { return c.logger }

// Gateway returns the current gateway, nil until Connect.
func (c *Container) Gateway() *gateway.Gateway { return c.gateway.Load() }

// Connect binds actor to identity. Connecting again with the same actor and
// identity returns the existing gateway; another identity is a switch.
func (c *Container) Connect(ctx context.Context, actor gateway.Actor, identity gateway.Identity) (*gateway.Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.gateway.Load(); current != nil && sameActor(c.actor, actor) && sameIdentity(current.Identity(), identity) {
		return current, nil
	}
	return c.replace(ctx, actor, identity)
}

// ConnectHTTP connects to cfg.BaseURL as the configured principal.
func (c *Container) ConnectHTTP(ctx context.Context) (*gateway.Gateway, error) {
	actor, err := httpactor.New(c.config.BaseURL,
		httpactor.WithTimeout(c.config.RequestTimeout),
		httpactor.WithLogger(c.logger.Named("httpactor")),
	)
	if err != nil {
		return nil, err
	}
	return c.Connect(ctx, actor, gateway.Identity{Principal: c.config.Principal, Token: c.config.Token})
}

// SwitchIdentity replaces the gateway with one bound to identity over the
// current actor.
func (c *Container) SwitchIdentity(ctx context.Context, identity gateway.Identity) (*gateway.Gateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.actor == nil {
		return nil, gateway.ErrNotReady
	}
	return c.replace(ctx, c.actor, identity)
}

// Disconnect drops the gateway. Cached reads stay; new reads return empty.
func (c *Container) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actor = nil
	c.gateway.Store(nil)
}

func (c *Container) replace(ctx context.Context, actor gateway.Actor, identity gateway.Identity) (*gateway.Gateway, error) {
	opts := append([]gateway.Option{gateway.WithLogger(c.logger.Named("gateway"))}, c.gatewayOpts...)
	next, err := gateway.New(actor, identity, opts...)
	if err != nil {
		return nil, err
	}

	previous := c.gateway.Swap(next)
	c.actor = actor

	if previous == nil || previous.Identity().Principal == next.Identity().Principal {
		return next, nil
	}

	from, to := previous.Identity().Principal, next.Identity().Principal
	if c.config.InvalidateOnIdentityChange {
		n := c.queries.InvalidateAll(ctx)
		c.logger.Info("identity changed, cache invalidated",
			zap.String("from", from), zap.String("to", to), zap.Int("keys", n))
	} else {
		c.logger.Warn("identity changed, cached reads of the previous principal are still served",
			zap.String("from", from), zap.String("to", to))
	}
	return next, nil
}

// sameActor compares actors without panicking on func adapters.
func sameActor(a, b gateway.Actor) bool {
	if a == nil || b == nil {
		return a == b
	}
	if t := reflect.TypeOf(a); t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

func sameIdentity(a, b gateway.Identity) bool {
	if b.Principal == "" {
		b.Principal = gateway.AnonymousPrincipal
	}
	return a == b
}

// NewCachedCollection builds the cached collection of T on the container's
// query cache, with the default dependents of T.
// Example: NewCachedCollection(container, func(g *gateway.Gateway) *gateway.Collection[*entity.Tag] { return g.Tags })
func NewCachedCollection[T gateway.Record](c *Container, selector collectioncache.Selector[T], opts ...collectioncache.Option) *collectioncache.CachedCollection[T] {
	name := gateway.Describe[T]().Name
	base := []collectioncache.Option{
		collectioncache.WithKeySerializer(c.keySerializer),
		collectioncache.WithLogger(c.logger.Named("collectioncache")),
		collectioncache.WithDependents(collectioncache.DefaultDependents[name]...),
	}
	return collectioncache.New(c, selector, c.queries, append(base, opts...)...)
}

// Collections holds one cached collection per entity.
type Collections struct {
	Campaigns  *collectioncache.CachedCollection[*entity.Campaign]
	Categories *collectioncache.CachedCollection[*entity.Category]
	Comments   *collectioncache.CachedCollection[*entity.Comment]
	Donations  *collectioncache.CachedCollection[*entity.Donation]
	Petitions  *collectioncache.CachedCollection[*entity.Petition]
	Places     *collectioncache.CachedCollection[*entity.Place]
	Regions    *collectioncache.CachedCollection[*entity.Region]
	Reports    *collectioncache.CachedCollection[*entity.Report]
	Signatures *collectioncache.CachedCollection[*entity.Signature]
	Tags       *collectioncache.CachedCollection[*entity.Tag]
	Updates    *collectioncache.CachedCollection[*entity.Update]
	Users      *collectioncache.CachedCollection[*entity.User]
	Votes      *collectioncache.CachedCollection[*entity.Vote]
}

// Collections returns the shared bundle, built on first use.
func (c *Container) Collections() *Collections {
	c.collectionsOnce.Do(func() {
		c.collections = &Collections{
			Campaigns:  NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Campaign] { return g.Campaigns }),
			Categories: NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Category] { return g.Categories }),
			Comments:   NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Comment] { return g.Comments }),
			Donations:  NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Donation] { return g.Donations }),
			Petitions:  NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Petition] { return g.Petitions }),
			Places:     NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Place] { return g.Places }),
			Regions:    NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Region] { return g.Regions }),
			Reports:    NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Report] { return g.Reports }),
			Signatures: NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Signature] { return g.Signatures }),
			Tags:       NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Tag] { return g.Tags }),
			Updates:    NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Update] { return g.Updates }),
			Users:      NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.User] { return g.Users }),
			Votes:      NewCachedCollection(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Vote] { return g.Votes }),
		}
	})
	return c.collections
}
