package collectioncache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-campaign-client/cache"
	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/pkg/testsupport"
	"github.com/goliatone/go-campaign-client/query"
	"github.com/goliatone/go-campaign-client/querycache"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

type harness struct {
	actor   *testsupport.FakeActor
	gw      atomic.Pointer[gateway.Gateway]
	queries *querycache.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := cache.NewCacheService(cache.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	h := &harness{
		actor:   testsupport.NewFakeActor(),
		queries: querycache.NewClient(store, querycache.WithLogger(logger)),
	}
	gw, err := gateway.New(h.actor, gateway.Identity{Principal: "alice"})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	h.gw.Store(gw)
	return h
}

func (h *harness) Gateway() *gateway.Gateway { return h.gw.Load() }

func (h *harness) campaigns(opts ...Option) *CachedCollection[*entity.Campaign] {
	return New(h, func(g *gateway.Gateway) *gateway.Collection[*entity.Campaign] { return g.Campaigns }, h.queries, opts...)
}

func (h *harness) signatures(opts ...Option) *CachedCollection[*entity.Signature] {
	return New(h, func(g *gateway.Gateway) *gateway.Collection[*entity.Signature] { return g.Signatures }, h.queries, opts...)
}

func validCampaign() *entity.Campaign {
	return &entity.Campaign{
		Title:  "Save the river road",
		Slug:   "save-the-river-road",
		State:  entity.StateDraft,
		UserID: uuid.New(),
	}
}

func TestNilGateway_ReadsEmptyWritesNotReady(t *testing.T) {
	var reported []string
	queries := querycache.NewClient(mustCache(t))
	campaigns := New(GatewayFunc(func() *gateway.Gateway { return nil }),
		func(g *gateway.Gateway) *gateway.Collection[*entity.Campaign] { return g.Campaigns },
		queries,
		OnError(func(op string, err error) { reported = append(reported, op) }),
	)
	ctx := context.Background()

	list, err := campaigns.Find(ctx, query.Args{})
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty list without error, got %v, %v", list, err)
	}
	one, err := campaigns.FindByID(ctx, uuid.New())
	if err != nil || one != nil {
		t.Fatalf("expected nil record without error, got %v, %v", one, err)
	}
	if n, err := campaigns.Count(ctx, query.NoCriteria); err != nil || n != 0 {
		t.Fatalf("expected zero count, got %d, %v", n, err)
	}
	if queries.Len() != 0 {
		t.Fatalf("reads without gateway must not touch the cache, got %v", queries.Keys())
	}

	if _, err := campaigns.Create(ctx, validCampaign()); !gateway.IsNotReady(err) {
		t.Fatalf("expected not ready, got %v", err)
	}
	if _, err := campaigns.Update(ctx, uuid.New(), validCampaign()); !gateway.IsNotReady(err) {
		t.Fatalf("expected not ready, got %v", err)
	}
	if err := campaigns.Delete(ctx, uuid.New()); !gateway.IsNotReady(err) {
		t.Fatalf("expected not ready, got %v", err)
	}
	if len(reported) != 3 || reported[0] != gateway.OpCreate {
		t.Fatalf("expected three reported failures, got %v", reported)
	}
}

func mustCache(t *testing.T) cache.CacheService {
	t.Helper()
	store, err := cache.NewCacheService(cache.DefaultConfig(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	return store
}

func TestFind_ConcurrentReadsShareOneFetch(t *testing.T) {
	h := newHarness(t)
	h.actor.Reply("campaigns.find", []*entity.Campaign{validCampaign()})
	release := h.actor.Gate("campaigns.find")
	campaigns := h.campaigns()

	var mu sync.Mutex
	var results [][]*entity.Campaign
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			got, err := campaigns.Find(ctx, query.Args{})
			mu.Lock()
			results = append(results, got)
			mu.Unlock()
			return err
		})
	}

	if !h.actor.WaitCalls("campaigns.find", 1, time.Second) {
		t.Fatal("fetch never started")
	}
	release()
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := h.actor.CallCount("campaigns.find"); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
	if len(results) != 2 || len(results[0]) != 1 || len(results[1]) != 1 {
		t.Fatalf("both readers should see the record, got %v", results)
	}
	if results[0][0].Slug != results[1][0].Slug {
		t.Fatalf("readers saw different values")
	}
}

func TestFind_ServedFromCacheUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	h.actor.Reply("campaigns.find", []*entity.Campaign{validCampaign()})
	campaigns := h.campaigns()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := campaigns.Find(ctx, query.Args{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := h.actor.CallCount("campaigns.find"); n != 1 {
		t.Fatalf("expected one fetch, got %d", n)
	}
	if s := campaigns.Status(ctx, query.Args{}); s != querycache.StatusSuccess {
		t.Fatalf("expected success status, got %v", s)
	}

	if n := campaigns.Invalidate(ctx); n != 1 {
		t.Fatalf("expected one invalidated key, got %d", n)
	}
	if _, err := campaigns.Find(ctx, query.Args{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := h.actor.CallCount("campaigns.find"); n != 2 {
		t.Fatalf("expected exactly one refetch, got %d calls", n)
	}
}

func TestFind_ErrorIsReturnedAndRetriedOnNextRead(t *testing.T) {
	h := newHarness(t)
	h.actor.Break("campaigns.find", errors.New("connection refused"))
	campaigns := h.campaigns()
	ctx := context.Background()

	if _, err := campaigns.Find(ctx, query.Args{}); err == nil {
		t.Fatal("expected error")
	}
	if s := campaigns.Status(ctx, query.Args{}); s != querycache.StatusError {
		t.Fatalf("expected error status, got %v", s)
	}

	h.actor.Reply("campaigns.find", []*entity.Campaign{validCampaign()})
	got, err := campaigns.Find(ctx, query.Args{})
	if err != nil || len(got) != 1 {
		t.Fatalf("expected recovery, got %v, %v", got, err)
	}
	if n := h.actor.CallCount("campaigns.find"); n != 2 {
		t.Fatalf("expected two fetches, got %d", n)
	}
}

func TestCreate_InvalidatesListFamilyOnly(t *testing.T) {
	h := newHarness(t)
	existing := validCampaign()
	existing.ID = uuid.New()
	h.actor.
		Reply("campaigns.find", []*entity.Campaign{existing}).
		Reply("campaigns.findBy", []*entity.Campaign{existing}).
		Reply("campaigns.count", 1).
		Reply("campaigns.findById", existing).
		Handle("campaigns.create", func(call gateway.Call) (gateway.Reply, error) {
			c := validCampaign()
			c.ID = uuid.New()
			return gateway.OK(c)
		})
	campaigns := h.campaigns()
	ctx := context.Background()

	read := func() {
		t.Helper()
		if _, err := campaigns.Find(ctx, query.Args{}); err != nil {
			t.Fatal(err)
		}
		if _, err := campaigns.FindBy(ctx, "state", entity.StateDraft); err != nil {
			t.Fatal(err)
		}
		if _, err := campaigns.Count(ctx, query.NoCriteria); err != nil {
			t.Fatal(err)
		}
		if _, err := campaigns.FindByID(ctx, existing.ID); err != nil {
			t.Fatal(err)
		}
	}

	read()
	if _, err := campaigns.Create(ctx, validCampaign()); err != nil {
		t.Fatalf("create: %v", err)
	}
	read()

	for method, want := range map[string]int{
		"campaigns.find":     2,
		"campaigns.findBy":   2,
		"campaigns.count":    2,
		"campaigns.findById": 1,
	} {
		if got := h.actor.CallCount(method); got != want {
			t.Errorf("%s: expected %d calls, got %d", method, want, got)
		}
	}
}

func TestUpdateAndDelete_InvalidateRecord(t *testing.T) {
	h := newHarness(t)
	c := validCampaign()
	c.ID = uuid.New()
	other := uuid.New()
	h.actor.
		Reply("campaigns.findById", c).
		Reply("campaigns.update", c).
		Reply("campaigns.delete", nil)
	campaigns := h.campaigns()
	ctx := context.Background()

	campaigns.FindByID(ctx, c.ID)
	campaigns.FindByID(ctx, other)

	if _, err := campaigns.Update(ctx, c.ID, c); err != nil {
		t.Fatalf("update: %v", err)
	}
	campaigns.FindByID(ctx, c.ID)
	campaigns.FindByID(ctx, other)
	if got := h.actor.CallCount("campaigns.findById"); got != 3 {
		t.Fatalf("expected only the updated record to refetch, got %d calls", got)
	}

	if err := campaigns.Delete(ctx, other); err != nil {
		t.Fatalf("delete: %v", err)
	}
	campaigns.FindByID(ctx, other)
	if got := h.actor.CallCount("campaigns.findById"); got != 4 {
		t.Fatalf("expected the deleted record to refetch, got %d calls", got)
	}
}

func TestMutationFailure_LeavesCacheAndReports(t *testing.T) {
	h := newHarness(t)
	h.actor.
		Reply("campaigns.find", []*entity.Campaign{}).
		Fail("campaigns.create", "slug already exists")

	var reported error
	campaigns := h.campaigns(OnError(func(op string, err error) { reported = err }))
	ctx := context.Background()

	campaigns.Find(ctx, query.Args{})
	if _, err := campaigns.Create(ctx, validCampaign()); err == nil {
		t.Fatal("expected create to fail")
	}
	if reported == nil {
		t.Fatal("error callback not called")
	}
	campaigns.Find(ctx, query.Args{})
	if got := h.actor.CallCount("campaigns.find"); got != 1 {
		t.Fatalf("failed mutation must not invalidate, got %d fetches", got)
	}
}

func TestDependents_AreInvalidated(t *testing.T) {
	h := newHarness(t)
	h.actor.
		Reply("campaigns.find", []*entity.Campaign{}).
		Reply("signatures.create", &entity.Signature{ID: uuid.New()})
	campaigns := h.campaigns()
	signatures := h.signatures(WithDependents(DefaultDependents[entity.SignatureEntity]...), WithDependents("signatures", "nonsense"))
	ctx := context.Background()

	campaigns.Find(ctx, query.Args{})
	sig := &entity.Signature{CampaignID: uuid.New(), UserID: uuid.New(), Body: "Count me in"}
	if _, err := signatures.Create(ctx, sig); err != nil {
		t.Fatalf("create: %v", err)
	}
	campaigns.Find(ctx, query.Args{})

	if got := h.actor.CallCount("campaigns.find"); got != 2 {
		t.Fatalf("expected dependent campaigns to refetch, got %d", got)
	}
	if got := len(signatures.dependents); got != 2 {
		t.Fatalf("expected self and unknown names dropped, got %v", signatures.dependents)
	}
}

func TestScope_PartitionsKeys(t *testing.T) {
	h := newHarness(t)
	h.actor.Reply("signatures.find", []*entity.Signature{})
	signatures := h.signatures()
	base := context.Background()

	a := WithScope(base, "Campaign", "a")
	b := WithScope(base, "Campaign", "b")
	signatures.Find(a, query.Args{})
	signatures.Find(a, query.Args{})
	signatures.Find(b, query.Args{})

	if got := h.actor.CallCount("signatures.find"); got != 2 {
		t.Fatalf("expected one fetch per scope, got %d", got)
	}
	if ka, kb := signatures.Key(a, MethodFind, query.Args{}), signatures.Key(b, MethodFind, query.Args{}); ka == kb {
		t.Fatalf("scoped keys collide: %s", ka)
	}
}

func TestKeys_StayInsideFamilyPrefix(t *testing.T) {
	h := newHarness(t)
	for _, keys := range []cache.KeySerializer{cache.NewDefaultKeySerializer(), cache.NewHashedKeySerializer()} {
		campaigns := h.campaigns(WithKeySerializer(keys))
		key := campaigns.Key(context.Background(), MethodFind, query.Args{})
		prefix := cache.KeyPrefix("campaign", MethodFind)
		if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			t.Errorf("key %q is outside %q", key, prefix)
		}
	}
}

func TestWithNamespace(t *testing.T) {
	h := newHarness(t)
	campaigns := h.campaigns(WithNamespace("FeaturedCampaigns"))
	if campaigns.Namespace() != "featured_campaigns" {
		t.Fatalf("unexpected namespace %q", campaigns.Namespace())
	}
}
