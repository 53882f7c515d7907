package cli

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/goliatone/go-campaign-client/entity"
	"github.com/goliatone/go-campaign-client/gateway"
	"github.com/goliatone/go-campaign-client/pkg/di"
	"github.com/goliatone/go-campaign-client/query"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// entityOps erases the record type so commands can dispatch on a name.
type entityOps struct {
	query  func(ctx context.Context, filters []query.Filter, orders []query.Order, limit *query.Limit) (any, error)
	get    func(ctx context.Context, id uuid.UUID) (any, error)
	count  func(ctx context.Context, criteria query.Criteria) (int, error)
	create func(ctx context.Context, body []byte) (any, error)
	update func(ctx context.Context, id uuid.UUID, body []byte) (any, error)
	delete func(ctx context.Context, id uuid.UUID) error
}

func opsFor[T gateway.Record](c *di.Container, selector func(*gateway.Gateway) *gateway.Collection[T]) entityOps {
	cached := di.NewCachedCollection(c, selector)
	decode := func(body []byte) (T, error) {
		rec := gateway.NewRecord[T]()
		if err := json.Unmarshal(body, rec); err != nil {
			return rec, goerrors.Wrap(err, goerrors.CategoryBadInput, "record is not valid JSON").
				WithTextCode("INVALID_JSON")
		}
		return rec, nil
	}

	return entityOps{
		query: func(ctx context.Context, filters []query.Filter, orders []query.Order, limit *query.Limit) (any, error) {
			return cached.Query(ctx, filters, orders, limit)
		},
		get: func(ctx context.Context, id uuid.UUID) (any, error) {
			return cached.FindByID(ctx, id)
		},
		count: cached.Count,
		create: func(ctx context.Context, body []byte) (any, error) {
			rec, err := decode(body)
			if err != nil {
				return nil, err
			}
			return cached.Create(ctx, rec)
		},
		update: func(ctx context.Context, id uuid.UUID, body []byte) (any, error) {
			rec, err := decode(body)
			if err != nil {
				return nil, err
			}
			return cached.Update(ctx, id, rec)
		},
		delete: cached.Delete,
	}
}

func registry(c *di.Container) map[string]entityOps {
	return map[string]entityOps{
		entity.CampaignEntity:  opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Campaign] { return g.Campaigns }),
		entity.CategoryEntity:  opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Category] { return g.Categories }),
		entity.CommentEntity:   opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Comment] { return g.Comments }),
		entity.DonationEntity:  opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Donation] { return g.Donations }),
		entity.PetitionEntity:  opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Petition] { return g.Petitions }),
		entity.PlaceEntity:     opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Place] { return g.Places }),
		entity.RegionEntity:    opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Region] { return g.Regions }),
		entity.ReportEntity:    opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Report] { return g.Reports }),
		entity.SignatureEntity: opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Signature] { return g.Signatures }),
		entity.TagEntity:       opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Tag] { return g.Tags }),
		entity.UpdateEntity:    opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Update] { return g.Updates }),
		entity.UserEntity:      opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.User] { return g.Users }),
		entity.VoteEntity:      opsFor(c, func(g *gateway.Gateway) *gateway.Collection[*entity.Vote] { return g.Votes }),
	}
}

// lookupOps accepts singular or plural names.
func lookupOps(ops map[string]entityOps, name string) (entityOps, error) {
	d, ok := entity.Lookup(name)
	if !ok {
		return entityOps{}, usageError("unknown entity %q, want one of %v", name, entityNames())
	}
	return ops[d.Name], nil
}

func entityNames() []string {
	names := make([]string, 0)
	for _, d := range entity.All() {
		names = append(names, d.Plural)
	}
	sort.Strings(names)
	return names
}
