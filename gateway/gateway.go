package gateway

import (
	"context"
	"time"

	"github.com/goliatone/go-campaign-client/entity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// AnonymousPrincipal is the principal used before a login.
const AnonymousPrincipal = "anonymous"

// Identity is who the gateway calls the backend as.
type Identity struct {
	Principal string
	Token     string
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{Principal: AnonymousPrincipal}

func (i Identity) IsAnonymous() bool {
	return i.Principal == "" || i.Principal == AnonymousPrincipal
}

func (i Identity) normalized() Identity {
	if i.Principal == "" {
		i.Principal = AnonymousPrincipal
	}
	return i
}

// Record is satisfied by pointers to every entity type.
type Record interface {
	entity.Model
	entity.Named
}

// Gateway is an authenticated handle on the backend. It is bound to one
// identity for its whole life; a new identity needs a new Gateway.
type Gateway struct {
	actor    Actor
	identity Identity
	logger   *zap.Logger
	validate bool

	Campaigns  *Collection[*entity.Campaign]
	Categories *Collection[*entity.Category]
	Comments   *Collection[*entity.Comment]
	Donations  *Collection[*entity.Donation]
	Petitions  *Collection[*entity.Petition]
	Places     *Collection[*entity.Place]
	Regions    *Collection[*entity.Region]
	Reports    *Collection[*entity.Report]
	Signatures *Collection[*entity.Signature]
	Tags       *Collection[*entity.Tag]
	Updates    *Collection[*entity.Update]
	Users      *Collection[*entity.User]
	Votes      *Collection[*entity.Vote]
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithValidation toggles local validation of create and update payloads.
// It is on by default.
func WithValidation(enabled bool) Option {
	return func(g *Gateway) {
		g.validate = enabled
	}
}

// New binds actor to identity.
func New(actor Actor, identity Identity, opts ...Option) (*Gateway, error) {
	if actor == nil {
		return nil, goerrors.New("gateway: actor is required", goerrors.CategoryBadInput).
			WithTextCode("MISSING_ACTOR")
	}

	g := &Gateway{
		actor:    actor,
		identity: identity.normalized(),
		logger:   zap.NewNop(),
		validate: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("principal", g.identity.Principal))

	g.Campaigns = newCollection[*entity.Campaign](g)
	g.Categories = newCollection[*entity.Category](g)
	g.Comments = newCollection[*entity.Comment](g)
	g.Donations = newCollection[*entity.Donation](g)
	g.Petitions = newCollection[*entity.Petition](g)
	g.Places = newCollection[*entity.Place](g)
	g.Regions = newCollection[*entity.Region](g)
	g.Reports = newCollection[*entity.Report](g)
	g.Signatures = newCollection[*entity.Signature](g)
	g.Tags = newCollection[*entity.Tag](g)
	g.Updates = newCollection[*entity.Update](g)
	g.Users = newCollection[*entity.User](g)
	g.Votes = newCollection[*entity.Vote](g)

	return g, nil
}

func (g *Gateway) Identity() Identity { return g.identity }

// Invoke performs one raw call and returns the success payload. Every
// failure, transport or application, comes back as the error.
func (g *Gateway) Invoke(ctx context.Context, method string, request any) (msgpack.RawMessage, error) {
	payload, err := msgpack.Marshal(request)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "gateway: encode "+method+" request")
	}

	start := time.Now()
	raw, err := g.actor.Call(ctx, Call{
		Method:    method,
		Principal: g.identity.Principal,
		Token:     g.identity.Token,
		Payload:   payload,
	})
	if err != nil {
		g.logger.Warn("actor call failed", zap.String("method", method), zap.Error(err))
		return nil, transportError(err, method)
	}

	var reply Reply
	if err := msgpack.Unmarshal(raw, &reply); err != nil {
		return nil, badReplyError(err, method)
	}

	g.logger.Debug("actor call",
		zap.String("method", method),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", reply.Err == nil),
	)

	switch {
	case reply.Err != nil:
		return nil, remoteError(*reply.Err, method)
	case len(reply.Ok) == 0:
		return nil, badReplyError(nil, method)
	default:
		return reply.Ok, nil
	}
}
