// Package gateway is the authenticated handle on the campaign backend.
//
// A Gateway is bound to one Identity and exposes a Collection per entity
// with find, findById, findBy, count, create, update and delete. Requests
// and replies travel as msgpack; every reply is either {ok: value} or
// {err: message} and both transport failures and application errors surface
// through the returned error, categorized with go-errors:
//
//	gw, err := gateway.New(actor, gateway.Identity{Principal: "alice"})
//	args, _ := query.New().Where("state", query.OpEq, "published").Build()
//	campaigns, err := gw.Campaigns.Find(ctx, args)
//	if errors.IsNotFound(err) { ... }
//
// The Actor interface is the transport; see gateway/httpactor for HTTP and
// internal/actorstore for the in-process reference backend.
package gateway
