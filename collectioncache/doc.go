// Package collectioncache puts the query cache in front of the gateway.
//
// A CachedCollection wraps one entity collection. Reads (Find, FindByID,
// FindBy, Count) are served through querycache under keys of the form
// entity::Method::args, optionally partitioned with WithScope. Writes go
// straight to the gateway; on success the entity's list family, the written
// record and any configured dependents are invalidated, on failure the cache
// is left alone and the error is handed to the OnError callback.
//
// Collections read the gateway through a GatewayProvider on every call. With
// no gateway connected, reads return empty results and writes fail with
// gateway.ErrNotReady.
//
//	campaigns := collectioncache.New(container, func(g *gateway.Gateway) *gateway.Collection[*entity.Campaign] {
//		return g.Campaigns
//	}, container.QueryCache())
//	list, err := campaigns.Query(ctx, nil, []query.Order{{Key: "_id", Dir: query.Desc}}, &query.Limit{Size: 10})
package collectioncache
