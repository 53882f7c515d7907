// Package cache provides the read-through cache service and key
// serialization used by the query cache and the cached collections.
//
// # Overview
//
// Two interfaces are exported, each with default implementations:
//
//   - CacheService: read-through storage where concurrent GetOrFetch calls
//     for one key share a single fetch and failed fetches are not stored
//   - KeySerializer: builds stable keys of the form namespace::method::args
//
// NewCacheService returns the sturdyc backed implementation. The default
// Config never lets entries go stale on their own (TTL zero maps to NoExpiry),
// so data changes only through explicit invalidation.
//
// # Keys
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("campaign", "Find", args)
//	// campaign::Find::criteria=none;order=_id:desc;limit=0:10
//
// Values implementing KeyPart choose their own segment, which is how query
// arguments keep text "10" and number 10 apart. Other values are rendered by
// reflection: pointers are dereferenced, maps are sorted, structs list their
// exported fields and Stringers use their String form. Function and channel
// arguments render as addresses and are only stable within one process.
//
// KeyPrefix builds a separator terminated prefix for DeleteByPrefix, so the
// family campaign::Find:: never matches campaign::FindByID or campaigns::.
//
// NewHashedKeySerializer keeps namespace and method readable and replaces the
// argument segments with an xxhash digest, for backends that limit key length.
//
// # Typed access
//
//	list, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) ([]*entity.Campaign, error) {
//		return gw.Campaigns.Find(ctx, args)
//	})
//
// A stored value of a different type yields ErrInvalidResultType.
package cache
