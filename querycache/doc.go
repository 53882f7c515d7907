// Package querycache is the process wide query cache.
//
// Each key has one entry that moves through idle, pending, success, error and
// stale. Query is the single way to observe a key:
//
//	snap := querycache.Query(ctx, client, "campaign::Find::none", func(ctx context.Context) ([]*entity.Campaign, error) {
//		return gw.Campaigns.Find(ctx, args)
//	})
//
// Guarantees:
//
//   - at most one fetch per key is in flight; concurrent observers share it
//   - successful data is kept until invalidated, there is no time based expiry
//   - a failed fetch is handed to every waiter and is not retried until the
//     key is observed again
//   - after Invalidate the next observation fetches exactly once, and a fetch
//     that was in flight during the invalidation never repopulates the entry
//
// Data is stored in a cache.CacheService, which provides the in-flight
// sharing. Entry state and subscribers live in an xsync map.
package querycache
