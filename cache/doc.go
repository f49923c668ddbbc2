// Package cache is the read-through cache used by the blog service.
//
// A Layer wraps a Store (redis, in-process sturdyc, or nothing) and turns
// every store failure into a bypass: reads become misses and writes are
// skipped, with a warning logged and the outcome recorded. The service
// keeps answering from the database when the cache is gone.
//
// Values are encoded with msgpack through the generic helpers:
//
//	post, err := cache.GetOrFetch(ctx, layer, cache.PostKey(id), 5*time.Minute,
//		func(ctx context.Context) (record.PostDetail, error) {
//			return load(ctx, id)
//		})
//
// GetOrFetch only stores a value when the fetch succeeds, so errors such as
// a missing post are never cached.
//
// # Keys
//
// Keys are namespaced with "::". List pages are keyed by page number rather
// than offset, so offsets 0 and 20 with limit 20 land on posts::page::0::20::all
// and posts::page::1::20::all. A category filter is written as cat:<slug>,
// so no slug can collide with the unfiltered page. Every list page starts
// with PostsPrefix and is dropped together after a write. Offsets that are
// not a multiple of the limit bypass the list cache.
package cache
