// Package blogservice is the cached facade in front of the blog store.
//
// # Overview
//
// Service decorates a blogstore Gateway the same way a cached repository
// decorates its base: reads go through the cache, writes go straight to the
// gateway and invalidate afterwards.
//
//	gw := blogstore.New(backend)
//	layer := cache.NewLayer(store)
//	svc := blogservice.New(gw, layer, blogservice.WithTokenIssuer(authority))
//
//	posts, err := svc.ListPosts(ctx, 0, 20, "tech-stack")
//
// # Caching Behavior
//
// Reads follow the read-through pattern:
//
//  1. Check the cache for the key
//  2. On a hit, return the cached record
//  3. On a miss, call the gateway and assemble the record
//  4. Store the record with the read's TTL
//
// Errors are never cached. A missing post is reported as NotFound on every
// call until it exists.
//
// # Invalidation
//
//   - CreatePost drops every list page (prefix posts::)
//   - UpdatePost drops every list page and post::<id>
//   - DeletePost drops post::<id> only
//
// List pages may still show a deleted post until their TTL runs out. The
// categories list is never invalidated and converges after its TTL.
//
// # Authorization
//
// The facade trusts the username handed in by the transport. Update and
// delete compare it with the stored author and return Forbidden on mismatch.
package blogservice
