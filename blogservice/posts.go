package blogservice

import (
	"context"

	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/record"
)

// ListPosts returns a page of post summaries, newest first. limit is
// clamped to 1..MaxLimit with DefaultLimit for zero; a negative offset is a
// validation error. An empty categorySlug lists every category. Only
// offsets on a page boundary are served from or written to the cache.
func (s *Service) ListPosts(ctx context.Context, offset, limit int, categorySlug string) ([]record.PostSummary, error) {
	if err := validateOffset(offset); err != nil {
		return nil, validationError(err, "offset must be at least 0")
	}
	limit = clampLimit(limit)

	fetch := func(ctx context.Context) ([]record.PostSummary, error) {
		rows, err := s.gateway.FetchPosts(ctx, offset, limit, categorySlug)
		if err != nil {
			return nil, err
		}
		return record.Summaries(rows), nil
	}

	// A page key only describes rows starting at page*limit.
	if offset%limit != 0 {
		return fetch(ctx)
	}

	key := cache.PostsPageKey(offset, limit, categorySlug)
	return cache.GetOrFetch(ctx, s.cache, key, s.ttl.Posts, fetch)
}

// GetPost returns a single post. A missing post is NotFound and is not
// cached.
func (s *Service) GetPost(ctx context.Context, id int64) (record.PostDetail, error) {
	return cache.GetOrFetch(ctx, s.cache, cache.PostKey(id), s.ttl.Post, func(ctx context.Context) (record.PostDetail, error) {
		row, err := s.gateway.FetchPostByID(ctx, id)
		if err != nil {
			return record.PostDetail{}, err
		}
		if row == nil {
			return record.PostDetail{}, blogstore.NotFound("post", id)
		}
		return record.Detail(row), nil
	})
}

// ListCategories returns every category with its post count.
func (s *Service) ListCategories(ctx context.Context) ([]record.CategoryCount, error) {
	return cache.GetOrFetch(ctx, s.cache, cache.CategoriesKey, s.ttl.Categories, func(ctx context.Context) ([]record.CategoryCount, error) {
		rows, err := s.gateway.FetchCategoriesWithCounts(ctx)
		if err != nil {
			return nil, err
		}
		return record.CategoryCounts(rows), nil
	})
}

// CreatePost validates in, stores the post under author and drops every
// cached list page.
func (s *Service) CreatePost(ctx context.Context, author string, in PostInput) (record.PostDetail, error) {
	if err := in.Validate(); err != nil {
		return record.PostDetail{}, validationError(err, "invalid post")
	}

	row, err := s.gateway.CreatePost(ctx, in.Title, in.Content, author, in.CategoryID)
	if err != nil {
		return record.PostDetail{}, err
	}

	s.invalidateLists(ctx)
	s.logger.Debug().Int64("post_id", row.Int64("id")).Str("author", author).Msg("post created")
	return record.Detail(row), nil
}

// UpdatePost applies in to the post when username is its author.
//
// The category is checked before the author, so an unknown category is
// reported even for someone else's post. An empty patch returns a NoChanges
// error once the author check passes.
func (s *Service) UpdatePost(ctx context.Context, username string, id int64, in PostPatchInput) (record.PostDetail, error) {
	if err := in.Validate(); err != nil {
		return record.PostDetail{}, validationError(err, "invalid post update")
	}

	if in.CategoryID != nil {
		ok, err := s.gateway.ValidateCategoryExists(ctx, *in.CategoryID)
		if err != nil {
			return record.PostDetail{}, err
		}
		if !ok {
			return record.PostDetail{}, blogstore.InvalidReference(*in.CategoryID)
		}
	}

	if err := s.authorize(ctx, username, id); err != nil {
		return record.PostDetail{}, err
	}

	row, err := s.gateway.UpdatePost(ctx, id, in.patch())
	if err != nil {
		return record.PostDetail{}, err
	}
	if row == nil {
		return record.PostDetail{}, blogstore.NotFound("post", id)
	}

	s.invalidateLists(ctx)
	s.invalidatePost(ctx, id)
	return record.Detail(row), nil
}

// DeletePost removes the post when username is its author. Only the post
// key is dropped; list pages keep showing it until they expire.
func (s *Service) DeletePost(ctx context.Context, username string, id int64) error {
	if err := s.authorize(ctx, username, id); err != nil {
		return err
	}

	deleted, err := s.gateway.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return blogstore.NotFound("post", id)
	}

	s.invalidatePost(ctx, id)
	return nil
}

// authorize returns NotFound for a missing post and Forbidden when
// username did not write it.
func (s *Service) authorize(ctx context.Context, username string, id int64) error {
	author, ok, err := s.gateway.GetPostAuthor(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return blogstore.NotFound("post", id)
	}
	if author != username {
		return blogstore.Forbidden("Forbidden: not the author")
	}
	return nil
}
