package blogstore

import (
	"context"
	"strings"

	"github.com/goliatone/go-blog-store/internal/storage"
)

const postColumns = `p.id, p.title, p.content, p.author, p.category_id, p.created_at, p.updated_at,
	c.name AS category_name, c.slug AS category_slug`

const (
	selectPostsQuery = `SELECT ` + postColumns + `
	FROM posts p
	LEFT JOIN categories c ON p.category_id = c.id`

	listPostsQuery = selectPostsQuery + `
	ORDER BY p.id DESC
	LIMIT ? OFFSET ?`

	listPostsByCategoryQuery = selectPostsQuery + `
	WHERE c.slug = ?
	ORDER BY p.id DESC
	LIMIT ? OFFSET ?`

	getPostQuery = selectPostsQuery + `
	WHERE p.id = ?`

	categoriesWithCountsQuery = `SELECT c.id, c.name, c.slug, COUNT(p.id) AS post_count
	FROM categories c
	LEFT JOIN posts p ON p.category_id = c.id
	GROUP BY c.id, c.name, c.slug
	ORDER BY c.id`

	categoryExistsQuery = `SELECT 1 AS present FROM categories WHERE id = ?`
	postAuthorQuery     = `SELECT author FROM posts WHERE id = ?`
	deletePostQuery     = `DELETE FROM posts WHERE id = ?`
)

var postInsertColumns = []string{"title", "content", "author", "category_id", "created_at", "updated_at"}

// PostPatch holds the optional fields of a partial update. Nil fields are
// left untouched.
type PostPatch struct {
	Title      *string
	Content    *string
	CategoryID *int64
}

// Empty reports whether the patch sets no field.
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.CategoryID == nil
}

// FetchPosts returns a page of posts joined with their category, newest
// first. An empty categorySlug disables filtering. limit is passed through
// unclamped.
func (g *Gateway) FetchPosts(ctx context.Context, offset, limit int, categorySlug string) ([]storage.Row, error) {
	var (
		rows []storage.Row
		err  error
	)
	if categorySlug != "" {
		rows, err = g.backend.FetchAll(ctx, listPostsByCategoryQuery, categorySlug, limit, offset)
	} else {
		rows, err = g.backend.FetchAll(ctx, listPostsQuery, limit, offset)
	}
	if err != nil {
		return nil, storageError(err, "fetch posts")
	}
	return rows, nil
}

// FetchPostByID returns the post joined with its category, or nil when absent.
func (g *Gateway) FetchPostByID(ctx context.Context, id int64) (storage.Row, error) {
	row, err := g.backend.FetchOne(ctx, getPostQuery, id)
	if err != nil {
		return nil, storageError(err, "fetch post")
	}
	return row, nil
}

// FetchCategoriesWithCounts returns every category with its number of posts,
// ordered by id.
func (g *Gateway) FetchCategoriesWithCounts(ctx context.Context) ([]storage.Row, error) {
	rows, err := g.backend.FetchAll(ctx, categoriesWithCountsQuery)
	if err != nil {
		return nil, storageError(err, "fetch categories")
	}
	return rows, nil
}

// ValidateCategoryExists reports whether a category with id exists.
func (g *Gateway) ValidateCategoryExists(ctx context.Context, id int64) (bool, error) {
	ok, err := categoryExists(ctx, g.backend, id)
	if err != nil {
		return false, storageError(err, "validate category")
	}
	return ok, nil
}

// CreatePost validates the category, inserts the post and reads it back
// with its category in one transaction. created_at and updated_at are equal
// on the returned row.
func (g *Gateway) CreatePost(ctx context.Context, title, content, author string, categoryID int64) (storage.Row, error) {
	var out storage.Row

	err := g.backend.InTx(ctx, func(ctx context.Context, tx storage.Executor) error {
		ok, err := categoryExists(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return InvalidReference(categoryID)
		}

		now := g.timestamp()
		inserted, err := tx.InsertReturning(ctx, "posts", postInsertColumns,
			title, content, author, categoryID, now, now)
		if err != nil {
			return err
		}

		out, err = tx.FetchOne(ctx, getPostQuery, inserted.Int64("id"))
		return err
	})
	if err != nil {
		return nil, storageError(err, "create post")
	}
	return out, nil
}

// GetPostAuthor returns the author of a post without loading its content.
func (g *Gateway) GetPostAuthor(ctx context.Context, id int64) (string, bool, error) {
	row, err := g.backend.FetchOne(ctx, postAuthorQuery, id)
	if err != nil {
		return "", false, storageError(err, "fetch post author")
	}
	if row == nil {
		return "", false, nil
	}
	return row.String("author"), true, nil
}

// UpdatePost applies patch to the post and returns the updated row.
//
// An empty patch returns ErrNoChanges without touching the row. A patch
// naming an unknown category returns an InvalidReference error. A missing
// post yields a nil row and no error. updated_at never moves backwards.
func (g *Gateway) UpdatePost(ctx context.Context, id int64, patch PostPatch) (storage.Row, error) {
	if patch.Empty() {
		return nil, ErrNoChanges
	}

	var out storage.Row

	err := g.backend.InTx(ctx, func(ctx context.Context, tx storage.Executor) error {
		if patch.CategoryID != nil {
			ok, err := categoryExists(ctx, tx, *patch.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				return InvalidReference(*patch.CategoryID)
			}
		}

		now := g.timestamp()

		var (
			sets []string
			args []any
		)
		if patch.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *patch.Title)
		}
		if patch.Content != nil {
			sets = append(sets, "content = ?")
			args = append(args, *patch.Content)
		}
		if patch.CategoryID != nil {
			sets = append(sets, "category_id = ?")
			args = append(args, *patch.CategoryID)
		}
		// Compared inside the UPDATE so the row lock covers it: a slower
		// concurrent writer cannot move updated_at back.
		sets = append(sets, "updated_at = CASE WHEN updated_at > ? THEN updated_at ELSE ? END")
		args = append(args, now, now, id)

		query := "UPDATE posts SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		n, err := tx.Exec(ctx, query, args...)
		if err != nil || n == 0 {
			return err
		}

		out, err = tx.FetchOne(ctx, getPostQuery, id)
		return err
	})
	if err != nil {
		return nil, storageError(err, "update post")
	}
	return out, nil
}

// DeletePost removes the post and reports whether a row was deleted.
func (g *Gateway) DeletePost(ctx context.Context, id int64) (bool, error) {
	n, err := g.backend.Exec(ctx, deletePostQuery, id)
	if err != nil {
		return false, storageError(err, "delete post")
	}
	return n > 0, nil
}

func categoryExists(ctx context.Context, ex storage.Executor, id int64) (bool, error) {
	row, err := ex.FetchOne(ctx, categoryExistsQuery, id)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}
