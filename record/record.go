// Package record turns gateway rows into the response shapes served by the
// blog API and stored in the cache.
//
// All functions are pure. Timestamps leave this package as RFC3339 text in
// UTC, whichever type the backend handed back.
package record

import (
	"strings"
	"time"

	"github.com/goliatone/go-blog-store/internal/storage"
)

// ExcerptLength is the maximum number of runes of content kept in a list
// excerpt, before the ellipsis.
const ExcerptLength = 120

const ellipsis = "..."

// Category is the category joined onto a post. Name and Slug are nil when
// the category row no longer exists.
type Category struct {
	ID   int64   `json:"id" msgpack:"id"`
	Name *string `json:"name" msgpack:"name"`
	Slug *string `json:"slug" msgpack:"slug"`
}

// PostSummary is a post as shown in list views.
type PostSummary struct {
	ID        int64    `json:"id" msgpack:"id"`
	Title     string   `json:"title" msgpack:"title"`
	Excerpt   string   `json:"excerpt" msgpack:"excerpt"`
	Author    string   `json:"author" msgpack:"author"`
	CreatedAt string   `json:"created_at" msgpack:"created_at"`
	Category  Category `json:"category" msgpack:"category"`
}

// PostDetail is a single post with its full content.
type PostDetail struct {
	ID        int64    `json:"id" msgpack:"id"`
	Title     string   `json:"title" msgpack:"title"`
	Content   string   `json:"content" msgpack:"content"`
	Author    string   `json:"author" msgpack:"author"`
	CreatedAt string   `json:"created_at" msgpack:"created_at"`
	UpdatedAt string   `json:"updated_at" msgpack:"updated_at"`
	Category  Category `json:"category" msgpack:"category"`
}

// CategoryCount is a category with the number of posts filed under it.
type CategoryCount struct {
	ID        int64  `json:"id" msgpack:"id"`
	Name      string `json:"name" msgpack:"name"`
	Slug      string `json:"slug" msgpack:"slug"`
	PostCount int64  `json:"post_count" msgpack:"post_count"`
}

// User is the public view of a user. It never carries the password hash.
type User struct {
	ID        int64  `json:"id" msgpack:"id"`
	Username  string `json:"username" msgpack:"username"`
	Email     string `json:"email" msgpack:"email"`
	CreatedAt string `json:"created_at" msgpack:"created_at"`
}

// FormatTime renders t as RFC3339 with nanoseconds in UTC. The zero time
// renders as an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Excerpt flattens line breaks and cuts content to ExcerptLength runes,
// appending "..." only when something was cut.
func Excerpt(content string) string {
	flat := strings.NewReplacer("\r", " ", "\n", " ").Replace(content)

	runes := []rune(flat)
	if len(runes) <= ExcerptLength {
		return flat
	}
	return string(runes[:ExcerptLength]) + ellipsis
}

func category(row storage.Row) Category {
	c := Category{ID: row.Int64("category_id")}
	if name, ok := row.NullString("category_name"); ok {
		c.Name = &name
	}
	if slug, ok := row.NullString("category_slug"); ok {
		c.Slug = &slug
	}
	return c
}

// Summary builds the list view of a joined post row.
func Summary(row storage.Row) PostSummary {
	return PostSummary{
		ID:        row.Int64("id"),
		Title:     row.String("title"),
		Excerpt:   Excerpt(row.String("content")),
		Author:    row.String("author"),
		CreatedAt: FormatTime(row.Time("created_at")),
		Category:  category(row),
	}
}

// Detail builds the single post view of a joined post row.
func Detail(row storage.Row) PostDetail {
	return PostDetail{
		ID:        row.Int64("id"),
		Title:     row.String("title"),
		Content:   row.String("content"),
		Author:    row.String("author"),
		CreatedAt: FormatTime(row.Time("created_at")),
		UpdatedAt: FormatTime(row.Time("updated_at")),
		Category:  category(row),
	}
}

// Summaries maps rows to summaries keeping their order.
func Summaries(rows []storage.Row) []PostSummary {
	out := make([]PostSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary(row))
	}
	return out
}

// CategoryCounts maps category rows with a post_count column.
func CategoryCounts(rows []storage.Row) []CategoryCount {
	out := make([]CategoryCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryCount{
			ID:        row.Int64("id"),
			Name:      row.String("name"),
			Slug:      row.String("slug"),
			PostCount: row.Int64("post_count"),
		})
	}
	return out
}

// PublicUser builds the public view of a user row. Any password_hash column
// is ignored.
func PublicUser(row storage.Row) User {
	return User{
		ID:        row.Int64("id"),
		Username:  row.String("username"),
		Email:     row.String("email"),
		CreatedAt: FormatTime(row.Time("created_at")),
	}
}
