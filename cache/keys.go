package cache

// Namespaces used by the blog cache keys. Every list page key starts with
// PostsPrefix, so one prefix delete drops filtered and unfiltered pages.
const (
	PostsNamespace = "posts"
	PostNamespace  = "post"
	UserNamespace  = "user"

	// CategoriesKey holds the categories-with-counts list. It takes no parameters.
	CategoriesKey = "categories"

	// PostsPrefix matches every cached list page.
	PostsPrefix = PostsNamespace + KeySeparator

	// allCategories marks the unfiltered list. Filtered pages carry
	// categoryFilterPrefix, so no slug can produce this segment.
	allCategories        = "all"
	categoryFilterPrefix = "cat:"
)

var keys = NewDefaultKeySerializer()

// PageNumber maps an offset to the page it falls in. A non-positive limit
// always yields page 0.
func PageNumber(offset, limit int) int {
	if limit <= 0 {
		return 0
	}
	return offset / limit
}

// PostsPageKey builds the key of a post list page. Offsets that fall in the
// same page share a key.
func PostsPageKey(offset, limit int, categorySlug string) string {
	filter := allCategories
	if categorySlug != "" {
		filter = categoryFilterPrefix + categorySlug
	}
	return keys.SerializeKey(PostsNamespace, "page", PageNumber(offset, limit), limit, filter)
}

// PostKey builds the key of a single post.
func PostKey(id int64) string {
	return keys.SerializeKey(PostNamespace, id)
}

// UserKey builds the key of a public user record.
func UserKey(username string) string {
	return keys.SerializeKey(UserNamespace, username)
}
