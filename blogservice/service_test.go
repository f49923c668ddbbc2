package blogservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog-store/blogstore"
	"github.com/goliatone/go-blog-store/cache"
	"github.com/goliatone/go-blog-store/internal/cacheinfra"
	"github.com/goliatone/go-blog-store/internal/storage"
)

var categoryRows = map[int64]storage.Row{
	1: {"name": "기술 스택", "slug": "tech-stack"},
	2: {"name": "Troubleshooting", "slug": "troubleshooting"},
	3: {"name": "Test", "slug": "test"},
}

// mockGateway keeps posts in memory and records every call.
type mockGateway struct {
	mu     sync.Mutex
	calls  []string
	posts  map[int64]storage.Row
	users  map[string]storage.Row
	nextID int64
	failOn map[string]error
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		posts:  map[int64]storage.Row{},
		users:  map[string]storage.Row{},
		failOn: map[string]error{},
	}
}

func (m *mockGateway) recordCall(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
	return m.failOn[method]
}

func (m *mockGateway) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *mockGateway) fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[method] = err
}

func (m *mockGateway) addPost(author string, categoryID int64, title string) storage.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	row := storage.Row{
		"id":          m.nextID,
		"title":       title,
		"content":     "body of " + title,
		"author":      author,
		"category_id": categoryID,
		"created_at":  now,
		"updated_at":  now,
	}
	m.joinCategory(row)
	m.posts[m.nextID] = row
	return row
}

func (m *mockGateway) joinCategory(row storage.Row) {
	cat, ok := categoryRows[row.Int64("category_id")]
	if !ok {
		row["category_name"], row["category_slug"] = nil, nil
		return
	}
	row["category_name"], row["category_slug"] = cat["name"], cat["slug"]
}

func copyRow(r storage.Row) storage.Row {
	out := make(storage.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (m *mockGateway) FetchPosts(_ context.Context, offset, limit int, slug string) ([]storage.Row, error) {
	if err := m.recordCall("FetchPosts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Row
	for id := m.nextID; id > 0; id-- {
		row, ok := m.posts[id]
		if !ok || (slug != "" && row.String("category_slug") != slug) {
			continue
		}
		out = append(out, copyRow(row))
	}
	if offset >= len(out) {
		return []storage.Row{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockGateway) FetchPostByID(_ context.Context, id int64) (storage.Row, error) {
	if err := m.recordCall("FetchPostByID"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	return copyRow(row), nil
}

func (m *mockGateway) FetchCategoriesWithCounts(context.Context) ([]storage.Row, error) {
	if err := m.recordCall("FetchCategoriesWithCounts"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Row
	for id := int64(1); id <= 3; id++ {
		var n int64
		for _, p := range m.posts {
			if p.Int64("category_id") == id {
				n++
			}
		}
		out = append(out, storage.Row{"id": id, "name": categoryRows[id]["name"], "slug": categoryRows[id]["slug"], "post_count": n})
	}
	return out, nil
}

func (m *mockGateway) ValidateCategoryExists(_ context.Context, id int64) (bool, error) {
	if err := m.recordCall("ValidateCategoryExists"); err != nil {
		return false, err
	}
	_, ok := categoryRows[id]
	return ok, nil
}

func (m *mockGateway) CreatePost(ctx context.Context, title, content, author string, categoryID int64) (storage.Row, error) {
	if err := m.recordCall("CreatePost"); err != nil {
		return nil, err
	}
	if _, ok := categoryRows[categoryID]; !ok {
		return nil, blogstore.InvalidReference(categoryID)
	}
	row := m.addPost(author, categoryID, title)
	m.mu.Lock()
	row["content"] = content
	m.mu.Unlock()
	return copyRow(row), nil
}

func (m *mockGateway) GetPostAuthor(_ context.Context, id int64) (string, bool, error) {
	if err := m.recordCall("GetPostAuthor"); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.posts[id]
	if !ok {
		return "", false, nil
	}
	return row.String("author"), true, nil
}

func (m *mockGateway) UpdatePost(_ context.Context, id int64, patch blogstore.PostPatch) (storage.Row, error) {
	if err := m.recordCall("UpdatePost"); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, blogstore.ErrNoChanges
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		row["title"] = *patch.Title
	}
	if patch.Content != nil {
		row["content"] = *patch.Content
	}
	if patch.CategoryID != nil {
		row["category_id"] = *patch.CategoryID
		m.joinCategory(row)
	}
	row["updated_at"] = row.Time("updated_at").Add(time.Minute)
	return copyRow(row), nil
}

func (m *mockGateway) DeletePost(_ context.Context, id int64) (bool, error) {
	if err := m.recordCall("DeletePost"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.posts[id]
	delete(m.posts, id)
	return ok, nil
}

func (m *mockGateway) CreateUser(_ context.Context, username, email, password string) (storage.Row, error) {
	if err := m.recordCall("CreateUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return nil, goerrors.New("username taken", goerrors.CategoryConflict).WithTextCode(blogstore.CodeAlreadyExists)
	}
	row := storage.Row{
		"id":            int64(len(m.users) + 1),
		"username":      username,
		"email":         email,
		"password_hash": "hash:" + password,
		"created_at":    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	m.users[username] = row
	out := copyRow(row)
	delete(out, "password_hash")
	return out, nil
}

func (m *mockGateway) GetUserByUsername(_ context.Context, username string) (storage.Row, error) {
	if err := m.recordCall("GetUserByUsername"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return copyRow(row), nil
}

func (m *mockGateway) VerifyCredentials(_ context.Context, username, password string) (storage.Row, error) {
	if err := m.recordCall("VerifyCredentials"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.users[username]
	if !ok || row.String("password_hash") != "hash:"+password {
		return nil, nil
	}
	out := copyRow(row)
	delete(out, "password_hash")
	return out, nil
}

func (m *mockGateway) HealthCheck(context.Context) bool {
	return m.recordCall("HealthCheck") == nil
}

type stubIssuer struct{ err error }

func (s stubIssuer) Issue(username string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + username, nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *mockGateway) {
	t.Helper()
	store, err := cacheinfra.NewMemoryStore(cacheinfra.DefaultConfig())
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	layer := cache.NewLayer(store)
	t.Cleanup(func() { _ = layer.Close() })

	gw := newMockGateway()
	return New(gw, layer, opts...), gw
}

func TestService_ListPostsCaching(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	for i := 0; i < 5; i++ {
		gw.addPost("alice", 1, "post")
	}

	first, err := svc.ListPosts(ctx, 0, 2, "")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(first) != 2 || first[0].ID != 5 || first[1].ID != 4 {
		t.Fatalf("unexpected first page: %+v", first)
	}

	if _, err := svc.ListPosts(ctx, 0, 2, ""); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if got := gw.callCount("FetchPosts"); got != 1 {
		t.Errorf("expected the second read to hit the cache, got %d fetches", got)
	}

	if _, err := svc.ListPosts(ctx, 0, 2, "tech-stack"); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if got := gw.callCount("FetchPosts"); got != 2 {
		t.Errorf("expected filtered page to miss, got %d fetches", got)
	}
}

func TestService_ListPostsMisalignedOffset(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	for i := 0; i < 30; i++ {
		gw.addPost("alice", 1, "post")
	}

	shifted, err := svc.ListPosts(ctx, 5, 20, "")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(shifted) != 20 || shifted[0].ID != 25 {
		t.Fatalf("expected rows from offset 5, got %d rows starting at %d", len(shifted), shifted[0].ID)
	}

	aligned, err := svc.ListPosts(ctx, 0, 20, "")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if aligned[0].ID != 30 {
		t.Errorf("expected the first page to start at post 30, got %d", aligned[0].ID)
	}

	if _, err := svc.ListPosts(ctx, 5, 20, ""); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if got := gw.callCount("FetchPosts"); got != 3 {
		t.Errorf("expected misaligned reads to skip the cache, got %d fetches", got)
	}
}

func TestService_ListPostsFilterNamedAll(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	for i := 0; i < 4; i++ {
		gw.addPost("alice", 1, "post")
	}

	filtered, err := svc.ListPosts(ctx, 0, 20, "all")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected no posts in category all, got %d", len(filtered))
	}

	unfiltered, err := svc.ListPosts(ctx, 0, 20, "")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(unfiltered) != 4 {
		t.Errorf("expected 4 unfiltered posts, got %d", len(unfiltered))
	}
}

func TestService_ListPostsPaging(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	for i := 0; i < 3; i++ {
		gw.addPost("alice", 2, "post")
	}

	tests := []struct {
		name    string
		offset  int
		limit   int
		wantLen int
		wantErr bool
	}{
		{name: "default limit", offset: 0, limit: 0, wantLen: 3},
		{name: "limit over max", offset: 0, limit: 1000, wantLen: 3},
		{name: "past the end", offset: 10, limit: 5, wantLen: 0},
		{name: "negative offset", offset: -1, limit: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListPosts(ctx, tt.offset, tt.limit, "")
			if tt.wantErr {
				if !goerrors.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ListPosts() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("expected %d posts, got %d", tt.wantLen, len(got))
			}
		})
	}
}

func TestService_GetPost(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 3, "hello")

	for i := 0; i < 3; i++ {
		post, err := svc.GetPost(ctx, 1)
		if err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
		if post.Title != "hello" || post.Category.Slug == nil || *post.Category.Slug != "test" {
			t.Errorf("unexpected post: %+v", post)
		}
	}
	if got := gw.callCount("FetchPostByID"); got != 1 {
		t.Errorf("expected 1 gateway read, got %d", got)
	}
}

func TestService_GetPostMissingNotCached(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)

	for i := 0; i < 2; i++ {
		_, err := svc.GetPost(ctx, 42)
		if !blogstore.IsNotFound(err) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	}
	if got := gw.callCount("FetchPostByID"); got != 2 {
		t.Errorf("expected every miss to reach the gateway, got %d", got)
	}

	gw.addPost("alice", 1, "late")
	if _, err := svc.GetPost(ctx, 1); err != nil {
		t.Errorf("expected post once created, got %v", err)
	}
}

func TestService_GetPostStorageError(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 1, "x")

	boom := errors.New("connection refused")
	gw.fail("FetchPostByID", boom)

	if _, err := svc.GetPost(ctx, 1); !errors.Is(err, boom) {
		t.Fatalf("expected gateway error to surface, got %v", err)
	}

	gw.fail("FetchPostByID", nil)
	if _, err := svc.GetPost(ctx, 1); err != nil {
		t.Fatalf("expected recovery after failure, got %v", err)
	}
}

func TestService_CreatePost(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 1, "old")

	if _, err := svc.ListPosts(ctx, 0, 20, ""); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if _, err := svc.ListPosts(ctx, 0, 20, "tech-stack"); err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}

	created, err := svc.CreatePost(ctx, "bob", PostInput{Title: "new", Content: "fresh", CategoryID: 1})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if created.Author != "bob" || created.Content != "fresh" {
		t.Errorf("unexpected created post: %+v", created)
	}

	all, _ := svc.ListPosts(ctx, 0, 20, "")
	filtered, _ := svc.ListPosts(ctx, 0, 20, "tech-stack")
	if len(all) != 2 || len(filtered) != 2 {
		t.Errorf("expected both list pages invalidated, got %d and %d posts", len(all), len(filtered))
	}
	if all[0].ID != created.ID {
		t.Errorf("expected newest post first, got %d", all[0].ID)
	}
}

func TestService_CreatePostValidation(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)

	tests := []struct {
		name  string
		in    PostInput
		check func(error) bool
	}{
		{name: "empty title", in: PostInput{Content: "c", CategoryID: 1}, check: goerrors.IsValidation},
		{name: "title too long", in: PostInput{Title: strings.Repeat("가", MaxTitleLength+1), Content: "c", CategoryID: 1}, check: goerrors.IsValidation},
		{name: "content too long", in: PostInput{Title: "t", Content: strings.Repeat("a", MaxContentLength+1), CategoryID: 1}, check: goerrors.IsValidation},
		{name: "zero category", in: PostInput{Title: "t", Content: "c"}, check: goerrors.IsValidation},
		{name: "unknown category", in: PostInput{Title: "t", Content: "c", CategoryID: 99}, check: blogstore.IsInvalidReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, "alice", tt.in)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if got := gw.callCount("CreatePost"); got != 1 {
		t.Errorf("expected only the unknown category to reach the gateway, got %d", got)
	}
}

func TestService_CreatePostInvalidReferenceMessage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreatePost(context.Background(), "alice", PostInput{Title: "t", Content: "c", CategoryID: 7})
	var e *goerrors.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if e.Message != "Category with id 7 does not exist" {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestService_UpdatePostInvalidation(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 1, "first")

	if _, err := svc.GetPost(ctx, 1); err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if page, _ := svc.ListPosts(ctx, 0, 20, "tech-stack"); len(page) != 1 {
		t.Fatalf("expected 1 tech-stack post, got %d", len(page))
	}

	newCat := int64(2)
	updated, err := svc.UpdatePost(ctx, "alice", 1, PostPatchInput{CategoryID: &newCat})
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if *updated.Category.Slug != "troubleshooting" {
		t.Errorf("expected moved category, got %v", *updated.Category.Slug)
	}

	post, _ := svc.GetPost(ctx, 1)
	if post.Category.ID != 2 {
		t.Errorf("expected post key invalidated, got category %d", post.Category.ID)
	}
	if page, _ := svc.ListPosts(ctx, 0, 20, "tech-stack"); len(page) != 0 {
		t.Errorf("expected old category page invalidated, got %d posts", len(page))
	}
	if page, _ := svc.ListPosts(ctx, 0, 20, "troubleshooting"); len(page) != 1 {
		t.Errorf("expected new category page to list the post, got %d", len(page))
	}
}

func TestService_UpdatePostErrors(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 1, "first")
	title := "changed"
	empty := ""
	badCat := int64(9)

	tests := []struct {
		name     string
		username string
		id       int64
		in       PostPatchInput
		check    func(error) bool
	}{
		{name: "no changes", username: "alice", id: 1, check: blogstore.IsNoChanges},
		{name: "missing post", username: "alice", id: 50, in: PostPatchInput{Title: &title}, check: blogstore.IsNotFound},
		{name: "other author", username: "mallory", id: 1, in: PostPatchInput{Title: &title}, check: blogstore.IsForbidden},
		{name: "unknown category", username: "mallory", id: 1, in: PostPatchInput{CategoryID: &badCat}, check: blogstore.IsInvalidReference},
		{name: "empty title", username: "alice", id: 1, in: PostPatchInput{Title: &empty}, check: goerrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdatePost(ctx, tt.username, tt.id, tt.in)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	post, _ := svc.GetPost(ctx, 1)
	if post.Title != "first" {
		t.Errorf("expected post untouched, got title %q", post.Title)
	}
}

func TestService_DeletePostStaleness(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 1, "doomed")

	if _, err := svc.GetPost(ctx, 1); err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if page, _ := svc.ListPosts(ctx, 0, 20, ""); len(page) != 1 {
		t.Fatalf("expected 1 post listed, got %d", len(page))
	}

	if err := svc.DeletePost(ctx, "bob", 1); !blogstore.IsForbidden(err) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := svc.DeletePost(ctx, "alice", 1); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}

	if _, err := svc.GetPost(ctx, 1); !blogstore.IsNotFound(err) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}

	page, _ := svc.ListPosts(ctx, 0, 20, "")
	if len(page) != 1 {
		t.Errorf("expected cached list page to keep the deleted post until ttl, got %d", len(page))
	}

	if err := svc.DeletePost(ctx, "alice", 1); !blogstore.IsNotFound(err) {
		t.Errorf("expected NotFound for second delete, got %v", err)
	}
}

func TestService_ListCategories(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	gw.addPost("alice", 2, "x")

	for i := 0; i < 2; i++ {
		cats, err := svc.ListCategories(ctx)
		if err != nil {
			t.Fatalf("ListCategories() error = %v", err)
		}
		if len(cats) != 3 || cats[1].PostCount != 1 {
			t.Errorf("unexpected categories: %+v", cats)
		}
	}
	if got := gw.callCount("FetchCategoriesWithCounts"); got != 1 {
		t.Errorf("expected 1 gateway read, got %d", got)
	}
}

func TestService_WorksWithoutCache(t *testing.T) {
	ctx := context.Background()
	gw := newMockGateway()
	svc := New(gw, nil)
	gw.addPost("alice", 1, "x")

	for i := 0; i < 2; i++ {
		if _, err := svc.GetPost(ctx, 1); err != nil {
			t.Fatalf("GetPost() error = %v", err)
		}
	}
	if got := gw.callCount("FetchPostByID"); got != 2 {
		t.Errorf("expected every read to reach the gateway, got %d", got)
	}
}

func TestService_Users(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t, WithTokenIssuer(stubIssuer{}))

	in := RegisterInput{Username: "alice", Email: "alice@example.com", Password: "correct horse"}
	user, err := svc.RegisterUser(ctx, in)
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if user.Username != "alice" || user.ID == 0 {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := svc.RegisterUser(ctx, in); !blogstore.IsAlreadyExists(err) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}

	session, err := svc.Login(ctx, Credentials{Username: "alice", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token != "token-for-alice" || session.TokenType != "bearer" {
		t.Errorf("unexpected session: %+v", session)
	}

	if _, err := svc.Login(ctx, Credentials{Username: "alice", Password: "wrong"}); !goerrors.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUser() error = %v", err)
		}
		if got.Email != "alice@example.com" {
			t.Errorf("unexpected user: %+v", got)
		}
	}
	if got := gw.callCount("GetUserByUsername"); got != 1 {
		t.Errorf("expected cached user lookup, got %d reads", got)
	}

	if _, err := svc.GetUser(ctx, "nobody"); !blogstore.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, gw := newTestService(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "bad email", in: RegisterInput{Username: "alice", Email: "nope", Password: "long enough"}},
		{name: "short password", in: RegisterInput{Username: "alice", Email: "a@b.co", Password: "short"}},
		{name: "password past bcrypt limit", in: RegisterInput{Username: "alice", Email: "a@b.co", Password: strings.Repeat("p", 73)}},
		{name: "bad username", in: RegisterInput{Username: "a b", Email: "a@b.co", Password: "long enough"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RegisterUser(context.Background(), tt.in); !goerrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if got := gw.callCount("CreateUser"); got != 0 {
		t.Errorf("expected no gateway call, got %d", got)
	}
}

func TestService_LoginWithoutIssuer(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Login(context.Background(), Credentials{Username: "a", Password: "b"}); err == nil {
		t.Error("expected error without token issuer")
	}
}

func TestService_Health(t *testing.T) {
	svc, gw := newTestService(t)

	h := svc.Health(context.Background())
	if !h.Database || !h.Cache || !h.Healthy() {
		t.Errorf("unexpected health: %+v", h)
	}

	gw.fail("HealthCheck", errors.New("down"))
	if h := svc.Health(context.Background()); h.Healthy() {
		t.Errorf("expected unhealthy, got %+v", h)
	}
}

func TestService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	svc, gw := newTestService(t)
	for i := 0; i < 10; i++ {
		gw.addPost("alice", int64(i%3+1), "p")
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.ListPosts(ctx, i%4, 5, ""); err != nil {
				t.Errorf("ListPosts() error = %v", err)
			}
			if _, err := svc.GetPost(ctx, int64(i%10+1)); err != nil {
				t.Errorf("GetPost() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestDefaultTTLs(t *testing.T) {
	ttl := DefaultTTLs()
	if ttl.Posts != time.Minute || ttl.Post != 5*time.Minute || ttl.Categories != 10*time.Minute || ttl.User != 5*time.Minute {
		t.Errorf("unexpected defaults: %+v", ttl)
	}

	custom := TTLs{Posts: time.Second}.withDefaults()
	if custom.Posts != time.Second || custom.Post != 5*time.Minute {
		t.Errorf("unexpected merged ttls: %+v", custom)
	}
}
