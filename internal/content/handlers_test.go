package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mirrors Repository semantics closely enough for handler tests.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	articles   map[int64]*Article
	categories map[int64]*Category
	tags       map[int64]*Tag
	artCats    map[int64][]int64
	artTags    map[int64][]int64
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{
		articles:   map[int64]*Article{},
		categories: map[int64]*Category{},
		tags:       map[int64]*Tag{},
		artCats:    map[int64][]int64{},
		artTags:    map[int64][]int64{},
	}
}

func (m *memStore) id() int64 { m.nextID++; return m.nextID }

func (m *memStore) ListCategories(context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []Category{}
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ListTags(context.Context) ([]Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Tag{}
	for _, t := range m.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) sorted(keep func(*Article) bool) []Article {
	out := []Article{}
	for _, a := range m.articles {
		if keep(a) {
			cp := *a
			cp.Content = ""
			cp.Categories = m.catsOf(a.ID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out
}

func window(in []Article, page Page) []Article {
	page = page.normalize()
	if page.Offset >= len(in) {
		return []Article{}
	}
	end := min(page.Offset+page.Limit, len(in))
	return in[page.Offset:end]
}

func (m *memStore) catsOf(articleID int64) []Category {
	out := []Category{}
	for _, cid := range m.artCats[articleID] {
		out = append(out, *m.categories[cid])
	}
	return out
}

func (m *memStore) ListArticles(_ context.Context, page Page) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return window(m.sorted(func(*Article) bool { return true }), page), nil
}

func (m *memStore) ListAllArticles(context.Context) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*Article) bool { return true }), nil
}

func (m *memStore) ListFeaturedArticles(_ context.Context, limit int) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.sorted(func(a *Article) bool { return a.IsFeatured }), Page{Limit: limit}), nil
}

func (m *memStore) ListArticlesByCategory(_ context.Context, slug string, page Page) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return window(m.sorted(func(a *Article) bool {
		for _, cid := range m.artCats[a.ID] {
			if m.categories[cid].Slug == slug {
				return true
			}
		}
		return false
	}), page), nil
}

func (m *memStore) hydrate(a *Article) *Article {
	cp := *a
	cp.Categories = m.catsOf(a.ID)
	cp.Tags = []Tag{}
	for _, tid := range m.artTags[a.ID] {
		cp.Tags = append(cp.Tags, *m.tags[tid])
	}
	return &cp
}

func (m *memStore) GetArticleBySlug(_ context.Context, slug string) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Slug == slug {
			return m.hydrate(a), nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "mem", "article not found", nil)
}

func (m *memStore) GetArticleByID(_ context.Context, id int64) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "mem", "article not found", nil)
	}
	return m.hydrate(a), nil
}

func (m *memStore) ListRelatedArticles(context.Context, int64, int) ([]Article, error) {
	return []Article{}, nil
}

func (m *memStore) GetCategory(_ context.Context, id int64) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "mem", "category not found", nil)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetCategoryBySlug(_ context.Context, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.E(apperr.NotFound, "mem", "category not found", nil)
}

func (m *memStore) GetTag(_ context.Context, id int64) (*Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "mem", "tag not found", nil)
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Articles: int64(len(m.articles)), Categories: int64(len(m.categories)), Tags: int64(len(m.tags))}, nil
}

func (m *memStore) checkRefs(cmd ArticleCommand) error {
	for _, cid := range cmd.CategoryIDs {
		if _, ok := m.categories[cid]; !ok {
			return apperr.E(apperr.ConstraintViolation, "mem", "referenced category or tag does not exist", nil)
		}
	}
	for _, tid := range cmd.TagIDs {
		if _, ok := m.tags[tid]; !ok {
			return apperr.E(apperr.ConstraintViolation, "mem", "referenced category or tag does not exist", nil)
		}
	}
	return nil
}

func (m *memStore) slugTaken(slug string, except int64) bool {
	for id, a := range m.articles {
		if a.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (m *memStore) CreateArticle(_ context.Context, cmd ArticleCommand) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	if err := m.checkRefs(cmd); err != nil {
		return 0, err
	}
	if m.slugTaken(cmd.Slug, 0) {
		return 0, apperr.E(apperr.ConstraintViolation, "mem", "slug already in use", nil)
	}
	id := m.id()
	m.articles[id] = &Article{ID: id, Title: cmd.Title, Slug: cmd.Slug, Content: cmd.Content,
		ReadingTime: cmd.ReadingTime, IsFeatured: cmd.IsFeatured, PublishedAt: time.Now().Add(time.Duration(id) * time.Second)}
	m.artCats[id] = cmd.CategoryIDs
	m.artTags[id] = cmd.TagIDs
	return id, nil
}

func (m *memStore) UpdateArticle(_ context.Context, id int64, cmd ArticleCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return apperr.E(apperr.NotFound, "mem", "article not found", nil)
	}
	if err := m.checkRefs(cmd); err != nil {
		return err
	}
	a.Title, a.Slug, a.IsFeatured, a.ReadingTime = cmd.Title, cmd.Slug, cmd.IsFeatured, cmd.ReadingTime
	m.artCats[id] = cmd.CategoryIDs
	m.artTags[id] = cmd.TagIDs
	return nil
}

func (m *memStore) DeleteArticle(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return apperr.E(apperr.NotFound, "mem", "article not found", nil)
	}
	delete(m.articles, id)
	delete(m.artCats, id)
	delete(m.artTags, id)
	return nil
}

func (m *memStore) CreateCategory(_ context.Context, cmd CategoryCommand) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == cmd.Slug || c.Name == cmd.Name {
			return 0, apperr.E(apperr.ConstraintViolation, "mem", "slug already in use", nil)
		}
	}
	id := m.id()
	m.categories[id] = &Category{ID: id, Name: cmd.Name, Slug: cmd.Slug, Description: cmd.Description}
	return id, nil
}

func (m *memStore) UpdateCategory(_ context.Context, id int64, cmd CategoryCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return apperr.E(apperr.NotFound, "mem", "category not found", nil)
	}
	c.Name, c.Slug, c.Description = cmd.Name, cmd.Slug, cmd.Description
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return apperr.E(apperr.NotFound, "mem", "category not found", nil)
	}
	for aid, cids := range m.artCats {
		kept := []int64{}
		for _, cid := range cids {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		m.artCats[aid] = kept
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) CreateTag(_ context.Context, cmd TagCommand) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.tags[id] = &Tag{ID: id, Name: cmd.Name, Slug: cmd.Slug}
	return id, nil
}

func (m *memStore) UpdateTag(_ context.Context, id int64, cmd TagCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tags[id]
	if !ok {
		return apperr.E(apperr.NotFound, "mem", "tag not found", nil)
	}
	t.Name, t.Slug = cmd.Name, cmd.Slug
	return nil
}

func (m *memStore) DeleteTag(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[id]; !ok {
		return apperr.E(apperr.NotFound, "mem", "tag not found", nil)
	}
	delete(m.tags, id)
	return nil
}

// recordingNotifier captures revalidation signals.
type recordingNotifier struct {
	paths    []string
	prefixes []string
}

func (n *recordingNotifier) Revalidate(paths ...string) { n.paths = append(n.paths, paths...) }
func (n *recordingNotifier) RevalidatePrefix(prefixes ...string) {
	n.prefixes = append(n.prefixes, prefixes...)
}

func newTestServer(store Store, notify *recordingNotifier) http.Handler {
	h := NewHandler(store, notify, nil)
	r := chi.NewRouter()
	RegisterPublicRoutes(r, h)
	r.Route("/admin", func(r chi.Router) { RegisterAdminRoutes(r, h) })
	return r
}

func send(t *testing.T, srv http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func categoryIDs(cats []Category) []int64 {
	ids := make([]int64, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	return ids
}

func TestCreateArticleThenFetchBySlug(t *testing.T) {
	store := newMemStore()
	notify := &recordingNotifier{}
	srv := newTestServer(store, notify)

	parks := decode[utils.Result](t, send(t, srv, http.MethodPost, "/admin/categories", url.Values{"name": {"Parks"}, "slug": {"parks"}})).ID
	city := decode[utils.Result](t, send(t, srv, http.MethodPost, "/admin/categories", url.Values{"name": {"City"}})).ID
	tag := decode[utils.Result](t, send(t, srv, http.MethodPost, "/admin/tags", url.Values{"name": {"Storm"}})).ID

	rec := send(t, srv, http.MethodPost, "/admin/articles", url.Values{
		"title":      {"Parks reopen"},
		"categories": {joinIDs(city, parks)},
		"tags":       {joinIDs(tag)},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[utils.Result](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "/admin/articles", res.RedirectURL)

	rec = send(t, srv, http.MethodGet, "/articles/parks-reopen", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ArticlePage](t, rec)
	assert.ElementsMatch(t, []int64{parks, city}, categoryIDs(page.Article.Categories))
	require.Len(t, page.Article.Tags, 1)
	assert.Equal(t, tag, page.Article.Tags[0].ID)

	assert.Contains(t, notify.paths, "/")
	assert.Contains(t, notify.prefixes, "/articles")
}

func TestUpdateArticleReplacesCategorySet(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store, &recordingNotifier{})

	a, _ := store.CreateCategory(context.Background(), CategoryCommand{Name: "A", Slug: "a"})
	b, _ := store.CreateCategory(context.Background(), CategoryCommand{Name: "B", Slug: "b"})
	c, _ := store.CreateCategory(context.Background(), CategoryCommand{Name: "C", Slug: "c"})
	id, err := store.CreateArticle(context.Background(), ArticleCommand{Title: "T", Slug: "t", ReadingTime: 5, CategoryIDs: []int64{a, c}})
	require.NoError(t, err)

	rec := send(t, srv, http.MethodPut, "/admin/articles/"+itoa(id), url.Values{"title": {"T"}, "slug": {"t"}, "categories": {joinIDs(a, b)}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[Article](t, send(t, srv, http.MethodGet, "/admin/articles/"+itoa(id), nil))
	assert.ElementsMatch(t, []int64{a, b}, categoryIDs(got.Categories))
}

func TestCategoryPageAndDeletion(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store, &recordingNotifier{})

	parks, _ := store.CreateCategory(context.Background(), CategoryCommand{Name: "Parks", Slug: "parks"})
	id, err := store.CreateArticle(context.Background(), ArticleCommand{Title: "Trail", Slug: "trail", ReadingTime: 5, CategoryIDs: []int64{parks}})
	require.NoError(t, err)

	page := decode[CategoryPage](t, send(t, srv, http.MethodGet, "/categories/parks", nil))
	assert.Equal(t, "Parks", page.Category.Name)
	require.Len(t, page.Articles, 1)
	assert.Equal(t, id, page.Articles[0].ID)

	rec := send(t, srv, http.MethodDelete, "/admin/categories/"+itoa(parks), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[Article](t, send(t, srv, http.MethodGet, "/admin/articles/"+itoa(id), nil))
	assert.Empty(t, got.Categories)
	assert.Equal(t, http.StatusNotFound, send(t, srv, http.MethodGet, "/categories/parks", nil).Code)
}

func TestWriteErrorsMapToStatus(t *testing.T) {
	store := newMemStore()
	notify := &recordingNotifier{}
	srv := newTestServer(store, notify)

	rec := send(t, srv, http.MethodPost, "/admin/articles", url.Values{"title": {"X"}, "reading_time": {"soon"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decode[utils.Result](t, rec)
	assert.False(t, res.Success)
	assert.Contains(t, res.Fields, "reading_time")

	rec = send(t, srv, http.MethodPost, "/admin/articles", url.Values{"title": {"X"}, "categories": {"99"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	send(t, srv, http.MethodPost, "/admin/articles", url.Values{"title": {"Dup"}})
	rec = send(t, srv, http.MethodPost, "/admin/articles", url.Values{"title": {"Dup"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "slug already in use")

	assert.Equal(t, http.StatusNotFound, send(t, srv, http.MethodDelete, "/admin/articles/404", nil).Code)
	assert.Equal(t, http.StatusNotFound, send(t, srv, http.MethodGet, "/admin/articles/abc", nil).Code)

	// Only the one successful write signalled.
	assert.Equal(t, []string{"/"}, notify.paths)
}

func TestStorageFailureIsNotNotFound(t *testing.T) {
	store := newMemStore()
	store.failWith = apperr.Storage("mem", errors.New("connection reset"))
	srv := newTestServer(store, &recordingNotifier{})

	rec := send(t, srv, http.MethodGet, "/articles", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHomeAndDashboard(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(store, &recordingNotifier{})
	ctx := context.Background()

	for i, title := range []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"} {
		_, err := store.CreateArticle(ctx, ArticleCommand{Title: title, Slug: strings.ToLower(title), ReadingTime: 5, IsFeatured: i == 1})
		require.NoError(t, err)
	}

	home := decode[HomePage](t, send(t, srv, http.MethodGet, "/", nil))
	require.NotNil(t, home.Featured)
	assert.Equal(t, "Two", home.Featured.Title)
	assert.Len(t, home.Latest, homeLatestCount)
	assert.Equal(t, "Seven", home.Latest[0].Title)

	dash := decode[Dashboard](t, send(t, srv, http.MethodGet, "/admin", nil))
	assert.Equal(t, int64(7), dash.Stats.Articles)
	assert.Len(t, dash.Recent, dashboardRecentSize)

	assert.Equal(t, http.StatusUnprocessableEntity, send(t, srv, http.MethodGet, "/articles?limit=many", nil).Code)
	list := decode[[]Article](t, send(t, srv, http.MethodGet, "/articles?limit=2&offset=1", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Six", list[0].Title)
}

func joinIDs(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = itoa(id)
	}
	return strings.Join(parts, ",")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
