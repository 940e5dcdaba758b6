package seeds

import (
	"context"
	"testing"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	next       int64
	categories map[string]int64
	tags       map[string]int64
	articles   map[string]content.ArticleCommand
	articleIDs map[string]int64
	related    map[int64][]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories: map[string]int64{},
		tags:       map[string]int64{},
		articles:   map[string]content.ArticleCommand{},
		articleIDs: map[string]int64{},
		related:    map[int64][]int64{},
	}
}

func notFound() error { return apperr.E(apperr.NotFound, "fake", "not found", nil) }

func (f *fakeStore) GetCategoryBySlug(_ context.Context, slug string) (*content.Category, error) {
	if id, ok := f.categories[slug]; ok {
		return &content.Category{ID: id, Slug: slug}, nil
	}
	return nil, notFound()
}

func (f *fakeStore) GetTagBySlug(_ context.Context, slug string) (*content.Tag, error) {
	if id, ok := f.tags[slug]; ok {
		return &content.Tag{ID: id, Slug: slug}, nil
	}
	return nil, notFound()
}

func (f *fakeStore) GetArticleBySlug(_ context.Context, slug string) (*content.Article, error) {
	if id, ok := f.articleIDs[slug]; ok {
		return &content.Article{ID: id, Slug: slug}, nil
	}
	return nil, notFound()
}

func (f *fakeStore) CreateCategory(_ context.Context, cmd content.CategoryCommand) (int64, error) {
	f.next++
	f.categories[cmd.Slug] = f.next
	return f.next, nil
}

func (f *fakeStore) CreateTag(_ context.Context, cmd content.TagCommand) (int64, error) {
	f.next++
	f.tags[cmd.Slug] = f.next
	return f.next, nil
}

func (f *fakeStore) CreateArticle(_ context.Context, cmd content.ArticleCommand) (int64, error) {
	f.next++
	f.articles[cmd.Slug] = cmd
	f.articleIDs[cmd.Slug] = f.next
	return f.next, nil
}

func (f *fakeStore) LinkRelated(_ context.Context, articleID int64, relatedIDs ...int64) error {
	f.related[articleID] = append(f.related[articleID], relatedIDs...)
	return nil
}

func TestLoadSampleAndSeed(t *testing.T) {
	file, err := Load("testdata/sample.yaml")
	require.NoError(t, err)
	require.Len(t, file.Articles, 2)

	store := newFakeStore()
	rep, err := Seed(context.Background(), store, file)
	require.NoError(t, err)

	assert.Equal(t, Report{Categories: 2, Tags: 2, Articles: 2, Related: 2}, rep)
	assert.Contains(t, store.categories, "medio-ambiente")
	assert.Contains(t, store.tags, "elecciones-2024")

	parks := store.articles["los-parques-reabren-tras-la-tormenta"]
	assert.True(t, parks.IsFeatured)
	assert.Equal(t, 4, parks.ReadingTime)
	require.NotNil(t, parks.PublishedAt)
	assert.Equal(t, 2024, parks.PublishedAt.Year())
	assert.ElementsMatch(t, []int64{store.categories["medio-ambiente"], store.categories["ciudad"]}, parks.CategoryIDs)

	bike := store.articles["nuevo-carril-bici"]
	assert.Equal(t, content.DefaultReadingTime, bike.ReadingTime)
	assert.Equal(t, []int64{store.articleIDs["nuevo-carril-bici"]}, store.related[store.articleIDs["los-parques-reabren-tras-la-tormenta"]])

	// A second run creates nothing new.
	again, err := Seed(context.Background(), store, file)
	require.NoError(t, err)
	assert.Zero(t, again.Categories+again.Tags+again.Articles)
	assert.Equal(t, 6, again.Skipped)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("categories:\n  - nmae: Typo\n"))
	assert.Error(t, err)
}

func TestSeedUnknownCategory(t *testing.T) {
	file, err := Parse([]byte("articles:\n  - title: Lost\n    categories: [nowhere]\n"))
	require.NoError(t, err)

	_, err = Seed(context.Background(), newFakeStore(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "nowhere"`)
}
