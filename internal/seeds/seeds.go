// Package seeds loads categories, tags, articles and related-article links
// from a YAML file. It is the only writer of related_articles.
package seeds

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/content"
	"github.com/goccy/go-yaml"
)

type File struct {
	Categories []Category `yaml:"categories"`
	Tags       []Tag      `yaml:"tags"`
	Articles   []Article  `yaml:"articles"`
}

type Category struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type Tag struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Article refers to categories, tags and related articles by slug.
type Article struct {
	Title         string     `yaml:"title"`
	Slug          string     `yaml:"slug"`
	Content       string     `yaml:"content"`
	Excerpt       string     `yaml:"excerpt"`
	FeaturedImage string     `yaml:"featured_image"`
	Author        string     `yaml:"author"`
	AuthorImage   string     `yaml:"author_image"`
	AuthorRole    string     `yaml:"author_role"`
	ReadingTime   int        `yaml:"reading_time"`
	Featured      bool       `yaml:"is_featured"`
	PublishedAt   *time.Time `yaml:"published_at"`
	Categories    []string   `yaml:"categories"`
	Tags          []string   `yaml:"tags"`
	Related       []string   `yaml:"related"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse rejects unknown keys so a typo does not silently drop data.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Store is the slice of content.Repository the seeder writes through.
type Store interface {
	GetCategoryBySlug(ctx context.Context, slug string) (*content.Category, error)
	GetTagBySlug(ctx context.Context, slug string) (*content.Tag, error)
	GetArticleBySlug(ctx context.Context, slug string) (*content.Article, error)
	CreateCategory(ctx context.Context, cmd content.CategoryCommand) (int64, error)
	CreateTag(ctx context.Context, cmd content.TagCommand) (int64, error)
	CreateArticle(ctx context.Context, cmd content.ArticleCommand) (int64, error)
	LinkRelated(ctx context.Context, articleID int64, relatedIDs ...int64) error
}

type Report struct {
	Categories int
	Tags       int
	Articles   int
	Related    int
	Skipped    int
}

// Seed inserts everything in f that is not already present, matched by
// slug. Existing rows are left untouched, so running it twice is safe.
func Seed(ctx context.Context, store Store, f *File) (Report, error) {
	var rep Report
	catIDs := map[string]int64{}
	tagIDs := map[string]int64{}
	artIDs := map[string]int64{}

	for _, c := range f.Categories {
		cmd, err := content.ParseCategoryForm(url.Values{"name": {c.Name}, "slug": {c.Slug}, "description": {c.Description}})
		if err != nil {
			return rep, fmt.Errorf("category %q: %w", c.Name, err)
		}
		existing, err := store.GetCategoryBySlug(ctx, cmd.Slug)
		switch {
		case err == nil:
			log.Printf("⚠️ Category exists, skipping: %s", cmd.Slug)
			catIDs[cmd.Slug] = existing.ID
			rep.Skipped++
			continue
		case apperr.KindOf(err) != apperr.NotFound:
			return rep, err
		}
		id, err := store.CreateCategory(ctx, cmd)
		if err != nil {
			return rep, fmt.Errorf("failed to create category %s: %w", cmd.Slug, err)
		}
		catIDs[cmd.Slug] = id
		rep.Categories++
	}

	for _, t := range f.Tags {
		cmd, err := content.ParseTagForm(url.Values{"name": {t.Name}, "slug": {t.Slug}})
		if err != nil {
			return rep, fmt.Errorf("tag %q: %w", t.Name, err)
		}
		existing, err := store.GetTagBySlug(ctx, cmd.Slug)
		switch {
		case err == nil:
			log.Printf("⚠️ Tag exists, skipping: %s", cmd.Slug)
			tagIDs[cmd.Slug] = existing.ID
			rep.Skipped++
			continue
		case apperr.KindOf(err) != apperr.NotFound:
			return rep, err
		}
		id, err := store.CreateTag(ctx, cmd)
		if err != nil {
			return rep, fmt.Errorf("failed to create tag %s: %w", cmd.Slug, err)
		}
		tagIDs[cmd.Slug] = id
		rep.Tags++
	}

	for _, a := range f.Articles {
		form, err := articleForm(a, catIDs, tagIDs)
		if err != nil {
			return rep, err
		}
		cmd, err := content.ParseArticleForm(form)
		if err != nil {
			return rep, fmt.Errorf("article %q: %w", a.Title, err)
		}
		cmd.PublishedAt = a.PublishedAt

		existing, err := store.GetArticleBySlug(ctx, cmd.Slug)
		switch {
		case err == nil:
			log.Printf("⚠️ Article exists, skipping: %s", cmd.Slug)
			artIDs[cmd.Slug] = existing.ID
			rep.Skipped++
			continue
		case apperr.KindOf(err) != apperr.NotFound:
			return rep, err
		}
		id, err := store.CreateArticle(ctx, cmd)
		if err != nil {
			return rep, fmt.Errorf("failed to create article %s: %w", cmd.Slug, err)
		}
		artIDs[cmd.Slug] = id
		rep.Articles++
	}

	// Links go last so they can point at articles defined later in the file.
	for _, a := range f.Articles {
		if len(a.Related) == 0 {
			continue
		}
		from, ok := artIDs[articleSlug(a)]
		if !ok {
			continue
		}
		related := make([]int64, 0, len(a.Related))
		for _, s := range a.Related {
			id, ok := artIDs[s]
			if !ok {
				return rep, fmt.Errorf("article %q: unknown related article %q", a.Slug, s)
			}
			related = append(related, id)
		}
		if err := store.LinkRelated(ctx, from, related...); err != nil {
			return rep, err
		}
		rep.Related += len(related)
	}

	log.Printf("✅ Seeded %d categories, %d tags, %d articles, %d related links (%d skipped)",
		rep.Categories, rep.Tags, rep.Articles, rep.Related, rep.Skipped)
	return rep, nil
}

func articleSlug(a Article) string {
	form, _ := articleForm(Article{Title: a.Title, Slug: a.Slug}, nil, nil)
	cmd, _ := content.ParseArticleForm(form)
	return cmd.Slug
}

// articleForm renders a seed article as the admin form would post it.
func articleForm(a Article, catIDs, tagIDs map[string]int64) (url.Values, error) {
	cats, err := resolve("category", a.Categories, catIDs)
	if err != nil {
		return nil, fmt.Errorf("article %q: %w", a.Title, err)
	}
	tags, err := resolve("tag", a.Tags, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("article %q: %w", a.Title, err)
	}
	form := url.Values{
		"title":          {a.Title},
		"slug":           {a.Slug},
		"content":        {a.Content},
		"excerpt":        {a.Excerpt},
		"featured_image": {a.FeaturedImage},
		"author":         {a.Author},
		"author_image":   {a.AuthorImage},
		"author_role":    {a.AuthorRole},
		"categories":     {cats},
		"tags":           {tags},
	}
	if a.ReadingTime != 0 {
		form.Set("reading_time", strconv.Itoa(a.ReadingTime))
	}
	if a.Featured {
		form.Set("is_featured", "on")
	}
	return form, nil
}

func resolve(kind string, slugs []string, known map[string]int64) (string, error) {
	parts := make([]string, 0, len(slugs))
	for _, s := range slugs {
		id, ok := known[s]
		if !ok {
			return "", fmt.Errorf("unknown %s %q", kind, s)
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ","), nil
}
