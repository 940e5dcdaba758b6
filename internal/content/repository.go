// Package content is the article, category and tag store behind the public
// pages and the admin area.
//
// Reads need no authentication. Writes assume the caller already passed the
// auth gate; the repository does not check. Every write that touches more
// than one row runs in a single transaction.
package content

import (
	"context"
	"errors"
	"time"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// listColumns is every article column except content.
var listColumns = []string{
	"articles.id", "articles.title", "articles.slug", "articles.excerpt",
	"articles.featured_image", "articles.author", "articles.author_image",
	"articles.author_role", "articles.published_at", "articles.reading_time",
	"articles.is_featured", "articles.created_at", "articles.updated_at",
}

const (
	DefaultFeaturedLimit = 3
	DefaultRelatedLimit  = 3
)

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// ---------- reads ----------

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, apperr.Storage("content.ListCategories", err)
	}
	return cats, nil
}

func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperr.Storage("content.ListTags", err)
	}
	return tags, nil
}

// ListArticles returns one page, newest published first.
func (r *Repository) ListArticles(ctx context.Context, page Page) ([]Article, error) {
	page = page.normalize()
	var articles []Article
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Order("articles.published_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Storage("content.ListArticles", err)
	}
	return r.withCategories(ctx, "content.ListArticles", articles)
}

// ListAllArticles is the unpaginated admin listing.
func (r *Repository) ListAllArticles(ctx context.Context) ([]Article, error) {
	var articles []Article
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Order("articles.published_at DESC").
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Storage("content.ListAllArticles", err)
	}
	return r.withCategories(ctx, "content.ListAllArticles", articles)
}

func (r *Repository) ListFeaturedArticles(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	var articles []Article
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Where("articles.is_featured = ?", true).
		Order("articles.published_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Storage("content.ListFeaturedArticles", err)
	}
	return r.withCategories(ctx, "content.ListFeaturedArticles", articles)
}

// ListArticlesByCategory joins through article_categories. An unknown slug
// yields an empty list, not NotFound.
func (r *Repository) ListArticlesByCategory(ctx context.Context, categorySlug string, page Page) ([]Article, error) {
	page = page.normalize()
	var articles []Article
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Joins("JOIN article_categories ac ON ac.article_id = articles.id").
		Joins("JOIN categories c ON c.id = ac.category_id").
		Where("c.slug = ?", categorySlug).
		Order("articles.published_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Storage("content.ListArticlesByCategory", err)
	}
	return r.withCategories(ctx, "content.ListArticlesByCategory", articles)
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*Article, error) {
	return r.getArticle(ctx, "content.GetArticleBySlug", "slug = ?", slug)
}

func (r *Repository) GetArticleByID(ctx context.Context, id int64) (*Article, error) {
	return r.getArticle(ctx, "content.GetArticleByID", "id = ?", id)
}

func (r *Repository) getArticle(ctx context.Context, op, cond string, arg any) (*Article, error) {
	var a Article
	err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") }).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Where(cond, arg).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.E(apperr.NotFound, op, "article not found", nil)
	}
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return &a, nil
}

// ListRelatedArticles follows related_articles from articleID.
func (r *Repository) ListRelatedArticles(ctx context.Context, articleID int64, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	var articles []Article
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Joins("JOIN related_articles ra ON ra.related_article_id = articles.id").
		Where("ra.article_id = ?", articleID).
		Order("articles.published_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, apperr.Storage("content.ListRelatedArticles", err)
	}
	return articles, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := r.take(ctx, "content.GetCategory", "category", &c, "id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	if err := r.take(ctx, "content.GetCategoryBySlug", "category", &c, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var t Tag
	if err := r.take(ctx, "content.GetTag", "tag", &t, "id = ?", id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) GetTagBySlug(ctx context.Context, slug string) (*Tag, error) {
	var t Tag
	if err := r.take(ctx, "content.GetTagBySlug", "tag", &t, "slug = ?", slug); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) take(ctx context.Context, op, entity string, dest any, cond string, arg any) error {
	err := r.db.WithContext(ctx).Where(cond, arg).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.E(apperr.NotFound, op, entity+" not found", nil)
	}
	if err != nil {
		return apperr.Storage(op, err)
	}
	return nil
}

func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)
	if err := db.Model(&Article{}).Count(&s.Articles).Error; err != nil {
		return Stats{}, apperr.Storage("content.Stats", err)
	}
	if err := db.Model(&Category{}).Count(&s.Categories).Error; err != nil {
		return Stats{}, apperr.Storage("content.Stats", err)
	}
	if err := db.Model(&Tag{}).Count(&s.Tags).Error; err != nil {
		return Stats{}, apperr.Storage("content.Stats", err)
	}
	return s, nil
}

type articleCategoryRow struct {
	ArticleID   int64
	ID          int64
	Name        string
	Slug        string
	Description string
}

// withCategories fills Categories for a listing with one query.
func (r *Repository) withCategories(ctx context.Context, op string, articles []Article) ([]Article, error) {
	if len(articles) == 0 {
		return articles, nil
	}
	ids := make(pq.Int64Array, len(articles))
	index := make(map[int64]int, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
		index[articles[i].ID] = i
		articles[i].Categories = []Category{}
	}

	var rows []articleCategoryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT ac.article_id, c.id, c.name, c.slug, COALESCE(c.description, '') AS description
		FROM categories c
		JOIN article_categories ac ON ac.category_id = c.id
		WHERE ac.article_id = ANY(?)
		ORDER BY c.name ASC`, ids).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	for _, row := range rows {
		i := index[row.ArticleID]
		articles[i].Categories = append(articles[i].Categories, Category{
			ID: row.ID, Name: row.Name, Slug: row.Slug, Description: row.Description,
		})
	}
	return articles, nil
}

// ---------- writes ----------

// inTx runs fn in a transaction that is rolled back on error or panic. A
// failed COMMIT leaves the outcome unknown to us and is reported as
// PartialWriteRisk.
func (r *Repository) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperr.Storage(op, tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return classify(op, err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperr.E(apperr.PartialWriteRisk, op, "commit failed; write may be incomplete", err)
	}
	return nil
}

// CreateArticle inserts the article and its join rows atomically.
func (r *Repository) CreateArticle(ctx context.Context, cmd ArticleCommand) (int64, error) {
	now := r.now().UTC()
	a := Article{
		Title:         cmd.Title,
		Slug:          cmd.Slug,
		Content:       cmd.Content,
		Excerpt:       cmd.Excerpt,
		FeaturedImage: cmd.FeaturedImage,
		Author:        cmd.Author,
		AuthorImage:   cmd.AuthorImage,
		AuthorRole:    cmd.AuthorRole,
		PublishedAt:   now,
		ReadingTime:   cmd.ReadingTime,
		IsFeatured:    cmd.IsFeatured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cmd.PublishedAt != nil {
		a.PublishedAt = cmd.PublishedAt.UTC()
	}

	err := r.inTx(ctx, "content.CreateArticle", func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&a).Error; err != nil {
			return err
		}
		return insertJoins(tx, a.ID, cmd.CategoryIDs, cmd.TagIDs)
	})
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// UpdateArticle overwrites the scalar fields and replaces both join sets
// with exactly the ids in cmd.
func (r *Repository) UpdateArticle(ctx context.Context, id int64, cmd ArticleCommand) error {
	fields := map[string]any{
		"title":          cmd.Title,
		"slug":           cmd.Slug,
		"content":        cmd.Content,
		"excerpt":        cmd.Excerpt,
		"featured_image": cmd.FeaturedImage,
		"author":         cmd.Author,
		"author_image":   cmd.AuthorImage,
		"author_role":    cmd.AuthorRole,
		"reading_time":   cmd.ReadingTime,
		"is_featured":    cmd.IsFeatured,
		"updated_at":     r.now().UTC(),
	}
	if cmd.PublishedAt != nil {
		fields["published_at"] = cmd.PublishedAt.UTC()
	}

	const op = "content.UpdateArticle"
	return r.inTx(ctx, op, func(tx *gorm.DB) error {
		res := tx.Model(&Article{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.NotFound, op, "article not found", nil)
		}
		if err := tx.Where("article_id = ?", id).Delete(&ArticleCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&ArticleTag{}).Error; err != nil {
			return err
		}
		return insertJoins(tx, id, cmd.CategoryIDs, cmd.TagIDs)
	})
}

// DeleteArticle removes the join rows, related links in both directions,
// and then the article.
func (r *Repository) DeleteArticle(ctx context.Context, id int64) error {
	const op = "content.DeleteArticle"
	return r.inTx(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&ArticleCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&ArticleTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ? OR related_article_id = ?", id, id).Delete(&RelatedArticle{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Article{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.NotFound, op, "article not found", nil)
		}
		return nil
	})
}

func insertJoins(tx *gorm.DB, articleID int64, categoryIDs, tagIDs []int64) error {
	if len(categoryIDs) > 0 {
		rows := make([]ArticleCategory, len(categoryIDs))
		for i, cid := range categoryIDs {
			rows[i] = ArticleCategory{ArticleID: articleID, CategoryID: cid}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(tagIDs) > 0 {
		rows := make([]ArticleTag, len(tagIDs))
		for i, tid := range tagIDs {
			rows[i] = ArticleTag{ArticleID: articleID, TagID: tid}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, cmd CategoryCommand) (int64, error) {
	now := r.now().UTC()
	c := Category{Name: cmd.Name, Slug: cmd.Slug, Description: cmd.Description, CreatedAt: now, UpdatedAt: now}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, classify("content.CreateCategory", err)
	}
	return c.ID, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id int64, cmd CategoryCommand) error {
	const op = "content.UpdateCategory"
	res := r.db.WithContext(ctx).Model(&Category{}).Where("id = ?", id).Updates(map[string]any{
		"name":        cmd.Name,
		"slug":        cmd.Slug,
		"description": cmd.Description,
		"updated_at":  r.now().UTC(),
	})
	if res.Error != nil {
		return classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.E(apperr.NotFound, op, "category not found", nil)
	}
	return nil
}

// DeleteCategory detaches the category from every article, then removes it.
// The articles themselves are untouched.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	const op = "content.DeleteCategory"
	return r.inTx(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&ArticleCategory{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.NotFound, op, "category not found", nil)
		}
		return nil
	})
}

func (r *Repository) CreateTag(ctx context.Context, cmd TagCommand) (int64, error) {
	t := Tag{Name: cmd.Name, Slug: cmd.Slug}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return 0, classify("content.CreateTag", err)
	}
	return t.ID, nil
}

func (r *Repository) UpdateTag(ctx context.Context, id int64, cmd TagCommand) error {
	const op = "content.UpdateTag"
	res := r.db.WithContext(ctx).Model(&Tag{}).Where("id = ?", id).Updates(map[string]any{
		"name": cmd.Name,
		"slug": cmd.Slug,
	})
	if res.Error != nil {
		return classify(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.E(apperr.NotFound, op, "tag not found", nil)
	}
	return nil
}

func (r *Repository) DeleteTag(ctx context.Context, id int64) error {
	const op = "content.DeleteTag"
	return r.inTx(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&ArticleTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Tag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.NotFound, op, "tag not found", nil)
		}
		return nil
	})
}

// LinkRelated records directed suggestion links. Existing pairs are kept.
// Only the seed/import path calls this.
func (r *Repository) LinkRelated(ctx context.Context, articleID int64, relatedIDs ...int64) error {
	if len(relatedIDs) == 0 {
		return nil
	}
	rows := make([]RelatedArticle, 0, len(relatedIDs))
	for _, rid := range relatedIDs {
		if rid == articleID {
			continue
		}
		rows = append(rows, RelatedArticle{ArticleID: articleID, RelatedArticleID: rid})
	}
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	return classify("content.LinkRelated", err)
}
