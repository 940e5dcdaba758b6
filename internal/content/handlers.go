package content

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/news-portal/internal/apperr"
	"github.com/EmpoweredVote/news-portal/internal/metrics"
	"github.com/EmpoweredVote/news-portal/internal/revalidate"
	"github.com/EmpoweredVote/news-portal/internal/utils"
	"github.com/go-chi/chi/v5"
)

const (
	homeLatestCount     = 6
	categoryPageSize    = 12
	dashboardRecentSize = 5
	maxFormMemory       = 1 << 20
)

// Store is the repository surface the handlers use. *Repository satisfies it.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListArticles(ctx context.Context, page Page) ([]Article, error)
	ListAllArticles(ctx context.Context) ([]Article, error)
	ListFeaturedArticles(ctx context.Context, limit int) ([]Article, error)
	ListArticlesByCategory(ctx context.Context, categorySlug string, page Page) ([]Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*Article, error)
	GetArticleByID(ctx context.Context, id int64) (*Article, error)
	ListRelatedArticles(ctx context.Context, articleID int64, limit int) ([]Article, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	GetTag(ctx context.Context, id int64) (*Tag, error)
	Stats(ctx context.Context) (Stats, error)

	CreateArticle(ctx context.Context, cmd ArticleCommand) (int64, error)
	UpdateArticle(ctx context.Context, id int64, cmd ArticleCommand) error
	DeleteArticle(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, cmd CategoryCommand) (int64, error)
	UpdateCategory(ctx context.Context, id int64, cmd CategoryCommand) error
	DeleteCategory(ctx context.Context, id int64) error
	CreateTag(ctx context.Context, cmd TagCommand) (int64, error)
	UpdateTag(ctx context.Context, id int64, cmd TagCommand) error
	DeleteTag(ctx context.Context, id int64) error
}

type Handler struct {
	store   Store
	notify  revalidate.Notifier
	metrics *metrics.Metrics
}

func NewHandler(store Store, notify revalidate.Notifier, m *metrics.Metrics) *Handler {
	if notify == nil {
		notify = revalidate.Nop{}
	}
	return &Handler{store: store, notify: notify, metrics: m}
}

// ---------- public ----------

type HomePage struct {
	Featured   *Article   `json:"featured"`
	Latest     []Article  `json:"latest"`
	Categories []Category `json:"categories"`
}

// Home is the front page: the newest featured article, the latest six and
// the category navigation.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	featured, err := h.store.ListFeaturedArticles(ctx, 1)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	latest, err := h.store.ListArticles(ctx, Page{Limit: homeLatestCount})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cats, err := h.store.ListCategories(ctx)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	page := HomePage{Latest: latest, Categories: cats}
	if len(featured) > 0 {
		page.Featured = &featured[0]
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r.URL.Query(), DefaultPageSize)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	articles, err := h.store.ListArticles(r.Context(), page)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, articles)
}

func (h *Handler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r.URL.Query(), "limit", DefaultFeaturedLimit)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	articles, err := h.store.ListFeaturedArticles(r.Context(), limit)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, articles)
}

type ArticlePage struct {
	Article *Article  `json:"article"`
	Related []Article `json:"related"`
}

func (h *Handler) ArticleDetail(w http.ResponseWriter, r *http.Request) {
	article, err := h.store.GetArticleBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	related, err := h.store.ListRelatedArticles(r.Context(), article.ID, DefaultRelatedLimit)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ArticlePage{Article: article, Related: related})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cats)
}

type CategoryPage struct {
	Category *Category `json:"category"`
	Articles []Article `json:"articles"`
}

func (h *Handler) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := pageFromQuery(r.URL.Query(), categoryPageSize)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cat, err := h.store.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	articles, err := h.store.ListArticlesByCategory(r.Context(), slug, page)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, CategoryPage{Category: cat, Articles: articles})
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tags)
}

// ---------- admin ----------

type Dashboard struct {
	Stats  Stats     `json:"stats"`
	Recent []Article `json:"recent"`
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	recent, err := h.store.ListArticles(r.Context(), Page{Limit: dashboardRecentSize})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, Dashboard{Stats: stats, Recent: recent})
}

func (h *Handler) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.store.ListAllArticles(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, articles)
}

func (h *Handler) AdminGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	article, err := h.store.GetArticleByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseArticleForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := h.store.CreateArticle(r.Context(), cmd)
	h.metrics.ContentWrite("article", "create", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	log.Printf("[content] created article %d (%s)", id, cmd.Slug)
	h.articlesChanged()
	utils.WriteJSON(w, http.StatusCreated, utils.Result{Success: true, RedirectURL: "/admin/articles", ID: id})
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseArticleForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.UpdateArticle(r.Context(), id, cmd)
	h.metrics.ContentWrite("article", "update", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	log.Printf("[content] updated article %d", id)
	h.articlesChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true, RedirectURL: "/admin/articles", ID: id})
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.DeleteArticle(r.Context(), id)
	h.metrics.ContentWrite("article", "delete", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	log.Printf("[content] deleted article %d", id)
	h.articlesChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true})
}

func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	h.ListCategories(w, r)
}

func (h *Handler) AdminGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cat, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cat)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseCategoryForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := h.store.CreateCategory(r.Context(), cmd)
	h.metrics.ContentWrite("category", "create", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	log.Printf("[content] created category %d (%s)", id, cmd.Slug)
	h.categoriesChanged()
	utils.WriteJSON(w, http.StatusCreated, utils.Result{Success: true, RedirectURL: "/admin/categories", ID: id})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseCategoryForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.UpdateCategory(r.Context(), id, cmd)
	h.metrics.ContentWrite("category", "update", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.categoriesChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true, RedirectURL: "/admin/categories", ID: id})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.DeleteCategory(r.Context(), id)
	h.metrics.ContentWrite("category", "delete", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	log.Printf("[content] deleted category %d", id)
	h.categoriesChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true})
}

func (h *Handler) AdminListTags(w http.ResponseWriter, r *http.Request) {
	h.ListTags(w, r)
}

func (h *Handler) AdminGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	tag, err := h.store.GetTag(r.Context(), id)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tag)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseTagForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	id, err := h.store.CreateTag(r.Context(), cmd)
	h.metrics.ContentWrite("tag", "create", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.tagsChanged()
	utils.WriteJSON(w, http.StatusCreated, utils.Result{Success: true, RedirectURL: "/admin/tags", ID: id})
}

func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	form, err := readForm(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	cmd, err := ParseTagForm(form)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.UpdateTag(r.Context(), id, cmd)
	h.metrics.ContentWrite("tag", "update", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.tagsChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true, RedirectURL: "/admin/tags", ID: id})
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	err = h.store.DeleteTag(r.Context(), id)
	h.metrics.ContentWrite("tag", "delete", err)
	if err != nil {
		utils.WriteError(w, err)
		return
	}

	h.tagsChanged()
	utils.WriteJSON(w, http.StatusOK, utils.Result{Success: true})
}

// Revalidation targets. Article listings embed categories and article
// detail embeds tags, so both taxonomies reach into /articles.
func (h *Handler) articlesChanged() {
	h.notify.Revalidate("/")
	h.notify.RevalidatePrefix("/articles", "/categories/")
}

func (h *Handler) categoriesChanged() {
	h.notify.Revalidate("/")
	h.notify.RevalidatePrefix("/categories", "/articles")
}

func (h *Handler) tagsChanged() {
	h.notify.Revalidate("/tags")
	h.notify.RevalidatePrefix("/articles/")
}

// ---------- request helpers ----------

func readForm(r *http.Request) (url.Values, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, apperr.E(apperr.Validation, "content.readForm", "invalid form body", err)
	}
	return r.PostForm, nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.E(apperr.NotFound, "content.idParam", "not found", nil)
	}
	return id, nil
}

func intQuery(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ValidationError{Fields: map[string]string{key: "must be a non-negative integer"}}
	}
	return n, nil
}

func pageFromQuery(q url.Values, defaultLimit int) (Page, error) {
	limit, err := intQuery(q, "limit", defaultLimit)
	if err != nil {
		return Page{}, err
	}
	offset, err := intQuery(q, "offset", 0)
	if err != nil {
		return Page{}, err
	}
	return Page{Limit: limit, Offset: offset}, nil
}
