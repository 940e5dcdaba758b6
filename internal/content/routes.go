package content

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes mounts the read-only pages. No session is needed.
func RegisterPublicRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Home)
	r.Get("/articles", h.ListArticles)
	r.Get("/articles/featured", h.ListFeatured)
	r.Get("/articles/{slug}", h.ArticleDetail)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{slug}", h.CategoryDetail)
	r.Get("/tags", h.ListTags)
}

// RegisterAdminRoutes mounts the dashboard and CRUD endpoints. The caller
// must put r behind the session middleware. POST on an {id} path is kept
// for HTML forms, which cannot send PUT.
func RegisterAdminRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Dashboard)

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.AdminListArticles)
		r.Post("/", h.CreateArticle)
		r.Get("/{id}", h.AdminGetArticle)
		r.Put("/{id}", h.UpdateArticle)
		r.Post("/{id}", h.UpdateArticle)
		r.Delete("/{id}", h.DeleteArticle)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.AdminListCategories)
		r.Post("/", h.CreateCategory)
		r.Get("/{id}", h.AdminGetCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Post("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.AdminListTags)
		r.Post("/", h.CreateTag)
		r.Get("/{id}", h.AdminGetTag)
		r.Put("/{id}", h.UpdateTag)
		r.Post("/{id}", h.UpdateTag)
		r.Delete("/{id}", h.DeleteTag)
	})
}
