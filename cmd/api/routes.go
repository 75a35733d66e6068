package main

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/policy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(app.notFound)
	router.MethodNotAllowed(app.methodNotAllowed)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(app.LogRequests)
	router.Use(app.Instrument)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Method(http.MethodGet, "/metrics", app.metrics.handler())
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/token", app.obtainToken)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Use(app.requirePermission(policy.ReadOnlyOrAdmin))
			catalogHandlers[models.Category]{app, app.Services.Categories, "category", "categories"}.routes(r)
		})
		r.Route("/genres", func(r chi.Router) {
			r.Use(app.requirePermission(policy.ReadOnlyOrAdmin))
			catalogHandlers[models.Genre]{app, app.Services.Genres, "genre", "genres"}.routes(r)
		})
		r.Route("/titles", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(app.requirePermission(policy.ReadOnlyOrAdmin))
				r.Get("/", app.listTitles)
				r.Post("/", app.createTitle)
				r.Get("/{title_id}", app.getTitle)
				r.Put("/{title_id}", app.replaceTitle)
				r.Patch("/{title_id}", app.updateTitle)
				r.Delete("/{title_id}", app.deleteTitle)
			})
			r.Route("/{title_id}/reviews", func(r chi.Router) {
				r.Use(app.requirePermission(policy.AuthorOrModerator))
				r.Get("/", app.listReviews)
				r.Post("/", app.createReview)
				r.Get("/{review_id}", app.getReview)
				r.Patch("/{review_id}", app.updateReview)
				r.Delete("/{review_id}", app.deleteReview)
				r.Route("/{review_id}/comments", func(r chi.Router) {
					r.Get("/", app.listComments)
					r.Post("/", app.createComment)
					r.Get("/{comment_id}", app.getComment)
					r.Patch("/{comment_id}", app.updateComment)
					r.Delete("/{comment_id}", app.deleteComment)
				})
			})
		})
		r.Route("/users", func(r chi.Router) {
			r.With(app.requirePermission(policy.AuthorMatch)).Get("/me", app.getMe)
			r.With(app.requirePermission(policy.AuthorMatch)).Patch("/me", app.updateMe)
			r.Group(func(r chi.Router) {
				r.Use(app.requirePermission(policy.AdminOnly))
				r.Get("/", app.listUsers)
				r.Post("/", app.createUser)
				r.Get("/{username}", app.getUser)
				r.Patch("/{username}", app.updateUser)
				r.Delete("/{username}", app.deleteUser)
			})
		})
	})
	return router
}
