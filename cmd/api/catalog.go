package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/catalog"

	"github.com/go-chi/chi/v5"
)

type searchQuery struct {
	filters.Filters
	Search string `schema:"search" validate:"max=256"`
}

// catalogHandlers serves categories and genres, which differ only in
// their payload key.
type catalogHandlers[T models.Category | models.Genre] struct {
	app      *Application
	svc      *catalog.Service[T]
	single   string
	multiple string
}

func (h catalogHandlers[T]) list(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if !h.app.readQuery(w, r, &q) {
		return
	}
	items, meta, err := h.svc.List(r.Context(), q.Search, q.Filters)
	if err != nil {
		h.app.handleServiceError(w, r, err)
		return
	}
	h.app.Http.Ok(w, r, envelop{h.multiple: items, "metadata": meta}, "")
}

func (h catalogHandlers[T]) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=256"`
		Slug string `json:"slug" validate:"required,max=50,slug"`
	}
	if !h.app.readJSON(w, r, &req) {
		return
	}
	item, err := h.svc.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		h.app.handleServiceError(w, r, err)
		return
	}
	h.app.Http.Created(w, r, envelop{h.single: item}, "")
}

func (h catalogHandlers[T]) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		h.app.handleServiceError(w, r, err)
		return
	}
	h.app.Http.NoContent(w, r)
}

func (h catalogHandlers[T]) routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{slug}", h.delete)
}
