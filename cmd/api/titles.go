package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/services/titles"
)

type titleQuery struct {
	filters.Filters
	filters.TitleFilter
}

func (app *Application) listTitles(w http.ResponseWriter, r *http.Request) {
	var q titleQuery
	if !app.readQuery(w, r, &q) {
		return
	}
	list, meta, err := app.Services.Titles.List(r.Context(), q.TitleFilter, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"titles": list, "metadata": meta}, "")
}

func (app *Application) getTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	title, err := app.Services.Titles.Get(r.Context(), id)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

// titleRequest is the full write shape used by POST and PUT.
type titleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        *int32   `json:"year" validate:"required,notfuture"`
	Description string   `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,max=50,slug"`
	Genres      []string `json:"genre" validate:"required,min=1,dive,max=50,slug"`
}

func (req titleRequest) params() models.TitleParams {
	return models.TitleParams{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genres,
	}
}

func (app *Application) createTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	title, err := app.Services.Titles.Create(r.Context(), req.params())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"title": title}, "")
}

func (app *Application) replaceTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var req titleRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	p := req.params()
	title, err := app.Services.Titles.Update(r.Context(), id, titles.TitlePatch{
		Name:        &p.Name,
		Year:        &p.Year,
		Description: &p.Description,
		Category:    p.Category,
		Genres:      p.Genres,
	})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) updateTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var req struct {
		Name        *string  `json:"name" validate:"omitempty,max=256"`
		Year        *int32   `json:"year" validate:"omitempty,notfuture"`
		Description *string  `json:"description"`
		Category    *string  `json:"category" validate:"omitempty,max=50,slug"`
		Genres      []string `json:"genre" validate:"omitempty,min=1,dive,max=50,slug"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	title, err := app.Services.Titles.Update(r.Context(), id, titles.TitlePatch{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genres,
	})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"title": title}, "")
}

func (app *Application) deleteTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	if err := app.Services.Titles.Delete(r.Context(), id); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
