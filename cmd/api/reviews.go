package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/policy"
	"yamdb/proj/internal/services/reviews"
)

func (app *Application) listReviews(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var f filters.Filters
	if !app.readQuery(w, r, &f) {
		return
	}
	list, meta, err := app.Services.Reviews.List(r.Context(), titleID, f)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"reviews": list, "metadata": meta}, "")
}

func (app *Application) createReview(w http.ResponseWriter, r *http.Request) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return
	}
	var req struct {
		Text  string `json:"text" validate:"required"`
		Score int    `json:"score" validate:"score"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	review, err := app.Services.Reviews.Create(r.Context(), titleID, contextGetUser(r), req.Text, req.Score)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"review": review}, "")
}

// resolveReview loads the review addressed by the path and runs the
// object-level policy check against it.
func (app *Application) resolveReview(w http.ResponseWriter, r *http.Request) (*models.Review, bool) {
	titleID, ok := app.extractIDParam(w, r, "title_id")
	if !ok {
		return nil, false
	}
	reviewID, ok := app.extractIDParam(w, r, "review_id")
	if !ok {
		return nil, false
	}
	review, err := app.Services.Reviews.Get(r.Context(), titleID, reviewID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return nil, false
	}
	if !app.authorizeObject(w, r, policy.AuthorOrModerator, review) {
		return nil, false
	}
	return review, true
}

func (app *Application) getReview(w http.ResponseWriter, r *http.Request) {
	review, ok := app.resolveReview(w, r)
	if !ok {
		return
	}
	app.Http.Ok(w, r, envelop{"review": review}, "")
}

func (app *Application) updateReview(w http.ResponseWriter, r *http.Request) {
	review, ok := app.resolveReview(w, r)
	if !ok {
		return
	}
	var req struct {
		Text  *string `json:"text" validate:"omitempty,min=1"`
		Score *int    `json:"score" validate:"omitempty,score"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	updated, err := app.Services.Reviews.Update(r.Context(), review, reviews.ReviewPatch{Text: req.Text, Score: req.Score})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"review": updated}, "")
}

func (app *Application) deleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := app.resolveReview(w, r)
	if !ok {
		return
	}
	if err := app.Services.Reviews.Delete(r.Context(), review.TitleID, review.ID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
