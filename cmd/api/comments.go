package main

import (
	"net/http"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/policy"
)

func (app *Application) commentParents(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = app.extractIDParam(w, r, "title_id"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = app.extractIDParam(w, r, "review_id"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

func (app *Application) listComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.commentParents(w, r)
	if !ok {
		return
	}
	var f filters.Filters
	if !app.readQuery(w, r, &f) {
		return
	}
	list, meta, err := app.Services.Comments.List(r.Context(), titleID, reviewID, f)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comments": list, "metadata": meta}, "")
}

func (app *Application) createComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := app.commentParents(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" validate:"required"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	comment, err := app.Services.Comments.Create(r.Context(), titleID, reviewID, contextGetUser(r), req.Text)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"comment": comment}, "")
}

func (app *Application) resolveComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	titleID, reviewID, ok := app.commentParents(w, r)
	if !ok {
		return nil, false
	}
	commentID, ok := app.extractIDParam(w, r, "comment_id")
	if !ok {
		return nil, false
	}
	comment, err := app.Services.Comments.Get(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		app.handleServiceError(w, r, err)
		return nil, false
	}
	if !app.authorizeObject(w, r, policy.AuthorOrModerator, comment) {
		return nil, false
	}
	return comment, true
}

func (app *Application) getComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := app.resolveComment(w, r)
	if !ok {
		return
	}
	app.Http.Ok(w, r, envelop{"comment": comment}, "")
}

func (app *Application) updateComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := app.resolveComment(w, r)
	if !ok {
		return
	}
	var req struct {
		Text *string `json:"text" validate:"omitempty,min=1"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	updated, err := app.Services.Comments.Update(r.Context(), comment, req.Text)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"comment": updated}, "")
}

func (app *Application) deleteComment(w http.ResponseWriter, r *http.Request) {
	comment, ok := app.resolveComment(w, r)
	if !ok {
		return
	}
	if err := app.Services.Comments.Delete(r.Context(), comment.ReviewID, comment.ID); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}
