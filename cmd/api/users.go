package main

import (
	"net/http"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/policy"
	"yamdb/proj/internal/services/users"

	"github.com/go-chi/chi/v5"
)

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if !app.readQuery(w, r, &q) {
		return
	}
	list, meta, err := app.Services.Users.List(r.Context(), q.Search, q.Filters)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"users": list, "metadata": meta}, "")
}

func (app *Application) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required,max=150,username"`
		Email    string `json:"email" validate:"required,max=254,email"`
		Role     string `json:"role" validate:"omitempty,role"`
		Bio      string `json:"bio"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	user, err := app.Services.Users.Create(r.Context(), users.CreateParams{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.Role(req.Role),
		Bio:      req.Bio,
	})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"user": user}, "")
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := app.Services.Users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

type userPatchRequest struct {
	Username *string `json:"username" validate:"omitempty,max=150,username"`
	Email    *string `json:"email" validate:"omitempty,max=254,email"`
	Role     *string `json:"role" validate:"omitempty,role"`
	Bio      *string `json:"bio"`
}

func (req userPatchRequest) patch() users.UserPatch {
	p := users.UserPatch{Username: req.Username, Email: req.Email, Bio: req.Bio}
	if req.Role != nil {
		role := models.Role(*req.Role)
		p.Role = &role
	}
	return p
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userPatchRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	user, err := app.Services.Users.Update(r.Context(), chi.URLParam(r, "username"), req.patch())
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := app.Services.Users.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.NoContent(w, r)
}

func (app *Application) getMe(w http.ResponseWriter, r *http.Request) {
	me := contextGetUser(r)
	if !app.authorizeObject(w, r, policy.AuthorMatch, me) {
		return
	}
	app.Http.Ok(w, r, envelop{"user": me}, "")
}

func (app *Application) updateMe(w http.ResponseWriter, r *http.Request) {
	me := contextGetUser(r)
	if !app.authorizeObject(w, r, policy.AuthorMatch, me) {
		return
	}
	// role is accepted so clients may send the full profile, but never applied
	var req struct {
		Username *string `json:"username" validate:"omitempty,max=150,username"`
		Email    *string `json:"email" validate:"omitempty,max=254,email"`
		Bio      *string `json:"bio"`
		Role     *string `json:"role"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	user, err := app.Services.Users.UpdateMe(r.Context(), me, users.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": user}, "")
}
