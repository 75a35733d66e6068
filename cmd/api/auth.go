package main

import (
	"net/http"
)

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required,max=150,username"`
		Email    string `json:"email" validate:"required,max=254,email"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	user, err := app.Services.Auth.SignUp(r.Context(), req.Username, req.Email)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"username": user.Username, "email": user.Email}, "Confirmation code sent")
}

func (app *Application) obtainToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username         string `json:"username" validate:"required,max=150"`
		ConfirmationCode string `json:"confirmation_code" validate:"required"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	token, err := app.Services.Auth.ExchangeToken(r.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		app.handleServiceError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"token": token}, "")
}
