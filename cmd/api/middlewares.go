package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/policy"
	"yamdb/proj/internal/services/auth"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

func (app *Application) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil && rec != http.ErrAbortHandler {
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}
				w.Header().Set("Connection", "close")
				app.Http.ServerError(w, r, err, "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) RateLimiter(next http.Handler) http.Handler {
	if !app.cfg.Limiter.Enabled {
		return next
	}
	const op = "middlewares.RateLimiter"
	log := app.log.With("op", op)
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	clients := make(map[string]*client)
	var mu sync.Mutex
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, client := range clients {
				if time.Since(client.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RealIP may have replaced RemoteAddr with a bare address
			ip = r.RemoteAddr
		}
		mu.Lock()
		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(app.cfg.Limiter.Rps), app.cfg.Limiter.Burst)}
			clients[ip] = c
		}
		c.lastSeen = time.Now()
		allowed := c.limiter.Allow()
		mu.Unlock()
		if !allowed {
			log.Warn("rate limit exceeded", "ip", ip)
			app.metrics.rateLimited.Inc()
			app.Http.TooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type CtxKey string

const CtxKeyUser CtxKey = "user"

func contextSetUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), CtxKeyUser, user))
}

// contextGetUser returns the request principal, AnonymousUser when the
// request carried no credentials.
func contextGetUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(CtxKeyUser).(*models.User)
	if !ok || user == nil {
		return models.AnonymousUser
	}
	return user
}

func (app *Application) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, contextSetUser(r, models.AnonymousUser))
			return
		}
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			app.log.Debug("Invalid auth header", "header", authHeader)
			app.Http.Unauthorized(w, r, "Invalid Authorization header, should be 'Bearer <token>'")
			return
		}
		user, err := app.Services.Auth.VerifyToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				app.Http.Unauthorized(w, r, "Invalid or expired token")
				return
			}
			app.Http.ServerError(w, r, err, "")
			return
		}
		next.ServeHTTP(w, contextSetUser(r, user))
	})
}

// requirePermission runs the collection-level phase of perm.
func (app *Application) requirePermission(perm policy.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := policy.Request{Method: r.Method, Principal: contextGetUser(r)}
			if !app.decide(w, r, policy.Check(perm, req)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authorizeObject runs the object-level phase of perm for a resolved entity.
func (app *Application) authorizeObject(w http.ResponseWriter, r *http.Request, perm policy.Permission, obj policy.Owned) bool {
	req := policy.Request{Method: r.Method, Principal: contextGetUser(r)}
	return app.decide(w, r, policy.CheckObject(perm, req, obj))
}

func (app *Application) decide(w http.ResponseWriter, r *http.Request, d policy.Decision) bool {
	switch d {
	case policy.Allow:
		return true
	case policy.DenyUnauthenticated:
		app.Http.Unauthorized(w, r, "Authentication credentials were not provided.")
	default:
		app.Http.Forbidden(w, r, "You do not have permission to perform this action.")
	}
	return false
}

// LogRequests writes one structured line per request.
func (app *Application) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			app.Http.setupLogPerReq(r).Info(
				"request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"remote_addr", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
