package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/lecturefeed/pkg/httpserver"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
	"github.com/dmitrymomot/lecturefeed/pkg/requestid"
	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

func (a *app) routes(checks map[string]httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", httpserver.HealthHandler(a.log, 0, nil))
	r.Get("/readyz", httpserver.HealthHandler(a.log, 2*time.Second, checks))

	if p, ok := a.billing.(webhookParser); ok {
		r.Post("/billing/webhook", a.billingWebhook(p))
	}

	r.Group(func(r chi.Router) {
		r.Use(identity.Bootstrap(a.cookies, a.resolver.CookieName(), a.log))
		r.Use(a.issuer.Middleware)

		login := session.LoginHandler(a.auth, a.issuer, a.log)
		if a.loginLimit != nil {
			login = ratelimiter.Middleware(a.loginLimit, ratelimiter.KeyByIP, a.log)(login)
		}
		r.Post("/auth/login", login.ServeHTTP)
		r.Post("/auth/logout", session.LogoutHandler(a.issuer, a.log).ServeHTTP)
		r.Get("/api/identity", a.resolveIdentity)

		if a.billing == nil {
			return
		}
		r.Route("/billing", func(r chi.Router) {
			r.Use(a.issuer.RequireAuth)
			r.Post("/checkout", a.createCheckout)
			r.Get("/checkout/{id}", a.retrieveCheckout)
			r.Post("/portal", a.createPortal)
		})
	})
	return r
}
