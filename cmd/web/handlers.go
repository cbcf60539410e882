package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/lecturefeed/pkg/billing"
	"github.com/dmitrymomot/lecturefeed/pkg/binder"
	"github.com/dmitrymomot/lecturefeed/pkg/channel"
	"github.com/dmitrymomot/lecturefeed/pkg/cookie"
	"github.com/dmitrymomot/lecturefeed/pkg/identity"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
	"github.com/dmitrymomot/lecturefeed/pkg/ratelimiter"
	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

type webhookParser interface {
	ParseWebhook(r *http.Request) (*billing.WebhookEvent, error)
}

type app struct {
	log         *slog.Logger
	cookies     *cookie.Manager
	resolver    *identity.Resolver
	issuer      *session.Issuer
	auth        session.Authenticator
	billing     billing.Provider
	loginLimit  *ratelimiter.Bucket
	successURL  string
	channelBase string
}

type identityResponse struct {
	Identifier string `json:"identifier,omitempty"`
	Kind       string `json:"kind"`
	Endpoint   string `json:"endpoint,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// resolveIdentity reports the identifier a client should open its
// notification channel with, and the channel endpoint for it.
func (a *app) resolveIdentity(w http.ResponseWriter, r *http.Request) {
	explicit, err := a.issuer.Authenticated(r)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		a.log.DebugContext(r.Context(), "ignoring session", logger.Error(err))
	}

	lookup := identity.ContextLookup(r.Context(), a.resolver.CookieName(), identity.SignedRequestLookup(a.cookies, r))
	id, ok := a.resolver.WithLookup(lookup).Resolve(explicit)
	a.log.DebugContext(r.Context(), "identifier resolved",
		logger.Identifier(id),
		logger.IdentifierKind(id.Kind()),
	)
	if !ok {
		writeJSON(w, http.StatusOK, identityResponse{Kind: id.Kind().String()})
		return
	}

	endpoint, err := channel.Endpoint(a.channelBase, id)
	if err != nil {
		a.log.ErrorContext(r.Context(), "cannot build channel endpoint", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "")
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		Identifier: id.String(),
		Kind:       id.Kind().String(),
		Endpoint:   endpoint,
	})
}

type checkoutRequest struct {
	PriceID  string `json:"price_id" form:"price_id"`
	Quantity int    `json:"quantity" form:"quantity"`
	Email    string `json:"email" form:"email"`
}

func (a *app) createCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	var req checkoutRequest
	if err := binder.Bind(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := a.billing.CreateCheckoutSession(r.Context(), billing.CheckoutRequest{
		PriceID:    req.PriceID,
		Quantity:   req.Quantity,
		UserID:     userID,
		Email:      req.Email,
		SuccessURL: a.successURL,
	})
	if err != nil {
		a.billingError(w, r, "create checkout", err)
		return
	}
	a.log.InfoContext(r.Context(), "checkout created", logger.UserID(userID), slog.String("checkout_id", s.ID))
	writeJSON(w, http.StatusCreated, s)
}

func (a *app) retrieveCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := session.UserIDFromContext(r.Context())

	s, err := a.billing.RetrieveCheckoutSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.billingError(w, r, "retrieve checkout", err)
		return
	}
	if s.UserID != userID {
		writeError(w, http.StatusNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type portalRequest struct {
	CustomerID      string   `json:"customer_id" form:"customer_id"`
	SubscriptionIDs []string `json:"subscription_ids" form:"subscription_ids"`
}

func (a *app) createPortal(w http.ResponseWriter, r *http.Request) {
	var req portalRequest
	if err := binder.Bind(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := a.billing.CreatePortalSession(r.Context(), billing.PortalRequest{
		CustomerID:      req.CustomerID,
		SubscriptionIDs: req.SubscriptionIDs,
	})
	if err != nil {
		a.billingError(w, r, "create portal session", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *app) billingWebhook(parser webhookParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, err := parser.ParseWebhook(r)
		if err != nil {
			a.log.WarnContext(r.Context(), "rejected billing webhook", logger.Error(err))
			writeError(w, http.StatusBadRequest, "invalid webhook")
			return
		}
		a.log.InfoContext(r.Context(), "billing event",
			slog.String("event_id", ev.ID),
			slog.String("event_type", ev.Type),
			slog.String("transaction_id", ev.TransactionID),
			slog.String("status", ev.Status),
			logger.UserID(ev.UserID),
		)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *app) billingError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, billing.ErrMissingPriceID),
		errors.Is(err, billing.ErrMissingSessionID),
		errors.Is(err, billing.ErrMissingCustomerID),
		errors.Is(err, billing.ErrMissingUserID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.log.ErrorContext(r.Context(), "billing request failed", slog.String("op", op), logger.Error(err))
		writeError(w, http.StatusBadGateway, "")
	}
}
