package billing

import (
	"context"
	"time"
)

// Provider is the payment provider contract used by the web front end.
// Checkout and portal pages are hosted by the provider.
type Provider interface {
	// CreateCheckoutSession starts a hosted checkout for one price.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// RetrieveCheckoutSession returns the current state of a checkout.
	RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)

	// CreatePortalSession returns a pre-authenticated customer portal link.
	CreatePortalSession(ctx context.Context, req PortalRequest) (*PortalSession, error)
}

// CheckoutRequest describes a checkout to create.
type CheckoutRequest struct {
	PriceID    string
	Quantity   int
	UserID     string
	Email      string
	SuccessURL string
}

// Status is the provider-neutral checkout status.
type Status string

const (
	StatusOpen     Status = "open"
	StatusComplete Status = "complete"
	StatusExpired  Status = "expired"
	StatusPastDue  Status = "past_due"
)

// CheckoutSession is a hosted checkout.
type CheckoutSession struct {
	ID             string    `json:"id"`
	URL            string    `json:"url,omitempty"`
	Status         Status    `json:"status"`
	ProviderStatus string    `json:"provider_status"`
	UserID         string    `json:"user_id,omitempty"`
	CustomerID     string    `json:"customer_id,omitempty"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Paid reports whether the checkout completed.
func (s *CheckoutSession) Paid() bool {
	return s != nil && s.Status == StatusComplete
}

// PortalRequest describes a customer portal session to create.
type PortalRequest struct {
	CustomerID      string
	SubscriptionIDs []string
}

// PortalSession is a customer portal link.
type PortalSession struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WebhookEvent is a verified provider notification about a checkout.
type WebhookEvent struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	TransactionID  string `json:"transaction_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Status         string `json:"status,omitempty"`
}
