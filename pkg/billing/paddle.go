package billing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/tidwall/gjson"
)

// linkLifetime is how long Paddle keeps checkout and portal links usable.
const linkLifetime = 24 * time.Hour

// PaddleConfig holds Paddle credentials.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
}

type transactions interface {
	CreateTransaction(ctx context.Context, req *paddle.CreateTransactionRequest) (*paddle.Transaction, error)
	GetTransaction(ctx context.Context, req *paddle.GetTransactionRequest) (*paddle.Transaction, error)
}

type portalSessions interface {
	CreateCustomerPortalSession(ctx context.Context, req *paddle.CreateCustomerPortalSessionRequest) (*paddle.CustomerPortalSession, error)
}

// PaddleProvider implements Provider with Paddle Billing transactions.
type PaddleProvider struct {
	transactions transactions
	portal       portalSessions
	verifier     *paddle.WebhookVerifier
}

// NewPaddleProvider creates a provider for the configured environment
// ("sandbox" or "production").
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}

	p := &PaddleProvider{
		transactions: client.TransactionsClient,
		portal:       client.CustomerPortalSessionsClient,
	}
	if cfg.WebhookSecret != "" {
		p.verifier = paddle.NewWebhookVerifier(cfg.WebhookSecret)
	}
	return p, nil
}

func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: max(req.Quantity, 1),
	})
	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{"user_id": req.UserID},
	}
	if req.Email != "" {
		txReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	txn, err := p.transactions.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}

	s := checkoutFromTransaction(txn)
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}
	return s, nil
}

func (p *PaddleProvider) RetrieveCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if id == "" {
		return nil, ErrMissingSessionID
	}

	txn, err := p.transactions.GetTransaction(ctx, &paddle.GetTransactionRequest{TransactionID: id})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	return checkoutFromTransaction(txn), nil
}

func (p *PaddleProvider) CreatePortalSession(ctx context.Context, req PortalRequest) (*PortalSession, error) {
	if req.CustomerID == "" {
		return nil, ErrMissingCustomerID
	}

	ps, err := p.portal.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID:      req.CustomerID,
		SubscriptionIDs: req.SubscriptionIDs,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderRequest, err)
	}
	if ps.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalSession{
		URL:       ps.URLs.General.Overview,
		ExpiresAt: time.Now().Add(linkLifetime),
	}, nil
}

// ParseWebhook verifies the Paddle-Signature of r and extracts the
// transaction fields of the event.
func (p *PaddleProvider) ParseWebhook(r *http.Request) (*WebhookEvent, error) {
	if p.verifier == nil {
		return nil, ErrWebhookNotConfigured
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, errors.Join(ErrInvalidWebhook, err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ok, err := p.verifier.Verify(r)
	if err != nil {
		return nil, errors.Join(ErrInvalidWebhook, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidWebhook)
	}
	return parseWebhookEvent(body)
}

func parseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: payload is not JSON", ErrInvalidWebhook)
	}

	doc := gjson.ParseBytes(body)
	ev := &WebhookEvent{
		ID:         doc.Get("event_id").String(),
		Type:       doc.Get("event_type").String(),
		Status:     doc.Get("data.status").String(),
		CustomerID: doc.Get("data.customer_id").String(),
		UserID:     doc.Get("data.custom_data.user_id").String(),
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrInvalidWebhook)
	}

	switch {
	case strings.HasPrefix(ev.Type, "transaction."):
		ev.TransactionID = doc.Get("data.id").String()
		ev.SubscriptionID = doc.Get("data.subscription_id").String()
	case strings.HasPrefix(ev.Type, "subscription."):
		ev.SubscriptionID = doc.Get("data.id").String()
		ev.TransactionID = doc.Get("data.transaction_id").String()
	}
	return ev, nil
}

func checkoutFromTransaction(txn *paddle.Transaction) *CheckoutSession {
	s := &CheckoutSession{
		ID:             txn.ID,
		ProviderStatus: string(txn.Status),
		Status:         mapTransactionStatus(string(txn.Status)),
		ExpiresAt:      time.Now().Add(linkLifetime),
	}
	if txn.Checkout != nil && txn.Checkout.URL != nil {
		s.URL = *txn.Checkout.URL
	}
	if txn.CustomerID != nil {
		s.CustomerID = *txn.CustomerID
	}
	if txn.SubscriptionID != nil {
		s.SubscriptionID = *txn.SubscriptionID
	}
	if v, ok := txn.CustomData["user_id"].(string); ok {
		s.UserID = v
	}
	return s
}

func mapTransactionStatus(status string) Status {
	switch status {
	case "paid", "completed", "billed":
		return StatusComplete
	case "canceled":
		return StatusExpired
	case "past_due":
		return StatusPastDue
	default:
		return StatusOpen
	}
}
