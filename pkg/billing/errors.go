package billing

import "errors"

var (
	ErrMissingAPIKey        = errors.New("billing.missing_api_key")
	ErrInvalidEnvironment   = errors.New("billing.invalid_environment")
	ErrMissingPriceID       = errors.New("billing.missing_price_id")
	ErrMissingUserID        = errors.New("billing.missing_user_id")
	ErrMissingSessionID     = errors.New("billing.missing_session_id")
	ErrMissingCustomerID    = errors.New("billing.missing_customer_id")
	ErrNoCheckoutURL        = errors.New("billing.no_checkout_url")
	ErrNoPortalURL          = errors.New("billing.no_portal_url")
	ErrProviderRequest      = errors.New("billing.provider_request_failed")
	ErrWebhookNotConfigured = errors.New("billing.webhook_not_configured")
	ErrInvalidWebhook       = errors.New("billing.invalid_webhook")
)
