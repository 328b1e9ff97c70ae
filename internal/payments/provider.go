package payments

import "context"

// Status is the outcome of a provider confirmation call.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusRequiresAction Status = "requires_action"
	StatusDeclined       Status = "declined"
)

// Intent is a provider-side payment intent. ClientSecret is what the
// storefront hands to the provider's browser SDK; for providers without a
// secret it carries the intent id.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// Confirmation reports the provider's verdict on a confirm call. PaymentID is
// the provider's reference for the money movement (charge/capture id).
type Confirmation struct {
	Status    Status
	PaymentID string
}

// Provider abstracts a payment processor for the checkout flow. Amounts are
// integer minor units; decimal math stays on the caller's side.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethod string) (*Confirmation, error)
}
