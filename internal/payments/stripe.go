package payments

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeProvider settles payments through Stripe payment intents.
type StripeProvider struct{}

func NewStripeProvider() *StripeProvider {
	return &StripeProvider{}
}

func (p *StripeProvider) Name() string {
	return "stripe"
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amountMinorUnits,
		Currency:     currency,
	}, nil
}

func (p *StripeProvider) Confirm(ctx context.Context, intentID, paymentMethod string) (*Confirmation, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	if paymentMethod != "" {
		params.PaymentMethod = stripe.String(paymentMethod)
	}
	params.Context = ctx

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		// Card declines come back as API errors; they are a payment
		// verdict, not a provider outage.
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return &Confirmation{Status: StatusDeclined}, nil
		}
		return nil, fmt.Errorf("confirm stripe payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		paymentID := pi.ID
		if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
			paymentID = pi.LatestCharge.ID
		}
		return &Confirmation{Status: StatusSucceeded, PaymentID: paymentID}, nil
	case stripe.PaymentIntentStatusRequiresAction:
		return &Confirmation{Status: StatusRequiresAction}, nil
	default:
		return &Confirmation{Status: StatusDeclined}, nil
	}
}
