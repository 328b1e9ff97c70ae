package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopcart/shopcart-backend/pkg/paypal"
)

// PayPalProvider settles payments through PayPal Orders v2. PayPal has no
// client secret; the order id doubles as the client handle, and "confirm"
// captures the order after the customer approved it.
type PayPalProvider struct {
	client *paypal.Client
}

func NewPayPalProvider(client *paypal.Client) *PayPalProvider {
	return &PayPalProvider{client: client}
}

func (p *PayPalProvider) Name() string {
	return "paypal"
}

func (p *PayPalProvider) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*Intent, error) {
	order, err := p.client.CreateOrder(ctx, amountMinorUnits, currency)
	if err != nil {
		return nil, fmt.Errorf("create paypal order: %w", err)
	}
	return &Intent{
		ID:           order.ID,
		ClientSecret: order.ID,
		Amount:       amountMinorUnits,
		Currency:     currency,
	}, nil
}

func (p *PayPalProvider) Confirm(ctx context.Context, intentID, _ string) (*Confirmation, error) {
	capture, err := p.client.CaptureOrder(ctx, intentID)
	if err != nil {
		// Capturing before the customer approved the order is the PayPal
		// equivalent of requires_action; a declined instrument is a verdict.
		var apiErr *paypal.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.HasIssue("ORDER_NOT_APPROVED"):
				return &Confirmation{Status: StatusRequiresAction}, nil
			case apiErr.HasIssue("INSTRUMENT_DECLINED"):
				return &Confirmation{Status: StatusDeclined}, nil
			}
		}
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}

	if strings.EqualFold(capture.Status, "COMPLETED") {
		return &Confirmation{Status: StatusSucceeded, PaymentID: capture.ID}, nil
	}
	return &Confirmation{Status: StatusDeclined}, nil
}
