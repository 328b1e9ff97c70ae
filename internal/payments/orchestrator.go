package payments

import (
	"context"
	"strings"
	"sync"

	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/metrics"
)

// State names one step of a payment attempt's lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateIntentCreated  State = "intent_created"
	StateConfirming     State = "confirming"
	StateRequiresAction State = "requires_action"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// Attempt tracks a single payment through create-intent and confirm. The
// mutex guards only state transitions; provider calls and the wait for
// customer action (3DS and friends) happen with no lock held, so a stalled
// challenge never blocks other attempts. An abandoned attempt simply stops
// getting calls and the provider expires the intent on its own.
type Attempt struct {
	provider Provider
	metrics  *metrics.CheckoutMetrics
	logger   *logger.Logger

	mu        sync.Mutex
	state     State
	starting  bool
	intent    *Intent
	cart      cartstore.Snapshot
	paymentID string
}

func NewAttempt(provider Provider, m *metrics.CheckoutMetrics, logg *logger.Logger) *Attempt {
	return &Attempt{
		provider: provider,
		metrics:  m,
		logger:   logg,
		state:    StateIdle,
	}
}

// Provider names the processor backing this attempt.
func (a *Attempt) Provider() string {
	return a.provider.Name()
}

// Cart returns the cart snapshot captured when the intent was created. Orders
// are finalized from this snapshot, never from the live cart, so edits made
// after the intent cannot drift the recorded order away from the charged
// amount.
func (a *Attempt) Cart() cartstore.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cart
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Intent returns the provider intent once Start has succeeded.
func (a *Attempt) Intent() *Intent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.intent
}

// PaymentID returns the provider's payment reference after a successful
// confirmation.
func (a *Attempt) PaymentID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paymentID
}

// Start creates the provider intent for the given amount. Only an idle
// attempt can start; a provider failure moves the attempt to failed and
// surfaces a dependency error with no other side effects.
func (a *Attempt) Start(ctx context.Context, amountMinorUnits int64, currency string) (*Intent, error) {
	a.mu.Lock()
	if a.state != StateIdle || a.starting {
		state := a.state
		a.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment attempt already started").
			WithDetails(map[string]string{"state": string(state)})
	}
	if amountMinorUnits <= 0 {
		a.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	a.starting = true
	a.mu.Unlock()

	intent, err := a.provider.CreateIntent(ctx, amountMinorUnits, strings.ToLower(currency))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.starting = false
	if err != nil {
		a.state = StateFailed
		a.metrics.IncPaymentAttempt(a.provider.Name(), "provider_unavailable")
		a.logger.Error(ctx, "payment intent creation failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}

	a.state = StateIntentCreated
	a.intent = intent
	return intent, nil
}

// Confirm asks the provider to settle the intent. It is valid from
// intent_created and from requires_action, so resuming after the customer
// completed a challenge is just another Confirm call. A requires_action
// verdict parks the attempt without holding any lock while the customer acts.
func (a *Attempt) Confirm(ctx context.Context, paymentMethod string) (*Confirmation, error) {
	a.mu.Lock()
	if a.state != StateIntentCreated && a.state != StateRequiresAction {
		state := a.state
		a.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment attempt is not confirmable").
			WithDetails(map[string]string{"state": string(state)})
	}
	a.state = StateConfirming
	intentID := a.intent.ID
	a.mu.Unlock()

	confirmation, err := a.provider.Confirm(ctx, intentID, paymentMethod)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateFailed
		a.metrics.IncPaymentAttempt(a.provider.Name(), "provider_error")
		a.logger.Error(ctx, "payment confirmation failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}

	switch confirmation.Status {
	case StatusSucceeded:
		a.state = StateSucceeded
		a.paymentID = confirmation.PaymentID
		a.metrics.IncPaymentAttempt(a.provider.Name(), "succeeded")
		return confirmation, nil
	case StatusRequiresAction:
		a.state = StateRequiresAction
		return confirmation, nil
	default:
		a.state = StateFailed
		a.metrics.IncPaymentAttempt(a.provider.Name(), "declined")
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was declined")
	}
}
