package payments

import (
	"context"
	"strings"
	"sync"
	"time"

	cartstore "github.com/shopcart/shopcart-backend/internal/cart"
	pkgerrors "github.com/shopcart/shopcart-backend/pkg/errors"
	"github.com/shopcart/shopcart-backend/pkg/logger"
	"github.com/shopcart/shopcart-backend/pkg/metrics"
)

// attemptTTL bounds how long an attempt stays indexed. Provider-side intents
// expire well within an hour, so anything older is abandoned.
const attemptTTL = time.Hour

// Registry owns in-flight payment attempts keyed by intent id, so a confirm
// request can find the attempt its create-intent request started. Abandoned
// entries are swept on the next Begin once they outlive attemptTTL; the
// provider-side intent expires on its own.
type Registry struct {
	providers map[string]Provider
	metrics   *metrics.CheckoutMetrics
	logger    *logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	attempts map[string]attemptEntry
}

type attemptEntry struct {
	attempt *Attempt
	created time.Time
}

func NewRegistry(providers []Provider, m *metrics.CheckoutMetrics, logg *logger.Logger) *Registry {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Registry{
		providers: byName,
		metrics:   m,
		logger:    logg,
		now:       time.Now,
		attempts:  make(map[string]attemptEntry),
	}
}

// Begin starts a new attempt against the named provider for the given cart
// snapshot and indexes it by the resulting intent id. The snapshot travels
// with the attempt: the amount charged and the order recorded on success both
// come from it, so cart edits after this point cannot change either.
func (r *Registry) Begin(ctx context.Context, providerName string, snapshot cartstore.Snapshot, currency string) (*Attempt, *Intent, error) {
	provider, ok := r.providers[strings.ToLower(strings.TrimSpace(providerName))]
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider").
			WithDetails(map[string]string{"provider": providerName})
	}

	attempt := NewAttempt(provider, r.metrics, r.logger)
	attempt.cart = snapshot
	intent, err := attempt.Start(ctx, snapshot.Totals.MinorUnits(), currency)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	r.sweepLocked()
	r.attempts[intent.ID] = attemptEntry{attempt: attempt, created: r.now()}
	r.mu.Unlock()
	return attempt, intent, nil
}

// Lookup returns the attempt for an intent id, if any.
func (r *Registry) Lookup(intentID string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.attempts[intentID]
	if !ok {
		return nil, false
	}
	return entry.attempt, true
}

// Forget removes a finished attempt from the index.
func (r *Registry) Forget(intentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, intentID)
}

func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-attemptTTL)
	for id, entry := range r.attempts {
		if entry.created.Before(cutoff) {
			delete(r.attempts, id)
		}
	}
}
