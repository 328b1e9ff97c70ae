package cart

import (
	"context"
	"sync"

	"github.com/shopcart/shopcart-backend/pkg/logger"
)

// Sessions hands out one cart Store per owner, hydrating from the persister
// the first time an owner shows up after a restart.
type Sessions struct {
	policy    Policy
	persister Persister
	logger    *logger.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewSessions(policy Policy, persister Persister, logg *logger.Logger) *Sessions {
	return &Sessions{
		policy:    policy,
		persister: persister,
		logger:    logg,
		stores:    make(map[string]*Store),
	}
}

// For returns the owner's cart, creating and hydrating it on first access.
// A persister read failure degrades to an empty cart rather than an error;
// the durable copy is a cache of the in-memory state, not the other way
// around.
func (s *Sessions) For(ctx context.Context, ownerID string) *Store {
	s.mu.Lock()
	if store, ok := s.stores[ownerID]; ok {
		s.mu.Unlock()
		return store
	}
	store := NewStore(ownerID, s.policy, s.persister, s.logger)
	s.stores[ownerID] = store
	s.mu.Unlock()

	if s.persister != nil {
		snapshot, err := s.persister.Load(ctx, ownerID)
		if err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "failed to load cart snapshot")
		} else if snapshot != nil {
			store.Hydrate(*snapshot)
		}
	}
	return store
}

// Drop forgets the in-memory store for an owner. The durable snapshot is
// untouched; the next For call rehydrates from it.
func (s *Sessions) Drop(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, ownerID)
}
