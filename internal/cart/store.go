package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopcart/shopcart-backend/pkg/logger"
)

const persistTimeout = 5 * time.Second

// Item is a cart line. OriginalUnitPrice is set when the product is on sale;
// the spread between it and UnitPrice feeds the discount total.
type Item struct {
	ProductID         string           `json:"product_id"`
	Name              string           `json:"name"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	OriginalUnitPrice *decimal.Decimal `json:"original_unit_price,omitempty"`
	Quantity          int              `json:"quantity"`
	ImageURL          string           `json:"image_url,omitempty"`
}

// Snapshot is the durable form of a cart: the lines plus the derived totals.
type Snapshot struct {
	Items  []Item `json:"items"`
	Totals Totals `json:"totals"`
}

// Persister stores cart snapshots outside process memory. Load returns
// (nil, nil) when no snapshot exists for the owner.
type Persister interface {
	Save(ctx context.Context, ownerID string, snapshot Snapshot) error
	Load(ctx context.Context, ownerID string) (*Snapshot, error)
	Delete(ctx context.Context, ownerID string) error
}

// Store is one owner's in-memory cart. All mutations are serialized by the
// internal mutex and recompute totals before returning; persistence is
// scheduled asynchronously and never blocks the mutation.
type Store struct {
	ownerID   string
	policy    Policy
	persister Persister
	logger    *logger.Logger

	mu     sync.Mutex
	items  []Item
	totals Totals
	// seq stamps each mutation's persistence write, guarded by mu.
	seq uint64

	// pending tracks in-flight async writes so Flush can drain them.
	pending sync.WaitGroup
	// persistMu serializes persister calls; lastPersisted (guarded by it)
	// is the newest sequence already handled, so a write that lost the
	// scheduling race to a later mutation is dropped instead of clobbering
	// the newer durable state.
	persistMu     sync.Mutex
	lastPersisted uint64
}

// NewStore returns an empty cart for the owner. Persister may be nil for
// carts that only live in memory.
func NewStore(ownerID string, policy Policy, persister Persister, logg *logger.Logger) *Store {
	s := &Store{
		ownerID:   ownerID,
		policy:    policy,
		persister: persister,
		logger:    logg,
	}
	s.totals = ComputeTotals(nil, policy)
	return s
}

// AddItem merges the item into the cart: an existing line with the same
// product id gets its quantity bumped, otherwise a new line is appended.
// Items with a non-positive quantity are ignored.
func (s *Store) AddItem(item Item) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.addLocked(item)
	s.recomputeLocked()
	return s.schedulePersistLocked()
}

// UpdateQuantity sets the line's quantity. A quantity of zero or less removes
// the line. Unknown product ids are a no-op.
func (s *Store) UpdateQuantity(productID string, quantity int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
	} else {
		for i := range s.items {
			if s.items[i].ProductID == productID {
				s.items[i].Quantity = quantity
				break
			}
		}
	}
	s.recomputeLocked()
	return s.schedulePersistLocked()
}

// RemoveItem drops the line for the product id if present.
func (s *Store) RemoveItem(productID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	s.recomputeLocked()
	return s.schedulePersistLocked()
}

// Clear empties the cart and deletes the durable snapshot.
func (s *Store) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.recomputeLocked()
	snapshot := s.snapshotLocked()

	if s.persister != nil {
		s.seq++
		seq := s.seq
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.runPersist(seq, func(ctx context.Context) error {
				return s.persister.Delete(ctx, s.ownerID)
			}, "failed to delete cart snapshot")
		}()
	}
	return snapshot
}

// Snapshot returns a copy of the current items and totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Hydrate replaces the cart contents by replaying the stored items through
// the same merge semantics as AddItem, so a stale snapshot with duplicate
// lines collapses correctly. It does not schedule a persistence write.
func (s *Store) Hydrate(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	for _, item := range snapshot.Items {
		s.addLocked(item)
	}
	s.recomputeLocked()
}

// Flush blocks until all scheduled persistence writes have finished.
func (s *Store) Flush() {
	s.pending.Wait()
}

func (s *Store) addLocked(item Item) {
	if item.Quantity <= 0 || strings.TrimSpace(item.ProductID) == "" {
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i].Quantity += item.Quantity
			return
		}
	}
	s.items = append(s.items, item)
}

func (s *Store) removeLocked(productID string) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *Store) recomputeLocked() {
	s.totals = ComputeTotals(s.items, s.policy)
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return Snapshot{Items: items, Totals: s.totals}
}

// schedulePersistLocked hands the snapshot to the persister on a goroutine.
// A failed write only logs; the in-memory cart stays authoritative.
func (s *Store) schedulePersistLocked() Snapshot {
	snapshot := s.snapshotLocked()
	if s.persister == nil {
		return snapshot
	}

	s.seq++
	seq := s.seq
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.runPersist(seq, func(ctx context.Context) error {
			return s.persister.Save(ctx, s.ownerID, snapshot)
		}, "failed to persist cart snapshot")
	}()
	return snapshot
}

// runPersist serializes persister calls and skips any write that a later
// mutation has already superseded. Without the sequence check, a slow Save
// scheduled before Clear could land after Clear's Delete and resurrect a
// finalized cart in durable storage.
func (s *Store) runPersist(seq uint64, op func(ctx context.Context) error, failMsg string) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if seq <= s.lastPersisted {
		return
	}
	s.lastPersisted = seq

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := op(ctx); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), failMsg)
	}
}
