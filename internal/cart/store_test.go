package cart

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcart/shopcart-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestStoreAddItemMergesByProductID(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())

	store.AddItem(Item{ProductID: "prod-1", Name: "Mug", UnitPrice: dec(t, "10.00"), Quantity: 1})
	snapshot := store.AddItem(Item{ProductID: "prod-1", Name: "Mug", UnitPrice: dec(t, "10.00"), Quantity: 2})

	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 3, snapshot.Items[0].Quantity)
	assert.True(t, snapshot.Totals.Subtotal.Equal(dec(t, "30.00")), "subtotal %s", snapshot.Totals.Subtotal)
}

func TestStoreAddItemIgnoresNonPositiveQuantity(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())

	snapshot := store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 0})
	assert.Empty(t, snapshot.Items)

	snapshot = store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: -2})
	assert.Empty(t, snapshot.Items)
}

func TestStoreUpdateQuantityZeroRemovesLine(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())
	store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 2})
	store.AddItem(Item{ProductID: "prod-2", UnitPrice: dec(t, "5.00"), Quantity: 1})

	snapshot := store.UpdateQuantity("prod-1", 0)

	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "prod-2", snapshot.Items[0].ProductID)
	assert.True(t, snapshot.Totals.Subtotal.Equal(dec(t, "5.00")))
}

func TestStoreUpdateQuantityUnknownProductIsNoop(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())
	store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 2})

	snapshot := store.UpdateQuantity("missing", 4)

	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
}

func TestStoreRemoveItemRecomputesTotals(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())
	store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "439.00"), OriginalUnitPrice: decPtr(t, "549.00"), Quantity: 1})
	store.AddItem(Item{ProductID: "prod-2", UnitPrice: dec(t, "10.00"), Quantity: 1})

	snapshot := store.RemoveItem("prod-2")

	require.Len(t, snapshot.Items, 1)
	assert.True(t, snapshot.Totals.Subtotal.Equal(dec(t, "439.00")))
	assert.True(t, snapshot.Totals.Discount.Equal(dec(t, "110.00")))
	assert.Equal(t, "366.32", snapshot.Totals.Total.StringFixed(2))
}

func TestStoreClearEmptiesCartAndDeletesSnapshot(t *testing.T) {
	persister := NewMemoryPersister()
	store := NewStore("user-1", testPolicy(t), persister, testLogger())
	store.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 1})
	store.Flush()

	snapshot := store.Clear()
	store.Flush()

	assert.Empty(t, snapshot.Items)
	assert.True(t, snapshot.Totals.Total.IsZero())

	stored, err := persister.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

// stallingPersister parks Save calls on a gate so a test can hold a write
// in flight while later mutations schedule theirs.
type stallingPersister struct {
	*MemoryPersister
	gate chan struct{}
}

func (p *stallingPersister) Save(ctx context.Context, ownerID string, snapshot Snapshot) error {
	<-p.gate
	return p.MemoryPersister.Save(ctx, ownerID, snapshot)
}

func TestStoreSlowSaveCannotResurrectClearedCart(t *testing.T) {
	persister := &stallingPersister{MemoryPersister: NewMemoryPersister(), gate: make(chan struct{})}
	store := NewStore("user-1", testPolicy(t), persister, testLogger())

	// The Save for this mutation is stuck in flight when Clear runs.
	store.AddItem(Item{ProductID: "prod-1", Name: "Mug", UnitPrice: dec(t, "10.85"), Quantity: 1})
	store.Clear()

	close(persister.gate)
	store.Flush()

	// Whatever order the two writes ran in, the cleared cart must win
	// durably: the stale Save is either serialized before the Delete or
	// dropped as superseded.
	stored, err := persister.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestStorePersistsSnapshotAfterMutation(t *testing.T) {
	persister := NewMemoryPersister()
	store := NewStore("user-1", testPolicy(t), persister, testLogger())

	store.AddItem(Item{ProductID: "prod-1", Name: "Mug", UnitPrice: dec(t, "10.00"), Quantity: 2})
	store.Flush()

	stored, err := persister.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.True(t, stored.Totals.Subtotal.Equal(dec(t, "20.00")))
}

func TestStoreHydrateCollapsesDuplicateLines(t *testing.T) {
	store := NewStore("user-1", testPolicy(t), nil, testLogger())

	store.Hydrate(Snapshot{Items: []Item{
		{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 1},
		{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 2},
		{ProductID: "prod-2", UnitPrice: dec(t, "5.00"), Quantity: 0},
	}})

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 3, snapshot.Items[0].Quantity)
	assert.True(t, snapshot.Totals.Subtotal.Equal(dec(t, "30.00")))
}

func TestStoreSnapshotRoundTrip(t *testing.T) {
	persister := NewMemoryPersister()
	original := NewStore("user-1", testPolicy(t), persister, testLogger())
	original.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "439.00"), OriginalUnitPrice: decPtr(t, "549.00"), Quantity: 1})
	original.AddItem(Item{ProductID: "prod-2", UnitPrice: dec(t, "12.50"), Quantity: 4})
	original.Flush()

	stored, err := persister.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	restored := NewStore("user-1", testPolicy(t), nil, testLogger())
	restored.Hydrate(*stored)

	want := original.Snapshot().Totals
	got := restored.Snapshot().Totals
	assert.True(t, want.Subtotal.Equal(got.Subtotal))
	assert.True(t, want.Discount.Equal(got.Discount))
	assert.True(t, want.Tax.Equal(got.Tax))
	assert.True(t, want.Total.Equal(got.Total))
}

func TestSessionsHydratesOnFirstAccess(t *testing.T) {
	persister := NewMemoryPersister()
	require.NoError(t, persister.Save(context.Background(), "user-1", Snapshot{Items: []Item{
		{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 2},
	}}))

	sessions := NewSessions(testPolicy(t), persister, testLogger())
	store := sessions.For(context.Background(), "user-1")

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Items, 1)
	assert.True(t, snapshot.Totals.Subtotal.Equal(dec(t, "20.00")))

	// Same owner gets the same store back.
	again := sessions.For(context.Background(), "user-1")
	assert.Same(t, store, again)
}

func TestSessionsIsolatesOwners(t *testing.T) {
	sessions := NewSessions(testPolicy(t), nil, testLogger())

	first := sessions.For(context.Background(), "user-1")
	second := sessions.For(context.Background(), "user-2")

	first.AddItem(Item{ProductID: "prod-1", UnitPrice: dec(t, "10.00"), Quantity: 1})

	assert.Len(t, first.Snapshot().Items, 1)
	assert.Empty(t, second.Snapshot().Items)
}
