package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopcart/shopcart-backend/pkg/redis"
)

const snapshotTTL = 7 * 24 * time.Hour

// RedisPersister stores cart snapshots as JSON under the shared cart key
// namespace with a sliding TTL.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

func (p *RedisPersister) Save(ctx context.Context, ownerID string, snapshot Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return p.client.Set(ctx, p.client.CartKey(ownerID), raw, snapshotTTL)
}

func (p *RedisPersister) Load(ctx context.Context, ownerID string) (*Snapshot, error) {
	raw, err := p.client.Get(ctx, p.client.CartKey(ownerID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &snapshot, nil
}

func (p *RedisPersister) Delete(ctx context.Context, ownerID string) error {
	return p.client.Del(ctx, p.client.CartKey(ownerID))
}

// MemoryPersister keeps snapshots in a map. It backs tests and deployments
// that run without Redis.
type MemoryPersister struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{snapshots: make(map[string]Snapshot)}
}

func (p *MemoryPersister) Save(_ context.Context, ownerID string, snapshot Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[ownerID] = snapshot
	return nil
}

func (p *MemoryPersister) Load(_ context.Context, ownerID string) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot, ok := p.snapshots[ownerID]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (p *MemoryPersister) Delete(_ context.Context, ownerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.snapshots, ownerID)
	return nil
}
