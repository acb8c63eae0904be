package persistence

import (
	"context"
	"time"

	c "github.com/patrickmn/go-cache"
)

var _ SnapshotStore = new(memorySnapshotStore)

// memorySnapshotStore holds encoded snapshots, so callers can never mutate
// a stored value through a returned one.
type memorySnapshotStore struct {
	cache *c.Cache
}

func NewMemorySnapshotStore() *memorySnapshotStore {
	return &memorySnapshotStore{
		cache: c.New(c.NoExpiration, 5*time.Minute),
	}
}

func (m *memorySnapshotStore) Save(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return StorageLayerError{Message: err.Error()}
	}
	if ttl <= 0 {
		ttl = c.NoExpiration
	}
	m.cache.Set(key, data, ttl)
	return nil
}

func (m *memorySnapshotStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	v, found := m.cache.Get(key)
	if !found {
		return nil, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, nil
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, StorageLayerError{Message: err.Error()}
	}
	return snap, nil
}

func (m *memorySnapshotStore) Delete(ctx context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
