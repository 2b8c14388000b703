package farmer

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Profile
	byUser  map[int64]string
}

// NewMemoryRepository constructs an in-memory repository for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Profile), byUser: make(map[int64]string)}
}

func (r *memoryRepository) Create(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUser[p.UserID]; exists {
		return ErrProfileExists
	}
	r.storage[p.FarmerID] = clone(p)
	r.byUser[p.UserID] = p.FarmerID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, farmerID string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[farmerID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return clone(p), nil
}

func (r *memoryRepository) GetByUser(ctx context.Context, userID int64) (Profile, error) {
	r.mu.RLock()
	id, ok := r.byUser[userID]
	r.mu.RUnlock()
	if !ok {
		return Profile{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *memoryRepository) Update(_ context.Context, p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[p.FarmerID]; !ok {
		return ErrNotFound
	}
	r.storage[p.FarmerID] = clone(p)
	return nil
}

func clone(p Profile) Profile {
	p.PrimaryCrops = append([]string(nil), p.PrimaryCrops...)
	return p
}
