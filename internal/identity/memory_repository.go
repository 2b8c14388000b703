package identity

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]User
	phones map[string]int64
}

// NewMemoryRepository builds an in-memory user store for tests and local development.
func NewMemoryRepository() Store {
	return &memoryRepository{byID: make(map[int64]User), phones: make(map[string]int64)}
}

func (r *memoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(user)
}

func (r *memoryRepository) insertLocked(user User) (User, error) {
	if _, exists := r.phones[user.Phone]; exists {
		return User{}, ErrDuplicatePhone
	}
	r.nextID++
	user.ID = r.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.byID[user.ID] = user
	r.phones[user.Phone] = user.ID
	return user, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.phones[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// InTx buffers creates and applies them only when fn succeeds. IDs handed out
// inside the transaction are reserved even if it rolls back, like a sequence.
func (r *memoryRepository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	tx := &memoryTx{parent: r}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range tx.pending {
		if _, exists := r.phones[user.Phone]; exists {
			r.rollbackLocked(tx.pending)
			return ErrDuplicatePhone
		}
		r.byID[user.ID] = user
		r.phones[user.Phone] = user.ID
	}
	return nil
}

func (r *memoryRepository) rollbackLocked(pending []User) {
	for _, user := range pending {
		if id, ok := r.phones[user.Phone]; ok && id == user.ID {
			delete(r.phones, user.Phone)
			delete(r.byID, user.ID)
		}
	}
}

type memoryTx struct {
	parent  *memoryRepository
	pending []User
}

func (t *memoryTx) Create(ctx context.Context, user User) (User, error) {
	if _, err := t.FindByPhone(ctx, user.Phone); err == nil {
		return User{}, ErrDuplicatePhone
	}
	t.parent.mu.Lock()
	t.parent.nextID++
	user.ID = t.parent.nextID
	t.parent.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	t.pending = append(t.pending, user)
	return user, nil
}

func (t *memoryTx) FindByPhone(ctx context.Context, phone string) (User, error) {
	for _, user := range t.pending {
		if user.Phone == phone {
			return user, nil
		}
	}
	return t.parent.FindByPhone(ctx, phone)
}

func (t *memoryTx) FindByID(ctx context.Context, id int64) (User, error) {
	for _, user := range t.pending {
		if user.ID == id {
			return user, nil
		}
	}
	return t.parent.FindByID(ctx, id)
}
