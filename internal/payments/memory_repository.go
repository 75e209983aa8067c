package payments

import (
	"context"
	"fmt"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Record
}

// NewMemoryRepository constructs a concurrency-safe in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Record)}
}

func (r *memoryRepository) Insert(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("insert payment: empty id")
	}
	if !rec.Status.Terminal() {
		return fmt.Errorf("insert payment %s: status %q is not terminal", rec.ID, rec.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[rec.ID]; exists {
		return ErrDuplicatePayment
	}
	r.storage[rec.ID] = rec
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.storage[id]
	if !ok {
		return Record{}, ErrPaymentNotFound
	}
	return rec, nil
}
