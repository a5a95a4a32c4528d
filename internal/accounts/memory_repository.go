package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]Account
	byNumber map[string]string
}

// NewMemoryRepository constructs an in-memory account store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:     make(map[string]Account),
		byNumber: make(map[string]string),
	}
}

func (r *memoryRepository) Add(_ context.Context, account Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[account.Number]; taken {
		return Account{}, ErrNumberTaken
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	r.byID[account.ID] = account
	r.byNumber[account.Number] = account.ID
	return account, nil
}

func (r *memoryRepository) GetByNumber(_ context.Context, number string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[number]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

// Update only touches the balance; number and owner are immutable.
func (r *memoryRepository) Update(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[account.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Balance = account.Balance
	r.byID[account.ID] = stored
	return nil
}

func (r *memoryRepository) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byNumber[number]
	return ok, nil
}
