package clients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewMemoryRepository builds an in-memory client store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{clients: make(map[string]Client)}
}

func (r *memoryRepository) Add(_ context.Context, client Client) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client.ID = uuid.NewString()
	client.CreatedAt = time.Now().UTC()
	r.clients[client.ID] = client
	return client, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return client, nil
}
