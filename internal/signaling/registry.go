package signaling

import (
	"sync"

	"github.com/google/uuid"
	"github.com/thisissairam/vidoo-backend/internal/domain"
)

// Registry tracks every currently connected client under the
// identifier assigned at connect time.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*domain.Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*domain.Client),
	}
}

// Register allocates a fresh identifier for the client and records it.
func (r *Registry) Register(client *domain.Client) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	client.ID = id
	r.clients[id] = client
	return id
}

// Unregister removes the client. Unknown identifiers are a no-op, so
// calling it twice for the same connection is safe.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, id)
}

func (r *Registry) Get(id string) (*domain.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	return client, ok
}

func (r *Registry) IsLive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.clients[id]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}
