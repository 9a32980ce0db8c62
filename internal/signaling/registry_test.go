package signaling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisissairam/vidoo-backend/internal/domain"
)

func TestRegistryRegisterAssignsUniqueIDs(t *testing.T) {
	registry := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := registry.Register(domain.NewClient(nil, 1))
		require.NotEmpty(t, id)
		require.False(t, seen[id], "identifier reused: %s", id)
		seen[id] = true
	}

	assert.Equal(t, 100, registry.Count())
}

func TestRegistryRegisterSetsClientID(t *testing.T) {
	registry := NewRegistry()
	client := domain.NewClient(nil, 1)

	id := registry.Register(client)

	assert.Equal(t, id, client.ID)

	got, ok := registry.Get(id)
	require.True(t, ok)
	assert.Same(t, client, got)
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	id := registry.Register(domain.NewClient(nil, 1))

	registry.Unregister(id)
	assert.False(t, registry.IsLive(id))

	// A second unregister, or one for an id that never existed, is a
	// no-op rather than an error.
	registry.Unregister(id)
	registry.Unregister("nope")
	assert.Equal(t, 0, registry.Count())
}

func TestRegistryIsLive(t *testing.T) {
	registry := NewRegistry()

	assert.False(t, registry.IsLive("unknown"))

	id := registry.Register(domain.NewClient(nil, 1))
	assert.True(t, registry.IsLive(id))
}
