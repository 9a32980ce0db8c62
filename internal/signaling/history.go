package signaling

import (
	"sync"

	"github.com/thisissairam/vidoo-backend/internal/domain"
)

const defaultHistoryLimit = 100

// HistoryStore keeps a bounded, append-only chat log per room. Logs
// live only as long as the owning room does.
type HistoryStore struct {
	mu    sync.RWMutex
	limit int
	logs  map[string][]domain.ChatMessage
}

func NewHistoryStore(limit int) *HistoryStore {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &HistoryStore{
		limit: limit,
		logs:  make(map[string][]domain.ChatMessage),
	}
}

// Append adds an entry to the room's log, creating the log on first
// use. Once the log reaches the retention limit the oldest entries are
// evicted first.
func (h *HistoryStore) Append(roomKey string, msg domain.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := append(h.logs[roomKey], msg)
	if len(log) > h.limit {
		log = log[len(log)-h.limit:]
	}
	h.logs[roomKey] = log
}

// Snapshot returns the room's log in append order. An unknown room has
// an empty history, not an error.
func (h *HistoryStore) Snapshot(roomKey string) []domain.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	log, ok := h.logs[roomKey]
	if !ok {
		return nil
	}

	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out
}

// Clear drops the room's log. Invoked when the room itself is
// destroyed.
func (h *HistoryStore) Clear(roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.logs, roomKey)
}
