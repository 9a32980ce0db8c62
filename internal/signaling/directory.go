package signaling

import (
	"errors"
	"slices"
	"sync"
)

var (
	ErrAlreadyMember = errors.New("already a member of the room")
	ErrAlreadyInCall = errors.New("already in another call")
)

// Directory maps room keys to join-ordered member sets. A client is a
// member of at most one room at a time; rooms exist exactly while they
// have members.
type Directory struct {
	mu       sync.RWMutex
	rooms    map[string][]string
	byClient map[string]string
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:    make(map[string][]string),
		byClient: make(map[string]string),
	}
}

// Join adds the client to the room, creating the room on first join,
// and returns the member list as it was before this join. A repeat
// join of the same room returns ErrAlreadyMember together with the
// current member list; the caller treats it as benign.
func (d *Directory) Join(roomKey string, clientID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if current, ok := d.byClient[clientID]; ok {
		if current == roomKey {
			return slices.Clone(d.rooms[roomKey]), ErrAlreadyMember
		}
		return nil, ErrAlreadyInCall
	}

	existing := slices.Clone(d.rooms[roomKey])
	d.rooms[roomKey] = append(d.rooms[roomKey], clientID)
	d.byClient[clientID] = roomKey
	return existing, nil
}

// Leave removes the client from the room and reports the remaining
// member list. The room is destroyed once its member set empties.
// Leaving a room the client is not a member of is a no-op.
func (d *Directory) Leave(roomKey string, clientID string) (remaining []string, left bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.byClient[clientID] != roomKey {
		return slices.Clone(d.rooms[roomKey]), false
	}

	members := d.rooms[roomKey]
	idx := slices.Index(members, clientID)
	if idx < 0 {
		return slices.Clone(members), false
	}

	members = slices.Delete(members, idx, idx+1)
	delete(d.byClient, clientID)

	if len(members) == 0 {
		delete(d.rooms, roomKey)
		return nil, true
	}

	d.rooms[roomKey] = members
	return slices.Clone(members), true
}

// RoomOf reports which room the client is currently in. Used on
// disconnect, where the closing connection carries no room key.
func (d *Directory) RoomOf(clientID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	roomKey, ok := d.byClient[clientID]
	return roomKey, ok
}

// MembersOf returns the room's member list in join order, empty for an
// unknown room.
func (d *Directory) MembersOf(roomKey string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.rooms[roomKey])
}

func (d *Directory) IsMember(roomKey string, clientID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.byClient[clientID] == roomKey
}
