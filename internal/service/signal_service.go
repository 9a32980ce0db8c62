package service

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/thisissairam/vidoo-backend/internal/domain"
	"github.com/thisissairam/vidoo-backend/internal/signaling"
	"github.com/thisissairam/vidoo-backend/lib/logger/sl"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotMember  = errors.New("not a member of the room")
)

const maxChatMessageLength = 4000

// SignalService is the protocol engine behind the call gateway. It
// owns no connection state itself; all of it lives in the registry,
// directory and history store, and every mutation for one room runs
// under that room's lock so membership updates and broadcast target
// computation never interleave.
type SignalService struct {
	registry  *signaling.Registry
	directory *signaling.Directory
	history   *signaling.HistoryStore
	log       *slog.Logger

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewSignalService(registry *signaling.Registry, directory *signaling.Directory, history *signaling.HistoryStore, log *slog.Logger) *SignalService {
	if log == nil {
		log = slog.Default()
	}
	return &SignalService{
		registry:  registry,
		directory: directory,
		history:   history,
		log:       log,
		roomLocks: make(map[string]*sync.Mutex),
	}
}

// HandleSignal routes one inbound client event. Validation failures
// come back as errors for the gateway to report to the sender only;
// none of them are fatal to the connection.
func (s *SignalService) HandleSignal(clientID string, event *domain.Event) error {
	const op = "service.signal.handle"
	if event == nil {
		return ErrBadRequest
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("client_id", clientID),
		slog.String("type", event.Type),
	)
	log.Debug("new signal", "room", event.Room, "target", event.TargetID)

	switch event.Type {
	case domain.EventJoinRoom:
		return s.join(clientID, event.Room, event.DisplayName)
	case domain.EventNegotiation:
		return s.forward(clientID, event)
	case domain.EventChatMessage:
		return s.chat(clientID, event)
	case domain.EventLeaveRoom:
		return s.leave(clientID, event.Room)
	default:
		log.Info("unsupported signal type")
		return ErrBadRequest
	}
}

// Disconnect is the transport-level teardown path. It behaves like an
// explicit leave for whichever room the client is in, then drops the
// client from the registry. Safe to race an in-flight leave from the
// same connection; the loser observes the membership already gone.
func (s *SignalService) Disconnect(clientID string) {
	const op = "service.signal.disconnect"

	if roomKey, ok := s.directory.RoomOf(clientID); ok {
		if err := s.leave(clientID, roomKey); err != nil {
			s.log.Error("disconnect cleanup failed", slog.String("op", op), sl.Err(err))
		}
	}
	s.registry.Unregister(clientID)
	s.log.Info("client disconnected", slog.String("op", op), slog.String("client_id", clientID))
}

// Members reports the room's current member list in join order.
func (s *SignalService) Members(roomKey string) []*domain.Client {
	return lo.FilterMap(s.directory.MembersOf(roomKey), func(id string, _ int) (*domain.Client, bool) {
		return s.registry.Get(id)
	})
}

func (s *SignalService) join(clientID string, roomKey string, displayName string) error {
	const op = "service.signal.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("client_id", clientID),
		slog.String("room", roomKey),
	)

	if roomKey == "" {
		return ErrBadRequest
	}

	client, ok := s.registry.Get(clientID)
	if !ok {
		return ErrBadRequest
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		client.SetName(displayName)
	}

	unlock := s.lockRoom(roomKey)
	defer unlock()

	existing, err := s.directory.Join(roomKey, clientID)
	switch {
	case errors.Is(err, signaling.ErrAlreadyMember):
		// Plausible after a reconnect race; answer with the current
		// state instead of erroring.
		log.Info("duplicate join", "members", len(existing))
		client.EnqueueEvent(s.joinedEvent(roomKey, client, existing))
		return nil
	case err != nil:
		return err
	}

	// The ack and the history replay are enqueued to the joiner before
	// the peer-joined broadcast, so the joiner never sees a later event
	// reference history it was not given.
	client.EnqueueEvent(s.joinedEvent(roomKey, client, existing))
	for _, msg := range s.history.Snapshot(roomKey) {
		client.EnqueueEvent(chatEvent(roomKey, msg))
	}

	s.broadcast(roomKey, existing, domain.Event{
		Type:        domain.EventPeerJoined,
		Room:        roomKey,
		SenderID:    clientID,
		DisplayName: client.Name(),
	})

	log.Info("client joined", "display_name", client.Name(), "peers", len(existing))
	return nil
}

// forward relays a negotiation event (offer, answer or candidate —
// opaque here) to its single target. A target that has disconnected is
// dropped silently; negotiation races disconnects by nature and the
// sender times out on its own.
func (s *SignalService) forward(clientID string, event *domain.Event) error {
	const op = "service.signal.forward"

	if event.TargetID == "" {
		return ErrBadRequest
	}

	target, ok := s.registry.Get(event.TargetID)
	if !ok {
		s.log.Debug("negotiation target gone", slog.String("op", op), slog.String("target", event.TargetID))
		return nil
	}

	out := *event
	out.SenderID = clientID
	if !target.EnqueueEvent(out) {
		s.log.Debug("dropping negotiation event", slog.String("op", op), slog.String("target", event.TargetID))
	}
	return nil
}

func (s *SignalService) chat(clientID string, event *domain.Event) error {
	const op = "service.signal.chat"

	if event.Room == "" {
		return ErrBadRequest
	}
	body, err := chatBody(event.Payload)
	if err != nil {
		return err
	}

	client, ok := s.registry.Get(clientID)
	if !ok {
		return ErrBadRequest
	}

	unlock := s.lockRoom(event.Room)
	defer unlock()

	if !s.directory.IsMember(event.Room, clientID) {
		return ErrNotMember
	}

	msg := domain.NewChatMessage(client, body)
	s.history.Append(event.Room, msg)

	members := s.directory.MembersOf(event.Room)
	s.broadcast(event.Room, lo.Without(members, clientID), chatEvent(event.Room, msg))

	s.log.Debug("chat relayed", slog.String("op", op), slog.String("room", event.Room), slog.Int("targets", len(members)-1))
	return nil
}

func (s *SignalService) leave(clientID string, roomKey string) error {
	const op = "service.signal.leave"

	if roomKey == "" {
		return ErrBadRequest
	}

	unlock := s.lockRoom(roomKey)

	remaining, left := s.directory.Leave(roomKey, clientID)
	if !left {
		unlock()
		return nil
	}

	if len(remaining) == 0 {
		// Last member out: the room and its history are gone.
		s.history.Clear(roomKey)
		unlock()
		s.log.Info("room destroyed", slog.String("op", op), slog.String("room", roomKey))
		return nil
	}

	s.broadcast(roomKey, remaining, domain.Event{
		Type:     domain.EventPeerLeft,
		Room:     roomKey,
		SenderID: clientID,
	})
	unlock()

	s.log.Info("client left", slog.String("op", op), slog.String("room", roomKey), slog.String("client_id", clientID))
	return nil
}

// broadcast enqueues the event to every listed member still known to
// the registry. A full or closed client buffer drops that one target
// and never blocks the rest.
func (s *SignalService) broadcast(roomKey string, memberIDs []string, event domain.Event) {
	for _, id := range memberIDs {
		member, ok := s.registry.Get(id)
		if !ok {
			continue
		}
		if !member.EnqueueEvent(event) {
			s.log.Debug("dropping broadcast event",
				slog.String("room", roomKey),
				slog.String("peer", id),
				slog.String("type", event.Type),
			)
		}
	}
}

func (s *SignalService) joinedEvent(roomKey string, client *domain.Client, memberIDs []string) domain.Event {
	members := lo.FilterMap(memberIDs, func(id string, _ int) (map[string]any, bool) {
		member, ok := s.registry.Get(id)
		if !ok {
			return nil, false
		}
		return map[string]any{
			"peer_id":      member.ID,
			"display_name": member.Name(),
		}, true
	})

	return domain.Event{
		Type:        domain.EventRoomJoined,
		Room:        roomKey,
		SenderID:    client.ID,
		DisplayName: client.Name(),
		Payload: map[string]any{
			"members": members,
		},
	}
}

func chatEvent(roomKey string, msg domain.ChatMessage) domain.Event {
	return domain.Event{
		Type:        domain.EventChatMessage,
		Room:        roomKey,
		SenderID:    msg.SenderID,
		DisplayName: msg.DisplayName,
		Payload: map[string]any{
			"message":   msg.Body,
			"sender":    msg.DisplayName,
			"timestamp": msg.SentAt.Format(time.RFC3339Nano),
		},
	}
}

func chatBody(payload map[string]any) (string, error) {
	if payload == nil {
		return "", ErrBadRequest
	}

	raw, ok := payload["message"]
	if !ok {
		return "", ErrBadRequest
	}
	body, ok := raw.(string)
	if !ok {
		return "", ErrBadRequest
	}

	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > maxChatMessageLength {
		return "", ErrBadRequest
	}
	return body, nil
}

// lockRoom serializes all relay work for one room. Rooms are
// independent; operations on different rooms proceed in parallel.
// The returned unlock retires the lock entry once the room has no
// members, and a lock acquired after its entry was retired is stale,
// so two callers never hold different locks for the same key.
func (s *SignalService) lockRoom(roomKey string) func() {
	for {
		s.mu.Lock()
		lock, ok := s.roomLocks[roomKey]
		if !ok {
			lock = &sync.Mutex{}
			s.roomLocks[roomKey] = lock
		}
		s.mu.Unlock()

		lock.Lock()

		s.mu.Lock()
		current := s.roomLocks[roomKey]
		s.mu.Unlock()
		if current != lock {
			lock.Unlock()
			continue
		}

		return func() {
			s.mu.Lock()
			if s.roomLocks[roomKey] == lock && len(s.directory.MembersOf(roomKey)) == 0 {
				delete(s.roomLocks, roomKey)
			}
			s.mu.Unlock()
			lock.Unlock()
		}
	}
}
