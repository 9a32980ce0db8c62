package domain

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type ClientStatus string

const (
	ClientStatusConnected    ClientStatus = "connected"
	ClientStatusConnecting   ClientStatus = "connecting"
	ClientStatusDisconnected ClientStatus = "disconnected"
)

// Client represents one live browser connection. The identifier is
// assigned at connect time by the registry and is never reused within
// the process lifetime.
type Client struct {
	ID          string
	DisplayName string
	Status      ClientStatus
	ConnectedAt time.Time
	LastSeen    time.Time
	Mutex       sync.RWMutex
	Socket      *websocket.Conn
	Events      chan Event
	closed      bool
}

func NewClient(socket *websocket.Conn, buffer int) *Client {
	now := time.Now().UTC()
	return &Client{
		Status:      ClientStatusConnecting,
		ConnectedAt: now,
		LastSeen:    now,
		Socket:      socket,
		Events:      make(chan Event, buffer),
	}
}

func (c *Client) Touch() {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.LastSeen = time.Now().UTC()
}

func (c *Client) SetStatus(status ClientStatus) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.Status = status
}

// EnqueueEvent hands an event to the connection's writer. Delivery is
// best-effort: a client that is closed or whose buffer is full loses
// the event rather than blocking the relay.
func (c *Client) EnqueueEvent(event Event) bool {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Idempotent; after Close no further
// events can be enqueued.
func (c *Client) Close() {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.Status = ClientStatusDisconnected
	close(c.Events)
	if c.Socket != nil {
		c.Socket.Close()
	}
}

func (c *Client) Name() string {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()
	return c.DisplayName
}

func (c *Client) SetName(name string) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.DisplayName = name
}
