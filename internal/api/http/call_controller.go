package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	"github.com/thisissairam/vidoo-backend/internal/api/http/converter"
	"github.com/thisissairam/vidoo-backend/internal/domain"
	"github.com/thisissairam/vidoo-backend/internal/service"
	"github.com/thisissairam/vidoo-backend/internal/signaling"
	"github.com/thisissairam/vidoo-backend/lib/logger/sl"
)

// Large enough for a full SDP offer.
const maxMessageSize = 64 * 1024

// CallController is the transport edge of the signaling layer: it
// upgrades call sockets, feeds inbound events to the relay and tears
// state down when the socket closes for any reason.
type CallController struct {
	signals     service.SignalInteractor
	registry    *signaling.Registry
	stunServers []string
	buffer      int
	log         *slog.Logger
	upgrader    websocket.Upgrader
}

func NewCallController(signals service.SignalInteractor, registry *signaling.Registry, stunServers []string, buffer int, log *slog.Logger) *CallController {
	if log == nil {
		log = slog.Default()
	}
	return &CallController{
		signals:     signals,
		registry:    registry,
		stunServers: stunServers,
		buffer:      buffer,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (c *CallController) Serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Error("failed to upgrade connection", sl.Err(err))
		return
	}

	c.Attach(conn)
}

// Attach registers an accepted websocket connection with the signaling
// layer and runs its event loop until the transport closes. This is
// the single entry point the surrounding application uses.
func (c *CallController) Attach(conn *websocket.Conn) {
	client := domain.NewClient(conn, c.buffer)
	clientID := c.registry.Register(client)
	client.SetStatus(domain.ClientStatusConnected)

	log := c.log.With(slog.String("client_id", clientID))
	log.Info("client connected", "remote", conn.RemoteAddr().String())

	go forwardClientEvents(client, log)

	conn.SetReadLimit(maxMessageSize)
	for {
		var event domain.Event
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("read failed", sl.Err(err))
			}
			break
		}

		client.Touch()

		// A rejected event is reported to the sender only; the
		// connection stays open.
		if err := c.signals.HandleSignal(clientID, &event); err != nil {
			client.EnqueueEvent(domain.Event{
				Type: domain.EventBadRequest,
				Payload: map[string]any{
					"reason": err.Error(),
				},
			})
		}
	}

	// Abrupt and clean departures end up here alike.
	c.signals.Disconnect(clientID)
	client.Close()
}

func (c *CallController) ListMembers(ctx *gin.Context) {
	roomKey := ctx.Param("roomKey")
	if roomKey == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "room key is required"})
		return
	}

	members := c.signals.Members(roomKey)
	ctx.JSON(http.StatusOK, gin.H{"members": converter.MembersToApi(members)})
}

// IceServers hands browsers the STUN set to negotiate with.
func (c *CallController) IceServers(ctx *gin.Context) {
	servers := []webrtc.ICEServer{
		{URLs: c.stunServers},
	}
	ctx.JSON(http.StatusOK, gin.H{"ice_servers": servers})
}

// forwardClientEvents drains the client's event buffer onto the
// socket. A failed write ends the writer; the read loop notices the
// dead socket and runs the disconnect path.
func forwardClientEvents(client *domain.Client, log *slog.Logger) {
	for event := range client.Events {
		if err := client.Socket.WriteJSON(event); err != nil {
			log.Debug("write failed", sl.Err(err))
			return
		}
	}
}
