package domain

import "github.com/pion/webrtc/v3"

const (
	EventJoinRoom    = "join-room"
	EventNegotiation = "negotiation"
	EventChatMessage = "chat-message"
	EventLeaveRoom   = "leave-room"

	EventRoomJoined = "room-joined"
	EventPeerJoined = "peer-joined"
	EventPeerLeft   = "peer-left"
	EventBadRequest = "bad-request"
)

// Event is the wire unit of the signaling protocol. SDP and Candidate
// are opaque to the server, they are parsed only so they survive the
// round trip intact.
type Event struct {
	Type        string                     `json:"type"`
	Room        string                     `json:"room,omitempty"`
	SenderID    string                     `json:"sender_id,omitempty"`
	TargetID    string                     `json:"target_id,omitempty"`
	DisplayName string                     `json:"display_name,omitempty"`
	SDP         *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate   *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Payload     map[string]any             `json:"payload,omitempty"`
}
