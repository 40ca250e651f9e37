/*
Package chat contains the core logic for the chat hub: the event vocabulary exchanged
with clients, the in-band command interpreter, the broadcast hub, and per-connection
sessions.

This file defines the closed event vocabulary. Every frame on the per-connection
channel is an envelope of {type, payload}; the set of EventType constants below is
the complete protocol surface, and inbound dispatch switches exhaustively over it.
*/
package chat

import "encoding/json"

// EventType tags every envelope on the wire. The constant set below is closed.
type EventType string

// Handshake events.
const (
	// TypeRequestToken (server -> client, direct): asks the client for its resume token.
	TypeRequestToken EventType = "REQUEST_TOKEN"

	// TypeSubmitToken (client -> server): carries the client's resume token, possibly null.
	TypeSubmitToken EventType = "SUBMIT_TOKEN"
)

// Snapshot events, delivered only to the session that just completed its handshake.
const (
	// TypeUserInfo carries the session's own resolved user.
	TypeUserInfo EventType = "USER_INFO"

	// TypeAllUsers carries every known user, online and offline, in creation order.
	TypeAllUsers EventType = "ALL_USERS"

	// TypeAllMessages carries the full message log in append order.
	TypeAllMessages EventType = "ALL_MESSAGES"
)

// Chat traffic. TypeNewMessage is used in both directions: inbound its payload is the
// raw message text (string), outbound it is the stored Message broadcast to all sessions.
const (
	TypeNewMessage EventType = "NEW_MESSAGE"
)

// Broadcast presence and profile events, delivered to every connected session
// including the originator.
const (
	TypeUserConnected    EventType = "USER_CONNECTED"
	TypeUserDisconnected EventType = "USER_DISCONNECTED"
	TypeUserUpdated      EventType = "USER_UPDATED"
)

// Direct command outcomes, delivered only to the originating session. Validation
// failures are never broadcast.
const (
	// TypeNameExists carries the attempted, already-taken name.
	TypeNameExists EventType = "NAME_EXISTS"

	// TypeNameChanged confirms a rename, carrying the new name.
	TypeNameChanged EventType = "NAME_CHANGED"

	// TypeColorInvalid carries the rejected color input.
	TypeColorInvalid EventType = "COLOR_INVALID"

	// TypeColorChanged confirms a recolor, carrying the color input as typed.
	TypeColorChanged EventType = "COLOR_CHANGED"

	// TypeCommandFailure carries the unrecognized or argument-less command token.
	TypeCommandFailure EventType = "COMMAND_FAILURE"
)

// Event is an outbound envelope. The payload is marshaled together with the
// envelope at send time.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Encode serializes the envelope for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// InboundEvent is a client frame with its payload left raw until the type is known.
type InboundEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeInbound parses a raw client frame into an InboundEvent.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var ev InboundEvent
	err := json.Unmarshal(raw, &ev)
	return ev, err
}

// StringPayload extracts a JSON string payload. A null or absent payload yields the
// empty string without error, matching clients that submit no resume token.
func (e InboundEvent) StringPayload() (string, error) {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(e.Payload, &s); err != nil {
		return "", err
	}
	return s, nil
}
