/*
Package chat contains the core logic for the chat hub.

This file defines the Session struct, representing one active client connection. It
carries the per-connection handshake state machine (Handshaking, Active, Closed), the
message communication loops (ReadPump and WritePump), and the disconnect bookkeeping
against the registry and the hub.
*/
package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chathub/internal/app/identity"
	"chathub/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// sendQueueSize is the per-session outbound queue capacity.
	sendQueueSize = 256
)

// SessionState is the explicit per-connection state machine.
type SessionState int

const (
	// StateHandshaking: the connection is open but no resume token has arrived yet.
	StateHandshaking SessionState = iota

	// StateActive: the identity is resolved and chat traffic flows.
	StateActive

	// StateClosed is terminal.
	StateClosed
)

// Session is the ephemeral binding between one connection and a user identity.
// Its state, user, and resolved fields are touched only by the read loop goroutine.
type Session struct {
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel of encoded events waiting to be written to the client.
	send chan []byte

	// closeOnce guards against closing the send queue twice.
	closeOnce sync.Once

	state SessionState

	// user is valid once resolved is true. The registry remains the source of
	// truth; this copy is only used for identifying the session.
	user     identity.User
	resolved bool

	// handshakeTimeout bounds how long the session may sit in StateHandshaking.
	handshakeTimeout time.Duration

	// logger is set once at construction and shared by both pumps; it must not
	// be reassigned after WritePump starts. Identity fields are attached per call.
	logger zerolog.Logger
}

// NewSession constructs a Session over an established WebSocket connection.
func NewSession(hub *Hub, conn *websocket.Conn, handshakeTimeout time.Duration) *Session {
	return &Session{
		hub:              hub,
		conn:             conn,
		send:             make(chan []byte, sendQueueSize),
		state:            StateHandshaking,
		handshakeTimeout: handshakeTimeout,
		logger:           logx.Logger().With().Str("component", "Session").Logger(),
	}
}

// ReadPump handles reading frames from the WebSocket connection. It drives the
// handshake state machine and performs cleanup upon connection closure.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxMessageSize)

	// Until the resume token arrives, the read deadline doubles as the handshake
	// timeout. A connection that never resolves is dropped without side effects.
	if err := s.conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set handshake read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		if s.state != StateActive {
			return nil
		}
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		s.processInbound(raw)
	}
}

// processInbound dispatches one client frame according to the session state.
func (s *Session) processInbound(raw []byte) {
	ev, err := DecodeInbound(raw)
	if err != nil {
		s.logger.Warn().Err(err).Bytes("frame", raw).Msg("Client sent invalid JSON")
		return
	}

	switch s.state {
	case StateHandshaking:
		if ev.Type != TypeSubmitToken {
			s.logger.Warn().Str("event_type", string(ev.Type)).Msg("Frame before token submission ignored")
			return
		}

		token, err := ev.StringPayload()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Client sent malformed token payload")
			return
		}

		s.activate(token)

	case StateActive:
		switch ev.Type {
		case TypeNewMessage:
			text, err := ev.StringPayload()
			if err != nil {
				s.logger.Warn().Err(err).Msg("Client sent malformed message payload")
				return
			}
			s.handleText(text)

		default:
			s.logger.Warn().Str("event_type", string(ev.Type)).Msg("Client sent unsupported event type")
		}

	case StateClosed:
	}
}

// activate binds the session to a user identity: resolve the token, count the new
// session, join the hub, deliver the snapshot directly, and announce the arrival.
func (s *Session) activate(token string) {
	user := s.hub.registry.Resolve(token)
	user, ok := s.hub.registry.IncrementPresence(user.ID)
	if !ok {
		// Resolve just returned this user; its absence means registry misuse.
		s.logger.Error().Str("user_id", user.ID).Msg("Resolved user missing during presence increment")
		return
	}

	s.user = user
	s.resolved = true
	s.state = StateActive

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
	}

	s.hub.Register(s)

	s.SendEvent(Event{Type: TypeUserInfo, Payload: user})
	s.SendEvent(Event{Type: TypeAllUsers, Payload: s.hub.registry.SnapshotAll()})
	s.SendEvent(Event{Type: TypeAllMessages, Payload: s.hub.log.SnapshotAll()})

	s.hub.Broadcast(Event{Type: TypeUserConnected, Payload: user})

	s.logger.Info().
		Str("user_id", user.ID).
		Str("name", user.Name).
		Int("online", user.Online).
		Msg("User connected")
}

// handleText routes inbound message text: empty input is a no-op, a leading command
// marker goes to the interpreter, anything else is appended to the log and broadcast.
func (s *Session) handleText(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	if strings.HasPrefix(text, CommandMarker) {
		outcome := s.hub.interp.Execute(s.user.ID, text)

		s.SendEvent(outcome.Direct)
		if outcome.Broadcast != nil {
			s.hub.Broadcast(*outcome.Broadcast)
		}
		return
	}

	s.hub.PostMessage(s.user.ID, text)
}

// cleanupOnDisconnect runs when the read loop terminates. A session that resolved an
// identity gives back its presence count and announces the departure; one that never
// resolved is simply dropped.
func (s *Session) cleanupOnDisconnect() {
	s.state = StateClosed

	if s.resolved {
		user, err := s.hub.registry.DecrementPresence(s.user.ID)
		if err != nil {
			logx.Error(err, "Presence decrement failed during session cleanup", "user_id", s.user.ID)
		} else {
			s.hub.Broadcast(Event{Type: TypeUserDisconnected, Payload: user})
			s.logger.Info().
				Str("user_id", user.ID).
				Str("name", user.Name).
				Int("online", user.Online).
				Msg("User disconnected")
		}

		s.hub.Unregister(s)
	}

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// SendEvent encodes the event and queues it for direct delivery to this session only.
func (s *Session) SendEvent(ev Event) {
	data, err := ev.Encode()
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(ev.Type)).Msg("Error encoding direct event")
		return
	}

	s.trySend(data)
}

// trySend queues encoded data without blocking. The hub may close the send queue
// concurrently with a direct send, so the send is guarded against the resulting panic.
func (s *Session) trySend(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Msg("Send on closed session queue dropped")
		}
	}()

	select {
	case s.send <- data:
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping event")
	}
}

// closeSend closes the outbound queue, which terminates the WritePump. Called by the hub.
func (s *Session) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// WritePump writes queued events to the WebSocket connection and keeps the
// heartbeat alive with periodic pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case data, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					s.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Info().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Info().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
