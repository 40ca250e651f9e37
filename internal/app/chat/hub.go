/*
Package chat contains the core logic for the chat hub.

This file defines the Hub, the single room every connection joins. The Hub owns the
set of active sessions and realizes the routing policy: direct events are written to
one session's queue, broadcast events fan out through the Hub's run loop to every
registered session, including the originator. Fan-out is serialized by the run loop,
so every session observes broadcasts in the same relative order.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"chathub/internal/app/history"
	"chathub/internal/app/identity"
	"chathub/internal/pkg/logx"
)

const broadcastChannelBuffer = 1024

// Hub coordinates all active sessions and their shared state.
type Hub struct {
	registry *identity.Registry
	log      *history.Log
	interp   *Interpreter

	// sessions holds every currently registered (post-handshake) session.
	sessions map[*Session]struct{}

	// broadcast queues events destined for every session.
	broadcast chan Event

	// register and unregister queue session membership changes.
	register   chan *Session
	unregister chan *Session

	// stop signals the run loop to terminate; done is closed when it has.
	stop chan struct{}
	done chan struct{}

	stopOnce sync.Once

	// postMu serializes message append with broadcast enqueue, so the broadcast
	// order of NewMessage events always equals the log's append order.
	postMu sync.Mutex

	logger zerolog.Logger
}

// NewHub constructs a Hub over the given registry and message log. The caller must
// start the run loop with go hub.Run().
func NewHub(registry *identity.Registry, log *history.Log) *Hub {
	return &Hub{
		registry:   registry,
		log:        log,
		interp:     NewInterpreter(registry),
		sessions:   make(map[*Session]struct{}),
		broadcast:  make(chan Event, broadcastChannelBuffer),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Run starts the main event loop for the Hub. It handles session registration,
// deregistration, and broadcast fan-out until Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case s := <-h.register:
			h.sessions[s] = struct{}{}
			h.logger.Info().
				Str("user_id", s.user.ID).
				Int("total_sessions", len(h.sessions)).
				Msg("Session joined hub")

		case s := <-h.unregister:
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				s.closeSend()
				h.logger.Info().
					Str("user_id", s.user.ID).
					Int("total_sessions", len(h.sessions)).
					Msg("Session left hub")
			}

		case ev := <-h.broadcast:
			h.fanOut(ev)

		case <-h.stop:
			h.logger.Info().Msg("Hub stopping. Closing all sessions.")
			for s := range h.sessions {
				delete(h.sessions, s)
				s.closeSend()
			}
			return
		}
	}
}

// fanOut encodes the event once and queues it to every registered session. A session
// whose queue is full cannot keep up and is removed; its connection teardown follows
// from the closed queue.
func (h *Hub) fanOut(ev Event) {
	data, err := ev.Encode()
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(ev.Type)).Msg("Error encoding broadcast event")
		return
	}

	for s := range h.sessions {
		select {
		case s.send <- data:
		default:
			h.logger.Warn().
				Str("user_id", s.user.ID).
				Str("event_type", string(ev.Type)).
				Msg("Session send queue full, disconnecting session")

			delete(h.sessions, s)
			s.closeSend()
		}
	}
}

// Register queues the session for membership. Called once its handshake completes.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.stop:
	}
}

// Unregister removes the session from membership.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.stop:
	}
}

// Broadcast queues an event for delivery to every registered session.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.broadcast <- ev:
	case <-h.stop:
	}
}

// PostMessage appends a chat message on behalf of the given user and broadcasts it.
// The author's name is read at posting time so the stored snapshot reflects any
// rename that has already happened. Append and broadcast enqueue happen under one
// lock: the order all sessions observe is exactly the log order.
func (h *Hub) PostMessage(userID, text string) (history.Message, bool) {
	author, ok := h.registry.Get(userID)
	if !ok {
		h.logger.Error().Str("user_id", userID).Msg("Message posted for unknown user")
		return history.Message{}, false
	}

	h.postMu.Lock()
	msg := h.log.Append(author, text)
	h.Broadcast(Event{Type: TypeNewMessage, Payload: msg})
	h.postMu.Unlock()

	return msg, true
}

// Shutdown terminates the run loop and waits for it to close every session.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done

	h.logger.Info().Msg("Hub shutdown complete.")
}
