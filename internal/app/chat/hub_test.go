package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/app/history"
	"chathub/internal/app/identity"
)

// newTestSession builds an active session without a network connection. Hub fan-out
// and handleText only touch the send queue and the hub, never the conn.
func newTestSession(h *Hub, user identity.User) *Session {
	return &Session{
		hub:      h,
		send:     make(chan []byte, sendQueueSize),
		state:    StateActive,
		user:     user,
		resolved: true,
		logger:   zerolog.Nop(),
	}
}

func newTestHub(t *testing.T) (*Hub, *identity.Registry, *history.Log) {
	t.Helper()

	registry := identity.NewRegistry()
	messageLog := history.NewLog()
	hub := NewHub(registry, messageLog)

	go hub.Run()
	t.Cleanup(hub.Shutdown)

	return hub, registry, messageLog
}

type receivedEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func receiveEvent(t *testing.T, s *Session) receivedEvent {
	t.Helper()

	select {
	case data, ok := <-s.send:
		require.True(t, ok, "send queue closed while waiting for an event")

		var ev receivedEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev

	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
		return receivedEvent{}
	}
}

func TestPostMessageBroadcastsToAllSessions(t *testing.T) {
	hub, registry, messageLog := newTestHub(t)

	alice := registry.Resolve("")
	bob := registry.Resolve("")

	s1 := newTestSession(hub, alice)
	s2 := newTestSession(hub, bob)
	hub.Register(s1)
	hub.Register(s2)

	msg, ok := hub.PostMessage(alice.ID, "hello everyone")
	require.True(t, ok)
	assert.Equal(t, 1, messageLog.Len())

	for _, s := range []*Session{s1, s2} {
		ev := receiveEvent(t, s)
		assert.Equal(t, TypeNewMessage, ev.Type)

		var got history.Message
		require.NoError(t, json.Unmarshal(ev.Payload, &got))
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "hello everyone", got.Text)
		assert.Equal(t, alice.Name, got.Username)
	}
}

func TestBroadcastOrderMatchesLogOrder(t *testing.T) {
	hub, registry, _ := newTestHub(t)

	alice := registry.Resolve("")
	s := newTestSession(hub, alice)
	hub.Register(s)

	hub.PostMessage(alice.ID, "first")
	hub.PostMessage(alice.ID, "second")
	hub.PostMessage(alice.ID, "third")

	for _, want := range []string{"first", "second", "third"} {
		ev := receiveEvent(t, s)
		require.Equal(t, TypeNewMessage, ev.Type)

		var got history.Message
		require.NoError(t, json.Unmarshal(ev.Payload, &got))
		assert.Equal(t, want, got.Text)
	}
}

func TestPostMessageSnapshotsCurrentName(t *testing.T) {
	hub, registry, _ := newTestHub(t)

	alice := registry.Resolve("")
	s := newTestSession(hub, alice)
	hub.Register(s)

	_, result := registry.Rename(alice.ID, "Alice")
	require.Equal(t, identity.RenameChanged, result)

	msg, ok := hub.PostMessage(alice.ID, "hi")
	require.True(t, ok)
	assert.Equal(t, "Alice", msg.Username, "append must use the author's name at posting time")
}

func TestHandleTextRoutesCommands(t *testing.T) {
	hub, registry, messageLog := newTestHub(t)

	alice := registry.Resolve("")
	bob := registry.Resolve("")

	sAlice := newTestSession(hub, alice)
	sBob := newTestSession(hub, bob)
	hub.Register(sAlice)
	hub.Register(sBob)

	sAlice.handleText("/nick Queen")

	// The originator gets the direct confirmation first, then the broadcast.
	direct := receiveEvent(t, sAlice)
	assert.Equal(t, TypeNameChanged, direct.Type)

	var confirmed string
	require.NoError(t, json.Unmarshal(direct.Payload, &confirmed))
	assert.Equal(t, "Queen", confirmed)

	for _, s := range []*Session{sAlice, sBob} {
		ev := receiveEvent(t, s)
		assert.Equal(t, TypeUserUpdated, ev.Type)

		var updated identity.User
		require.NoError(t, json.Unmarshal(ev.Payload, &updated))
		assert.Equal(t, "Queen", updated.Name)
	}

	assert.Equal(t, 0, messageLog.Len(), "commands must not reach the message log")
}

func TestHandleTextFailureStaysDirect(t *testing.T) {
	hub, registry, _ := newTestHub(t)

	alice := registry.Resolve("")
	bob := registry.Resolve("")
	_, result := registry.Rename(alice.ID, "Bob")
	require.Equal(t, identity.RenameChanged, result)

	sBob := newTestSession(hub, bob)
	sOther := newTestSession(hub, alice)
	hub.Register(sBob)
	hub.Register(sOther)

	sBob.handleText("/nick Bob")

	ev := receiveEvent(t, sBob)
	assert.Equal(t, TypeNameExists, ev.Type)

	select {
	case data := <-sOther.send:
		t.Fatalf("bystander received %s during a failed command", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleTextIgnoresBlankInput(t *testing.T) {
	hub, registry, messageLog := newTestHub(t)

	alice := registry.Resolve("")
	s := newTestSession(hub, alice)
	hub.Register(s)

	s.handleText("")
	s.handleText("   \t ")

	assert.Equal(t, 0, messageLog.Len())

	select {
	case data := <-s.send:
		t.Fatalf("blank input produced event %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSessionIsDropped(t *testing.T) {
	hub, registry, _ := newTestHub(t)

	alice := registry.Resolve("")
	slow := newTestSession(hub, alice)
	hub.Register(slow)

	// Saturate the queue so the next fan-out cannot be delivered.
	for i := 0; i < sendQueueSize; i++ {
		slow.send <- []byte("{}")
	}

	hub.Broadcast(Event{Type: TypeUserUpdated, Payload: alice})

	deadline := time.After(time.Second)
	for drained := 0; drained < sendQueueSize; drained++ {
		select {
		case <-slow.send:
		case <-deadline:
			t.Fatal("timed out draining the saturated queue")
		}
	}

	select {
	case _, ok := <-slow.send:
		assert.False(t, ok, "hub must close the queue of a session it dropped")
	case <-deadline:
		t.Fatal("timed out waiting for the queue to be closed")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	registry := identity.NewRegistry()
	hub := NewHub(registry, history.NewLog())
	go hub.Run()

	alice := registry.Resolve("")
	s := newTestSession(hub, alice)
	hub.Register(s)

	hub.Shutdown()

	select {
	case _, ok := <-s.send:
		assert.False(t, ok, "shutdown must close every session queue")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown to close the session")
	}
}
