/*
Package history contains the append-only message log.

The Log owns all Message records for the process lifetime. Messages are immutable once
appended and are replayed in append order to newly arrived connections. There is no
deletion, truncation, or mutation.
*/
package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chathub/internal/app/identity"
	"chathub/internal/pkg/logx"
	"chathub/internal/pkg/randx"
)

// Message is a single chat message. The author's display name is captured at posting
// time and intentionally does not track later renames; the replayed log shows names
// as of posting. The JSON field names are part of the wire format.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
}

// Log is the append-only, mutex-guarded message store. Append order under the lock
// is the single global message order seen by every observer.
type Log struct {
	mu       sync.Mutex
	messages []Message
	logger   zerolog.Logger
}

// NewLog constructs an empty Log.
func NewLog() *Log {
	return &Log{
		logger: logx.Logger().With().Str("component", "MessageLog").Logger(),
	}
}

// Append stores a new message authored by the given user. The caller guarantees text
// is non-empty; the gateway rejects empty and whitespace-only input before it gets here.
// The returned Message is immutable.
func (l *Log) Append(author identity.User, text string) Message {
	l.mu.Lock()
	// Timestamp assignment happens under the lock so timestamps never run
	// backwards relative to append order.
	msg := Message{
		ID:        randx.MessageID(),
		Text:      text,
		Timestamp: time.Now(),
		UserID:    author.ID,
		Username:  author.Name,
	}
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	l.logger.Debug().Str("user_id", author.ID).Str("username", author.Name).Msg("Message appended")

	return msg
}

// SnapshotAll returns a copy of every stored message in append order.
func (l *Log) SnapshotAll() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := make([]Message, len(l.messages))
	copy(all, l.messages)
	return all
}

// Len reports the number of stored messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.messages)
}
