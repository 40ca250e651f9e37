/*
Package identity contains the user registry: the single owner of every user record
known to the chat hub.

This file defines the Registry struct, which tracks all users ever created during the
process lifetime, enforces display-name uniqueness and color validity, and maintains
per-user presence counts. All operations are serialized under a single mutex so that
check-then-mutate sequences (notably Rename) are atomic.
*/
package identity

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"chathub/internal/pkg/errs"
	"chathub/internal/pkg/logx"
	"chathub/internal/pkg/randx"
)

// hexColorPattern matches a 3- or 6-digit hex color with a leading "#".
var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)

// RenameResult is the outcome of a Rename call.
type RenameResult int

const (
	// RenameChanged means the display name was updated.
	RenameChanged RenameResult = iota

	// RenameNameTaken means another user (online or not) already holds the name.
	RenameNameTaken

	// RenameInvalidInput means the requested name was empty.
	RenameInvalidInput
)

// RecolorResult is the outcome of a Recolor call.
type RecolorResult int

const (
	// RecolorChanged means the color was updated.
	RecolorChanged RecolorResult = iota

	// RecolorInvalidInput means the input was empty or not a valid hex color.
	RecolorInvalidInput
)

// Registry owns all User records. It is the single writer of their fields; callers
// only ever receive copies.
type Registry struct {
	// mu serializes every registry operation.
	mu sync.Mutex

	// users holds all users ever created, in creation order.
	users []*User

	// byID indexes users by their id for token resolution.
	byID map[string]*User

	// names holds every display name currently in use, for uniqueness checks.
	names map[string]struct{}

	// nameCounter feeds the default "User<n>" names.
	nameCounter int

	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	registryLogger := logx.Logger().With().Str("component", "Registry").Logger()

	return &Registry{
		byID:   make(map[string]*User),
		names:  make(map[string]struct{}),
		logger: registryLogger,
	}
}

// Resolve binds a connection's resume token to a user record. A token matching a
// known user returns that user unchanged; anything else (including an empty token)
// allocates a fresh user with a server-generated id, the next default name, and the
// default color. Resolve never fails.
func (r *Registry) Resolve(token string) User {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != "" {
		if u, ok := r.byID[token]; ok {
			return *u
		}
	}

	u := &User{
		ID:    randx.ResumeToken(),
		Name:  "User" + strconv.Itoa(r.nameCounter),
		Color: DefaultColor,
	}
	r.nameCounter++

	r.users = append(r.users, u)
	r.byID[u.ID] = u
	r.names[u.Name] = struct{}{}

	r.logger.Info().Str("user_id", u.ID).Str("name", u.Name).Msg("New user created")

	return *u
}

// Get returns the current state of the user with the given id.
func (r *Registry) Get(id string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// IncrementPresence records a new session bound to the user and returns the updated user.
func (r *Registry) IncrementPresence(id string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, false
	}

	u.Online++
	return *u, true
}

// DecrementPresence records a closed session bound to the user and returns the updated user.
// Decrementing below zero cannot happen through correct gateway usage; if it does, the
// count is left at zero and an internal error is returned for logging, never for clients.
func (r *Registry) DecrementPresence(id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return User{}, errs.NewError(errs.ErrInvalidParams)
	}

	if u.Online <= 0 {
		r.logger.Error().Str("user_id", id).Msg("Presence decrement requested for offline user")
		return *u, errs.NewError(errs.ErrPresenceUnderflow, id)
	}

	u.Online--
	return *u, nil
}

// Rename changes the user's display name. The uniqueness check covers every user ever
// created, online or not, and is atomic with the mutation: of two concurrent renames
// to the same free name, exactly one succeeds.
func (r *Registry) Rename(id, newName string) (User, RenameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || newName == "" {
		return User{}, RenameInvalidInput
	}

	if _, taken := r.names[newName]; taken {
		return *u, RenameNameTaken
	}

	delete(r.names, u.Name)
	r.names[newName] = struct{}{}

	r.logger.Info().Str("user_id", id).Str("old_name", u.Name).Str("new_name", newName).Msg("User renamed")

	u.Name = newName
	return *u, RenameChanged
}

// Recolor changes the user's display color. A missing leading "#" is prepended before
// validation against the 3- or 6-digit hex pattern; invalid input leaves the stored
// color untouched. Normalization is idempotent: recoloring with an already stored
// value is a no-op that still reports RecolorChanged.
func (r *Registry) Recolor(id, input string) (User, RecolorResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || input == "" {
		return User{}, RecolorInvalidInput
	}

	color := input
	if color[0] != '#' {
		color = "#" + color
	}

	if !hexColorPattern.MatchString(color) {
		return *u, RecolorInvalidInput
	}

	r.logger.Info().Str("user_id", id).Str("color", color).Msg("User recolored")

	u.Color = color
	return *u, RecolorChanged
}

// SnapshotAll returns a copy of every known user, online and offline, in creation order.
func (r *Registry) SnapshotAll() []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, *u)
	}
	return all
}
