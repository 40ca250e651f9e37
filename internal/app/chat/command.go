/*
Package chat contains the core logic for the chat hub.

This file defines the Interpreter, the stateless dispatcher for in-band commands
embedded in message text. Validation failures are reported only to the originating
session; successful mutations additionally yield a UserUpdated broadcast.
*/
package chat

import (
	"strings"

	"github.com/rs/zerolog"

	"chathub/internal/app/identity"
	"chathub/internal/pkg/logx"
)

// CommandMarker introduces an in-band command at the start of message text.
const CommandMarker = "/"

// Command tokens recognized by the interpreter.
const (
	CommandNick      = "/nick"
	CommandNickColor = "/nickcolor"
)

// Outcome is the routed result of one command. Direct is always set and goes only to
// the originating session; Broadcast is set on successful mutations and goes to every
// connected session.
type Outcome struct {
	Direct    Event
	Broadcast *Event
}

// Interpreter parses in-band commands and turns them into registry mutations plus
// their direct and broadcast notifications. It holds no state of its own.
type Interpreter struct {
	registry *identity.Registry
	logger   zerolog.Logger
}

// NewInterpreter constructs an Interpreter bound to the given registry.
func NewInterpreter(registry *identity.Registry) *Interpreter {
	return &Interpreter{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "Interpreter").Logger(),
	}
}

// Execute runs the command contained in text on behalf of the user with the given id.
// The caller guarantees text starts with the command marker. Tokenization is on
// whitespace: the first token is the command, the second (if any) its argument.
func (i *Interpreter) Execute(userID, text string) Outcome {
	tokens := strings.Fields(text)

	command := CommandMarker
	if len(tokens) > 0 {
		command = tokens[0]
	}

	arg := ""
	if len(tokens) > 1 {
		arg = tokens[1]
	}

	switch command {
	case CommandNick:
		return i.executeNick(userID, command, arg)

	case CommandNickColor:
		return i.executeNickColor(userID, command, arg)

	default:
		i.logger.Debug().Str("user_id", userID).Str("command", command).Msg("Unrecognized command")
		return Outcome{Direct: Event{Type: TypeCommandFailure, Payload: command}}
	}
}

// executeNick handles /nick <name>.
func (i *Interpreter) executeNick(userID, command, arg string) Outcome {
	if arg == "" {
		return Outcome{Direct: Event{Type: TypeCommandFailure, Payload: command}}
	}

	user, result := i.registry.Rename(userID, arg)

	switch result {
	case identity.RenameNameTaken:
		return Outcome{Direct: Event{Type: TypeNameExists, Payload: arg}}

	case identity.RenameInvalidInput:
		return Outcome{Direct: Event{Type: TypeCommandFailure, Payload: command}}

	default:
		return Outcome{
			Direct:    Event{Type: TypeNameChanged, Payload: arg},
			Broadcast: &Event{Type: TypeUserUpdated, Payload: user},
		}
	}
}

// executeNickColor handles /nickcolor <hex>. The confirmation carries the argument
// exactly as typed, while the broadcast user carries the normalized stored color.
func (i *Interpreter) executeNickColor(userID, command, arg string) Outcome {
	if arg == "" {
		return Outcome{Direct: Event{Type: TypeCommandFailure, Payload: command}}
	}

	user, result := i.registry.Recolor(userID, arg)

	if result == identity.RecolorInvalidInput {
		return Outcome{Direct: Event{Type: TypeColorInvalid, Payload: arg}}
	}

	return Outcome{
		Direct:    Event{Type: TypeColorChanged, Payload: arg},
		Broadcast: &Event{Type: TypeUserUpdated, Payload: user},
	}
}
