/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally within
the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1002
)

// Command and mutation failures are not represented here: they travel to the
// originating session as protocol events (NAME_EXISTS, COLOR_INVALID,
// COMMAND_FAILURE), never as HTTP error responses.

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPresenceUnderflow indicates a presence count was asked to drop below zero.
	// This is a server-side invariant violation and is never surfaced to clients.
	ErrPresenceUnderflow = 5001
)
