/*
Package identity contains the user registry: the single owner of every user record
known to the chat hub.

This file defines the User struct, the basic representation of a chat participant,
used for passing user information both internally and to clients.
*/
package identity

// DefaultColor is the display color assigned to newly created users.
const DefaultColor = "#FFFFFF"

// User represents the identity of a chat participant. The JSON field names are part
// of the wire format: snapshots and broadcast events carry users in this shape.
type User struct {
	// ID is the user's stable identifier for the process lifetime. It doubles as
	// the opaque resume token held by the client.
	ID string `json:"id"`

	// Name is the display name, unique across all users ever created.
	Name string `json:"name"`

	// Color is the display color in CSS hex form, always stored with a leading "#".
	Color string `json:"color"`

	// Online counts the currently open sessions bound to this user. Zero means offline.
	Online int `json:"online"`
}
