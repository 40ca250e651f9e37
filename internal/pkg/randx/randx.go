/*
Package randx provides generation and validation of unique identifiers.

It is primarily used to mint opaque resume tokens for user identities and UUID
message IDs.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// TokenPrefix is prepended to every resume token. Clients use the token verbatim
// as an element class, so it must start with a letter rather than a digit.
const TokenPrefix = "id"

// ResumeToken mints a new opaque resume token: the "id" prefix followed by a UUID v4.
// The token doubles as the user's stable identifier for the process lifetime.
func ResumeToken() string {
	return TokenPrefix + uuid.New().String()
}

// IsValidToken reports whether the given string has the shape of a minted resume token.
// It does not imply the token belongs to a known user.
func IsValidToken(token string) bool {
	if !strings.HasPrefix(token, TokenPrefix) {
		return false
	}

	_, err := uuid.Parse(token[len(TokenPrefix):])
	return err == nil
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}
