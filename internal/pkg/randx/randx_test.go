package randx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chathub/internal/pkg/randx"
)

func TestResumeTokenShape(t *testing.T) {
	token := randx.ResumeToken()

	assert.True(t, randx.IsValidToken(token))
	assert.NotEqual(t, token, randx.ResumeToken())
}

func TestIsValidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"empty", "", false},
		{"missing prefix", "550e8400-e29b-41d4-a716-446655440000", false},
		{"prefix only", "id", false},
		{"garbage after prefix", "idnot-a-uuid", false},
		{"well formed", "id550e8400-e29b-41d4-a716-446655440000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, randx.IsValidToken(tt.token))
		})
	}
}
