package configs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/configs"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := configs.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.HandshakeTimeout)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfigTrimsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , https://b.example ,")

	cfg, err := configs.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"privileged port", "PORT", "80"},
		{"port out of range", "PORT", "70000"},
		{"non-numeric port", "PORT", "eighty"},
		{"zero handshake timeout", "HANDSHAKE_TIMEOUT", "0s"},
		{"zero join burst", "WS_JOIN_BURST", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := configs.LoadConfig()
			assert.Error(t, err)
		})
	}
}
