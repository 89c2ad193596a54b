package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dangerclosesec/bizcontrol/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Invite.CodeLength)
	assert.Equal(t, 336*time.Hour, cfg.Invite.TTL)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.CleanupCron)
}

func TestLoadInviteCodeLength(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"1", false},
		{"16", false},
		{"17", true},
		{"0", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("INVITE_CODE_LENGTH", tt.value)
			_, err := config.Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadRejectsShortAlphabet(t *testing.T) {
	t.Setenv("INVITE_CODE_ALPHABET", "A")
	_, err := config.Load()
	assert.Error(t, err)
}
