package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaulthook/internal/constants"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("VAULTHOOK_PUBLIC_URL", "")
	t.Setenv("VAULTHOOK_DB_PATH", "")
	t.Setenv("VAULTHOOK_ENV", "")
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfigFile(t, `{"database": {"path": "data/test.db"}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, constants.MockAccountSID, cfg.Twilio.AccountSID)
	assert.Equal(t, constants.DefaultBotMentionToken, cfg.Twilio.BotMentionToken)
	assert.Equal(t, constants.DefaultReactionBody, cfg.Twilio.ReactionBody)
	assert.Equal(t, constants.DefaultTwilioTimeoutSec, cfg.Twilio.TimeoutSec)
	assert.Equal(t, constants.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultBackoffInitialMs, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, constants.DefaultBackoffMaxMs, cfg.Retry.MaxBackoffMs)
	assert.Equal(t, constants.DefaultDatabaseRetryAttempts, cfg.Retry.MaxAttempts)
}

func TestLoadConfigRequiresDatabasePath(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfigFile(t, `{}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrMissingDBPath)
}

func TestLoadConfigKeepsFileValues(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfigFile(t, `{
		"twilio": {
			"account_sid": "AC999",
			"public_url": "https://hooks.example.com",
			"bot_mention_token": "@OtherBot"
		},
		"database": {"path": "data/test.db"},
		"server": {"port": 9090}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "AC999", cfg.Twilio.AccountSID)
	assert.Equal(t, "https://hooks.example.com", cfg.Twilio.PublicURL)
	assert.Equal(t, "@OtherBot", cfg.Twilio.BotMentionToken)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("TWILIO_AUTH_TOKEN", "env-secret")
	t.Setenv("TWILIO_ACCOUNT_SID", "ACenv")
	t.Setenv("VAULTHOOK_PUBLIC_URL", "https://env.example.com")
	t.Setenv("VAULTHOOK_DB_PATH", "data/env.db")

	path := writeConfigFile(t, `{
		"twilio": {"account_sid": "ACfile", "public_url": "https://file.example.com"},
		"database": {"path": "data/file.db"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Twilio.AuthToken)
	assert.Equal(t, "ACenv", cfg.Twilio.AccountSID)
	assert.Equal(t, "https://env.example.com", cfg.Twilio.PublicURL)
	assert.Equal(t, "data/env.db", cfg.Database.Path)
}

func TestLoadConfigAuthTokenNeverFromFile(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfigFile(t, `{
		"twilio": {"auth_token": "file-secret"},
		"database": {"path": "data/test.db"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Twilio.AuthToken)
}

func TestLoadConfigToleratesMissingTokenOutsideProduction(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfigFile(t, `{"database": {"path": "data/test.db"}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Twilio.AuthToken)
}

func TestLoadConfigProductionRequirements(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		config  string
		wantErr string
	}{
		{
			name:    "missing token",
			token:   "",
			config:  `{"database": {"path": "data/test.db"}}`,
			wantErr: "auth token is required",
		},
		{
			name:    "mock token",
			token:   "mock-token",
			config:  `{"database": {"path": "data/test.db"}}`,
			wantErr: "mock",
		},
		{
			name:    "debug logging",
			token:   "real-production-token",
			config:  `{"database": {"path": "data/test.db"}, "log_level": "debug"}`,
			wantErr: "debug logging",
		},
		{
			name:   "valid production config",
			token:  "real-production-token",
			config: `{"database": {"path": "data/test.db"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvOverrides(t)
			t.Setenv("VAULTHOOK_ENV", "production")
			if tt.token != "" {
				t.Setenv("TWILIO_AUTH_TOKEN", tt.token)
			}

			path := writeConfigFile(t, tt.config)
			_, err := LoadConfig(path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	clearEnvOverrides(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeConfigFile(t, `{not json`)
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig("../../../etc/passwd")
	assert.Error(t, err)
}
