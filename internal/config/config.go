package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"vaulthook/internal/constants"
	"vaulthook/internal/models"
	"vaulthook/internal/security"
)

var (
	ErrMissingDBPath = models.ConfigError{Message: "missing database path"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if c.Twilio.AccountSID == "" {
		c.Twilio.AccountSID = constants.MockAccountSID
	}
	if c.Twilio.BotMentionToken == "" {
		c.Twilio.BotMentionToken = constants.DefaultBotMentionToken
	}
	if c.Twilio.ReactionBody == "" {
		c.Twilio.ReactionBody = constants.DefaultReactionBody
	}
	if c.Twilio.TimeoutSec <= 0 {
		c.Twilio.TimeoutSec = constants.DefaultTwilioTimeoutSec
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	// SECURITY: the auth token is the webhook signing secret and the outbound
	// credential; it is only ever sourced from the environment.
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		c.Twilio.AuthToken = token
	}
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		c.Twilio.AccountSID = sid
	}
	if url := os.Getenv("VAULTHOOK_PUBLIC_URL"); url != "" {
		c.Twilio.PublicURL = url
	}
	if path := os.Getenv("VAULTHOOK_DB_PATH"); path != "" {
		c.Database.Path = path
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("VAULTHOOK_ENV") == "production"

	if isProduction {
		// In production the signing secret is mandatory at startup. In
		// development a missing token is tolerated here and surfaces per
		// request through the handler's failure path instead.
		if c.Twilio.AuthToken == "" {
			return models.ConfigError{Message: "Twilio auth token is required in production (set TWILIO_AUTH_TOKEN environment variable)"}
		}
		if strings.Contains(c.Twilio.AuthToken, "mock") {
			return models.ConfigError{Message: "mock Twilio auth token cannot be used in production"}
		}
		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else {
		if c.Twilio.AuthToken == "" {
			fmt.Fprintf(os.Stderr, "WARNING: Twilio auth token not set. Set TWILIO_AUTH_TOKEN environment variable; inbound requests will be dead-lettered until it is.\n")
		}
	}

	return nil
}
