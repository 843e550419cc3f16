package models

// Config holds the application configuration
type Config struct {
	Twilio   TwilioConfig   `json:"twilio"`
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Retry    RetryConfig    `json:"retry"`
	Tracing  TracingConfig  `json:"tracing"`
	LogLevel string         `json:"log_level"`
}

// TwilioConfig holds inbound verification and outbound messaging settings.
// AuthToken doubles as the webhook signing secret; it is only ever populated
// from the environment, never from the config file.
type TwilioConfig struct {
	AccountSID      string `json:"account_sid"`
	AuthToken       string `json:"-"`
	PublicURL       string `json:"public_url"`
	APIBaseURL      string `json:"api_base_url,omitempty"`
	BotMentionToken string `json:"bot_mention_token"`
	ReactionBody    string `json:"reaction_body"`
	TimeoutSec      int    `json:"timeout_sec"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port            int `json:"port"`
	ReadTimeoutSec  int `json:"read_timeout_sec"`
	WriteTimeoutSec int `json:"write_timeout_sec"`
	IdleTimeoutSec  int `json:"idle_timeout_sec"`
}

// RetryConfig holds retry related configurations for store initialization
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry related configurations
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
