package constants

// Default server configuration values
const (
	DefaultServerPort            = 8080
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
)

// Default retry configuration for database initialization
const (
	DefaultDatabaseRetryAttempts = 3
	DefaultBackoffInitialMs      = 500
	DefaultBackoffMaxMs          = 5000
)

// Default Twilio configuration values
const (
	// MockAccountSID is the sentinel account used when no real account is
	// configured. Outbound sends are skipped for this value.
	MockAccountSID          = "AC_mock_sid"
	DefaultTwilioTimeoutSec = 10
	SignatureHeader         = "X-Twilio-Signature"
)

// Default classification values
const (
	DefaultBotMentionToken = "@VaultBot"
	DefaultReactionBody    = "\U0001F4DD" // memo emoji
	WhatsAppSenderPrefix   = "whatsapp:"
	GroupAddressSuffix     = "@g.us"
)

// Encryption parameters for at-rest field encryption
const (
	EncryptionSalt       = "vaulthook-db-salt-v1"
	EncryptionLookupSalt = "vaulthook-lookup-salt-v1"
)

// Privacy settings for log masking
const (
	DefaultPhoneMaskLength = 4
)

// ServerErrorChannelSize bounds the server error channel in main
const ServerErrorChannelSize = 1
