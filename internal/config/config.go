// Package config holds runtime configuration for the authkeeper server:
// defaults, optional JSON overlay, validation, and an atomically swappable
// settings snapshot for hot reload.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iudanet/authkeeper/internal/crypto"
)

// Schema-bound constants. These sizes are baked into the auth_tokens table;
// changing them is a breaking migration, so they are not configurable.
const (
	// TokenKeyLength is the number of leading raw-token characters stored
	// as the indexed lookup key
	TokenKeyLength = 15
	// DigestLength is the column width for hex digests (sha512)
	DigestLength = 128
	// MaxTokenPrefixLength is the maximum allowed custom token prefix
	MaxTokenPrefixLength = 10
)

// Settings is the auth policy portion of the configuration.
// It is treated as an immutable snapshot; reload builds a new value and
// swaps it atomically via Store.
type Settings struct {
	// HashAlgorithm selects the token digest function
	HashAlgorithm crypto.Algorithm
	// TokenCharacterLength is the length of the random part of a raw token (even)
	TokenCharacterLength int
	// TokenTTL is the default token lifetime; nil means tokens never expire
	TokenTTL *time.Duration
	// TokenLimitPerUser caps tokens created per user within the TTL window; 0 = unlimited
	TokenLimitPerUser int
	// AutoRefresh extends a token's expiry on successful authentication
	AutoRefresh bool
	// MinRefreshInterval throttles how often a refreshed expiry is persisted
	MinRefreshInterval time.Duration
	// TokenPrefix is prepended to every generated raw token
	TokenPrefix string
	// AuthHeaderScheme is the Authorization header scheme for bearer tokens
	AuthHeaderScheme string
	// SessionCookieName is the cookie carrying the session ID
	SessionCookieName string
	// SessionTTL is the server-side session lifetime
	SessionTTL time.Duration
}

// Config holds the full server configuration
type Config struct {
	Addr         string
	DatabasePath string
	SessionsPath string
	LogLevel     string
	Settings     Settings
}

// Default returns the development defaults.
// Production deployments are expected to override at least the paths.
func Default() Config {
	ttl := 10 * time.Hour
	return Config{
		Addr:         ":8080",
		DatabasePath: "authkeeper.db",
		SessionsPath: "sessions.db",
		LogLevel:     "info",
		Settings: Settings{
			HashAlgorithm:        crypto.SHA512,
			TokenCharacterLength: 64,
			TokenTTL:             &ttl,
			TokenLimitPerUser:    0,
			AutoRefresh:          false,
			MinRefreshInterval:   60 * time.Second,
			TokenPrefix:          "",
			AuthHeaderScheme:     "Token",
			SessionCookieName:    "authkeeper_session",
			SessionTTL:           24 * time.Hour,
		},
	}
}

// fileConfig mirrors Config for the JSON overlay; pointer fields distinguish
// "absent" from zero values
type fileConfig struct {
	Addr                 *string `json:"addr"`
	DatabasePath         *string `json:"database_path"`
	SessionsPath         *string `json:"sessions_path"`
	LogLevel             *string `json:"log_level"`
	HashAlgorithm        *string `json:"hash_algorithm"`
	TokenCharacterLength *int    `json:"token_character_length"`
	TokenTTL             *string `json:"token_ttl"` // duration string, "none" disables expiry
	TokenLimitPerUser    *int    `json:"token_limit_per_user"`
	AutoRefresh          *bool   `json:"auto_refresh"`
	MinRefreshInterval   *int    `json:"min_refresh_interval"` // seconds
	TokenPrefix          *string `json:"token_prefix"`
	AuthHeaderScheme     *string `json:"auth_header_scheme"`
	SessionCookieName    *string `json:"session_cookie_name"`
	SessionTTL           *string `json:"session_ttl"` // duration string
}

// ParseTTL converts a config string into an optional duration.
// "none" (or empty) means tokens never expire.
func ParseTTL(s string) (*time.Duration, error) {
	if s == "" || s == "none" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("invalid TTL %q: %w", s, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("TTL must not be negative, got %s", s)
	}
	return &d, nil
}

// Load builds a Config from defaults plus an optional JSON file.
// An empty path skips the overlay. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.Addr != nil {
		cfg.Addr = *fc.Addr
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.SessionsPath != nil {
		cfg.SessionsPath = *fc.SessionsPath
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.HashAlgorithm != nil {
		alg, err := crypto.ParseAlgorithm(*fc.HashAlgorithm)
		if err != nil {
			return err
		}
		cfg.Settings.HashAlgorithm = alg
	}
	if fc.TokenCharacterLength != nil {
		cfg.Settings.TokenCharacterLength = *fc.TokenCharacterLength
	}
	if fc.TokenTTL != nil {
		ttl, err := ParseTTL(*fc.TokenTTL)
		if err != nil {
			return err
		}
		cfg.Settings.TokenTTL = ttl
	}
	if fc.TokenLimitPerUser != nil {
		cfg.Settings.TokenLimitPerUser = *fc.TokenLimitPerUser
	}
	if fc.AutoRefresh != nil {
		cfg.Settings.AutoRefresh = *fc.AutoRefresh
	}
	if fc.MinRefreshInterval != nil {
		cfg.Settings.MinRefreshInterval = time.Duration(*fc.MinRefreshInterval) * time.Second
	}
	if fc.TokenPrefix != nil {
		cfg.Settings.TokenPrefix = *fc.TokenPrefix
	}
	if fc.AuthHeaderScheme != nil {
		cfg.Settings.AuthHeaderScheme = *fc.AuthHeaderScheme
	}
	if fc.SessionCookieName != nil {
		cfg.Settings.SessionCookieName = *fc.SessionCookieName
	}
	if fc.SessionTTL != nil {
		d, err := time.ParseDuration(*fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session TTL: %w", err)
		}
		cfg.Settings.SessionTTL = d
	}

	return nil
}

// Validate checks the settings invariants.
// A broken configuration must never reach the serving path.
func (s *Settings) Validate() error {
	if _, err := crypto.ParseAlgorithm(string(s.HashAlgorithm)); err != nil {
		return err
	}
	if s.TokenCharacterLength <= 0 || s.TokenCharacterLength%2 != 0 {
		return fmt.Errorf("token character length must be a positive even number, got %d", s.TokenCharacterLength)
	}
	if len(s.TokenPrefix) > MaxTokenPrefixLength {
		return fmt.Errorf("token prefix %q exceeds maximum length %d", s.TokenPrefix, MaxTokenPrefixLength)
	}
	if s.TokenTTL != nil && *s.TokenTTL < 0 {
		return errors.New("token TTL must not be negative")
	}
	if s.TokenLimitPerUser < 0 {
		return errors.New("token limit per user must not be negative")
	}
	if s.MinRefreshInterval < 0 {
		return errors.New("min refresh interval must not be negative")
	}
	if s.AuthHeaderScheme == "" {
		return errors.New("auth header scheme cannot be empty")
	}
	if s.SessionCookieName == "" {
		return errors.New("session cookie name cannot be empty")
	}
	if s.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}
	if c.SessionsPath == "" {
		return errors.New("sessions path cannot be empty")
	}
	return c.Settings.Validate()
}
