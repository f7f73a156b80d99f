package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Oracle modes.
const (
	OracleModeDisabled = "disabled"
	OracleModeRemote   = "remote"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Site    SiteConfig        `yaml:"site"`
	Oracle  OracleConfig      `yaml:"oracle"`
	Linking LinkingConfig     `yaml:"linking"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	return c.Oracle.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SiteConfig describes how public document URLs are formed.
// LinkPattern must contain a {slug} placeholder and may contain {category},
// e.g. "/blog/{slug}" or "/blogs/{category}/{slug}".
type SiteConfig struct {
	LinkPattern string `yaml:"link_pattern"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LinkPattern, validation.Required),
	)
}

// OracleConfig holds the semantic scoring backend configuration.
//
// Mode controls which backend is used:
//   - "disabled" (default): deterministic fallback scoring only.
//   - "remote": messages-API backend; APIKey must be non-empty.
type OracleConfig struct {
	Mode            string `yaml:"mode"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	ScoreTimeout    int    `yaml:"score_timeout_seconds"`
	ValidateTimeout int    `yaml:"validate_timeout_seconds"`
}

// Validate validates the oracle configuration.
func (c *OracleConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = OracleModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(OracleModeDisabled, OracleModeRemote)),
	); err != nil {
		return err
	}
	if c.Mode == OracleModeRemote && c.APIKey == "" {
		return fmt.Errorf("oracle: mode is %q but api_key is empty", OracleModeRemote)
	}
	return nil
}

// Enabled returns true when the remote oracle is active.
func (c *OracleConfig) Enabled() bool {
	return c.Mode == OracleModeRemote
}

// ScoreTimeoutDuration returns the scoring timeout as a duration.
func (c *OracleConfig) ScoreTimeoutDuration() time.Duration {
	return time.Duration(c.ScoreTimeout) * time.Second
}

// ValidateTimeoutDuration returns the validation timeout as a duration.
func (c *OracleConfig) ValidateTimeoutDuration() time.Duration {
	return time.Duration(c.ValidateTimeout) * time.Second
}

// LinkingConfig bounds the candidate pipeline. Zero values fall back to
// the engine defaults.
type LinkingConfig struct {
	SuggestionLimit int `yaml:"suggestion_limit"`
	MaxCandidates   int `yaml:"max_candidates"`
	RelevanceFloor  int `yaml:"relevance_floor"`
	ContextWindow   int `yaml:"context_window"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./gebo.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Site: SiteConfig{
			LinkPattern: "/blog/{slug}",
		},
		Oracle: OracleConfig{
			Mode: OracleModeDisabled,
		},
	}
}
