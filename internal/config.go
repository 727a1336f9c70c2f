package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/chunker"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Oracle  OracleConfig      `yaml:"oracle"`
	Ingest  IngestConfig      `yaml:"ingest"`
	Archive ArchiveConfig     `yaml:"archive"`
	Watch   WatchConfig       `yaml:"watch"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Oracle.Validate(); err != nil {
		return err
	}
	if err := c.Ingest.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// OracleConfig holds the connection settings for the extraction and
// generation oracle. APIKey is normally supplied via ${ORACLE_API_KEY};
// when empty, ingestion and querying return errors but the server still
// starts so graphs can be inspected.
type OracleConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Validate validates the oracle configuration.
func (c *OracleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
	)
}

// IngestConfig holds document chunking parameters. Zero values fall back
// to the chunker defaults.
type IngestConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
	MinLength int `yaml:"min_length"`
}

// Validate validates the ingest configuration.
func (c *IngestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ChunkSize, validation.Min(0)),
		validation.Field(&c.Overlap, validation.Min(0), validation.By(c.overlapFitsChunk)),
		validation.Field(&c.MinLength, validation.Min(0)),
	)
}

// overlapFitsChunk rejects overlaps at or above half the effective chunk
// size, which would stop the chunk window from advancing.
func (c *IngestConfig) overlapFitsChunk(_ interface{}) error {
	opts := c.ChunkerOptions()
	if opts.Overlap >= opts.ChunkSize/2 {
		return fmt.Errorf("must be less than half the chunk size (%d)", opts.ChunkSize)
	}
	return nil
}

// ChunkerOptions converts the config to chunker options, applying
// defaults for unset fields.
func (c *IngestConfig) ChunkerOptions() chunker.Options {
	opts := chunker.DefaultOptions()
	if c.ChunkSize > 0 {
		opts.ChunkSize = c.ChunkSize
	}
	if c.Overlap > 0 {
		opts.Overlap = c.Overlap
	}
	if c.MinLength > 0 {
		opts.MinLength = c.MinLength
	}
	return opts
}

// ArchiveConfig holds the chunk archive database configuration. An empty
// path disables the archive.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the chunk archive is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Path != ""
}

// WatchConfig holds the drop-directory auto-ingest configuration.
type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Session string `yaml:"session"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Session, validation.Required),
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Oracle: OracleConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Archive: ArchiveConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
