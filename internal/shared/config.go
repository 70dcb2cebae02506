package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Transfer    TransferConfig    `toml:"transfer"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify OAuthConfig `toml:"spotify"`
	YouTube OAuthConfig `toml:"youtube"`
}

// OAuthConfig holds the client registration and the last token issued for one provider.
type OAuthConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenExpiry  time.Time `toml:"token_expiry"`
}

// Map returns the credentials keyed the way service constructors expect them.
func (c OAuthConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// HasClient reports whether a client id and secret are configured.
func (c OAuthConfig) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Token returns the stored token, or nil when no token has been saved.
func (c OAuthConfig) Token() *oauth2.Token {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.TokenExpiry,
	}
}

// Update copies a freshly issued token into the config.
//
// Providers omit the refresh token on refresh, so an empty one keeps the stored value.
func (c *OAuthConfig) Update(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	c.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	c.TokenExpiry = tok.Expiry
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TransferConfig controls search sessions and playlist builds.
type TransferConfig struct {
	DataDir         string   `toml:"data_dir"`
	BatchSize       int      `toml:"batch_size"`
	CheckpointEvery int      `toml:"checkpoint_every"`
	SearchDelay     Duration `toml:"search_delay"`
	AddDelay        Duration `toml:"add_delay"`
	MaxResults      int      `toml:"max_results"`
	VideoCategory   string   `toml:"video_category"`
	Privacy         string   `toml:"privacy"`
}

// Duration is a [time.Duration] that reads and writes TOML strings like "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validate rejects settings the transfer engine cannot run with.
func (c *Config) Validate() error {
	t := c.Transfer
	switch {
	case t.DataDir == "":
		return fmt.Errorf("%w: transfer.data_dir is required", ErrInvalidConfig)
	case t.BatchSize <= 0:
		return fmt.Errorf("%w: transfer.batch_size must be positive", ErrInvalidConfig)
	case t.CheckpointEvery <= 0:
		return fmt.Errorf("%w: transfer.checkpoint_every must be positive", ErrInvalidConfig)
	case t.MaxResults <= 0 || t.MaxResults > 50:
		return fmt.Errorf("%w: transfer.max_results must be between 1 and 50", ErrInvalidConfig)
	case t.SearchDelay.Duration < 0 || t.AddDelay.Duration < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	switch t.Privacy {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("%w: transfer.privacy %q", ErrInvalidConfig, t.Privacy)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path, replacing the file atomically.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0600)
}
