package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./sp2yt.db" {
			t.Errorf("expected database path ./sp2yt.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Transfer.BatchSize != 90 {
			t.Errorf("expected batch size 90, got %d", config.Transfer.BatchSize)
		}
		if config.Transfer.CheckpointEvery != 5 {
			t.Errorf("expected checkpoint every 5, got %d", config.Transfer.CheckpointEvery)
		}
		if config.Transfer.SearchDelay.Duration != 500*time.Millisecond {
			t.Errorf("expected search delay 500ms, got %v", config.Transfer.SearchDelay)
		}
		if config.Transfer.MaxResults != 5 || config.Transfer.VideoCategory != "10" {
			t.Errorf("unexpected search settings %+v", config.Transfer)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig overrides defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[database]
path = "/custom/path.db"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[transfer]
batch_size = 3
search_delay = "2s"
privacy = "unlisted"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Transfer.BatchSize != 3 {
			t.Errorf("expected batch size 3, got %d", config.Transfer.BatchSize)
		}
		if config.Transfer.SearchDelay.Duration != 2*time.Second {
			t.Errorf("expected search delay 2s, got %v", config.Transfer.SearchDelay)
		}
		if config.Transfer.CheckpointEvery != 5 {
			t.Errorf("expected default checkpoint cadence to survive, got %d", config.Transfer.CheckpointEvery)
		}
		if !config.Credentials.Spotify.HasClient() {
			t.Error("expected spotify client to be configured")
		}
	})

	t.Run("LoadConfig rejects bad duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(configPath, []byte("[transfer]\nadd_delay = \"soon\"\n"), 0644)

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "empty data dir", mutate: func(c *Config) { c.Transfer.DataDir = "" }},
			{name: "zero batch", mutate: func(c *Config) { c.Transfer.BatchSize = 0 }},
			{name: "zero checkpoint", mutate: func(c *Config) { c.Transfer.CheckpointEvery = 0 }},
			{name: "too many results", mutate: func(c *Config) { c.Transfer.MaxResults = 51 }},
			{name: "negative delay", mutate: func(c *Config) { c.Transfer.AddDelay.Duration = -time.Second }},
			{name: "bad privacy", mutate: func(c *Config) { c.Transfer.Privacy = "secret" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := DefaultConfig()
				tt.mutate(c)
				if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("SaveConfig round trips tokens", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		config.Credentials.YouTube.Update(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry})
		config.Transfer.AddDelay = Duration{1500 * time.Millisecond}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		tok := loaded.Credentials.YouTube.Token()
		if tok == nil || tok.AccessToken != "access" || tok.RefreshToken != "refresh" {
			t.Fatalf("unexpected token %+v", tok)
		}
		if !tok.Expiry.Equal(expiry) {
			t.Errorf("expiry = %v, want %v", tok.Expiry, expiry)
		}
		if loaded.Transfer.AddDelay.Duration != 1500*time.Millisecond {
			t.Errorf("add delay = %v, want 1.5s", loaded.Transfer.AddDelay)
		}
	})
}

func TestOAuthConfig(t *testing.T) {
	t.Run("Token is nil without stored token", func(t *testing.T) {
		if tok := (OAuthConfig{ClientID: "id"}).Token(); tok != nil {
			t.Errorf("expected nil token, got %+v", tok)
		}
	})

	t.Run("Update keeps refresh token when omitted", func(t *testing.T) {
		c := OAuthConfig{RefreshToken: "keep"}
		c.Update(&oauth2.Token{AccessToken: "new"})
		if c.AccessToken != "new" || c.RefreshToken != "keep" {
			t.Errorf("unexpected credentials %+v", c)
		}
		c.Update(nil)
		if c.AccessToken != "new" {
			t.Error("nil token should be ignored")
		}
	})

	t.Run("Map", func(t *testing.T) {
		m := OAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://cb"}.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "http://cb" {
			t.Errorf("unexpected map %v", m)
		}
	})
}
