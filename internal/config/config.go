// Package config handles workspace configuration: YAML loading and
// atomic saving, profile selection, and API key resolution across the
// environment, the OS keyring, and the config file.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ink-splatters/linear-cli-sub001/internal/keyring"
	"github.com/ink-splatters/linear-cli-sub001/internal/oauth"
)

// Environment variables honoured during key and profile resolution.
const (
	EnvAPIKey  = "LINEAR_API_KEY"
	EnvProfile = "LINEAR_CLI_PROFILE"
)

const defaultProfile = "default"

// OAuth holds tokens obtained through the OAuth PKCE flow.
type OAuth struct {
	ClientID     string   `yaml:"client_id"`
	AccessToken  string   `yaml:"access_token"`
	RefreshToken string   `yaml:"refresh_token,omitempty"`
	ExpiresAt    int64    `yaml:"expires_at,omitempty"`
	TokenType    string   `yaml:"token_type"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// Workspace is one named credential set.
type Workspace struct {
	APIKey string `yaml:"api_key"`
	OAuth  *OAuth `yaml:"oauth,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	// Current names the active workspace when LINEAR_CLI_PROFILE is unset.
	Current    string               `yaml:"current,omitempty"`
	Workspaces map[string]Workspace `yaml:"workspaces,omitempty"`

	// LegacyAPIKey is the pre-workspaces top-level key. It is migrated
	// into the default workspace on load and never written back.
	LegacyAPIKey string `yaml:"api_key,omitempty"`
}

// Path returns the config file location, creating its directory.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate config directory: %w", err)
	}
	dir := filepath.Join(base, "linear-cli")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from its default location. A missing file
// yields an empty config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and parses the config at path, migrating the legacy
// top-level api_key into a default workspace when present.
func LoadFrom(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{Workspaces: map[string]Workspace{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Workspaces == nil {
		cfg.Workspaces = map[string]Workspace{}
	}

	if cfg.LegacyAPIKey != "" {
		if _, exists := cfg.Workspaces[defaultProfile]; !exists {
			cfg.Workspaces[defaultProfile] = Workspace{APIKey: cfg.LegacyAPIKey}
			if cfg.Current == "" {
				cfg.Current = defaultProfile
			}
			cfg.LegacyAPIKey = ""
			if err := SaveTo(path, &cfg); err != nil {
				return nil, err
			}
		}
		cfg.LegacyAPIKey = ""
	}

	return &cfg, nil
}

// Save writes the config to its default location.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the config atomically: temp file with 0600 permissions,
// then rename over the target.
func SaveTo(path string, cfg *Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, ".config.yaml.tmp")
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: replacing %s: %w", path, err)
	}
	return nil
}

// Profile returns the active profile name: LINEAR_CLI_PROFILE, then the
// config's current workspace, then "default".
func (c *Config) Profile() string {
	if p := os.Getenv(EnvProfile); p != "" {
		return p
	}
	if c.Current != "" {
		return c.Current
	}
	return defaultProfile
}

// SetAPIKey stores key on the active profile, preserving any OAuth
// tokens already attached to it.
func (c *Config) SetAPIKey(key string) {
	profile := c.Profile()
	ws := c.Workspaces[profile]
	ws.APIKey = key
	c.Workspaces[profile] = ws
	if c.Current == "" {
		c.Current = profile
	}
}

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// refreshWindow is how close to expiry an OAuth token may get before a
// refresh is attempted.
const refreshWindow = 5 * time.Minute

// APIKey resolves the credential to use: LINEAR_API_KEY, then the OS
// keyring for the active profile, then the workspace's stored key.
// It never touches the network; commands that talk to the API should
// use FreshAPIKey instead.
func (c *Config) APIKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}

	profile := c.Profile()
	if key, ok := keyringGet(profile); ok {
		return key, nil
	}

	ws, ok := c.Workspaces[profile]
	if !ok {
		return "", fmt.Errorf("config: workspace %q not found; run: linear config set-key <key>", profile)
	}
	if ws.OAuth != nil && ws.OAuth.AccessToken != "" {
		return ws.OAuth.AccessToken, nil
	}
	if ws.APIKey == "" {
		return "", fmt.Errorf("config: no API key for workspace %q; run: linear config set-key <key>", profile)
	}
	return ws.APIKey, nil
}

// FreshAPIKey resolves the credential like APIKey, but refreshes an
// OAuth token that expires within five minutes and persists the new
// tokens before returning.
func (c *Config) FreshAPIKey(ctx context.Context, ex *oauth.Exchanger) (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}

	profile := c.Profile()
	if key, ok := keyringGet(profile); ok {
		return key, nil
	}

	ws, ok := c.Workspaces[profile]
	if ok && ws.OAuth != nil && ws.OAuth.AccessToken != "" {
		current := oauth.Tokens{
			AccessToken:  ws.OAuth.AccessToken,
			RefreshToken: ws.OAuth.RefreshToken,
			ExpiresAt:    ws.OAuth.ExpiresAt,
		}
		if !current.ExpiresWithin(refreshWindow) {
			return ws.OAuth.AccessToken, nil
		}
		if ws.OAuth.RefreshToken == "" {
			// Nothing to refresh with; let the API reject it.
			return ws.OAuth.AccessToken, nil
		}

		clientID := ws.OAuth.ClientID
		if clientID == "" {
			clientID = oauth.DefaultClientID
		}
		tokens, err := ex.Refresh(ctx, clientID, ws.OAuth.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("config: refreshing OAuth token for workspace %q (run: linear auth login): %w", profile, err)
		}

		ws.OAuth.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			ws.OAuth.RefreshToken = tokens.RefreshToken
		}
		ws.OAuth.ExpiresAt = tokens.ExpiresAt
		ws.OAuth.TokenType = tokens.TokenType
		c.Workspaces[profile] = ws
		if err := Save(c); err != nil {
			return "", err
		}
		return tokens.AccessToken, nil
	}

	return c.APIKey()
}
