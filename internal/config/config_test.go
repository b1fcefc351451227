package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ink-splatters/linear-cli-sub001/internal/oauth"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func disableKeyring(t *testing.T) {
	t.Helper()
	orig := keyringGet
	keyringGet = func(string) (string, bool) { return "", false }
	t.Cleanup(func() { keyringGet = orig })
}

func TestLoadFrom_Missing(t *testing.T) {
	cfg, err := LoadFrom(testPath(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Current != "" || len(cfg.Workspaces) != 0 {
		t.Errorf("missing file should yield empty config, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := testPath(t)
	cfg := &Config{
		Current: "work",
		Workspaces: map[string]Workspace{
			"work": {APIKey: "lin_api_abc"},
			"personal": {
				APIKey: "lin_api_def",
				OAuth: &OAuth{
					ClientID:    "cid",
					AccessToken: "lin_oauth_tok",
					TokenType:   "Bearer",
					ExpiresAt:   1700000000,
				},
			},
		},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Current != "work" {
		t.Errorf("current = %q", loaded.Current)
	}
	if loaded.Workspaces["personal"].OAuth.AccessToken != "lin_oauth_tok" {
		t.Errorf("oauth token lost: %+v", loaded.Workspaces["personal"])
	}
}

func TestLoadFrom_MigratesLegacyKey(t *testing.T) {
	path := testPath(t)
	if err := os.WriteFile(path, []byte("api_key: lin_api_legacy\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workspaces["default"].APIKey != "lin_api_legacy" {
		t.Errorf("legacy key not migrated: %+v", cfg.Workspaces)
	}
	if cfg.Current != "default" {
		t.Errorf("current = %q, want default", cfg.Current)
	}

	// Migration is persisted.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(string(raw), "api_key:") {
		t.Errorf("legacy top-level key still present:\n%s", raw)
	}
	if !strings.Contains(string(raw), "workspaces:") {
		t.Errorf("migrated config missing workspaces:\n%s", raw)
	}
}

func TestProfile(t *testing.T) {
	cfg := &Config{Current: "work"}

	t.Setenv(EnvProfile, "")
	if got := cfg.Profile(); got != "work" {
		t.Errorf("Profile() = %q, want work", got)
	}

	t.Setenv(EnvProfile, "staging")
	if got := cfg.Profile(); got != "staging" {
		t.Errorf("Profile() = %q, want staging (env wins)", got)
	}

	empty := &Config{}
	t.Setenv(EnvProfile, "")
	if got := empty.Profile(); got != "default" {
		t.Errorf("Profile() = %q, want default", got)
	}
}

func TestAPIKey_Precedence(t *testing.T) {
	disableKeyring(t)
	cfg := &Config{
		Current:    "work",
		Workspaces: map[string]Workspace{"work": {APIKey: "from-config"}},
	}

	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "from-env")
	key, err := cfg.APIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-env" {
		t.Errorf("key = %q, want env value", key)
	}

	t.Setenv(EnvAPIKey, "")
	key, err = cfg.APIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-config" {
		t.Errorf("key = %q, want config value", key)
	}
}

func TestAPIKey_KeyringWinsOverConfig(t *testing.T) {
	orig := keyringGet
	keyringGet = func(profile string) (string, bool) {
		if profile == "work" {
			return "from-keyring", true
		}
		return "", false
	}
	t.Cleanup(func() { keyringGet = orig })

	cfg := &Config{
		Current:    "work",
		Workspaces: map[string]Workspace{"work": {APIKey: "from-config"}},
	}
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	key, err := cfg.APIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-keyring" {
		t.Errorf("key = %q, want keyring value", key)
	}
}

func TestAPIKey_OAuthFallback(t *testing.T) {
	disableKeyring(t)
	cfg := &Config{
		Current: "work",
		Workspaces: map[string]Workspace{
			"work": {OAuth: &OAuth{AccessToken: "lin_oauth_tok"}},
		},
	}
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	key, err := cfg.APIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lin_oauth_tok" {
		t.Errorf("key = %q, want oauth token", key)
	}
}

func TestAPIKey_MissingWorkspace(t *testing.T) {
	disableKeyring(t)
	cfg := &Config{Workspaces: map[string]Workspace{}}
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	if _, err := cfg.APIKey(); err == nil {
		t.Fatal("expected error for missing workspace")
	}
}

// tokenServer counts refresh calls and hands out a fixed new token.
func tokenServer(t *testing.T, refreshes *int) *oauth.Exchanger {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*refreshes++
		_ = r.ParseForm()
		if grant := r.PostForm.Get("grant_type"); grant != "refresh_token" {
			t.Errorf("grant_type = %q", grant)
		}
		_, _ = w.Write([]byte(`{"access_token":"lin_oauth_new","refresh_token":"r2","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return &oauth.Exchanger{HTTPClient: srv.Client(), TokenURL: srv.URL, RevokeURL: srv.URL}
}

func oauthConfig(expiresAt int64, refreshToken string) *Config {
	return &Config{
		Current: "work",
		Workspaces: map[string]Workspace{
			"work": {OAuth: &OAuth{
				ClientID:     "cid",
				AccessToken:  "lin_oauth_old",
				RefreshToken: refreshToken,
				ExpiresAt:    expiresAt,
				TokenType:    "Bearer",
			}},
		},
	}
}

func TestFreshAPIKey_RefreshesExpiringToken(t *testing.T) {
	disableKeyring(t)
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	refreshes := 0
	ex := tokenServer(t, &refreshes)
	cfg := oauthConfig(time.Now().Add(-time.Hour).Unix(), "r1")

	key, err := cfg.FreshAPIKey(context.Background(), ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lin_oauth_new" {
		t.Errorf("key = %q, want refreshed token", key)
	}
	if refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes)
	}

	// The new tokens are persisted.
	reloaded, err := Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Workspaces["work"].OAuth
	if got == nil || got.AccessToken != "lin_oauth_new" || got.RefreshToken != "r2" {
		t.Errorf("persisted tokens = %+v", got)
	}
	if got != nil && got.ExpiresAt <= time.Now().Unix() {
		t.Errorf("persisted expiry not advanced: %d", got.ExpiresAt)
	}
}

func TestFreshAPIKey_ValidTokenSkipsRefresh(t *testing.T) {
	disableKeyring(t)
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	refreshes := 0
	ex := tokenServer(t, &refreshes)
	cfg := oauthConfig(time.Now().Add(time.Hour).Unix(), "r1")

	key, err := cfg.FreshAPIKey(context.Background(), ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lin_oauth_old" {
		t.Errorf("key = %q, want current token", key)
	}
	if refreshes != 0 {
		t.Errorf("valid token triggered %d refreshes", refreshes)
	}
}

func TestFreshAPIKey_NoRefreshTokenServesCurrent(t *testing.T) {
	disableKeyring(t)
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	refreshes := 0
	ex := tokenServer(t, &refreshes)
	cfg := oauthConfig(time.Now().Add(-time.Hour).Unix(), "")

	key, err := cfg.FreshAPIKey(context.Background(), ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "lin_oauth_old" {
		t.Errorf("key = %q, want current token", key)
	}
	if refreshes != 0 {
		t.Errorf("refreshes = %d, want 0 without a refresh token", refreshes)
	}
}

func TestFreshAPIKey_EnvWins(t *testing.T) {
	disableKeyring(t)
	t.Setenv(EnvProfile, "")
	t.Setenv(EnvAPIKey, "from-env")

	refreshes := 0
	ex := tokenServer(t, &refreshes)
	cfg := oauthConfig(time.Now().Add(-time.Hour).Unix(), "r1")

	key, err := cfg.FreshAPIKey(context.Background(), ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-env" {
		t.Errorf("key = %q, want env value", key)
	}
	if refreshes != 0 {
		t.Errorf("env credential should bypass refresh, got %d", refreshes)
	}
}

func TestSetAPIKey_PreservesOAuth(t *testing.T) {
	cfg := &Config{
		Current: "work",
		Workspaces: map[string]Workspace{
			"work": {APIKey: "old", OAuth: &OAuth{AccessToken: "tok"}},
		},
	}
	t.Setenv(EnvProfile, "")
	cfg.SetAPIKey("new")
	ws := cfg.Workspaces["work"]
	if ws.APIKey != "new" {
		t.Errorf("api key = %q, want new", ws.APIKey)
	}
	if ws.OAuth == nil || ws.OAuth.AccessToken != "tok" {
		t.Errorf("oauth tokens lost: %+v", ws)
	}
}
