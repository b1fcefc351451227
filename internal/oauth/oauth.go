// Package oauth implements the Linear OAuth 2.0 PKCE flow: challenge
// generation, browser authorization, a localhost callback server, and
// token exchange, refresh, and revocation.
package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Linear OAuth endpoints.
const (
	AuthorizeURL = "https://linear.app/oauth/authorize"
	TokenURL     = "https://api.linear.app/oauth/token"
	RevokeURL    = "https://api.linear.app/oauth/revoke"
)

// DefaultClientID is the OAuth app registered for this CLI.
const DefaultClientID = "ce79a8dae43a317b06fbbeb297567bf9"

// callbackTimeout bounds how long we wait for the browser redirect.
const callbackTimeout = 5 * time.Minute

// PKCE is a verifier/challenge pair per RFC 7636.
type PKCE struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE creates an S256 challenge from 32 random bytes.
func GeneratePKCE() (PKCE, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return PKCE{}, fmt.Errorf("oauth: generating verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(verifier))
	return PKCE{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(sum[:]),
	}, nil
}

// GenerateState creates the random state parameter for CSRF protection.
func GenerateState() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("oauth: generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Tokens are the credentials returned by the token endpoint.
type Tokens struct {
	AccessToken  string
	RefreshToken string

	// ExpiresAt is a Unix timestamp; zero when the server gave no
	// expiry.
	ExpiresAt int64

	TokenType string
	Scope     string
}

// ExpiresWithin reports whether the token expires inside d (always
// false for tokens without an expiry).
func (t Tokens) ExpiresWithin(d time.Duration) bool {
	if t.ExpiresAt == 0 {
		return false
	}
	return time.Now().Add(d).Unix() >= t.ExpiresAt
}

// BuildAuthorizeURL assembles the browser URL for the consent screen.
func BuildAuthorizeURL(clientID, redirectURI, scopes, state string, pkce PKCE) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scopes)
	q.Set("state", state)
	q.Set("code_challenge", pkce.Challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("prompt", "consent")
	return AuthorizeURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

func postForm(ctx context.Context, hc *http.Client, endpoint string, form url.Values, action string) (Tokens, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("oauth: building %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("oauth: %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Tokens{}, fmt.Errorf("oauth: %s failed (HTTP %d): %s", action, resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Tokens{}, fmt.Errorf("oauth: parsing %s response: %w", action, err)
	}
	if tr.AccessToken == "" {
		return Tokens{}, fmt.Errorf("oauth: %s response missing access_token", action)
	}

	tokens := Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
	}
	if tokens.TokenType == "" {
		tokens.TokenType = "Bearer"
	}
	if tr.ExpiresIn > 0 {
		tokens.ExpiresAt = time.Now().Unix() + tr.ExpiresIn
	}
	return tokens, nil
}

// Exchanger runs the token-endpoint calls. The endpoint is
// configurable for tests.
type Exchanger struct {
	HTTPClient *http.Client
	TokenURL   string
	RevokeURL  string
}

// NewExchanger returns an Exchanger against the production endpoints.
func NewExchanger() *Exchanger {
	return &Exchanger{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		TokenURL:   TokenURL,
		RevokeURL:  RevokeURL,
	}
}

// ExchangeCode trades an authorization code for tokens.
func (e *Exchanger) ExchangeCode(ctx context.Context, clientID, redirectURI, code, verifier string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	return postForm(ctx, e.HTTPClient, e.TokenURL, form, "token exchange")
}

// Refresh trades a refresh token for a fresh access token.
func (e *Exchanger) Refresh(ctx context.Context, clientID, refreshToken string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("refresh_token", refreshToken)
	return postForm(ctx, e.HTTPClient, e.TokenURL, form, "token refresh")
}

// Revoke invalidates an access token server-side.
func (e *Exchanger) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("access_token", accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.RevokeURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("oauth: building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("oauth: revoke: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("oauth: revoke failed (HTTP %d): %s", resp.StatusCode, body)
	}
	return nil
}
