// Package api is the Linear GraphQL client: one POST endpoint, typed
// error mapping, retry with backoff, cursor pagination, and name-to-ID
// resolution.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Linear GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

const userAgent = "linear-cli/dev"

// Client talks to the Linear GraphQL API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	authHeader string
	retry      RetryPolicy
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint points the client at a different GraphQL endpoint
// (used by tests).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient builds a client for the given credential. OAuth access
// tokens (lin_oauth_ prefix) are sent as a Bearer token; personal API
// keys are sent as-is, which is what the Linear API expects.
func NewClient(credential string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   DefaultEndpoint,
		authHeader: authHeader(credential),
		retry:      DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func authHeader(credential string) string {
	if strings.HasPrefix(credential, "lin_oauth_") {
		return "Bearer " + credential
	}
	return credential
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query executes a GraphQL query or mutation with retries and returns
// the decoded response body (including the top-level "data" key).
// Mutations go through the same path: the Linear API is idempotent for
// creates and updates.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	return c.retry.Do(ctx, func() (map[string]any, error) {
		return c.queryOnce(ctx, query, variables)
	})
}

func (c *Client) queryOnce(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("api: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: connecting to Linear: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError(resp.StatusCode, resp.Header, "resource", raw)
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("api: decoding response: %w", err)
	}

	if gqlErrs, ok := result["errors"]; ok {
		return nil, graphqlError(gqlErrs)
	}

	return result, nil
}
