package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/cache"
)

// memCache is an in-memory MetadataCache for tests.
type memCache struct {
	entries map[cache.Kind]json.RawMessage
}

func newMemCache() *memCache {
	return &memCache{entries: map[cache.Kind]json.RawMessage{}}
}

func (m *memCache) Get(_ context.Context, kind cache.Kind) (json.RawMessage, bool) {
	raw, ok := m.entries[kind]
	return raw, ok
}

func (m *memCache) Set(_ context.Context, kind cache.Kind, data json.RawMessage) error {
	m.entries[kind] = data
	return nil
}

const engUUID = "11111111-2222-3333-4444-555555555555"

func teamServer(t *testing.T, requests *int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		var req graphqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		nodes := []map[string]any{
			{"id": engUUID, "key": "ENG", "name": "Engineering"},
		}
		var resp map[string]any
		if strings.Contains(req.Query, "filter") {
			// Filtered lookup only matches the real team.
			team, _ := req.Variables["team"].(string)
			if !strings.EqualFold(team, "ENG") && !strings.EqualFold(team, "Engineering") {
				nodes = nil
			}
			resp = map[string]any{"data": map[string]any{"teams": map[string]any{"nodes": nodes}}}
		} else {
			resp = map[string]any{"data": map[string]any{"teams": map[string]any{
				"nodes":    nodes,
				"pageInfo": map[string]any{"hasNextPage": false},
			}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewClient("lin_api_test", WithEndpoint(srv.URL), WithRetryPolicy(NoRetry()))
}

func TestResolveTeamID_UUIDPassthrough(t *testing.T) {
	requests := 0
	client := teamServer(t, &requests)
	got, err := ResolveTeamID(context.Background(), client, engUUID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != engUUID {
		t.Errorf("got %q", got)
	}
	if requests != 0 {
		t.Errorf("UUID input should not hit the API, got %d requests", requests)
	}
}

func TestResolveTeamID_ByKey(t *testing.T) {
	requests := 0
	client := teamServer(t, &requests)
	got, err := ResolveTeamID(context.Background(), client, "eng", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != engUUID {
		t.Errorf("got %q, want %q", got, engUUID)
	}
	if requests != 1 {
		t.Errorf("filtered lookup should take one request, got %d", requests)
	}
}

func TestResolveTeamID_CacheHitSkipsNetwork(t *testing.T) {
	requests := 0
	client := teamServer(t, &requests)
	meta := newMemCache()
	meta.entries[cache.Teams] = json.RawMessage(
		`[{"id":"` + engUUID + `","key":"ENG","name":"Engineering"}]`)

	got, err := ResolveTeamID(context.Background(), client, "ENG", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != engUUID {
		t.Errorf("got %q", got)
	}
	if requests != 0 {
		t.Errorf("cache hit should not hit the API, got %d requests", requests)
	}
}

func TestResolveTeamID_NotFound(t *testing.T) {
	requests := 0
	client := teamServer(t, &requests)
	_, err := ResolveTeamID(context.Background(), client, "NOPE", newMemCache())
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Code != apperr.CodeNotFound {
		t.Errorf("unexpected error: %v", err)
	}
	// Filtered query then full-scan fallback.
	if requests != 2 {
		t.Errorf("got %d requests, want 2", requests)
	}
}

func TestResolveTeamID_ScanPopulatesCache(t *testing.T) {
	requests := 0
	client := teamServer(t, &requests)
	meta := newMemCache()
	// "Engineering" by name: the filtered query matches it, so force
	// the scan path with an unknown name first.
	if _, err := ResolveTeamID(context.Background(), client, "Platform", meta); err == nil {
		t.Fatal("expected not-found for unknown team")
	}
	if _, ok := meta.entries[cache.Teams]; !ok {
		t.Error("full scan should populate the cache")
	}
}

func TestResolveUserID_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"viewer":{"id":"me-id"}}}`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient("lin_api_test", WithEndpoint(srv.URL), WithRetryPolicy(NoRetry()))

	got, err := ResolveUserID(context.Background(), client, "ME", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "me-id" {
		t.Errorf("got %q", got)
	}
}

func TestResolveStateID(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"data":{"team":{"states":{"nodes":[
			{"id":"s1","name":"Todo","type":"unstarted"},
			{"id":"s2","name":"In Progress","type":"started"}
		]}}}}`))
	}))
	t.Cleanup(srv.Close)
	client := NewClient("lin_api_test", WithEndpoint(srv.URL), WithRetryPolicy(NoRetry()))
	meta := newMemCache()

	got, err := ResolveStateID(context.Background(), client, engUUID, "in progress", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s2" {
		t.Errorf("got %q, want s2", got)
	}
	if requests != 1 {
		t.Fatalf("got %d requests, want 1", requests)
	}

	// The first lookup cached the team's states; the next one should
	// resolve without touching the API.
	got, err = ResolveStateID(context.Background(), client, engUUID, "todo", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s1" {
		t.Errorf("got %q, want s1", got)
	}
	if requests != 1 {
		t.Errorf("cached states should serve the second lookup, got %d requests", requests)
	}
	if _, ok := meta.entries[cache.StatusesFor(engUUID)]; !ok {
		t.Error("states not cached under the team-scoped key")
	}

	if _, err := ResolveStateID(context.Background(), client, engUUID, "Done", meta); err == nil {
		t.Error("expected not-found for unknown state")
	}
}

func TestFindProjectID_SlugFallback(t *testing.T) {
	projects := []any{
		map[string]any{"id": "p1", "name": "Roadmap", "slugId": "road-abc"},
		map[string]any{"id": "p2", "name": "Platform", "slugId": "plat-def"},
	}
	if id, ok := findProjectID(projects, "platform"); !ok || id != "p2" {
		t.Errorf("by name: %q (ok=%v)", id, ok)
	}
	if id, ok := findProjectID(projects, "road-abc"); !ok || id != "p1" {
		t.Errorf("by slug: %q (ok=%v)", id, ok)
	}
	if _, ok := findProjectID(projects, "missing"); ok {
		t.Error("expected miss")
	}
}
