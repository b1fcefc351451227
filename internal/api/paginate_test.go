package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// pagedServer serves a Relay-style issues connection over fixed pages.
func pagedServer(t *testing.T, pages [][]string) *Client {
	t.Helper()
	cursorFor := func(page int) string { return fmt.Sprintf("cursor-%d", page) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}

		page := 0
		if after, ok := req.Variables["after"].(string); ok {
			if _, err := fmt.Sscanf(after, "cursor-%d", &page); err != nil {
				t.Errorf("unexpected cursor %q", after)
			}
			page++
		}

		first := 0
		if f, ok := req.Variables["first"].(float64); ok {
			first = int(f)
		}

		ids := pages[page]
		if first > 0 && first < len(ids) {
			ids = ids[:first]
		}
		nodes := make([]map[string]any, len(ids))
		for i, id := range ids {
			nodes[i] = map[string]any{"identifier": id}
		}

		resp := map[string]any{
			"data": map[string]any{
				"issues": map[string]any{
					"nodes": nodes,
					"pageInfo": map[string]any{
						"hasNextPage": page < len(pages)-1,
						"endCursor":   cursorFor(page),
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewClient("lin_api_test", WithEndpoint(srv.URL), WithRetryPolicy(NoRetry()))
}

func identifiers(t *testing.T, items []any) []string {
	t.Helper()
	out := make([]string, len(items))
	for i, item := range items {
		id, ok := PathString(item, "identifier")
		if !ok {
			t.Fatalf("item %d has no identifier: %v", i, item)
		}
		out[i] = id
	}
	return out
}

const issuesQuery = `
	query($first: Int, $after: String) {
		issues(first: $first, after: $after) {
			nodes { identifier }
			pageInfo { hasNextPage endCursor }
		}
	}`

var issuesNodes = []string{"data", "issues", "nodes"}
var issuesPageInfo = []string{"data", "issues", "pageInfo"}

func TestPaginate_All(t *testing.T) {
	client := pagedServer(t, [][]string{
		{"ENG-1", "ENG-2"},
		{"ENG-3", "ENG-4"},
		{"ENG-5"},
	})
	items, err := Paginate(context.Background(), client, issuesQuery, nil,
		issuesNodes, issuesPageInfo, PaginateOptions{All: true, PageSize: 2}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := identifiers(t, items)
	want := []string{"ENG-1", "ENG-2", "ENG-3", "ENG-4", "ENG-5"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPaginate_LimitTruncates(t *testing.T) {
	client := pagedServer(t, [][]string{
		{"ENG-1", "ENG-2"},
		{"ENG-3", "ENG-4"},
	})
	items, err := Paginate(context.Background(), client, issuesQuery, nil,
		issuesNodes, issuesPageInfo, PaginateOptions{Limit: 3, PageSize: 2}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}

func TestPaginate_SinglePageWithoutLimit(t *testing.T) {
	client := pagedServer(t, [][]string{
		{"ENG-1", "ENG-2"},
		{"ENG-3"},
	})
	// No limit, no --all: one request only.
	items, err := Paginate(context.Background(), client, issuesQuery, nil,
		issuesNodes, issuesPageInfo, PaginateOptions{PageSize: 2}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2 (single page)", len(items))
	}
}

func TestPaginateOptions_WithDefaultLimit(t *testing.T) {
	opts := PaginateOptions{}.WithDefaultLimit(25)
	if opts.Limit != 25 {
		t.Errorf("Limit = %d, want 25", opts.Limit)
	}
	all := PaginateOptions{All: true}.WithDefaultLimit(25)
	if all.Limit != 0 {
		t.Errorf("All should suppress the default limit, got %d", all.Limit)
	}
	explicit := PaginateOptions{Limit: 7}.WithDefaultLimit(25)
	if explicit.Limit != 7 {
		t.Errorf("explicit limit overridden: %d", explicit.Limit)
	}
}
