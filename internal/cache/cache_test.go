package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	payload := json.RawMessage(`[{"id":"t1","key":"ENG","name":"Engineering"}]`)
	if err := c.Set(ctx, Teams, payload); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok := c.Get(ctx, Teams)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != string(payload) {
		t.Errorf("got %s, want %s", got, payload)
	}
}

func TestGet_Miss(t *testing.T) {
	c := openTestCache(t, time.Hour)
	if _, ok := c.Get(context.Background(), Users); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestGet_Expired(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, Labels, json.RawMessage(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Advance the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(ctx, Labels); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestSet_Replaces(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, Teams, json.RawMessage(`["old"]`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, Teams, json.RawMessage(`["new"]`)); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(ctx, Teams)
	if !ok || string(got) != `["new"]` {
		t.Errorf("got %s (ok=%v), want [\"new\"]", got, ok)
	}
}

func TestClear_Selective(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	for _, k := range []Kind{Teams, Users} {
		if err := c.Set(ctx, k, json.RawMessage(`[]`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx, Teams); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.Get(ctx, Teams); ok {
		t.Error("teams should be cleared")
	}
	if _, ok := c.Get(ctx, Users); !ok {
		t.Error("users should survive selective clear")
	}
}

func TestClear_All(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	for _, k := range AllKinds() {
		if err := c.Set(ctx, k, json.RawMessage(`[]`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	for _, k := range AllKinds() {
		if _, ok := c.Get(ctx, k); ok {
			t.Errorf("%s should be cleared", k)
		}
	}
}

func TestStatus(t *testing.T) {
	c := openTestCache(t, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, Teams, json.RawMessage(`[{"id":"t1"}]`)); err != nil {
		t.Fatal(err)
	}
	entries, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Kind != Teams || !e.Valid || e.Size != len(`[{"id":"t1"}]`) {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestOptionsEffectiveTTL(t *testing.T) {
	if got := (Options{}).EffectiveTTL(); got != DefaultTTL {
		t.Errorf("default TTL = %v", got)
	}
	if got := (Options{TTL: time.Minute}).EffectiveTTL(); got != time.Minute {
		t.Errorf("override TTL = %v", got)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	c, err := Open(path, time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Set(context.Background(), Teams, json.RawMessage(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := Open(path, time.Hour)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if got, ok := c2.Get(context.Background(), Teams); !ok || string(got) != "[1]" {
		t.Errorf("entry not persisted across reopen: %s (ok=%v)", got, ok)
	}
}
