package dates

import (
	"testing"
	"time"
)

// Wednesday 2024-06-12, fixed so weekday math is deterministic.
var wednesday = time.Date(2024, 6, 12, 15, 4, 5, 0, time.UTC)

func TestParseDueDateAt(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"today", "2024-06-12"},
		{"tomorrow", "2024-06-13"},
		{"tom", "2024-06-13"},
		{"yesterday", "2024-06-11"},
		{"  Today  ", "2024-06-12"},
		{"next-week", "2024-06-19"},
		{"next-month", "2024-07-12"},
		{"eow", "2024-06-16"},
		{"end-of-month", "2024-06-30"},
		{"fri", "2024-06-14"},
		{"friday", "2024-06-14"},
		{"mon", "2024-06-17"},
		{"wed", "2024-06-19"}, // same weekday rolls to next week
		{"+3d", "2024-06-15"},
		{"-2d", "2024-06-10"},
		{"+1w", "2024-06-19"},
		{"2024-01-15", "2024-01-15"},
		{"01/15/2024", "2024-01-15"},
		{"01-15-2024", "2024-01-15"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := parseDueDateAt(tc.in, wednesday)
			if !ok {
				t.Fatalf("parseDueDateAt(%q) not recognised", tc.in)
			}
			if got != tc.want {
				t.Errorf("parseDueDateAt(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseDueDateAt_Invalid(t *testing.T) {
	for _, in := range []string{"", "soon", "+d", "15/01/2024", "2024-13-40"} {
		if got, ok := parseDueDateAt(in, wednesday); ok {
			t.Errorf("parseDueDateAt(%q) = %q, want not recognised", in, got)
		}
	}
}

func TestEndOfMonth_LeapFebruary(t *testing.T) {
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	got, ok := parseDueDateAt("eom", feb)
	if !ok || got != "2024-02-29" {
		t.Errorf("eom in leap February = %q (ok=%v), want 2024-02-29", got, ok)
	}
}
