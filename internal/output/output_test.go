package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test JSON: %v", err)
	}
	return v
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat("table"); err != nil || f != FormatTable {
		t.Errorf("ParseFormat(table) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestPrintJSON_PrettyAndCompact(t *testing.T) {
	value := decode(t, `{"a":1,"b":{"c":2}}`)

	var pretty bytes.Buffer
	if err := PrintJSON(&pretty, value, JSONOptions{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), "\n  ") {
		t.Errorf("pretty output not indented: %q", pretty.String())
	}

	var compact bytes.Buffer
	if err := PrintJSON(&compact, value, JSONOptions{Compact: true}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(compact.String()); got != `{"a":1,"b":{"c":2}}` {
		t.Errorf("compact = %q", got)
	}
}

func TestPrintJSON_SortByField(t *testing.T) {
	value := decode(t, `[{"name":"beta"},{"name":"Alpha"},{"name":"gamma"}]`)
	var buf bytes.Buffer
	if err := PrintJSON(&buf, value, JSONOptions{Compact: true, Sort: "name"}); err != nil {
		t.Fatal(err)
	}
	want := `[{"name":"Alpha"},{"name":"beta"},{"name":"gamma"}]`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPrintJSON_SortDesc(t *testing.T) {
	value := decode(t, `[{"id":"a"},{"id":"c"},{"id":"b"}]`)
	var buf bytes.Buffer
	err := PrintJSON(&buf, value, JSONOptions{Compact: true, Sort: "id", Order: Desc})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"id":"c"},{"id":"b"},{"id":"a"}]`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPrintJSON_DefaultSortPrefersIdentifier(t *testing.T) {
	value := decode(t, `[{"identifier":"ENG-2","id":"z"},{"identifier":"ENG-1","id":"a"}]`)
	var buf bytes.Buffer
	err := PrintJSON(&buf, value, JSONOptions{Compact: true, DefaultSort: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), `[{"id":"a","identifier":"ENG-1"`) {
		t.Errorf("not sorted by identifier: %s", buf.String())
	}
}

func TestPrintJSON_StableSort(t *testing.T) {
	value := decode(t, `[{"k":"x","n":1},{"k":"x","n":2},{"k":"a","n":3}]`)
	var buf bytes.Buffer
	if err := PrintJSON(&buf, value, JSONOptions{Compact: true, Sort: "k"}); err != nil {
		t.Fatal(err)
	}
	want := `[{"k":"a","n":3},{"k":"x","n":1},{"k":"x","n":2}]`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("ties reordered: got %s, want %s", got, want)
	}
}

func TestSelectFields(t *testing.T) {
	value := decode(t, `{"identifier":"ENG-1","title":"Fix","state":{"name":"Todo","type":"unstarted"}}`)
	got := SelectFields(value, []string{"identifier", "state.name"})
	out, _ := json.Marshal(got)
	want := `{"identifier":"ENG-1","state":{"name":"Todo"}}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestSelectFields_Array(t *testing.T) {
	value := decode(t, `[{"id":"1","extra":true},{"id":"2","extra":false}]`)
	got := SelectFields(value, []string{"id"})
	out, _ := json.Marshal(got)
	want := `[{"id":"1"},{"id":"2"}]`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestSelectFields_MissingPathSkipped(t *testing.T) {
	value := decode(t, `{"id":"1"}`)
	got := SelectFields(value, []string{"id", "nope.deep"})
	out, _ := json.Marshal(got)
	if string(out) != `{"id":"1"}` {
		t.Errorf("got %s", out)
	}
}

func TestPriority(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{float64(0), "-"},
		{float64(3), "Normal"},
		{float64(7), "-"},
		{"high", "-"},
	}
	for _, tc := range cases {
		if got := Priority(tc.in); got != tc.want {
			t.Errorf("Priority(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	// Styled values vary with terminal support; check the label text.
	for n, label := range map[float64]string{1: "Urgent", 2: "High", 4: "Low"} {
		if got := Priority(n); !strings.Contains(got, label) {
			t.Errorf("Priority(%v) = %q, want it to contain %q", n, got, label)
		}
	}
}

func TestTable_ContainsCells(t *testing.T) {
	out := Table([]string{"ID", "TITLE"}, [][]string{
		{"ENG-1", "Fix login"},
		{"ENG-2", "Ship dark mode"},
	})
	for _, want := range []string{"ID", "TITLE", "ENG-1", "Ship dark mode"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}
