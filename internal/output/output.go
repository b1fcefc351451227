// Package output renders command results as styled tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format selects the rendering mode.
type Format string

// Rendering modes.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates an --output flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("output: invalid format %q (want table or json)", s)
}

// SortOrder is the direction for --sort.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// JSONOptions tunes JSON rendering.
type JSONOptions struct {
	// Compact emits single-line JSON instead of indented.
	Compact bool

	// Fields restricts output to the given dotted paths.
	Fields []string

	// Sort names the field to sort arrays by; empty falls back to
	// identifier/id when DefaultSort is set.
	Sort  string
	Order SortOrder

	// DefaultSort enables the identifier/id fallback key.
	DefaultSort bool
}

// Options carries the global output flags.
type Options struct {
	Format Format

	// Quiet suppresses decorative output (headers, tips).
	Quiet bool

	// IDOnly prints only the IDs of created or updated resources.
	IDOnly bool

	JSON JSONOptions
}

// IsJSON reports whether JSON mode is active.
func (o Options) IsJSON() bool { return o.Format == FormatJSON }

// PrintJSON writes value to w, applying sorting and field selection.
func PrintJSON(w io.Writer, value any, opts JSONOptions) error {
	if items, ok := value.([]any); ok {
		value = sortedCopy(items, opts)
	}
	if len(opts.Fields) > 0 {
		value = SelectFields(value, opts.Fields)
	}

	var out []byte
	var err error
	if opts.Compact {
		out, err = json.Marshal(value)
	} else {
		out, err = json.MarshalIndent(value, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("output: encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func sortedCopy(items []any, opts JSONOptions) []any {
	key := strings.TrimSpace(opts.Sort)
	if key == "" && opts.DefaultSort {
		key = defaultSortKey(items)
	}
	if key == "" {
		return items
	}
	out := make([]any, len(items))
	copy(out, items)
	SortValues(out, key, opts.Order)
	return out
}

func defaultSortKey(items []any) string {
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if _, ok := m["identifier"]; ok {
				return "identifier"
			}
		}
	}
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if _, ok := m["id"]; ok {
				return "id"
			}
		}
	}
	return ""
}

// SortValues sorts items in place by the given field. The sort is
// stable so ties keep their original order.
func SortValues(items []any, key string, order SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a := extractSortKey(items[i], key)
		b := extractSortKey(items[j], key)
		if order == Desc {
			return a > b
		}
		return a < b
	})
}

func extractSortKey(item any, key string) string {
	m, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.ToLower(v)
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SelectFields projects value down to the given dotted paths,
// preserving nesting. Arrays are projected element-wise.
func SelectFields(value any, fields []string) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = SelectFields(item, fields)
		}
		return out
	case map[string]any:
		out := map[string]any{}
		for _, path := range fields {
			parts := splitPath(path)
			if len(parts) == 0 {
				continue
			}
			if fieldValue, ok := getPath(v, parts); ok {
				setPath(out, parts, fieldValue)
			}
		}
		return out
	default:
		return value
	}
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func getPath(value any, parts []string) (any, bool) {
	current := value
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(out map[string]any, parts []string, value any) {
	if len(parts) == 1 {
		out[parts[0]] = value
		return
	}
	child, ok := out[parts[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		out[parts[0]] = child
	}
	setPath(child, parts[1:], value)
}
