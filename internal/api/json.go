package api

// Helpers for walking dynamically-typed GraphQL responses.

// Path walks nested maps by key, returning the value at the end.
func Path(v any, keys ...string) (any, bool) {
	current := v
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// PathArray walks nested maps and returns the array at the end.
func PathArray(v any, keys ...string) ([]any, bool) {
	got, ok := Path(v, keys...)
	if !ok {
		return nil, false
	}
	arr, ok := got.([]any)
	return arr, ok
}

// PathString walks nested maps and returns the string at the end.
func PathString(v any, keys ...string) (string, bool) {
	got, ok := Path(v, keys...)
	if !ok {
		return "", false
	}
	s, ok := got.(string)
	return s, ok
}

// PathBool walks nested maps and returns the bool at the end.
func PathBool(v any, keys ...string) (bool, bool) {
	got, ok := Path(v, keys...)
	if !ok {
		return false, false
	}
	b, ok := got.(bool)
	return b, ok
}

// String returns m[key] as a string, or fallback when absent or not a
// string.
func String(v any, key, fallback string) string {
	if s, ok := PathString(v, key); ok {
		return s
	}
	return fallback
}
