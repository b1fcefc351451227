// Package input resolves identifier lists for commands that accept
// "one or more IDs, or - to read them from stdin".
package input

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// FromReader returns explicit unchanged unless it is empty or exactly
// ["-"], in which case identifiers are read from r, one per line.
// Lines are trimmed and blank lines dropped. Read errors are treated
// as end of stream (common with piped input that closes abruptly), so
// partial results are kept and no error is ever surfaced.
func FromReader(explicit []string, r io.Reader) []string {
	if len(explicit) > 0 && !(len(explicit) == 1 && explicit[0] == "-") {
		return explicit
	}

	ids := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	// scanner.Err() intentionally ignored: a failed read ends the
	// sequence exactly like EOF does.
	return ids
}

// Resolve is FromReader over the process's standard input.
func Resolve(explicit []string) []string {
	return FromReader(explicit, os.Stdin)
}
