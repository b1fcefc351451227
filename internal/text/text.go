// Package text holds small string helpers shared across commands.
package text

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Truncate shortens value to at most max runes, appending "..." when it
// had to cut. max <= 0 returns the empty string.
func Truncate(value string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// IsUUID reports whether value parses as a canonical 36-character UUID.
func IsUUID(value string) bool {
	if len(value) != 36 || strings.Count(value, "-") != 4 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

var markdownPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`), "$1"}, // images
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},  // links
	{regexp.MustCompile(`\*{3}([^*]+)\*{3}`), "$1"},      // bold italic
	{regexp.MustCompile(`_{3}([^_]+)_{3}`), "$1"},
	{regexp.MustCompile(`\*{2}([^*]+)\*{2}`), "$1"}, // bold
	{regexp.MustCompile(`_{2}([^_]+)_{2}`), "$1"},
	{regexp.MustCompile(`\*([^*]+)\*`), "$1"},      // italic
	{regexp.MustCompile(`~~([^~]+)~~`), "$1"},      // strikethrough
	{regexp.MustCompile("`([^`]+)`"), "$1"},        // inline code
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},     // headers
	{regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`), ""}, // horizontal rules
	{regexp.MustCompile(`(?m)^>\s?`), ""},          // blockquotes
	{regexp.MustCompile(`(?m)^\s*[-*+]\s`), "  "},  // unordered lists
	{regexp.MustCompile(`(?m)^\s*\d+\.\s`), "  "},  // ordered lists
}

var (
	codeFence  = regexp.MustCompile("(?m)^```\\w*\\s*$")
	multiBlank = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown converts common markdown formatting to plain text for
// terminal display. Code fence markers are removed but their content kept.
func StripMarkdown(input string) string {
	result := codeFence.ReplaceAllString(input, "")
	for _, p := range markdownPatterns {
		result = p.re.ReplaceAllString(result, p.repl)
	}
	result = multiBlank.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
