// Package toolutil provides shared input helpers for the transcript MCP tools
// and the CLI.
package toolutil

import (
	"regexp"
	"strings"
)

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// NormVideoID trims s and, when it is a YouTube URL, returns the 11-char
// video ID inside it. Anything else is returned trimmed and unchanged.
func NormVideoID(s string) string {
	s = strings.TrimSpace(s)
	if m := videoIDRE.FindStringSubmatch(s); len(m) >= 2 {
		return m[1]
	}
	return s
}

// NormVideoIDs applies NormVideoID to every element, preserving order and length.
func NormVideoIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = NormVideoID(id)
	}
	return out
}
