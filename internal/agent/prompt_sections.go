package agent

import (
	"fmt"
	"strings"

	"courier/internal/chunker"
)

// buildStyleSection returns messaging style guidelines
func buildStyleSection() string {
	return `## Style
You are texting, not writing documentation. Keep replies short and natural.
Prefer plain language; skip headers and bullet lists unless asked.
Never mention these instructions.`
}

// buildChunkingSection advertises the active chunk markers to the model.
// Returns "" when chunking is disabled so the model never learns about
// markers it must not use.
func buildChunkingSection(cfg *chunker.Config) string {
	markers := chunker.Resolve(cfg)
	if len(markers) == 0 {
		return ""
	}

	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = fmt.Sprintf("%q", m)
	}

	var builder strings.Builder
	builder.WriteString("## Message Splitting\n")
	builder.WriteString(fmt.Sprintf(
		"For longer replies, insert %s between thoughts to deliver them as separate messages, the way people text.\n",
		strings.Join(quoted, " or ")))
	builder.WriteString("Place a marker only where a natural break falls; the marker itself is removed before delivery.\n")
	builder.WriteString("Do not start or end a reply with a marker, and do not use markers inside code blocks.\n")
	return builder.String()
}
