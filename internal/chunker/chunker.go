package chunker

import (
	"regexp"
	"strings"
)

// DefaultMinChunkSize is the floor below which adjacent chunks are merged.
// It only exists to forbid ludicrously small fragments (a bare "B"), not to
// enforce any real message-length floor.
const DefaultMinChunkSize = 3

// Config controls marker-based reply chunking. It is owned by the caller and
// never mutated here; the zero value means chunking is disabled.
type Config struct {
	Enabled      bool     `json:"enabled"`
	Markers      []string `json:"markers,omitempty"`
	MinChunkSize int      `json:"min_chunk_size,omitempty"`
}

// MinSize returns the configured minimum chunk size, falling back to
// DefaultMinChunkSize when unset.
func (c *Config) MinSize() int {
	if c == nil || c.MinChunkSize <= 0 {
		return DefaultMinChunkSize
	}
	return c.MinChunkSize
}

// DefaultMarkers returns the canonical marker set advertised to the model
// when chunking is enabled without an explicit marker list.
func DefaultMarkers() []string {
	return []string{"[MSG]", "<nl>"}
}

// Resolve turns a chunking config into the concrete marker list to recognize.
// A nil or disabled config yields nil, which makes Split a no-op downstream.
// Explicit markers are returned verbatim (order and duplicates preserved).
func Resolve(cfg *Config) []string {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if len(cfg.Markers) > 0 {
		return cfg.Markers
	}
	return DefaultMarkers()
}

// Split partitions text into delivery-ready chunks at marker occurrences.
// Markers are matched as exact substrings, case-sensitive. Segments are
// trimmed, empties dropped, and runs of segments shorter than minChunkSize
// are greedily merged forward with a blank line between them. Each emitted
// chunk loses at most one trailing period for a casual texting tone.
//
// With empty text or no markers the input passes through completely
// unmodified as a single chunk: no trimming, no period stripping. Split
// never returns an empty slice.
func Split(text string, markers []string, minChunkSize int) []string {
	if text == "" || len(markers) == 0 {
		return []string{text}
	}

	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	re := regexp.MustCompile(strings.Join(quoted, "|"))

	var parts []string
	for _, seg := range re.Split(text, -1) {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		// Nothing but markers and whitespace; deliver the original as-is.
		return []string{text}
	}
	if len(parts) == 1 {
		return []string{stripTrailingPeriod(parts[0])}
	}

	var chunks []string
	current := ""
	for _, part := range parts {
		candidate := part
		if current != "" {
			candidate = current + "\n\n" + part
		}
		if current != "" && len(candidate) < minChunkSize {
			current = candidate
			continue
		}
		if current != "" {
			chunks = append(chunks, stripTrailingPeriod(current))
		}
		current = part
	}
	if current != "" {
		chunks = append(chunks, stripTrailingPeriod(current))
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// stripTrailingPeriod removes exactly one trailing period. Other trailing
// punctuation (?, !) and interior periods are left alone.
func stripTrailingPeriod(s string) string {
	return strings.TrimSuffix(s, ".")
}
