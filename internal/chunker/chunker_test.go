package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_NilConfig(t *testing.T) {
	assert.Empty(t, Resolve(nil))
}

func TestResolve_Disabled(t *testing.T) {
	cfg := &Config{Enabled: false, Markers: []string{"[MSG]"}}
	assert.Empty(t, Resolve(cfg))
}

func TestResolve_EnabledDefaultMarkers(t *testing.T) {
	cfg := &Config{Enabled: true}
	assert.Equal(t, []string{"[MSG]", "<nl>"}, Resolve(cfg))

	cfg.Markers = []string{}
	assert.Equal(t, []string{"[MSG]", "<nl>"}, Resolve(cfg))
}

func TestResolve_EnabledCustomMarkers(t *testing.T) {
	cfg := &Config{Enabled: true, Markers: []string{"---", "<br>", "---"}}
	// Verbatim: order and duplicates preserved.
	assert.Equal(t, []string{"---", "<br>", "---"}, Resolve(cfg))
}

func TestConfig_MinSize(t *testing.T) {
	assert.Equal(t, DefaultMinChunkSize, (*Config)(nil).MinSize())
	assert.Equal(t, DefaultMinChunkSize, (&Config{}).MinSize())
	assert.Equal(t, 10, (&Config{MinChunkSize: 10}).MinSize())
}

func TestSplit_NoMarkersPassesThroughUntouched(t *testing.T) {
	// Disabled path: no trimming, no period stripping.
	assert.Equal(t, []string{"  Done.  "}, Split("  Done.  ", nil, 3))
	assert.Equal(t, []string{"Done."}, Split("Done.", []string{}, 3))
}

func TestSplit_EmptyText(t *testing.T) {
	assert.Equal(t, []string{""}, Split("", []string{"[MSG]"}, 3))
}

func TestSplit_BasicTwoChunks(t *testing.T) {
	got := Split("First part[MSG]Second part", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"First part", "Second part"}, got)
}

func TestSplit_MultipleMarkers(t *testing.T) {
	got := Split("One[MSG]Two<nl>Three", []string{"[MSG]", "<nl>"}, 3)
	assert.Equal(t, []string{"One", "Two", "Three"}, got)
}

func TestSplit_BoundaryMarkersDropEmptySegments(t *testing.T) {
	got := Split("[MSG]Start[MSG]End[MSG]", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"Start", "End"}, got)
}

func TestSplit_ConsecutiveMarkers(t *testing.T) {
	got := Split("Hello[MSG][MSG]World", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"Hello", "World"}, got)
}

func TestSplit_TrimsSegments(t *testing.T) {
	got := Split("First  [MSG]  Second  ", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"First", "Second"}, got)
}

func TestSplit_OnlyMarkersFallsBackToOriginal(t *testing.T) {
	got := Split("[MSG][MSG]", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"[MSG][MSG]"}, got)
}

func TestSplit_SingleSegmentStripsTrailingPeriod(t *testing.T) {
	got := Split("Just one part.", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"Just one part"}, got)
}

func TestSplit_MergeBelowMinimum(t *testing.T) {
	// "A\n\nB" is 4 chars, below the threshold of 5, so the segments merge.
	got := Split("A[MSG]B", []string{"[MSG]"}, 5)
	assert.Equal(t, []string{"A\n\nB"}, got)
}

func TestSplit_NoMergeAboveMinimum(t *testing.T) {
	got := Split("Long text here[MSG]Another long text", []string{"[MSG]"}, 5)
	assert.Equal(t, []string{"Long text here", "Another long text"}, got)
}

func TestSplit_MergeIsForwardOnly(t *testing.T) {
	// A long head never absorbs a short tail; the tail may end up below the
	// threshold when it is the last segment.
	got := Split("This is a long opener[MSG]B", []string{"[MSG]"}, 5)
	assert.Equal(t, []string{"This is a long opener", "B"}, got)
}

func TestSplit_MergeChainAccumulates(t *testing.T) {
	got := Split("A[MSG]B[MSG]C", []string{"[MSG]"}, 10)
	assert.Equal(t, []string{"A\n\nB\n\nC"}, got)
}

func TestSplit_TrailingPeriodStripping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single trailing period", "Sounds good.[MSG]See you then.", []string{"Sounds good", "See you then"}},
		{"question mark untouched", "Ready?[MSG]Let's go!", []string{"Ready?", "Let's go!"}},
		{"double period loses one", "Done..[MSG]Next", []string{"Done.", "Next"}},
		{"interior periods untouched", "v1.2 is out.[MSG]Try it", []string{"v1.2 is out", "Try it"}},
		{"ellipsis loses last dot", "Well...[MSG]Maybe", []string{"Well..", "Maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Split(tt.input, []string{"[MSG]"}, 3))
		})
	}
}

func TestSplit_PeriodStripAppliesToMergedChunk(t *testing.T) {
	// Stripping happens on the final merged string, not per segment.
	got := Split("A.[MSG]B.", []string{"[MSG]"}, 10)
	assert.Equal(t, []string{"A.\n\nB"}, got)
}

func TestSplit_MarkersWithRegexMetaCharacters(t *testing.T) {
	// Markers must match literally even when they look like patterns.
	got := Split("One.*Two", []string{".*"}, 3)
	assert.Equal(t, []string{"One", "Two"}, got)

	got = Split("Left|Right", []string{"|"}, 3)
	assert.Equal(t, []string{"Left", "Right"}, got)

	got = Split("a(b)c[MSG]d", []string{"(b)"}, 3)
	assert.Equal(t, []string{"a", "c[MSG]d"}, got)
}

func TestSplit_MarkersAreCaseSensitive(t *testing.T) {
	got := Split("One[msg]Two", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"One[msg]Two"}, got)
}

func TestSplit_NoMarkerOccurrences(t *testing.T) {
	// Text passes through the single-segment path: trimmed, period stripped.
	got := Split("  No markers here.  ", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"No markers here"}, got)
}

func TestSplit_ZeroMinChunkSizeNeverMerges(t *testing.T) {
	got := Split("A[MSG]B", []string{"[MSG]"}, 0)
	assert.Equal(t, []string{"A", "B"}, got)
}

func TestSplit_PreservesOrder(t *testing.T) {
	got := Split("one[MSG]two[MSG]three[MSG]four", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestSplit_MultilineChunks(t *testing.T) {
	got := Split("First line\nstill first[MSG]Second", []string{"[MSG]"}, 3)
	assert.Equal(t, []string{"First line\nstill first", "Second"}, got)
}
