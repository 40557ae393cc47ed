package segmenter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

// sentence returns a sentence of roughly n characters.
func sentence(n int) string {
	return strings.Repeat("word ", n/5)
}

func TestSegmentText_TooShort(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "empty document",
			text: "",
		},
		{
			name: "single sentence",
			text: "Just one sentence here.",
		},
		{
			name: "nineteen sentences after fallback",
			text: strings.TrimSuffix(strings.Repeat("A fairly reasonable sentence. ", 19), " "),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			_, err := s.SegmentText(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrDocumentTooShort)
		})
	}
}

func TestSegmentText_FallbackDelimiter(t *testing.T) {
	// No newlines at all, so the primary split yields one segment and the
	// sentence fallback must kick in.
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Sentence number %d with a bit of padding text in it. ", i)
	}

	s := New()
	segments, err := s.SegmentText(b.String())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(segments), DefaultHardMinimum)
}

func TestSegmentBlocks_MergesShortIntoPrevious(t *testing.T) {
	blocks := []string{
		"Short.",
		"This is also short.",
		"This is a sufficiently long segment of filler text well above threshold.",
	}

	s := New(
		WithPrimaryMinimum(1),
		WithHardMinimum(2),
		WithMergeRatio(1.5),
	)

	first, err := s.SegmentBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Short.\nThis is also short.", first[0].Text)
	assert.Equal(t, blocks[2], first[1].Text)

	// Merged segments keep the index of their earliest member.
	assert.Equal(t, 0, first[0].SourceIndex)
	assert.Equal(t, 2, first[1].SourceIndex)

	// Re-running on identical input is deterministic.
	second, err := s.SegmentBlocks(blocks)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSegmentBlocks_ThresholdIsMedianRelative(t *testing.T) {
	// The same candidate text merges in one batch and survives in another,
	// purely because of its siblings' lengths.
	candidate := "A middling segment of text."

	shortSiblings := []string{sentence(30), candidate}
	longSiblings := []string{sentence(400), candidate}
	for i := 0; i < 10; i++ {
		shortSiblings = append(shortSiblings, sentence(30))
		longSiblings = append(longSiblings, sentence(400))
	}

	s := New(WithPrimaryMinimum(1), WithHardMinimum(2), WithMergeRatio(0.5))

	amongShort, err := s.SegmentBlocks(shortSiblings)
	require.NoError(t, err)
	amongLong, err := s.SegmentBlocks(longSiblings)
	require.NoError(t, err)

	standalone := func(segments []domain.Segment) bool {
		for _, seg := range segments {
			if seg.Text == candidate {
				return true
			}
		}
		return false
	}

	assert.True(t, standalone(amongShort), "candidate should survive among short siblings")
	assert.False(t, standalone(amongLong), "candidate should merge among long siblings")
}

func TestSegmentBlocks_ContinuationMarkersOnlyInLargeCorpora(t *testing.T) {
	bullet := "• " + sentence(120)

	makeBlocks := func(n int) []string {
		blocks := []string{sentence(100), bullet}
		for i := 0; i < n; i++ {
			blocks = append(blocks, sentence(100))
		}
		return blocks
	}

	s := New(WithPrimaryMinimum(1), WithHardMinimum(2))

	// Small corpus: the bullet is long enough to stand on its own.
	small, err := s.SegmentBlocks(makeBlocks(50))
	require.NoError(t, err)
	found := false
	for _, seg := range small {
		if seg.Text == bullet {
			found = true
		}
	}
	assert.True(t, found, "bullet should survive in a small corpus")

	// Large corpus: the continuation marker forces a merge regardless of
	// length.
	large, err := s.SegmentBlocks(makeBlocks(150))
	require.NoError(t, err)
	for _, seg := range large {
		assert.NotEqual(t, bullet, seg.Text, "bullet should be merged in a large corpus")
	}
}

func TestSegmentBlocks_EnumeratorPrefixMergesInLargeCorpora(t *testing.T) {
	enumerated := "3. " + sentence(120)

	blocks := []string{sentence(100), enumerated}
	for i := 0; i < 150; i++ {
		blocks = append(blocks, sentence(100))
	}

	s := New(WithPrimaryMinimum(1), WithHardMinimum(2))
	segments, err := s.SegmentBlocks(blocks)
	require.NoError(t, err)

	for _, seg := range segments {
		assert.NotEqual(t, enumerated, seg.Text)
	}
}

func TestSegmentBlocks_DropsEmptySegments(t *testing.T) {
	blocks := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		blocks = append(blocks, sentence(100)+"\n   \n")
	}

	s := New(WithPrimaryMinimum(1), WithHardMinimum(2))
	segments, err := s.SegmentBlocks(blocks)
	require.NoError(t, err)

	for _, seg := range segments {
		assert.NotEmpty(t, strings.TrimSpace(seg.Text))
	}
}

func TestSegmentBlocks_MinimumEnforcedAfterMerging(t *testing.T) {
	// Plenty of raw segments, but an aggressive merge ratio folds them all
	// into one, so the final minimum must reject the batch.
	blocks := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		blocks = append(blocks, sentence(100))
	}

	s := New(WithPrimaryMinimum(1), WithMergeRatio(2.0))
	_, err := s.SegmentBlocks(blocks)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentTooShort))
}
