// Package segmenter splits a document into semantically coherent segments
// suitable as one record each, avoiding segments that are too granular (a
// lone bullet fragment) and ones not granular enough (a whole multi-topic
// document as one blob).
package segmenter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
)

const (
	// DefaultPrimaryMinimum is the segment count below which the primary
	// newline split falls back to the sentence delimiter.
	DefaultPrimaryMinimum = 50

	// DefaultHardMinimum is the minimum number of segments a document must
	// yield, both after the fallback split and after merging.
	DefaultHardMinimum = 20

	// DefaultMergeRatio is the fraction of the median segment length under
	// which a segment is merged into its predecessor.
	DefaultMergeRatio = 0.5

	// DefaultLargeCorpus is the segment count above which list-continuation
	// and enumerator prefixes also force a merge.
	DefaultLargeCorpus = 100

	// DefaultFallbackDelimiter is the weaker sentence-terminal delimiter.
	DefaultFallbackDelimiter = ". "
)

// primaryDelimiter is the strong delimiter tried first.
const primaryDelimiter = "\n"

// continuations are list-continuation markers that mark a segment as part
// of its predecessor in large corpora.
var continuations = []string{"•", "-"}

// enumeratorPattern matches short enumerator prefixes like "3. " or "a. ".
var enumeratorPattern = regexp.MustCompile(`^[A-Za-z0-9]+\.\s`)

// Segmenter turns block text into merged segments. Thresholds are
// per-source tunables, not universal constants: paragraph-level sources use
// a higher primary minimum and a lower merge ratio than flat documents.
type Segmenter struct {
	primaryMinimum int
	hardMinimum    int
	mergeRatio     float64
	largeCorpus    int
	fallbackDelim  string
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithPrimaryMinimum sets the viability threshold for the newline split.
func WithPrimaryMinimum(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.primaryMinimum = n
		}
	}
}

// WithHardMinimum sets the minimum viable segment count enforced after
// the fallback split and again after merging.
func WithHardMinimum(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.hardMinimum = n
		}
	}
}

// WithMergeRatio sets the merge threshold as a fraction of the median
// segment length.
func WithMergeRatio(ratio float64) Option {
	return func(s *Segmenter) {
		if ratio > 0 {
			s.mergeRatio = ratio
		}
	}
}

// WithFallbackDelimiter sets the weaker delimiter used when the newline
// split yields too few segments.
func WithFallbackDelimiter(delim string) Option {
	return func(s *Segmenter) {
		if delim != "" {
			s.fallbackDelim = delim
		}
	}
}

// New creates a Segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		primaryMinimum: DefaultPrimaryMinimum,
		hardMinimum:    DefaultHardMinimum,
		mergeRatio:     DefaultMergeRatio,
		largeCorpus:    DefaultLargeCorpus,
		fallbackDelim:  DefaultFallbackDelimiter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SegmentText segments a flat document string.
func (s *Segmenter) SegmentText(text string) ([]domain.Segment, error) {
	return s.SegmentBlocks([]string{text})
}

// SegmentBlocks segments an ordered list of block-level text nodes (for
// example, the paragraphs of an article). Each produced segment records the
// index of the block it originated from, so the host page can be
// re-highlighted later; a merged segment keeps the index of its earliest
// member.
func (s *Segmenter) SegmentBlocks(blocks []string) ([]domain.Segment, error) {
	segments := split(blocks, primaryDelimiter)
	if len(segments) < s.primaryMinimum {
		segments = split(blocks, s.fallbackDelim)
		if len(segments) < s.hardMinimum {
			return nil, fmt.Errorf("%w: %d segments after fallback split", domain.ErrDocumentTooShort, len(segments))
		}
	}

	segments = s.merge(segments)

	// Drop segments that are empty after trimming.
	nonEmpty := segments[:0]
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) != "" {
			nonEmpty = append(nonEmpty, seg)
		}
	}
	segments = nonEmpty

	if len(segments) < s.hardMinimum {
		return nil, fmt.Errorf("%w: %d segments after merging", domain.ErrDocumentTooShort, len(segments))
	}
	return segments, nil
}

// merge folds short segments into their predecessor. The threshold is
// relative to the median length of the batch, so the same text can be
// merged or kept depending on its siblings. After every merge the sweep
// restarts from index 1: a merge can change the classification of earlier
// neighbours, and correctness is preferred over linear time here. This is
// O(n^2) worst case on purpose; the restart-from-1 policy decides which
// segments end up merged and must not be optimised away silently.
func (s *Segmenter) merge(segments []domain.Segment) []domain.Segment {
	threshold := s.mergeRatio * medianLength(segments)

	i := 1
	for len(segments) > 1 && i < len(segments) {
		trimmed := strings.TrimSpace(segments[i].Text)

		merge := float64(utf8.RuneCountInString(trimmed)) < threshold
		if len(segments) > s.largeCorpus {
			for _, cont := range continuations {
				if strings.HasPrefix(trimmed, cont) {
					merge = true
					break
				}
			}
			if enumeratorPattern.MatchString(trimmed) {
				merge = true
			}
		}

		if merge {
			segments[i-1].Text += "\n" + segments[i].Text
			segments = append(segments[:i], segments[i+1:]...)
			i = 1
		} else {
			i++
		}
	}
	return segments
}

// split cuts every block on delim, tagging each piece with the index of
// the block it came from.
func split(blocks []string, delim string) []domain.Segment {
	var segments []domain.Segment
	for idx, block := range blocks {
		for _, text := range strings.Split(block, delim) {
			segments = append(segments, domain.Segment{Text: text, SourceIndex: idx})
		}
	}
	return segments
}

// medianLength returns the median of the non-empty trimmed segment
// lengths, averaging the two middle values for even counts.
func medianLength(segments []domain.Segment) float64 {
	lengths := make([]int, 0, len(segments))
	for _, seg := range segments {
		if n := utf8.RuneCountInString(strings.TrimSpace(seg.Text)); n > 0 {
			lengths = append(lengths, n)
		}
	}
	if len(lengths) == 0 {
		return 0
	}

	sort.Ints(lengths)
	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		return float64(lengths[mid])
	}
	return float64(lengths[mid-1]+lengths[mid]) / 2
}
