package wikipedia

import (
	"regexp"
	"strings"
)

var (
	firstSentencePattern = regexp.MustCompile(`^[^.!?]+[.!?]`)
	citationPattern      = regexp.MustCompile(`\[\d+\]`)
)

// SmartTitle derives a short display title from segment text: the first
// sentence where there is one, stripped of citation markers and truncated
// at a word boundary near 60 characters.
func SmartTitle(segment string) string {
	text := strings.TrimSpace(segment)
	if text == "" {
		return "Empty Segment"
	}

	title := firstSentencePattern.FindString(text)
	if title == "" {
		title, _, _ = strings.Cut(text, "\n")
	}
	title = strings.TrimSpace(citationPattern.ReplaceAllString(title, ""))

	if len(title) > 60 {
		breakPoint := strings.LastIndex(title[:58], " ")
		if breakPoint > 20 {
			title = title[:breakPoint] + "..."
		} else {
			title = title[:57] + "..."
		}
	}

	// Citation-only or degenerate segments get a keyword fallback.
	if len(title) < 3 {
		var words []string
		for _, word := range strings.Fields(text) {
			if len(word) > 4 {
				words = append(words, word)
				if len(words) == 3 {
					break
				}
			}
		}
		if len(words) == 0 {
			return "Section Content"
		}
		title = strings.Join(words, " ")
		if len(title) > 60 {
			title = title[:57] + "..."
		}
	}

	return title
}
