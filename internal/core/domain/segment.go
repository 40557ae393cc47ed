package domain

// Segment is an intermediate unit produced by the segmentation engine.
// Segments are created by splitting a document, merged with neighbours
// under the merge policy, discarded if empty after trimming, and otherwise
// promoted to one Record each.
type Segment struct {
	// Text is the segment content.
	Text string

	// SourceIndex traces back to the originating paragraph or block,
	// for later re-highlighting in the host page.
	SourceIndex int
}
