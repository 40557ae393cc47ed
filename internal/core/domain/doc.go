// Package domain defines the core business entities for Mantis.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record / Batch: An extracted data unit and a homogeneous set of them
//   - Segment: An intermediate unit produced by the segmentation engine
//   - Job / SpaceResult: One space creation request and its terminal payload
//   - LogMessage: One streamed progress/diagnostic entry
//   - Portal: The embedded visualization descriptor and its relay session
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
