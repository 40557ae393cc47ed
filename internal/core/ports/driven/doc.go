// Package driven defines the interfaces that core calls OUT to
// infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Connection: Site-specific extraction and portal injection
//   - SpaceCreator: The asynchronous space creation protocol
//   - LogStreamOpener / LogStream: Live synthesis progress
//   - PageFetcher: HTTP page retrieval for extractors
//   - CredentialSource: Backend session cookies
//   - PortalBuilder: Portal construction and relay session wiring
//   - SpaceStore: Cached-space persistence
//
// # Optional Capabilities
//
//   - MessageHandler: Reacting to portal messages (select, add_point)
//   - SpaceNamer: Content-derived space names
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connection package
package driven
