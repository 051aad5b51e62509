// Package domain defines the core business entities for catalogd.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CompileRequest: An authenticated request to compile a node's catalog
//   - Node: A managed node as resolved by the node directory
//   - Facts: Observed facts reported by an agent
//   - Catalog: A compiled, machine-applicable resource graph
//   - FileMetadata: Content-addressable metadata for a managed file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
