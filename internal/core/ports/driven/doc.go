// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FactDecoder: Decodes fact payloads in a declared format
//   - FactStore: Persists facts reported by agents
//   - NodeDirectory: Resolves node names to classified nodes
//   - ManifestCompiler: Compiles a node into a catalog
//   - MetadataSearch: Looks up file metadata behind puppet: sources
//   - EnvironmentStore: Resolves environment names to directories
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Profiler: Wraps phases in named spans. Nil runs phases unwrapped.
//   - HostFactSource: Supplies server facts. Nil yields only serverversion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
