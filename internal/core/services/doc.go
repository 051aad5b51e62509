// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A catalog compile runs as one synchronous sequence:
// fact intake, node resolution, manifest compilation and, for static
// catalogs, file metadata inlining. Services are pure Go with no CGO
// or external dependencies.
package services
