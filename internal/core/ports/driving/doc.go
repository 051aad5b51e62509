// Package driving defines the interfaces that transports call INTO the core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// CLI, HTTP and MCP adapters depend on these interfaces; core services
// implement them.
package driving
