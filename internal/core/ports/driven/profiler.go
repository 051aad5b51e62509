package driven

import "context"

// Profiler wraps a unit of work in a named span.
// Implementations must return fn's error unchanged.
type Profiler interface {
	Profile(ctx context.Context, label string, tags []string, fn func(ctx context.Context) error) error
}

// HostFactSource supplies facts about the host the master runs on.
type HostFactSource interface {
	// Fact returns a host fact such as "fqdn", "hostname", "domain",
	// "ipaddress" or "ipaddress6".
	Fact(name string) (string, error)
}
