package services

import (
	"maps"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// ServerFacts is an immutable snapshot of facts about the master itself.
// It is collected once at startup and is safe for concurrent reads.
type ServerFacts struct {
	facts map[string]string
}

// CollectServerFacts gathers server facts from the host. A fact that
// cannot be resolved is logged as a warning and omitted.
// source may be nil, in which case only the version is recorded.
func CollectServerFacts(version string, source driven.HostFactSource) ServerFacts {
	facts := map[string]string{
		domain.ServerFactVersion: version,
	}

	lookup := func(name string) string {
		if source == nil {
			return ""
		}
		v, err := source.Fact(name)
		if err != nil {
			logger.Debug("Host fact %s: %v", name, err)
			return ""
		}
		return v
	}

	servername := lookup("fqdn")
	if servername == "" {
		if host := lookup("hostname"); host != "" {
			servername = host
			if d := lookup("domain"); d != "" {
				servername = host + "." + d
			}
		}
	}

	candidates := []struct {
		name  string
		value string
	}{
		{domain.ServerFactName, servername},
		{domain.ServerFactIP, lookup("ipaddress")},
		{domain.ServerFactIP6, lookup("ipaddress6")},
	}
	for _, c := range candidates {
		if c.value == "" {
			logger.Warn("Could not retrieve fact %s", c.name)
			continue
		}
		facts[c.name] = c.value
	}

	return ServerFacts{facts: facts}
}

// NewServerFacts creates a snapshot from a fixed set of facts.
func NewServerFacts(facts map[string]string) ServerFacts {
	return ServerFacts{facts: maps.Clone(facts)}
}

// Get returns a single server fact.
func (s ServerFacts) Get(name string) (string, bool) {
	v, ok := s.facts[name]
	return v, ok
}

// Map returns a copy of all server facts.
func (s ServerFacts) Map() map[string]string {
	return maps.Clone(s.facts)
}
