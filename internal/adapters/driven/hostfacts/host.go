// Package hostfacts reports facts about the machine the master runs on.
package hostfacts

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// ErrUnknownFact is returned for fact names the host cannot answer.
var ErrUnknownFact = errors.New("unknown fact")

// ErrNoValue is returned when a known fact has no value on this host.
var ErrNoValue = errors.New("fact has no value")

// Ensure Host implements the interface.
var _ driven.HostFactSource = (*Host)(nil)

// Host answers fqdn, hostname, domain, ipaddress and ipaddress6 from the
// operating system.
type Host struct {
	hostname   func() (string, error)
	interfaces func() ([]net.Addr, error)
}

// New creates a host fact source for the local machine.
func New() *Host {
	return &Host{
		hostname:   os.Hostname,
		interfaces: net.InterfaceAddrs,
	}
}

// Fact returns the value of a host fact.
func (h *Host) Fact(name string) (string, error) {
	switch name {
	case "hostname":
		host, _, err := h.splitHostname()
		return host, err
	case "domain":
		_, domain, err := h.splitHostname()
		if err == nil && domain == "" {
			err = fmt.Errorf("%w: %s", ErrNoValue, name)
		}
		return domain, err
	case "fqdn":
		host, domain, err := h.splitHostname()
		if err != nil {
			return "", err
		}
		if domain == "" {
			return "", fmt.Errorf("%w: %s", ErrNoValue, name)
		}
		return host + "." + domain, nil
	case "ipaddress":
		return h.address(name, func(ip net.IP) bool { return ip.To4() != nil })
	case "ipaddress6":
		return h.address(name, func(ip net.IP) bool { return ip.To4() == nil && ip.IsGlobalUnicast() })
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFact, name)
	}
}

func (h *Host) splitHostname() (string, string, error) {
	full, err := h.hostname()
	if err != nil {
		return "", "", fmt.Errorf("reading hostname: %w", err)
	}
	full = strings.TrimSuffix(full, ".")
	if full == "" {
		return "", "", fmt.Errorf("%w: hostname", ErrNoValue)
	}
	host, domain, _ := strings.Cut(full, ".")
	return host, domain, nil
}

// address returns the first non-loopback interface address accepted by keep.
func (h *Host) address(name string, keep func(net.IP) bool) (string, error) {
	addrs, err := h.interfaces()
	if err != nil {
		return "", fmt.Errorf("listing interface addresses: %w", err)
	}
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if keep(ip) {
			return ip.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoValue, name)
}
