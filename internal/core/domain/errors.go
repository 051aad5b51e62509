package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// A node key that resolves to no node, or a file source that
	// resolves to no metadata, is reported with this kind.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnsupportedType indicates an unknown fact format or checksum type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Compile Errors.

	// ErrMalformedRequest indicates the compile request itself is invalid:
	// facts without a format, facts for another node, or a node override
	// supplied by a remote caller.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrNegotiationFailed indicates agent and master share no checksum type.
	ErrNegotiationFailed = errors.New("checksum negotiation failed")

	// ErrUpstream indicates a collaborator (directory, compiler) failed.
	// The original cause stays wrapped alongside this kind.
	ErrUpstream = errors.New("upstream failure")

	// ErrInternalConsistency indicates a collaborator broke its contract,
	// such as a recursive metadata search that omits its own root.
	ErrInternalConsistency = errors.New("internal consistency fault")
)

// ErrorKind names the category of a compile failure.
type ErrorKind string

// Error kinds surfaced to transports.
const (
	KindMalformedRequest    ErrorKind = "malformed_request"
	KindNotFound            ErrorKind = "not_found"
	KindNegotiationFailure  ErrorKind = "negotiation_failure"
	KindUpstreamFailure     ErrorKind = "upstream_failure"
	KindInternalConsistency ErrorKind = "internal_consistency"
	KindUnknown             ErrorKind = "unknown"
)

// KindOf returns the kind of err. An upstream failure whose cause happens
// to be a not-found error is still reported as upstream.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedRequest):
		return KindMalformedRequest
	case errors.Is(err, ErrNegotiationFailed):
		return KindNegotiationFailure
	case errors.Is(err, ErrInternalConsistency):
		return KindInternalConsistency
	case errors.Is(err, ErrUpstream):
		return KindUpstreamFailure
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}
