package domain

// CompileRequest is an already-authenticated request for a node's catalog.
// It is never mutated once handed to the catalog service.
type CompileRequest struct {
	// NodeKey is the node the catalog is compiled for.
	NodeKey string

	// RequestNode is the identity of the caller (e.g. a certificate name).
	// Used for node lookup when NodeKey is empty.
	RequestNode string

	// Environment is the environment requested by the caller.
	Environment string

	// ConfiguredEnvironment is the environment the agent has configured
	// locally. Passed to the node directory to detect mismatches.
	ConfiguredEnvironment string

	// TransactionID correlates this compile with the agent run.
	TransactionID string

	// CodeID identifies the exact manifest snapshot to compile.
	CodeID string

	// StaticCatalog asks for file metadata to be inlined.
	StaticCatalog bool

	// ChecksumTypes is the agent's dot-separated checksum preference list,
	// most preferred first. Empty when the agent proposed nothing.
	ChecksumTypes string

	// RawFacts is the encoded fact payload. Empty when no facts were sent.
	RawFacts string

	// Facts carries already-decoded facts. Takes precedence over RawFacts.
	Facts *Facts

	// FactsFormat names the encoding of RawFacts. Required when facts are present.
	FactsFormat string

	// NodeOverride is a pre-resolved node. Only honoured for local requests.
	NodeOverride *Node

	// TrustedData is the authenticated identity data of the caller.
	TrustedData map[string]any

	// Remote is true when the request arrived over the network.
	Remote bool
}

// HasFacts reports whether the request carries a fact payload.
func (r *CompileRequest) HasFacts() bool {
	return r.Facts != nil || r.RawFacts != ""
}

// LookupName returns the name used to resolve the node.
func (r *CompileRequest) LookupName() string {
	if r.NodeKey != "" {
		return r.NodeKey
	}
	return r.RequestNode
}
