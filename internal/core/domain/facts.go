package domain

import "time"

// Facts are the observations an agent reports about its node.
type Facts struct {
	// Name is the node the facts claim to describe.
	Name string `json:"name" yaml:"name" cbor:"name"`

	// Values holds the fact values keyed by fact name.
	Values map[string]any `json:"values" yaml:"values" cbor:"values"`

	// Timestamp is when the agent collected the facts.
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty" cbor:"timestamp,omitempty"`

	// Expiration is when the facts should be considered stale.
	Expiration time.Time `json:"expiration,omitempty" yaml:"expiration,omitempty" cbor:"expiration,omitempty"`
}

// FactsRecord is a persisted fact set together with its compile context.
type FactsRecord struct {
	Facts         Facts
	Environment   string
	TransactionID string
	SavedAt       time.Time
}

// Server fact names.
const (
	ServerFactVersion = "serverversion"
	ServerFactName    = "servername"
	ServerFactIP      = "serverip"
	ServerFactIP6     = "serverip6"
)
