package domain

import "maps"

// ParamAgentSpecifiedEnvironment records the environment the agent asked for.
const ParamAgentSpecifiedEnvironment = "agent_specified_environment"

// Node is a managed node as resolved for one compile.
// A Node is owned by a single compile and never shared across requests.
type Node struct {
	Name        string            `json:"name"`
	Environment string            `json:"environment"`
	Classes     []string          `json:"classes,omitempty"`
	Parameters  map[string]any    `json:"parameters,omitempty"`
	Facts       *Facts            `json:"-"`
	TrustedData map[string]any    `json:"trusted,omitempty"`
	ServerFacts map[string]string `json:"server_facts,omitempty"`
}

// AddServerFacts merges server-side facts into the node.
// They are also exposed to compilation as the "server_facts" parameter.
func (n *Node) AddServerFacts(facts map[string]string) {
	if n.ServerFacts == nil {
		n.ServerFacts = make(map[string]string, len(facts))
	}
	maps.Copy(n.ServerFacts, facts)

	if n.Parameters == nil {
		n.Parameters = make(map[string]any)
	}
	exposed := make(map[string]any, len(n.ServerFacts))
	for k, v := range n.ServerFacts {
		exposed[k] = v
	}
	n.Parameters["server_facts"] = exposed
}

// SetParameter sets a single node parameter.
func (n *Node) SetParameter(name string, value any) {
	if n.Parameters == nil {
		n.Parameters = make(map[string]any)
	}
	n.Parameters[name] = value
}
