package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// NodeResolver resolves the node a catalog is compiled for.
type NodeResolver struct {
	directory   driven.NodeDirectory
	serverFacts ServerFacts
	profiler    driven.Profiler
}

// NewNodeResolver creates a node resolver. profiler may be nil.
func NewNodeResolver(directory driven.NodeDirectory, serverFacts ServerFacts, profiler driven.Profiler) *NodeResolver {
	return &NodeResolver{
		directory:   directory,
		serverFacts: serverFacts,
		profiler:    profiler,
	}
}

// Resolve returns the node for req. A node override is returned as-is,
// and only for local requests. Otherwise the node is looked up in the
// directory and server facts are merged into it.
func (r *NodeResolver) Resolve(ctx context.Context, req domain.CompileRequest, facts *domain.Facts) (*domain.Node, error) {
	if req.NodeOverride != nil {
		if req.Remote {
			return nil, fmt.Errorf("%w: invalid option use_node for a remote request", domain.ErrMalformedRequest)
		}
		return req.NodeOverride, nil
	}

	// Authorization has already decided whether the caller may compile
	// for this key.
	name := req.LookupName()
	if name == "" {
		return nil, fmt.Errorf("%w: no node name given", domain.ErrMalformedRequest)
	}

	node, err := r.find(ctx, name, req, facts)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("could not find node '%s'; cannot compile: %w", name, domain.ErrNotFound)
	}
	return node, nil
}

func (r *NodeResolver) find(
	ctx context.Context,
	name string,
	req domain.CompileRequest,
	facts *domain.Facts,
) (*domain.Node, error) {
	if r.directory == nil {
		return nil, fmt.Errorf("%w: no node directory configured", domain.ErrUpstream)
	}

	var node *domain.Node
	err := profile(ctx, r.profiler, "Found node information", []string{"compiler", "find_node"}, func(ctx context.Context) error {
		found, err := r.directory.Find(ctx, name, driven.NodeLookupOptions{
			Environment:           req.Environment,
			TransactionID:         req.TransactionID,
			ConfiguredEnvironment: req.ConfiguredEnvironment,
			Facts:                 facts,
		})
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			logger.Error("Failed when searching for node %s: %v", name, err)
			return fmt.Errorf("%w: failed when searching for node %s: %w", domain.ErrUpstream, name, err)
		}
		if found == nil {
			return nil
		}

		if req.ConfiguredEnvironment != "" {
			found.SetParameter(domain.ParamAgentSpecifiedEnvironment, req.ConfiguredEnvironment)
		}
		found.AddServerFacts(r.serverFacts.Map())
		node = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
