package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// FactIntake decodes, verifies and persists facts sent with a compile request.
type FactIntake struct {
	decoder  driven.FactDecoder
	store    driven.FactStore
	profiler driven.Profiler
}

// NewFactIntake creates a fact intake. profiler may be nil.
func NewFactIntake(decoder driven.FactDecoder, store driven.FactStore, profiler driven.Profiler) *FactIntake {
	return &FactIntake{
		decoder:  decoder,
		store:    store,
		profiler: profiler,
	}
}

// Ingest decodes the request's facts, checks they describe the requested
// node and saves them, all inside one profiler span.
// Returns nil facts when the request carries none.
func (f *FactIntake) Ingest(ctx context.Context, req domain.CompileRequest) (*domain.Facts, error) {
	if !req.HasFacts() {
		return nil, nil
	}
	if req.FactsFormat == "" {
		return nil, fmt.Errorf("%w: facts but no fact format provided for %s", domain.ErrMalformedRequest, req.NodeKey)
	}

	var facts *domain.Facts
	err := profile(ctx, f.profiler, "Found facts", []string{"compiler", "find_facts"}, func(ctx context.Context) error {
		decoded, err := f.decode(req)
		if err != nil {
			return err
		}
		if decoded.Name != req.NodeKey {
			return fmt.Errorf("%w: catalog for %s was requested with fact definition for the wrong node (%s)",
				domain.ErrMalformedRequest, req.NodeKey, decoded.Name)
		}
		if err := f.Save(ctx, decoded, req); err != nil {
			return err
		}
		facts = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// Save persists facts together with the request's environment and transaction.
func (f *FactIntake) Save(ctx context.Context, facts *domain.Facts, req domain.CompileRequest) error {
	if f.store == nil {
		logger.Debug("No fact store configured; not saving facts for %s", facts.Name)
		return nil
	}
	opts := driven.FactSaveOptions{
		Environment:   req.Environment,
		TransactionID: req.TransactionID,
	}
	if err := f.store.Save(ctx, facts, facts.Name, opts); err != nil {
		return fmt.Errorf("save facts for %s: %w", facts.Name, err)
	}
	return nil
}

func (f *FactIntake) decode(req domain.CompileRequest) (*domain.Facts, error) {
	if req.Facts != nil {
		return req.Facts, nil
	}
	if f.decoder == nil {
		return nil, fmt.Errorf("decode facts: %w: no fact decoder configured", domain.ErrUnsupportedType)
	}

	text, err := url.QueryUnescape(req.RawFacts)
	if err != nil {
		return nil, fmt.Errorf("%w: unescape facts: %w", domain.ErrMalformedRequest, err)
	}

	facts, err := f.decoder.Decode(req.FactsFormat, text)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedRequest, err)
		}
		return nil, fmt.Errorf("%w: decode %s facts: %w", domain.ErrMalformedRequest, req.FactsFormat, err)
	}
	return facts, nil
}
