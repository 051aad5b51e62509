package services

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// profile runs fn inside a profiler span, or directly when no profiler is set.
func profile(
	ctx context.Context,
	p driven.Profiler,
	label string,
	tags []string,
	fn func(ctx context.Context) error,
) error {
	if p == nil {
		return fn(ctx)
	}
	return p.Profile(ctx, label, tags, fn)
}
