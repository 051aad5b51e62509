// Package profiler implements driven.Profiler by logging each span with
// its elapsed time.
package profiler

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// Ensure Logging implements the interface.
var _ driven.Profiler = (*Logging)(nil)

type spanKey struct{}

// Logging writes one debug line per span. Nested spans are numbered
// under their parent, e.g. "PROFILE [3.1]".
type Logging struct {
	next  atomic.Uint64
	clock func() time.Time
}

// NewLogging creates a logging profiler.
func NewLogging() *Logging {
	return &Logging{clock: time.Now}
}

// Profile runs fn inside a span labelled label.
func (p *Logging) Profile(ctx context.Context, label string, tags []string, fn func(ctx context.Context) error) error {
	id := p.spanID(ctx)
	start := p.clock()
	err := fn(context.WithValue(ctx, spanKey{}, &span{id: id}))
	elapsed := p.clock().Sub(start)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	logger.Debug("PROFILE [%s] %s [%s]: took %.4f seconds (%s)",
		id, label, strings.Join(tags, " "), elapsed.Seconds(), status)
	return err
}

type span struct {
	id       string
	children atomic.Uint64
}

func (p *Logging) spanID(ctx context.Context) string {
	if parent, ok := ctx.Value(spanKey{}).(*span); ok {
		return parent.id + "." + strconv.FormatUint(parent.children.Add(1), 10)
	}
	return strconv.FormatUint(p.next.Add(1), 10)
}
