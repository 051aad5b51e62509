package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
	"github.com/custodia-labs/catalogd/internal/logger"
)

// InlineStatus is the outcome of inlining one resource.
type InlineStatus int

// Inline outcomes. Fatal outcomes are returned as errors instead.
const (
	InlineSkipped InlineStatus = iota
	InlineInlined
)

func (s InlineStatus) String() string {
	switch s {
	case InlineInlined:
		return "inlined"
	default:
		return "skipped"
	}
}

// SkipReason explains why a resource was not inlined.
type SkipReason string

// Skip reasons.
const (
	SkipAbsent             SkipReason = "ensure is absent"
	SkipNoSources          SkipReason = "no sources"
	SkipNonPuppetSource    SkipReason = "source is not a puppet: URI"
	SkipOutsideEnvironment SkipReason = "source resolves outside the environment"
	SkipNoResults          SkipReason = "no source produced metadata"
)

// InlineResult reports what happened to one File resource.
type InlineResult struct {
	Title  string
	Status InlineStatus
	Reason SkipReason

	// Sources lists the sources whose metadata was attached.
	Sources []string
}

func skipped(title string, reason SkipReason) InlineResult {
	return InlineResult{Title: title, Status: InlineSkipped, Reason: reason}
}

// Inliner attaches file metadata for puppet: sources to a catalog so an
// agent can fetch file content without asking for metadata at apply time.
type Inliner struct {
	search driven.MetadataSearch
}

// NewInliner creates an inliner backed by a metadata search service.
func NewInliner(search driven.MetadataSearch) *Inliner {
	return &Inliner{search: search}
}

// Inline walks the catalog's File resources in catalog order and attaches
// metadata for every eligible one. checksumType is used unless a resource
// sets its own checksum. The first fatal error aborts the walk.
func (in *Inliner) Inline(
	ctx context.Context,
	catalog *domain.Catalog,
	env *domain.Environment,
	checksumType string,
) ([]InlineResult, error) {
	if catalog.FileMetadata == nil {
		catalog.FileMetadata = make(map[string]domain.FileMetadata)
	}
	if catalog.RecursiveFileMetadata == nil {
		catalog.RecursiveFileMetadata = make(map[string]map[string][]domain.FileMetadata)
	}

	var results []InlineResult
	for _, res := range catalog.FileResources() {
		result, err := in.inlineResource(ctx, catalog, res, env, checksumType)
		if err != nil {
			return results, err
		}
		if result.Status == InlineInlined {
			logger.Debug("Inlining file metadata for %s", res.Title)
		}
		results = append(results, result)
	}
	return results, nil
}

func (in *Inliner) inlineResource(
	ctx context.Context,
	catalog *domain.Catalog,
	res *domain.Resource,
	env *domain.Environment,
	checksumType string,
) (InlineResult, error) {
	if res.StringParam(domain.ParamEnsure) == "absent" {
		return skipped(res.Title, SkipAbsent), nil
	}

	sources := res.Sources()
	if len(sources) == 0 {
		return skipped(res.Title, SkipNoSources), nil
	}
	for _, s := range sources {
		if !domain.IsPuppetSource(s) {
			return skipped(res.Title, SkipNonPuppetSource), nil
		}
	}

	opts := metadataOptions(res, env, checksumType)
	if res.IsRecursive() {
		return in.inlineRecursive(ctx, catalog, res, sources, env, opts)
	}
	return in.inlineSingle(ctx, catalog, res, sources, env, opts)
}

// inlineRecursive attaches the metadata trees of a recursive resource.
// If any source resolves outside the environment nothing is attached for
// the resource, even when earlier sources resolved inside it.
func (in *Inliner) inlineRecursive(
	ctx context.Context,
	catalog *domain.Catalog,
	res *domain.Resource,
	sources []string,
	env *domain.Environment,
	opts driven.MetadataOptions,
) (InlineResult, error) {
	opts.Recurse = true
	opts.RecurseLimit = intParam(res, domain.ParamRecurseLimit)
	opts.MaxFiles = intParam(res, domain.ParamMaxFiles)
	opts.Ignore = stringsParam(res, domain.ParamIgnore)

	selectFirst := sourceSelect(res) == driven.SourceSelectFirst

	bySource := make(map[string][]domain.FileMetadata)
	var order []string
	for _, raw := range sources {
		source := domain.NormalizeSource(raw)

		found, err := in.search.FindRecursive(ctx, source, opts)
		if err != nil {
			return InlineResult{}, fmt.Errorf("%w: search metadata for %s: %w", domain.ErrUpstream, source, err)
		}
		if len(found) == 0 {
			continue
		}

		root, ok := findRoot(found)
		if !ok {
			return InlineResult{}, fmt.Errorf("%w: metadata search for %s did not return the root search path",
				domain.ErrInternalConsistency, source)
		}
		if !domain.WithinRoot(env.Path, root.FullPath) {
			logger.Debug("Not inlining file outside environment: %s", source)
			return skipped(res.Title, SkipOutsideEnvironment), nil
		}

		baseURI, err := domain.ContentURI(root.FullPath, source, env.Path)
		if err != nil {
			return InlineResult{}, fmt.Errorf("content URI for %s: %w", source, err)
		}

		entries := make([]domain.FileMetadata, len(found))
		for i, md := range found {
			md.Source = source
			if md.RelativePath == domain.RootRelativePath {
				md.ContentURI = baseURI
			} else {
				md.ContentURI = domain.ChildContentURI(baseURI, md.RelativePath)
			}
			entries[i] = md
		}
		bySource[source] = entries
		order = append(order, source)

		if selectFirst {
			break
		}
	}

	if len(bySource) == 0 {
		return skipped(res.Title, SkipNoResults), nil
	}
	catalog.RecursiveFileMetadata[res.Title] = bySource
	return InlineResult{Title: res.Title, Status: InlineInlined, Sources: order}, nil
}

// inlineSingle attaches the metadata of the first source that resolves.
// A resource none of whose sources resolve fails the compile.
func (in *Inliner) inlineSingle(
	ctx context.Context,
	catalog *domain.Catalog,
	res *domain.Resource,
	sources []string,
	env *domain.Environment,
	opts driven.MetadataOptions,
) (InlineResult, error) {
	var found *domain.FileMetadata
	var source string
	for _, raw := range sources {
		source = domain.NormalizeSource(raw)
		md, err := in.search.FindOne(ctx, source, opts)
		if err != nil {
			return InlineResult{}, fmt.Errorf("%w: find metadata for %s: %w", domain.ErrUpstream, source, err)
		}
		if md != nil {
			found = md
			break
		}
	}
	if found == nil {
		return InlineResult{}, fmt.Errorf("could not get metadata for %v: %w", sources, domain.ErrNotFound)
	}

	md := *found
	md.Source = source
	if !domain.WithinRoot(env.Path, md.FullPath) {
		logger.Debug("Not inlining file outside environment: %s", source)
		return skipped(res.Title, SkipOutsideEnvironment), nil
	}

	uri, err := domain.ContentURI(md.FullPath, source, env.Path)
	if err != nil {
		return InlineResult{}, fmt.Errorf("content URI for %s: %w", source, err)
	}
	md.ContentURI = uri
	catalog.FileMetadata[res.Title] = md
	return InlineResult{Title: res.Title, Status: InlineInlined, Sources: []string{source}}, nil
}

func findRoot(entries []domain.FileMetadata) (domain.FileMetadata, bool) {
	for _, md := range entries {
		if md.RelativePath == domain.RootRelativePath {
			return md, true
		}
	}
	return domain.FileMetadata{}, false
}

// metadataOptions builds lookup options from the resource's own settings,
// falling back to the negotiated checksum type.
func metadataOptions(res *domain.Resource, env *domain.Environment, checksumType string) driven.MetadataOptions {
	opts := driven.MetadataOptions{
		Environment:       env,
		Links:             driven.LinkMode(res.StringParam(domain.ParamLinks)),
		ChecksumType:      checksumType,
		SourcePermissions: driven.SourcePermissions(res.StringParam(domain.ParamSourcePermissions)),
	}
	if ct := res.StringParam(domain.ParamChecksum); ct != "" {
		opts.ChecksumType = ct
	}
	return opts.WithDefaults()
}

func sourceSelect(res *domain.Resource) driven.SourceSelect {
	v := res.StringParam(domain.ParamSourceSelect)
	if v == "" {
		return driven.SourceSelectFirst
	}
	return driven.SourceSelect(v)
}

// intParam reads a numeric parameter that may arrive as any JSON/YAML number
// or a numeric string, clamped to [0, math.MaxInt32]. Returns 0 when unset
// or unparseable.
func intParam(res *domain.Resource, name string) int {
	v, ok := res.Param(name)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return clampInt(int64(n))
	case int64:
		return clampInt(n)
	case uint64:
		if n > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(n)
	case float64:
		switch {
		case math.IsNaN(n), n <= 0:
			return 0
		case n >= math.MaxInt32:
			return math.MaxInt32
		}
		return int(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0
		}
		return clampInt(i)
	}
	return 0
}

func clampInt(n int64) int {
	switch {
	case n < 0:
		return 0
	case n > math.MaxInt32:
		return math.MaxInt32
	}
	return int(n)
}

func stringsParam(res *domain.Resource, name string) []string {
	v, ok := res.Param(name)
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
