package driven

import (
	"context"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// LinkMode controls how symlinks are reported.
type LinkMode string

// Link modes.
const (
	LinksManage LinkMode = "manage"
	LinksFollow LinkMode = "follow"
)

// SourcePermissions controls whether source ownership and mode are reported.
type SourcePermissions string

// Source permission modes.
const (
	SourcePermissionsIgnore SourcePermissions = "ignore"
	SourcePermissionsUse    SourcePermissions = "use"
)

// SourceSelect controls how many sources of a recursive resource are used.
type SourceSelect string

// Source selection policies.
const (
	SourceSelectFirst SourceSelect = "first"
	SourceSelectAll   SourceSelect = "all"
)

// MetadataOptions configures a metadata lookup.
//
// Defaults: Links=manage, SourcePermissions=ignore. RecurseLimit and
// MaxFiles of zero mean unlimited.
type MetadataOptions struct {
	Environment       *domain.Environment
	Links             LinkMode
	ChecksumType      string
	SourcePermissions SourcePermissions

	Recurse      bool
	RecurseLimit int
	MaxFiles     int
	Ignore       []string
}

// WithDefaults returns a copy of o with unset fields defaulted.
func (o MetadataOptions) WithDefaults() MetadataOptions {
	if o.Links == "" {
		o.Links = LinksManage
	}
	if o.SourcePermissions == "" {
		o.SourcePermissions = SourcePermissionsIgnore
	}
	return o
}

// MetadataSearch looks up file metadata behind puppet: sources.
type MetadataSearch interface {
	// FindOne returns the metadata for source, or nil when it does not resolve.
	FindOne(ctx context.Context, source string, opts MetadataOptions) (*domain.FileMetadata, error)

	// FindRecursive returns the metadata of source and everything below it,
	// or nil when it does not resolve. The root entry has relative path ".".
	FindRecursive(ctx context.Context, source string, opts MetadataOptions) ([]domain.FileMetadata, error)
}
