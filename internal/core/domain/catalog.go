package domain

import (
	"strings"
	"time"
)

// Resource types and parameter names the inliner inspects.
const (
	ResourceTypeFile = "File"

	ParamEnsure            = "ensure"
	ParamSource            = "source"
	ParamRecurse           = "recurse"
	ParamRecurseLimit      = "recurselimit"
	ParamMaxFiles          = "max_files"
	ParamIgnore            = "ignore"
	ParamLinks             = "links"
	ParamChecksum          = "checksum"
	ParamSourcePermissions = "source_permissions"
	ParamSourceSelect      = "sourceselect"
)

// Resource is a single resource in a compiled catalog.
type Resource struct {
	Type       string         `json:"type" yaml:"type"`
	Title      string         `json:"title" yaml:"title"`
	Tags       []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Param returns a resource parameter.
func (r *Resource) Param(name string) (any, bool) {
	v, ok := r.Parameters[name]
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

// StringParam returns a parameter as a string, or "" when unset or not a string.
func (r *Resource) StringParam(name string) string {
	v, ok := r.Param(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Sources flattens the source parameter into an ordered list.
// Non-string entries are ignored.
func (r *Resource) Sources() []string {
	v, ok := r.Param(ParamSource)
	if !ok {
		return nil
	}
	var out []string
	var collect func(any)
	collect = func(v any) {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		case []string:
			out = append(out, s...)
		case []any:
			for _, item := range s {
				collect(item)
			}
		}
	}
	collect(v)
	return out
}

// IsRecursive reports whether the resource manages a directory tree from
// its sources: recurse is true, "true" or "remote".
func (r *Resource) IsRecursive() bool {
	v, ok := r.Param(ParamRecurse)
	if !ok {
		return false
	}
	switch rv := v.(type) {
	case bool:
		return rv
	case string:
		return rv == "true" || rv == "remote"
	}
	return false
}

// Catalog is a compiled, machine-applicable configuration for one node.
type Catalog struct {
	Name          string     `json:"name"`
	Version       string     `json:"version"`
	Environment   string     `json:"environment"`
	CodeID        string     `json:"code_id,omitempty"`
	TransactionID string     `json:"transaction_uuid,omitempty"`
	CatalogID     string     `json:"catalog_uuid,omitempty"`
	CompiledAt    time.Time  `json:"compiled_at"`
	Resources     []Resource `json:"resources"`

	// FileMetadata maps a resource title to its inlined metadata.
	FileMetadata map[string]FileMetadata `json:"metadata"`

	// RecursiveFileMetadata maps a resource title to the metadata
	// found under each of its sources.
	RecursiveFileMetadata map[string]map[string][]FileMetadata `json:"recursive_metadata"`
}

// NewCatalog creates an empty catalog for a node.
func NewCatalog(name, environment string) *Catalog {
	return &Catalog{
		Name:                  name,
		Environment:           environment,
		FileMetadata:          make(map[string]FileMetadata),
		RecursiveFileMetadata: make(map[string]map[string][]FileMetadata),
	}
}

// FileResources returns pointers to the File resources in catalog order.
func (c *Catalog) FileResources() []*Resource {
	var out []*Resource
	for i := range c.Resources {
		if strings.EqualFold(c.Resources[i].Type, ResourceTypeFile) {
			out = append(out, &c.Resources[i])
		}
	}
	return out
}
