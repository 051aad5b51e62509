package domain

import "time"

// File types reported by metadata lookups.
const (
	FileTypeFile      = "file"
	FileTypeDirectory = "directory"
	FileTypeLink      = "link"
)

// RootRelativePath is the relative path of a recursive search's root entry.
const RootRelativePath = "."

// FileMetadata describes a file served from an environment.
type FileMetadata struct {
	// FullPath is the absolute path of the file on the master.
	FullPath string `json:"path"`

	// RelativePath is the path relative to the recursive search root.
	RelativePath string `json:"relative_path"`

	// Type is file, directory or link.
	Type string `json:"type"`

	// ChecksumType is the algorithm used for Checksum.
	ChecksumType string `json:"checksum_type"`

	// Checksum is the digest in "{type}value" form.
	Checksum string `json:"checksum,omitempty"`

	// Destination is the link target for links.
	Destination string `json:"destination,omitempty"`

	Mode  uint32    `json:"mode,omitempty"`
	MTime time.Time `json:"mtime,omitempty"`

	// Source is the puppet: URI the metadata was found under.
	Source string `json:"source"`

	// ContentURI is where an agent fetches the content.
	// Only set for files inside the environment root.
	ContentURI string `json:"content_uri,omitempty"`
}
