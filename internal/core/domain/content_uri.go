package domain

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// PuppetScheme is the only source scheme eligible for inlining.
const PuppetScheme = "puppet"

// IsPuppetSource reports whether source uses the puppet: scheme.
func IsPuppetSource(source string) bool {
	return strings.HasPrefix(source, PuppetScheme+":")
}

// NormalizeSource strips trailing slashes from a source URI.
func NormalizeSource(source string) string {
	trimmed := strings.TrimRight(source, "/")
	if trimmed == "" || strings.HasSuffix(trimmed, ":") {
		return source
	}
	return trimmed
}

// WithinRoot reports whether path is root or a descendant of root.
func WithinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ContentURI builds the content-addressable URI for fullPath, reusing the
// scheme, host and port of source. The caller must ensure fullPath is inside
// envRoot.
func ContentURI(fullPath, source, envRoot string) (string, error) {
	rel, err := filepath.Rel(envRoot, fullPath)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", fullPath, err)
	}

	src, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse source %q: %w", source, err)
	}

	u := url.URL{
		Scheme: src.Scheme,
		Host:   src.Host,
		Path:   "/" + filepath.ToSlash(rel),
	}
	return u.String(), nil
}

// ChildContentURI appends a slash-separated relative path to a content URI
// built by ContentURI, escaping each segment the same way.
func ChildContentURI(base, rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}
