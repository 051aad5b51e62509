package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// modulesMount is the only fileserver mount served from environments.
const modulesMount = "modules"

// ErrTooManyFiles is returned when a recursive search exceeds MaxFiles.
var ErrTooManyFiles = errors.New("too many files")

// Ensure Search implements the interface.
var _ driven.MetadataSearch = (*Search)(nil)

// Search finds file metadata for puppet: sources.
type Search struct {
	modulePath []string
}

// NewSearch creates a search. modulePath lists module directories shared
// by all environments, consulted after the environment's own modules.
func NewSearch(modulePath ...string) *Search {
	return &Search{modulePath: modulePath}
}

// FindOne returns the metadata of the file behind source, or nil when
// source does not resolve.
func (s *Search) FindOne(ctx context.Context, source string, opts driven.MetadataOptions) (*domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, ok, err := s.resolve(source, opts.Environment)
	if err != nil || !ok {
		return nil, err
	}

	opts = opts.WithDefaults()
	info, err := stat(full, opts.Links)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	md, err := describe(full, domain.RootRelativePath, info, opts)
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// FindRecursive returns the metadata of source and every entry below it,
// in lexical walk order with the root first.
func (s *Search) FindRecursive(ctx context.Context, source string, opts driven.MetadataOptions) ([]domain.FileMetadata, error) {
	full, ok, err := s.resolve(source, opts.Environment)
	if err != nil || !ok {
		return nil, err
	}

	opts = opts.WithDefaults()
	info, err := stat(full, opts.Links)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	w := &walker{ctx: ctx, opts: opts}
	if err := w.visit(full, domain.RootRelativePath, info, 0); err != nil {
		return nil, err
	}
	return w.found, nil
}

// resolve maps source to a path on disk. ok is false when the source names
// no known mount or module.
func (s *Search) resolve(source string, env *domain.Environment) (string, bool, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", false, fmt.Errorf("%w: source %q: %w", domain.ErrMalformedRequest, source, err)
	}
	if u.Scheme != domain.PuppetScheme {
		return "", false, fmt.Errorf("%w: source %q is not a puppet: URI", domain.ErrMalformedRequest, source)
	}

	parts := strings.SplitN(strings.TrimPrefix(path.Clean("/"+u.Path), "/"), "/", 3)
	if len(parts) < 2 || parts[0] != modulesMount || parts[1] == "" {
		return "", false, nil
	}
	module := parts[1]
	rest := ""
	if len(parts) == 3 {
		rest = parts[2]
	}

	var roots []string
	if env != nil && env.Path != "" {
		roots = append(roots, filepath.Join(env.Path, modulesMount))
	}
	roots = append(roots, s.modulePath...)

	for _, root := range roots {
		dir := filepath.Join(root, module)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return filepath.Join(dir, "files", filepath.FromSlash(rest)), true, nil
		}
	}
	return "", false, nil
}

func stat(full string, links driven.LinkMode) (fs.FileInfo, error) {
	if links == driven.LinksFollow {
		return os.Stat(full)
	}
	return os.Lstat(full)
}

// describe builds the metadata of one entry.
func describe(full, rel string, info fs.FileInfo, opts driven.MetadataOptions) (domain.FileMetadata, error) {
	md := domain.FileMetadata{
		FullPath:     full,
		RelativePath: rel,
		ChecksumType: opts.ChecksumType,
		MTime:        info.ModTime().UTC(),
	}
	if opts.SourcePermissions == driven.SourcePermissionsUse {
		md.Mode = uint32(info.Mode().Perm())
	}

	target := full
	targetInfo := info
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		md.Type = domain.FileTypeLink
		dest, err := os.Readlink(full)
		if err != nil {
			return md, fmt.Errorf("reading link %s: %w", full, err)
		}
		md.Destination = dest
		// A dangling link has no content to checksum.
		fi, err := os.Stat(full)
		if err != nil {
			md.Checksum = "{none}"
			return md, nil
		}
		targetInfo = fi
	case info.IsDir():
		md.Type = domain.FileTypeDirectory
	default:
		md.Type = domain.FileTypeFile
	}

	if md.ChecksumType == "" {
		md.ChecksumType = domain.ChecksumSHA256
	}
	sum, err := checksum(target, targetInfo, md.ChecksumType)
	if err != nil {
		return md, err
	}
	md.Checksum = sum
	return md, nil
}

type walker struct {
	ctx   context.Context
	opts  driven.MetadataOptions
	found []domain.FileMetadata
}

func (w *walker) visit(full, rel string, info fs.FileInfo, depth int) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if w.opts.MaxFiles > 0 && len(w.found) >= w.opts.MaxFiles {
		return fmt.Errorf("%w: %s exceeds the limit of %d entries", ErrTooManyFiles, full, w.opts.MaxFiles)
	}

	md, err := describe(full, rel, info, w.opts)
	if err != nil {
		return err
	}
	w.found = append(w.found, md)

	if !info.IsDir() {
		return nil
	}
	if w.opts.RecurseLimit > 0 && depth >= w.opts.RecurseLimit {
		return nil
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", full, err)
	}
	for _, entry := range entries {
		if w.ignored(entry.Name()) {
			continue
		}
		child := filepath.Join(full, entry.Name())
		childInfo, err := stat(child, w.opts.Links)
		if err != nil {
			// Dangling links are reported as links even when following.
			if childInfo, err = os.Lstat(child); err != nil {
				return fmt.Errorf("stat %s: %w", child, err)
			}
		}
		childRel := entry.Name()
		if rel != domain.RootRelativePath {
			childRel = path.Join(rel, entry.Name())
		}
		if err := w.visit(child, childRel, childInfo, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) ignored(name string) bool {
	for _, pattern := range w.opts.Ignore {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
