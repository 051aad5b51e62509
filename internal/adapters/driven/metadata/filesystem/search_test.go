package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// writeFile creates a file and its parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newEnv lays out an environment with module foo:
//
//	modules/foo/files/bar.txt
//	modules/foo/files/conf.d/a.conf
//	modules/foo/files/conf.d/b.conf
//	modules/foo/files/conf.d/nested/c.conf
func newEnv(t *testing.T) *domain.Environment {
	t.Helper()
	root := t.TempDir()
	files := filepath.Join(root, "modules", "foo", "files")
	writeFile(t, filepath.Join(files, "bar.txt"), "hello\n")
	writeFile(t, filepath.Join(files, "conf.d", "a.conf"), "a")
	writeFile(t, filepath.Join(files, "conf.d", "b.conf"), "b")
	writeFile(t, filepath.Join(files, "conf.d", "nested", "c.conf"), "c")
	return &domain.Environment{Name: "production", Path: root, StaticCatalogs: true}
}

func opts(env *domain.Environment, checksumType string) driven.MetadataOptions {
	return driven.MetadataOptions{Environment: env, ChecksumType: checksumType}
}

func relPaths(entries []domain.FileMetadata) []string {
	out := make([]string, len(entries))
	for i, md := range entries {
		out[i] = md.RelativePath
	}
	return out
}

func TestSearch_FindOne(t *testing.T) {
	env := newEnv(t)
	s := NewSearch()

	md, err := s.FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "sha256"))

	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, filepath.Join(env.Path, "modules", "foo", "files", "bar.txt"), md.FullPath)
	assert.Equal(t, domain.FileTypeFile, md.Type)
	assert.Equal(t, "sha256", md.ChecksumType)
	assert.Equal(t, "{sha256}5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03", md.Checksum)
	assert.Zero(t, md.Mode)
}

func TestSearch_FindOneChecksumTypes(t *testing.T) {
	env := newEnv(t)
	s := NewSearch()

	tests := []struct {
		checksumType string
		want         string
	}{
		{"md5", "{md5}b1946ac92492d2347c6235b4d2611184"},
		{"md5lite", "{md5lite}b1946ac92492d2347c6235b4d2611184"},
		{"sha1", "{sha1}f572d396fae9206628714fb2ce00f72e94f2258f"},
		{"none", "{none}"},
	}
	for _, tt := range tests {
		t.Run(tt.checksumType, func(t *testing.T) {
			md, err := s.FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, tt.checksumType))
			require.NoError(t, err)
			assert.Equal(t, tt.want, md.Checksum)
		})
	}
}

func TestSearch_FindOneBlake3AndTimes(t *testing.T) {
	env := newEnv(t)
	s := NewSearch()

	md, err := s.FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "blake3"))
	require.NoError(t, err)
	assert.Regexp(t, `^\{blake3\}[0-9a-f]{64}$`, md.Checksum)

	md, err = s.FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "mtime"))
	require.NoError(t, err)
	assert.Contains(t, md.Checksum, "{mtime}")
}

func TestSearch_FindOneUnsupportedChecksum(t *testing.T) {
	env := newEnv(t)

	_, err := NewSearch().FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "crc32"))

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSearch_FindOneNotResolvable(t *testing.T) {
	env := newEnv(t)
	s := NewSearch()

	for _, source := range []string{
		"puppet:///modules/foo/missing.txt",
		"puppet:///modules/nosuchmodule/bar.txt",
		"puppet:///files/bar.txt",
		"puppet:///modules/foo/../../../etc/passwd",
	} {
		t.Run(source, func(t *testing.T) {
			md, err := s.FindOne(context.Background(), source, opts(env, "md5"))
			require.NoError(t, err)
			assert.Nil(t, md)
		})
	}
}

func TestSearch_SourcePermissions(t *testing.T) {
	env := newEnv(t)
	o := opts(env, "md5")
	o.SourcePermissions = driven.SourcePermissionsUse

	md, err := NewSearch().FindOne(context.Background(), "puppet:///modules/foo/bar.txt", o)

	require.NoError(t, err)
	assert.Equal(t, uint32(0o644), md.Mode)
}

func TestSearch_BaseModulePath(t *testing.T) {
	env := newEnv(t)
	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "common", "files", "motd"), "welcome")

	md, err := NewSearch(shared).FindOne(context.Background(), "puppet:///modules/common/motd", opts(env, "md5"))

	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, filepath.Join(shared, "common", "files", "motd"), md.FullPath)
	assert.False(t, domain.WithinRoot(env.Path, md.FullPath))
}

func TestSearch_EnvironmentModuleShadowsBaseModulePath(t *testing.T) {
	env := newEnv(t)
	shared := t.TempDir()
	writeFile(t, filepath.Join(shared, "foo", "files", "bar.txt"), "shadowed")

	md, err := NewSearch(shared).FindOne(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "md5"))

	require.NoError(t, err)
	assert.True(t, domain.WithinRoot(env.Path, md.FullPath))
}

func TestSearch_FindRecursive(t *testing.T) {
	env := newEnv(t)
	o := opts(env, "md5")
	o.Recurse = true

	entries, err := NewSearch().FindRecursive(context.Background(), "puppet:///modules/foo/conf.d", o)

	require.NoError(t, err)
	assert.Equal(t, []string{".", "a.conf", "b.conf", "nested", "nested/c.conf"}, relPaths(entries))
	assert.Equal(t, domain.FileTypeDirectory, entries[0].Type)
	assert.Equal(t, filepath.Join(env.Path, "modules", "foo", "files", "conf.d"), entries[0].FullPath)
	assert.Equal(t, "{md5}0cc175b9c0f1b6a831c399e269772661", entries[1].Checksum)
}

func TestSearch_FindRecursiveLimitAndIgnore(t *testing.T) {
	env := newEnv(t)
	s := NewSearch()

	t.Run("recurse limit", func(t *testing.T) {
		o := opts(env, "md5")
		o.RecurseLimit = 1
		entries, err := s.FindRecursive(context.Background(), "puppet:///modules/foo/conf.d", o)
		require.NoError(t, err)
		assert.Equal(t, []string{".", "a.conf", "b.conf", "nested"}, relPaths(entries))
	})

	t.Run("ignore", func(t *testing.T) {
		o := opts(env, "md5")
		o.Ignore = []string{"b.*", "nested"}
		entries, err := s.FindRecursive(context.Background(), "puppet:///modules/foo/conf.d", o)
		require.NoError(t, err)
		assert.Equal(t, []string{".", "a.conf"}, relPaths(entries))
	})

	t.Run("max files", func(t *testing.T) {
		o := opts(env, "md5")
		o.MaxFiles = 2
		_, err := s.FindRecursive(context.Background(), "puppet:///modules/foo/conf.d", o)
		assert.ErrorIs(t, err, ErrTooManyFiles)
	})
}

func TestSearch_FindRecursiveOnFile(t *testing.T) {
	env := newEnv(t)

	entries, err := NewSearch().FindRecursive(context.Background(), "puppet:///modules/foo/bar.txt", opts(env, "md5"))

	require.NoError(t, err)
	assert.Equal(t, []string{"."}, relPaths(entries))
}

func TestSearch_FindRecursiveMissing(t *testing.T) {
	env := newEnv(t)

	entries, err := NewSearch().FindRecursive(context.Background(), "puppet:///modules/foo/nothing", opts(env, "md5"))

	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestSearch_Links(t *testing.T) {
	env := newEnv(t)
	files := filepath.Join(env.Path, "modules", "foo", "files")
	require.NoError(t, os.Symlink("bar.txt", filepath.Join(files, "link.txt")))
	s := NewSearch()

	t.Run("manage", func(t *testing.T) {
		md, err := s.FindOne(context.Background(), "puppet:///modules/foo/link.txt", opts(env, "md5"))
		require.NoError(t, err)
		assert.Equal(t, domain.FileTypeLink, md.Type)
		assert.Equal(t, "bar.txt", md.Destination)
		assert.Equal(t, "{md5}b1946ac92492d2347c6235b4d2611184", md.Checksum)
	})

	t.Run("follow", func(t *testing.T) {
		o := opts(env, "md5")
		o.Links = driven.LinksFollow
		md, err := s.FindOne(context.Background(), "puppet:///modules/foo/link.txt", o)
		require.NoError(t, err)
		assert.Equal(t, domain.FileTypeFile, md.Type)
		assert.Empty(t, md.Destination)
	})
}

func TestSearch_MalformedSource(t *testing.T) {
	env := newEnv(t)

	_, err := NewSearch().FindOne(context.Background(), "https://example.com/x", opts(env, "md5"))

	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
}
