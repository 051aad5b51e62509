package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

func resetCompileFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		compileEnvironment = ""
		compileFactsFile = ""
		compileFactsFormat = ""
		compileStatic = false
		compileCodeID = ""
		compileChecksumType = domain.ChecksumSHA256
		compileNodeFile = ""
		compileTransaction = ""
	})
}

func TestCompileCmd_Use(t *testing.T) {
	assert.Equal(t, "compile [node]", compileCmd.Use)
}

func TestCompileCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, "compile")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestCompileCmd_HasChecksumTypeFlag(t *testing.T) {
	flag := compileCmd.Flags().Lookup("checksum-type")
	require.NotNil(t, flag, "checksum-type flag should exist")
	assert.Equal(t, "sha256", flag.DefValue)
}

func TestCompileCmd_PrintsCatalog(t *testing.T) {
	catalogs, _, cleanup := setupTestServices()
	defer cleanup()
	resetCompileFlags(t)

	out, err := execute(t, "compile", "web01", "--environment", "staging", "--static", "--code-id", "abc")

	require.NoError(t, err)
	assert.Equal(t, "web01", catalogs.lastReq.NodeKey)
	assert.Equal(t, "staging", catalogs.lastReq.Environment)
	assert.True(t, catalogs.lastReq.StaticCatalog)
	assert.Equal(t, "abc", catalogs.lastReq.CodeID)
	assert.Equal(t, "sha256", catalogs.lastReq.ChecksumTypes)
	assert.False(t, catalogs.lastReq.Remote)

	var got domain.Catalog
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "web01", got.Name)
}

func TestCompileCmd_ReadsFacts(t *testing.T) {
	catalogs, _, cleanup := setupTestServices()
	defer cleanup()
	resetCompileFlags(t)

	content := "name: web01\nvalues:\n  motd: 100% up+running\n"
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := execute(t, "compile", "web01", "--facts", path)

	require.NoError(t, err)
	assert.Equal(t, "yaml", catalogs.lastReq.FactsFormat)
	decoded, err := url.QueryUnescape(catalogs.lastReq.RawFacts)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestCompileCmd_ReadsNodeOverride(t *testing.T) {
	catalogs, _, cleanup := setupTestServices()
	defer cleanup()
	resetCompileFlags(t)

	path := filepath.Join(t.TempDir(), "node.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"name":"web01","environment":"staging","classes":["nginx"]}`), 0600))

	_, err := execute(t, "compile", "web01", "--node", path)

	require.NoError(t, err)
	require.NotNil(t, catalogs.lastReq.NodeOverride)
	assert.Equal(t, "staging", catalogs.lastReq.NodeOverride.Environment)
	assert.Equal(t, []string{"nginx"}, catalogs.lastReq.NodeOverride.Classes)
}

func TestCompileCmd_Failure(t *testing.T) {
	catalogs, _, cleanup := setupTestServices()
	defer cleanup()
	resetCompileFlags(t)
	catalogs.err = fmt.Errorf("%w: wrong node", domain.ErrMalformedRequest)

	_, err := execute(t, "compile", "web01")

	assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	assert.Contains(t, err.Error(), "compile failed")
}

func TestReadFacts_Format(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file     string
		override string
		want     string
	}{
		{"facts.json", "", "json"},
		{"facts.yml", "", "yaml"},
		{"facts.cbor", "", "cbor"},
		{"facts.txt", "", "json"},
		{"facts.json", "pson", "pson"},
	}
	for _, tt := range tests {
		t.Run(tt.file+tt.override, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

			_, format, err := readFacts(path, tt.override)

			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}

func TestReadNode_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := readNode(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading node")

	path := filepath.Join(dir, "anon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: production\n"), 0600))
	_, err = readNode(path)
	assert.ErrorContains(t, err, "has no name")
}
