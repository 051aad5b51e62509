package filesystem

import (
	"crypto/md5"  //nolint:gosec // G501: agent-selected checksum type, not a security boundary
	"crypto/sha1" //nolint:gosec // G505: agent-selected checksum type, not a security boundary
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/custodia-labs/catalogd/internal/core/domain"
)

// liteBytes is how much of a file the *lite checksum types read.
const liteBytes = 512

// newHash returns the digest for a content checksum type, and whether the
// type only reads the first liteBytes of the file.
func newHash(checksumType string) (hash.Hash, bool, error) {
	base, lite := strings.CutSuffix(checksumType, "lite")
	var h hash.Hash
	switch base {
	case domain.ChecksumMD5:
		h = md5.New() //nolint:gosec // G401
	case domain.ChecksumSHA1:
		h = sha1.New() //nolint:gosec // G401
	case domain.ChecksumSHA224:
		h = sha256.New224()
	case domain.ChecksumSHA256:
		h = sha256.New()
	case domain.ChecksumSHA384:
		h = sha512.New384()
	case domain.ChecksumSHA512:
		h = sha512.New()
	case domain.ChecksumBLAKE3:
		h = blake3.New()
	default:
		return nil, false, fmt.Errorf("%w: checksum type %q", domain.ErrUnsupportedType, checksumType)
	}
	// Only md5, sha1 and sha256 have lite variants.
	if lite && base != domain.ChecksumMD5 && base != domain.ChecksumSHA1 && base != domain.ChecksumSHA256 {
		return nil, false, fmt.Errorf("%w: checksum type %q", domain.ErrUnsupportedType, checksumType)
	}
	return h, lite, nil
}

// checksum returns the "{type}value" checksum of the file at path. Directories
// and time-based types are checksummed by their timestamps.
func checksum(path string, info fs.FileInfo, checksumType string) (string, error) {
	switch checksumType {
	case domain.ChecksumNone:
		return "{none}", nil
	case domain.ChecksumMtime:
		return "{mtime}" + info.ModTime().UTC().String(), nil
	case domain.ChecksumCtime:
		return "{ctime}" + changeTime(info).UTC().String(), nil
	}

	if info.IsDir() {
		return "{ctime}" + changeTime(info).UTC().String(), nil
	}

	h, lite, err := newHash(checksumType)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if lite {
		r = io.LimitReader(f, liteBytes)
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return "{" + checksumType + "}" + hex.EncodeToString(h.Sum(nil)), nil
}
