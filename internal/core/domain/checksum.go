package domain

import "strings"

// Checksum types known to the master.
const (
	ChecksumSHA256     = "sha256"
	ChecksumSHA256Lite = "sha256lite"
	ChecksumMD5        = "md5"
	ChecksumMD5Lite    = "md5lite"
	ChecksumSHA1       = "sha1"
	ChecksumSHA1Lite   = "sha1lite"
	ChecksumSHA512     = "sha512"
	ChecksumSHA384     = "sha384"
	ChecksumSHA224     = "sha224"
	ChecksumBLAKE3     = "blake3"
	ChecksumMtime      = "mtime"
	ChecksumCtime      = "ctime"
	ChecksumNone       = "none"
)

// KnownChecksumTypes lists every checksum type the master can compute.
var KnownChecksumTypes = []string{
	ChecksumSHA256, ChecksumSHA256Lite,
	ChecksumMD5, ChecksumMD5Lite,
	ChecksumSHA1, ChecksumSHA1Lite,
	ChecksumSHA512, ChecksumSHA384, ChecksumSHA224,
	ChecksumBLAKE3,
	ChecksumMtime, ChecksumCtime, ChecksumNone,
}

// NegotiateChecksumType returns the first checksum type in the agent's
// dot-separated proposal that the master supports. ok is false when the
// agent proposed nothing or nothing matches.
func NegotiateChecksumType(proposed string, supported []string) (string, bool) {
	if proposed == "" {
		return "", false
	}
	known := make(map[string]struct{}, len(supported))
	for _, s := range supported {
		known[s] = struct{}{}
	}
	for _, candidate := range strings.Split(proposed, ".") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := known[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}
