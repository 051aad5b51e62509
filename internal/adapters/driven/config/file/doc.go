// Package file loads catalogd configuration from a TOML file.
//
// The file is flattened into dot-notation keys ("server.listen") on load
// and read into a typed Settings value with defaults for every key.
package file
