// Package facts decodes fact payloads sent by agents.
//
// Supported formats:
//   - json (also "pson", "application/json")
//   - yaml (also "application/x-yaml", "application/yaml")
//   - cbor (also "application/cbor")
package facts

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure Decoder implements the interface.
var _ driven.FactDecoder = (*Decoder)(nil)

// Format names.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

var aliases = map[string]string{
	"json":               FormatJSON,
	"pson":               FormatJSON,
	"application/json":   FormatJSON,
	"yaml":               FormatYAML,
	"application/yaml":   FormatYAML,
	"application/x-yaml": FormatYAML,
	"cbor":               FormatCBOR,
	"application/cbor":   FormatCBOR,
}

// decMode decodes untyped CBOR maps as map[string]any so fact values
// look the same regardless of wire format.
var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("facts: CBOR decoder initialization failed: " + err.Error())
	}
}

// Decoder decodes fact payloads.
type Decoder struct{}

// NewDecoder creates a fact decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Canonical returns the canonical name of a format, or "" if unsupported.
func Canonical(format string) string {
	return aliases[strings.ToLower(strings.TrimSpace(format))]
}

// wireFacts mirrors domain.Facts with a loosely typed timestamp, since
// agents send RFC 3339 strings with or without fractional seconds.
type wireFacts struct {
	Name       string         `json:"name" yaml:"name" cbor:"name"`
	Values     map[string]any `json:"values" yaml:"values" cbor:"values"`
	Timestamp  string         `json:"timestamp" yaml:"timestamp" cbor:"timestamp"`
	Expiration string         `json:"expiration" yaml:"expiration" cbor:"expiration"`
}

// Decode parses text in the given format.
func (d *Decoder) Decode(format, text string) (*domain.Facts, error) {
	var w wireFacts
	var err error

	switch Canonical(format) {
	case FormatJSON:
		err = json.Unmarshal([]byte(text), &w)
	case FormatYAML:
		err = yaml.Unmarshal([]byte(text), &w)
	case FormatCBOR:
		err = decMode.Unmarshal([]byte(text), &w)
	default:
		return nil, fmt.Errorf("%w: fact format %q", domain.ErrUnsupportedType, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s facts: %w", format, err)
	}

	if w.Name == "" {
		return nil, fmt.Errorf("decoding %s facts: missing name", format)
	}

	facts := &domain.Facts{
		Name:       w.Name,
		Values:     w.Values,
		Timestamp:  parseTime(w.Timestamp),
		Expiration: parseTime(w.Expiration),
	}
	if facts.Values == nil {
		facts.Values = make(map[string]any)
	}
	return facts, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05 -0700", "2006-01-02T15:04:05.999999999-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
