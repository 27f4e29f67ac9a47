// Package format implements the pluggable Value<->byte-sequence codec
// registry: named encoder/decoder pairs looked up by name, as used by the
// socket transport's wire envelopes.
package format

import (
	"fmt"
	"sync"

	"github.com/czx-lab/traeger/value"
)

// Encoder turns a Value into its wire representation.
type Encoder func(value.Value) (string, error)

// Decoder parses a wire representation back into a Value.
type Decoder func(string) (value.Value, error)

// Format is a named pair of pure encode/decode functions.
type Format struct {
	name   string
	encode Encoder
	decode Decoder
}

// New constructs a Format. It does not register it — call Register to
// make it discoverable by name.
func New(name string, encode Encoder, decode Decoder) Format {
	return Format{name: name, encode: encode, decode: decode}
}

// Name returns the format's registry name.
func (f Format) Name() string { return f.name }

// Encode converts v to its wire representation.
func (f Format) Encode(v value.Value) (string, error) {
	s, err := f.encode(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.name, err)
	}
	return s, nil
}

// Decode parses content back into a Value.
func (f Format) Decode(content string) (value.Value, error) {
	v, err := f.decode(content)
	if err != nil {
		return value.Value{}, fmt.Errorf("%s: %w", f.name, err)
	}
	return v, nil
}

var (
	mu       sync.RWMutex
	registry = map[string]Format{}
)

// Register makes f discoverable by ByName. Built-in codecs register
// themselves from their package's init.
func Register(f Format) {
	mu.Lock()
	defer mu.Unlock()
	registry[f.name] = f
}

// ByName looks up a registered Format, or reports absent.
func ByName(name string) (Format, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[name]
	return f, ok
}
