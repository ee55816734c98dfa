// Package codec implements the reversible content transform applied to
// message bodies before they reach the database and reversed after reads.
//
// The transform XORs the UTF-8 bytes of the plaintext with a static secret
// (repeated cyclically) and base64-encodes the result so arbitrary bytes are
// safe to store in a text column. Encode/Decode round-trip any input,
// including multi-byte text and the empty string.
//
// This is obfuscation against casual inspection of stored rows, not a
// security control: the key is static and shared by the whole process, and a
// privileged reader can trivially reverse it.
//
// Failure policy: this package never fails a request. If a transform cannot
// be applied (empty key, malformed token) the input is returned unchanged
// and the failure is logged.
package codec

import (
	"encoding/base64"

	"github.com/rs/zerolog/log"
)

// Codec applies the keyed transform. The zero value (empty Key) passes
// content through unchanged.
type Codec struct {
	Key string
}

// New returns a Codec using the given shared secret.
func New(key string) Codec { return Codec{Key: key} }

// Encode transforms plaintext into a storable token. Empty input and an
// unconfigured key both pass through unchanged.
func (c Codec) Encode(plaintext string) string {
	if plaintext == "" || c.Key == "" {
		return plaintext
	}
	return base64.StdEncoding.EncodeToString(c.xor([]byte(plaintext)))
}

// Decode reverses Encode. A token that does not parse as base64 is assumed
// to be stored plaintext (e.g. rows written before the codec was enabled, or
// an earlier Encode that fell back) and is returned unchanged.
func (c Codec) Decode(token string) string {
	if token == "" || c.Key == "" {
		return token
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		log.Warn().Err(err).Msg("codec: decode fallback to stored content")
		return token
	}
	return string(c.xor(raw))
}

// xor combines each byte with the key byte at i mod len(key). XOR is its own
// inverse, so the same walk both encodes and decodes.
func (c Codec) xor(in []byte) []byte {
	key := []byte(c.Key)
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}
