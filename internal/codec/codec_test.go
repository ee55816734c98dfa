package codec

import (
	"encoding/base64"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	c := New("super-secret")
	cases := []string{
		"hello",
		"multi word message with   spaces",
		"ünïcødé 你好, мир 🚀",
		"a",
		string(make([]byte, 300)), // NUL bytes survive too
	}
	for _, in := range cases {
		enc := c.Encode(in)
		if enc == in {
			t.Fatalf("Encode(%q) left content unchanged", in)
		}
		if got := c.Decode(enc); got != in {
			t.Fatalf("round trip %q -> %q -> %q", in, enc, got)
		}
	}
}

func TestEncode_EmptyPassthrough(t *testing.T) {
	c := New("key")
	if got := c.Encode(""); got != "" {
		t.Fatalf("empty input should pass through, got %q", got)
	}
	if got := c.Decode(""); got != "" {
		t.Fatalf("empty token should pass through, got %q", got)
	}
}

func TestZeroKeyPassthrough(t *testing.T) {
	var c Codec
	if got := c.Encode("plain"); got != "plain" {
		t.Fatalf("unkeyed Encode changed content: %q", got)
	}
	if got := c.Decode("plain"); got != "plain" {
		t.Fatalf("unkeyed Decode changed content: %q", got)
	}
}

func TestDecode_InvalidBase64FallsBack(t *testing.T) {
	c := New("key")
	// Rows written before the codec was enabled are stored as plaintext.
	if got := c.Decode("not base64 at all!"); got != "not base64 at all!" {
		t.Fatalf("fallback returned %q", got)
	}
}

func TestEncode_ProducesBase64(t *testing.T) {
	c := New("k")
	enc := c.Encode("payload")
	if _, err := base64.StdEncoding.DecodeString(enc); err != nil {
		t.Fatalf("Encode output is not base64: %v", err)
	}
}

func TestDifferentKeysDiffer(t *testing.T) {
	a, b := New("key-a"), New("key-b")
	if a.Encode("same text") == b.Encode("same text") {
		t.Fatal("different keys produced identical tokens")
	}
}
