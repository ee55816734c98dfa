package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestClean_StripsScriptBlocks(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"closed script", `hi <script>alert(1)</script> there`, "hi there"},
		{"dangling script", `hi <script>alert(1)`, "hi"},
		{"iframe", `a <iframe src="x"></iframe> b`, "a b"},
		{"object", `a <object data="x"></object> b`, "a b"},
		{"embed", `a <embed src="x"></embed> b`, "a b"},
		{"form", `a <form action="x">f</form> b`, "a b"},
		{"case insensitive", `a <SCRIPT>x</SCRIPT> b`, "a b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClean_StripsAttributesAndSchemes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`<img onerror="x()">`, `<img>`},
		{`click javascript:alert(1)`, "click alert(1)"},
		{`see data:text/plain,hi`, "see text/plain,hi"},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("Clean(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean_NormalizesWhitespace(t *testing.T) {
	if got := Clean("  a \t\n  b  "); got != "a b" {
		t.Fatalf("got %q", got)
	}
	if got := Clean(""); got != "" {
		t.Fatalf("empty input should stay empty, got %q", got)
	}
}

func TestValidate_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if err := Validate(in); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Validate(%q) = %v; want ErrEmptyMessage", in, err)
		}
	}
}

func TestValidate_TooLong(t *testing.T) {
	if err := Validate(strings.Repeat("a", MaxMessageLen)); err != nil {
		t.Fatalf("exactly MaxMessageLen should pass, got %v", err)
	}
	if err := Validate(strings.Repeat("a", MaxMessageLen+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("want ErrMessageTooLong, got %v", err)
	}
}

func TestValidate_LengthCountsCharactersNotBytes(t *testing.T) {
	// Three bytes per rune; byte-counting would reject all of these.
	if _, err := CleanAndValidate(strings.Repeat("日", 9000)); err != nil {
		t.Fatalf("9,000 CJK characters rejected: %v", err)
	}
	if err := Validate(strings.Repeat("日", MaxMessageLen)); err != nil {
		t.Fatalf("exactly MaxMessageLen runes should pass, got %v", err)
	}
	if err := Validate(strings.Repeat("日", MaxMessageLen+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("want ErrMessageTooLong, got %v", err)
	}
}

func TestValidate_HarmfulSignatures(t *testing.T) {
	bad := []string{
		"<script>x",
		"javascript:void(0)",
		"data:text/html;base64,xyz",
		"vbscript:msgbox",
		"onload = doIt",
		"eval (payload)",
		"document.cookie",
		"window.open('x')",
		"localStorage.getItem('t')",
		"sessionStorage.clear()",
	}
	for _, in := range bad {
		if err := Validate(in); !errors.Is(err, ErrHarmfulContent) {
			t.Fatalf("Validate(%q) = %v; want ErrHarmfulContent", in, err)
		}
	}
	if err := Validate("plain friendly text about documents and windows"); err != nil {
		t.Fatalf("benign text rejected: %v", err)
	}
}

func TestCleanAndValidate_ReturnsCleanedOnFailure(t *testing.T) {
	// Cleaning strips the script block; the remainder is empty, so the
	// cleaned text comes back along with the error.
	got, err := CleanAndValidate("<script>alert(1)</script>")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("want ErrEmptyMessage, got %v", err)
	}
	if got != "" {
		t.Fatalf("cleaned = %q; want empty", got)
	}

	got, err = CleanAndValidate("  hello   world <script>x</script> ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("cleaned = %q", got)
	}
}
