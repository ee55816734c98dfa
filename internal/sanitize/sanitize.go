// Package sanitize validates and cleans free-text message content before it
// is persisted or forwarded to the completion backend.
//
// Cleaning strips markup that could execute in a browser (script/iframe/
// object/embed/form blocks, inline event handlers, javascript:/data: URI
// schemes) and normalizes whitespace. Validation runs on the cleaned text as
// a second line of defense: it rejects empty input, oversized input, and any
// text still carrying a harmful-content signature.
//
// Both user messages and AI replies pass through this package; the functions
// are pure and safe for concurrent use.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLen is the maximum accepted message length in characters.
const MaxMessageLen = 10000

// Validation errors.
var (
	// ErrEmptyMessage is returned when input is empty after cleaning.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrMessageTooLong is returned when input exceeds MaxMessageLen.
	ErrMessageTooLong = errors.New("message too long (max 10,000 characters)")

	// ErrHarmfulContent is returned when the cleaned input still matches a
	// harmful-content signature.
	ErrHarmfulContent = errors.New("message contains potentially harmful content")
)

// Tag blocks are removed together with their inner content; a dangling open
// tag (no close) is removed to end of input.
var (
	scriptRE = regexp.MustCompile(`(?is)<script\b.*?(?:</script>|$)`)
	iframeRE = regexp.MustCompile(`(?is)<iframe\b.*?(?:</iframe>|$)`)
	objectRE = regexp.MustCompile(`(?is)<object\b.*?(?:</object>|$)`)
	embedRE  = regexp.MustCompile(`(?is)<embed\b.*?(?:</embed>|$)`)
	formRE   = regexp.MustCompile(`(?is)<form\b.*?(?:</form>|$)`)

	eventAttrRE  = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*["'][^"']*["']`)
	jsSchemeRE   = regexp.MustCompile(`(?i)javascript\s*:`)
	dataSchemeRE = regexp.MustCompile(`(?i)data\s*:`)

	whitespaceRE = regexp.MustCompile(`\s+`)
)

// harmfulRE holds signatures checked against the cleaned text. Matching any
// of them fails validation even after cleaning.
var harmfulRE = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)data:text/html`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)document\.`),
	regexp.MustCompile(`(?i)window\.`),
	regexp.MustCompile(`(?i)localStorage\.`),
	regexp.MustCompile(`(?i)sessionStorage\.`),
}

// Clean strips dangerous markup and attributes from s and normalizes
// whitespace (runs collapse to a single space, surrounding space trimmed).
func Clean(s string) string {
	if s == "" {
		return s
	}

	out := scriptRE.ReplaceAllString(s, "")
	out = iframeRE.ReplaceAllString(out, "")
	out = objectRE.ReplaceAllString(out, "")
	out = embedRE.ReplaceAllString(out, "")
	out = formRE.ReplaceAllString(out, "")

	out = eventAttrRE.ReplaceAllString(out, "")
	out = jsSchemeRE.ReplaceAllString(out, "")
	out = dataSchemeRE.ReplaceAllString(out, "")

	return strings.TrimSpace(whitespaceRE.ReplaceAllString(out, " "))
}

// Validate checks cleaned text against the acceptance rules. It returns nil
// for valid input, or one of ErrEmptyMessage, ErrMessageTooLong,
// ErrHarmfulContent.
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyMessage
	}
	// The limit counts characters, not bytes; multi-byte text gets the full
	// allowance.
	if utf8.RuneCountInString(s) > MaxMessageLen {
		return ErrMessageTooLong
	}
	for _, re := range harmfulRE {
		if re.MatchString(s) {
			return ErrHarmfulContent
		}
	}
	return nil
}

// CleanAndValidate cleans s and validates the result. The cleaned text is
// returned even when validation fails, so callers can surface it for
// editing/retry.
func CleanAndValidate(s string) (string, error) {
	cleaned := Clean(s)
	return cleaned, Validate(cleaned)
}
