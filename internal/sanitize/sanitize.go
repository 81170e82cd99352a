// Package sanitize is the single trust boundary for strings that originate
// upstream or from the model. Everything stays an opaque byte string until it
// crosses the render boundary here.
package sanitize

import (
	"strings"

	"github.com/mr-tron/base58"
)

// Field caps applied to free-text inputs before they reach a prompt.
const (
	MaxSymbolLen      = 20
	MaxNameLen        = 100
	MaxDescriptionLen = 500
	MaxQueryLen       = 500
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML converts the five HTML-significant characters. Applied exactly
// once, at the render boundary.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// Truncate caps s at max bytes without splitting a UTF-8 rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && s[max]&0xC0 == 0x80 {
		max--
	}
	return s[:max]
}

// ValidURL accepts only http and https schemes. Scheme allow-list, not a
// regex over the whole string.
func ValidURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// IsSolanaAddress reports whether s is a plausible Solana account address:
// base58 alphabet, 32-44 characters, decodes cleanly.
func IsSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz", r) {
			return false
		}
	}
	_, err := base58.Decode(s)
	return err == nil
}
