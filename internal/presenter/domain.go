package presenter

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// FallbackDomain labels a source whose URI has no parsable host
const FallbackDomain = "web"

// GetDomain returns the host of uri without a leading "www." label,
// or FallbackDomain when uri is not an absolute URL.
func GetDomain(uri string) string {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return FallbackDomain
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// Clamp shortens s to at most max runes, ending with an ellipsis when cut
func Clamp(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}
