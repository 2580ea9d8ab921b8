package common

import "strings"

// PlaceholderImageURL is returned whenever a provider has no usable image
// reference. Clients must never receive an empty image URL; empty <img src>
// values cause broken-image flicker on the mobile side.
const PlaceholderImageURL = "https://static.curately.app/placeholders/item.png"

// ResolveImageURL turns a provider's raw image field into a displayable
// absolute URL. Absolute URLs pass through unchanged; relative CDN fragments
// are joined onto the provider's base path; empty input yields the shared
// placeholder.
func ResolveImageURL(raw, base string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return PlaceholderImageURL
	}
	if IsAbsoluteURL(value) {
		return value
	}
	if base == "" {
		return PlaceholderImageURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(value, "/")
}

// IsAbsoluteURL reports whether the value already carries a URL scheme.
func IsAbsoluteURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
