package common

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanText strips HTML tags and entities from provider-supplied copy and
// collapses whitespace. Several APIs embed markup in descriptions.
func CleanText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

// DisplayYear extracts a four-digit year from the date formats the providers
// use (YYYY-MM-DD, YYYY/MM/DD, or a bare year). Returns "" when the input
// carries no usable year; the full date stays available in the item's raw
// payload for detail pages.
func DisplayYear(raw string) string {
	value := strings.TrimSpace(raw)
	if len(value) < 4 {
		return ""
	}
	year := value[:4]
	for _, c := range year {
		if c < '0' || c > '9' {
			return ""
		}
	}
	if year == "0000" {
		return ""
	}
	return year
}

// Atoi parses loosely formatted provider numbers, returning 0 on garbage.
func Atoi(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return value
}

// JoinNonEmpty joins the non-blank parts with the separator. Used to build
// subtitles like "2010 · Christopher Nolan" without stray separators.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, sep)
}
