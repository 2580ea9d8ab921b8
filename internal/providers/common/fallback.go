package common

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"curately/catalogservice/internal/domain"
)

// FoldQuery lowercases the value and strips diacritics so that "café" matches
// "Cafe" when filtering the mock datasets.
func FoldQuery(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// FilterMockItems applies the never-dead-end fallback policy shared by every
// adapter: items whose salient text matches the query as a folded substring
// are returned; when nothing matches, the entire dataset is returned instead
// of an empty set. An empty query also yields the full dataset.
//
// salient extracts the text fields worth matching for one item (title, genre,
// author, address and so on, adapter-specific).
func FilterMockItems(items []domain.CatalogItem, query string, salient func(domain.CatalogItem) []string) []domain.CatalogItem {
	folded := FoldQuery(query)
	if folded == "" {
		return append([]domain.CatalogItem(nil), items...)
	}

	matched := make([]domain.CatalogItem, 0, len(items))
	for _, item := range items {
		fields := []string{item.Title, item.Subtitle}
		if salient != nil {
			fields = append(fields, salient(item)...)
		}
		for _, field := range fields {
			if field == "" {
				continue
			}
			if strings.Contains(FoldQuery(field), folded) {
				matched = append(matched, item)
				break
			}
		}
	}
	if len(matched) == 0 {
		return append([]domain.CatalogItem(nil), items...)
	}
	return matched
}

// ClassifyFailure buckets an adapter failure into the fallback taxonomy:
// malformed JSON is a schema mismatch, everything else (network errors,
// non-2xx statuses) is a transport failure. Both degrade identically; the
// distinction only feeds logs and metrics.
func ClassifyFailure(err error) domain.FallbackReason {
	if err == nil {
		return ""
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return domain.FallbackSchemaMismatch
	}
	if strings.Contains(err.Error(), "decode") {
		return domain.FallbackSchemaMismatch
	}
	return domain.FallbackTransportFailure
}

// CredentialConfigured reports whether a provider secret is present and is
// not one of the placeholder sentinels that ship in example env files.
func CredentialConfigured(secret string) bool {
	value := strings.TrimSpace(secret)
	if value == "" {
		return false
	}
	switch strings.ToLower(value) {
	case "your_api_key", "your-api-key", "changeme", "placeholder", "todo":
		return false
	}
	return true
}
