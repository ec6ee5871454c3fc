package record

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Clean trims a value and collapses internal whitespace to single spaces.
// Case is preserved so proper nouns survive storage.
func Clean(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Normalize is Clean plus lower-casing. It is the comparison form of a value.
func Normalize(s string) string {
	return strings.ToLower(Clean(s))
}

// Key normalizes a field name for lookup: "Use case", "use_case" and
// "USE-CASE" all map to "use case".
func Key(name string) string {
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return Normalize(name)
}

// containsFold reports whether items holds v under case-insensitive comparison.
func containsFold(items []string, v string) bool {
	for _, it := range items {
		if strings.EqualFold(it, v) {
			return true
		}
	}
	return false
}
