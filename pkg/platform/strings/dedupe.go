// Package strings provides string canonicalization used for identity and registry matching.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// CollapseSpace trims s and replaces every internal whitespace run with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeHolderID canonicalizes a shareholder registry id for equality checks.
// Case is preserved: registry ids are compared exactly after whitespace cleanup.
func NormalizeHolderID(s string) string {
	return CollapseSpace(s)
}

// NormalizeCompanyName canonicalizes a company name: trimmed, single-spaced, upper case.
//
// Example:
//
//	NormalizeCompanyName("  bdo   unibank inc. ")
//	// Returns: "BDO UNIBANK INC."
func NormalizeCompanyName(s string) string {
	return strings.ToUpper(CollapseSpace(s))
}

// EqualFoldTrim reports whether a and b are equal after trimming, ignoring case.
// Empty values never match.
func EqualFoldTrim(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
