// Package classify maps a cluster context name to an environment category.
package classify

import "strings"

// Category is the environment class a context belongs to.
type Category string

const (
	CategoryProd    Category = "prod"
	CategoryTest    Category = "test"
	CategoryDev     Category = "dev"
	CategoryUnknown Category = "unknown"
)

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// Names holds the configured name fragments for each category.
// Order inside a list does not matter; order between lists does
// (prod is checked first, then test, then dev).
type Names struct {
	Prod []string `json:"prod"`
	Test []string `json:"test"`
	Dev  []string `json:"dev"`
}

// Classify returns the category of context.
//
// The context is trimmed and lower-cased, then checked for a substring
// match against Prod, Test and Dev in that order. The first hit wins, so
// "prod-test" is prod. No hit yields CategoryUnknown.
func Classify(context string, names Names) Category {
	normalized := strings.ToLower(strings.TrimSpace(context))

	switch {
	case containsAny(normalized, names.Prod):
		return CategoryProd
	case containsAny(normalized, names.Test):
		return CategoryTest
	case containsAny(normalized, names.Dev):
		return CategoryDev
	default:
		return CategoryUnknown
	}
}

// containsAny reports whether s contains any non-empty fragment.
// An empty fragment would match every context, so it is skipped.
func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f == "" {
			continue
		}
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
