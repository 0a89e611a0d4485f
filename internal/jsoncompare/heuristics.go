// internal/jsoncompare/heuristics.go
package jsoncompare

import (
	"regexp"
)

// PlaceholderDynamicValue replaces values that differ between runs of the
// same document.
const PlaceholderDynamicValue = "__DYNAMIC_VALUE__"

// HeuristicRules identifies run specific data in a geometry dump.
type HeuristicRules struct {
	// KeyPatterns matches object keys whose values are run specific.
	KeyPatterns []*regexp.Regexp
	// CheckValueForUUID treats any UUID string as run specific.
	CheckValueForUUID bool
}

// DefaultRules ignores run ids, by key and by value.
func DefaultRules() HeuristicRules {
	return HeuristicRules{
		KeyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^run_?id$`),
		},
		CheckValueForUUID: true,
	}
}
