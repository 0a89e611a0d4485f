// internal/jsoncompare/normalizer.go
package jsoncompare

import (
	"github.com/google/uuid"
)

// Normalizer rewrites a decoded JSON document so that two dumps of the same
// layout compare equal: run specific values become PlaceholderDynamicValue
// and ignored members are dropped.
type Normalizer struct {
	Rules  HeuristicRules
	Ignore map[string]bool
}

// NewNormalizer creates a normalizer that also drops the members named in ignore.
func NewNormalizer(rules HeuristicRules, ignore []string) *Normalizer {
	n := &Normalizer{Rules: rules, Ignore: make(map[string]bool, len(ignore))}
	for _, k := range ignore {
		n.Ignore[k] = true
	}
	return n
}

// Normalize returns a normalized copy of data; data itself is not modified.
func (n *Normalizer) Normalize(data interface{}) interface{} {
	if n.isValueDynamic(data) {
		return PlaceholderDynamicValue
	}
	switch v := data.(type) {
	case map[string]interface{}:
		return n.normalizeMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = n.Normalize(val)
		}
		return out
	default:
		return data
	}
}

func (n *Normalizer) normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for key, val := range m {
		switch {
		case n.Ignore[key]:
			continue
		case n.isKeyDynamic(key):
			out[key] = PlaceholderDynamicValue
		default:
			out[key] = n.Normalize(val)
		}
	}
	return out
}

func (n *Normalizer) isKeyDynamic(key string) bool {
	for _, pattern := range n.Rules.KeyPatterns {
		if pattern.MatchString(key) {
			return true
		}
	}
	return false
}

func (n *Normalizer) isValueDynamic(val interface{}) bool {
	s, ok := val.(string)
	if !ok || !n.Rules.CheckValueForUUID || len(s) < 32 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
