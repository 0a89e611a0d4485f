// internal/browser/properties/registry.go
package properties

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// Registry maps property names to the parser responsible for them. A
// registry is built once and only read afterwards, so it is safe to share
// between goroutines.
type Registry struct {
	parsers map[string]Parser
	generic Parser
}

// NewRegistry returns a registry with every supported property registered.
// Names without a dedicated parser fall back to a parser that keeps the raw
// tokens.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser, 160),
		generic: genericParser{},
	}
	for _, p := range []Parser{
		newKeywordParser(),
		newLengthParser(),
		newNumberParser(),
		colorParser{},
		boxEdgeParser{},
		borderParser{},
		outlineParser{},
		radiusParser{},
		fontParser{},
		textParser{},
		backgroundParser{},
		listStyleParser{},
		counterParser{},
		contentParser{},
		flexParser{},
		spacingParser{},
	} {
		r.Register(p)
	}
	return r
}

// Register adds p under every name it declares, replacing earlier entries.
func (r *Registry) Register(p Parser) {
	for _, name := range p.Names() {
		r.parsers[strings.ToLower(name)] = p
	}
}

// Lookup returns the parser for name, case-insensitively. Unknown names get
// the generic parser and ok == false.
func (r *Registry) Lookup(name string) (p Parser, ok bool) {
	if p, ok := r.parsers[strings.ToLower(name)]; ok {
		return p, true
	}
	return r.generic, false
}

// Parse runs the parser registered for name over tokens. An empty result
// means the declaration is invalid and must be ignored.
func (r *Registry) Parse(name string, tokens []parser.Token) []Value {
	name = strings.ToLower(strings.TrimSpace(name))
	p, _ := r.Lookup(name)
	return p.Parse(name, tokens)
}

// Names returns every registered property name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for n := range r.parsers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
