// internal/browser/style/document.go
package style

import (
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxlayout/internal/browser/dom"
	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// Origin is the source of a declaration in the cascade.
type Origin int

const (
	OriginUserAgent Origin = iota
	OriginAuthor
	OriginInline
)

func (o Origin) String() string {
	switch o {
	case OriginUserAgent:
		return "user-agent"
	case OriginAuthor:
		return "author"
	case OriginInline:
		return "inline"
	}
	return "unknown"
}

// Matched is one declaration that applies to an element, with what the
// cascade needs to rank it.
type Matched struct {
	Decl        *parser.Declaration
	Origin      Origin
	Specificity parser.Specificity
	Order       int
}

type originSheet struct {
	sheet  *parser.StyleSheet
	origin Origin
}

// Document pairs a DOM tree with the stylesheets that apply to it and
// performs selector matching. It never mutates the tree.
type Document struct {
	tree   *dom.Tree
	sheets []originSheet
	inline map[dom.NodeID][]parser.Declaration
	logger *zap.Logger
	errs   error
}

// NewDocument creates a document over tree with no stylesheets.
func NewDocument(tree *dom.Tree, logger *zap.Logger) *Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Document{
		tree:   tree,
		inline: make(map[dom.NodeID][]parser.Declaration),
		logger: logger.Named("document"),
	}
}

// Tree returns the DOM the document styles.
func (d *Document) Tree() *dom.Tree { return d.tree }

// AddSheet appends a parsed stylesheet. Later sheets of the same origin win
// ties on specificity.
func (d *Document) AddSheet(sheet *parser.StyleSheet, origin Origin) {
	if sheet == nil {
		return
	}
	d.sheets = append(d.sheets, originSheet{sheet: sheet, origin: origin})
	if err := sheet.Err(); err != nil {
		d.logger.Debug("Stylesheet parsed with recoverable errors.",
			zap.Stringer("origin", origin),
			zap.Int("count", len(multierr.Errors(err))),
			zap.Error(err))
		d.errs = multierr.Append(d.errs, err)
	}
}

// AddCSS parses text and appends it. The returned error lists the
// recoverable problems found; the sheet is added regardless.
func (d *Document) AddCSS(text string, origin Origin) error {
	sheet := parser.NewParser(text).Parse()
	d.AddSheet(sheet, origin)
	return sheet.Err()
}

// Err returns every recoverable stylesheet diagnostic collected so far.
func (d *Document) Err() error { return d.errs }

// Select returns the declarations applying to element id, highest
// precedence first. Non-elements match nothing.
func (d *Document) Select(id dom.NodeID) []Matched {
	return d.selectPseudo(id, "")
}

// SelectPseudo returns the declarations applying to the before or after
// pseudo-element of id. Other pseudo-elements generate no boxes and match
// nothing. Inline styles never reach pseudo-elements.
func (d *Document) SelectPseudo(id dom.NodeID, pseudo string) []Matched {
	if pseudo != "before" && pseudo != "after" {
		return nil
	}
	return d.selectPseudo(id, pseudo)
}

func (d *Document) selectPseudo(id dom.NodeID, pseudo string) []Matched {
	if !d.tree.IsElement(id) {
		return nil
	}

	var matched []Matched
	order := 0
	cursor := d.tree.Select(id)
	for _, os := range d.sheets {
		for ri := range os.sheet.Rules {
			rule := &os.sheet.Rules[ri]
			cursor.Reset(id)
			spec, ok := matchesPseudo(cursor, rule.Selectors, pseudo)
			if !ok {
				order += len(rule.Declarations)
				continue
			}
			for di := range rule.Declarations {
				matched = append(matched, Matched{
					Decl:        &rule.Declarations[di],
					Origin:      os.origin,
					Specificity: spec,
					Order:       order,
				})
				order++
			}
		}
	}

	var inline []parser.Declaration
	if pseudo == "" {
		inline = d.inlineStyle(id)
	}
	for i := range inline {
		matched = append(matched, Matched{
			Decl:        &inline[i],
			Origin:      OriginInline,
			Specificity: parser.Specificity{1, 0, 0},
			Order:       order,
		})
		order++
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return outranks(matched[i], matched[j])
	})
	return matched
}

// inlineStyle parses and memoizes the style attribute of id.
func (d *Document) inlineStyle(id dom.NodeID) []parser.Declaration {
	if decls, ok := d.inline[id]; ok {
		return decls
	}
	var decls []parser.Declaration
	if text, ok := d.tree.Attr(id, "style"); ok {
		decls = parser.ParseInlineStyle(text)
	}
	d.inline[id] = decls
	return decls
}

// calculateCascadePriority ranks origin and importance. Important inline
// declarations sit above important author ones, and important user agent
// declarations above both.
func calculateCascadePriority(m Matched) int {
	isImportant := m.Decl.Important
	switch m.Origin {
	case OriginUserAgent:
		if isImportant {
			return 6
		}
		return 1
	case OriginAuthor:
		if isImportant {
			return 4
		}
		return 2
	case OriginInline:
		if isImportant {
			return 5
		}
		return 3
	}
	return 0
}

// outranks reports whether a takes precedence over b.
func outranks(a, b Matched) bool {
	pa, pb := calculateCascadePriority(a), calculateCascadePriority(b)
	if pa != pb {
		return pa > pb
	}
	if a.Specificity != b.Specificity {
		return b.Specificity.Less(a.Specificity)
	}
	return a.Order > b.Order
}
