// internal/browser/parser/css.go
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Declaration is a property name with its raw value tokens (e.g., margin: 0 auto).
// The value is kept as tokens; property parsers turn it into typed values later.
type Declaration struct {
	Property  string
	Value     []Token
	Important bool
}

// RuleSet represents a set of declarations applied by one or more selectors.
type RuleSet struct {
	Selectors    []ComplexSelector
	Declarations []Declaration
}

// StyleSheet is the top-level structure representing a parsed stylesheet.
type StyleSheet struct {
	Rules   []RuleSet
	Imports []string
	errs    error
}

// Err returns every recoverable problem found while parsing, combined with
// multierr. A non-nil value never means the sheet is unusable.
func (s *StyleSheet) Err() error {
	return s.errs
}

// ComplexSelector represents a sequence of compound selectors joined by combinators (e.g., "div > p").
type ComplexSelector struct {
	Selectors []SimpleSelectorWithCombinator
}

// SimpleSelectorWithCombinator pairs a compound selector with the combinator
// linking it to the selector on its left.
type SimpleSelectorWithCombinator struct {
	Combinator     Combinator
	SimpleSelector SimpleSelector
}

// SimpleSelector is a compound selector (tag, ID, classes, attributes, pseudo-classes).
type SimpleSelector struct {
	TagName       string
	ID            string
	Classes       []string
	Attributes    []AttributeSelector
	PseudoClasses []PseudoClass
	// PseudoElement is set for ::before style selectors. Only before and
	// after generate boxes; other pseudo-elements never match.
	PseudoElement string
}

// AttributeSelector represents a CSS attribute selector like `[href]` or `[target="_blank"]`.
type AttributeSelector struct {
	Name     string
	Operator string // e.g., "=", "~=", "|=", "^=", "$=", "*="
	Value    string
}

// PseudoClass is a ':name' or ':name(argument)' filter.
type PseudoClass struct {
	Name     string
	Argument string
	// A and B hold the an+b coefficients of nth-child style pseudo-classes.
	A, B int
	// Not holds the argument of :not().
	Not *SimpleSelector
}

// Combinator defines the relationship between simple selectors.
type Combinator int

const (
	CombinatorNone            Combinator = iota // No combinator (first selector)
	CombinatorDescendant                        // Space
	CombinatorChild                             // >
	CombinatorAdjacentSibling                   // +
	CombinatorGeneralSibling                    // ~
)

// Specificity is the (a, b, c) triple of a selector.
type Specificity [3]int

// Less orders specificities lexicographically.
func (s Specificity) Less(o Specificity) bool {
	if s[0] != o[0] {
		return s[0] < o[0]
	}
	if s[1] != o[1] {
		return s[1] < o[1]
	}
	return s[2] < o[2]
}

// CalculateSpecificity sums the specificity of every compound in the selector.
func (cs ComplexSelector) CalculateSpecificity() Specificity {
	var spec Specificity
	for _, s := range cs.Selectors {
		ss := s.SimpleSelector.CalculateSpecificity()
		spec[0] += ss[0]
		spec[1] += ss[1]
		spec[2] += ss[2]
	}
	return spec
}

// CalculateSpecificity calculates for a compound selector. :not() counts
// as its argument.
func (s SimpleSelector) CalculateSpecificity() Specificity {
	var spec Specificity
	if s.ID != "" {
		spec[0] = 1
	}
	spec[1] = len(s.Classes) + len(s.Attributes)
	for _, pc := range s.PseudoClasses {
		if pc.Not != nil {
			ns := pc.Not.CalculateSpecificity()
			spec[0] += ns[0]
			spec[1] += ns[1]
			spec[2] += ns[2]
			continue
		}
		spec[1]++
	}
	if s.TagName != "" && s.TagName != "*" {
		spec[2]++
	}
	if s.PseudoElement != "" {
		spec[2]++
	}
	return spec
}

// IsValid checks if the selector has at least one component.
func (s SimpleSelector) IsValid() bool {
	return s.TagName != "" || s.ID != "" || len(s.Classes) > 0 || len(s.Attributes) > 0 ||
		len(s.PseudoClasses) > 0 || s.PseudoElement != ""
}

// Parser holds the state of the stylesheet parser. It works on the token
// stream produced by Tokenize.
type Parser struct {
	tokens []Token
	pos    int
	errs   error
}

func NewParser(input string) *Parser {
	return &Parser{tokens: Tokenize(input)}
}

// Parse builds a StyleSheet. Malformed rules and declarations are skipped
// following CSS error recovery and reported through StyleSheet.Err.
func (p *Parser) Parse() *StyleSheet {
	sheet := &StyleSheet{}
	sheet.Rules = p.parseRules(sheet, false)
	sheet.errs = p.errs
	return sheet
}

// ParseInlineStyle parses the contents of a style attribute.
func ParseInlineStyle(text string) []Declaration {
	p := &Parser{tokens: Tokenize(text)}
	return p.parseDeclarationList(false)
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = multierr.Append(p.errs, fmt.Errorf(format, args...))
}

func (p *Parser) eof() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) consumeWhitespace() {
	for !p.eof() && p.current().Type == TokenWhitespace {
		p.pos++
	}
}

// parseRules reads rule sets and at-rules until EOF or, when nested, until
// the closing brace of the enclosing block.
func (p *Parser) parseRules(sheet *StyleSheet, nested bool) []RuleSet {
	var rules []RuleSet
	for {
		p.consumeWhitespace()
		if p.eof() {
			return rules
		}
		tok := p.current()
		switch {
		case nested && tok.Type == TokenBraceClose:
			p.pos++
			return rules
		case tok.Type == TokenAtKeyword:
			rules = append(rules, p.parseAtRule(sheet)...)
		case tok.Type == TokenSemicolon || tok.Type == TokenBraceClose:
			p.pos++
		default:
			if rule, ok := p.parseRuleSet(); ok {
				rules = append(rules, rule)
			}
		}
	}
}

func (p *Parser) parseAtRule(sheet *StyleSheet) []RuleSet {
	name := strings.ToLower(p.current().Value)
	p.pos++
	prelude := p.collectPrelude()

	switch name {
	case "import":
		for _, t := range prelude {
			if t.Type == TokenString || t.Type == TokenURI {
				sheet.Imports = append(sheet.Imports, t.Value)
				break
			}
		}
		p.skipStatementEnd()
		return nil
	case "media":
		if p.eof() || p.current().Type != TokenBraceOpen {
			p.errorf("@media without a block")
			return nil
		}
		p.pos++
		if mediaApplies(prelude) {
			return p.parseRules(sheet, true)
		}
		p.skipBlockContents()
		return nil
	}

	if !p.eof() && p.current().Type == TokenBraceOpen {
		p.pos++
		p.skipBlockContents()
		return nil
	}
	p.skipStatementEnd()
	return nil
}

// mediaApplies reports whether a media query list targets screen rendering.
func mediaApplies(prelude []Token) bool {
	prelude = TrimWhitespace(prelude)
	if len(prelude) == 0 {
		return true
	}
	for _, t := range prelude {
		if t.Is("all") || t.Is("screen") {
			return true
		}
	}
	return false
}

// collectPrelude gathers tokens up to (not including) a '{' or ';'.
func (p *Parser) collectPrelude() []Token {
	start := p.pos
	depth := 0
	for !p.eof() {
		switch p.current().Type {
		case TokenFunction, TokenParenOpen, TokenBracketOpen:
			depth++
		case TokenParenClose, TokenBracketClose:
			if depth > 0 {
				depth--
			}
		case TokenBraceOpen, TokenSemicolon:
			if depth == 0 {
				return p.tokens[start:p.pos]
			}
		case TokenBraceClose:
			if depth == 0 {
				return p.tokens[start:p.pos]
			}
		}
		p.pos++
	}
	return p.tokens[start:p.pos]
}

func (p *Parser) skipStatementEnd() {
	if !p.eof() && p.current().Type == TokenSemicolon {
		p.pos++
	}
}

// skipBlockContents skips to just past the brace closing the current block.
func (p *Parser) skipBlockContents() {
	depth := 1
	for !p.eof() && depth > 0 {
		switch p.current().Type {
		case TokenBraceOpen:
			depth++
		case TokenBraceClose:
			depth--
		}
		p.pos++
	}
}

func (p *Parser) parseRuleSet() (RuleSet, bool) {
	prelude := p.collectPrelude()
	if p.eof() || p.current().Type != TokenBraceOpen {
		p.errorf("selector %q is not followed by a declaration block", TokensString(prelude))
		p.skipStatementEnd()
		if !p.eof() && p.current().Type == TokenBraceClose {
			p.pos++
		}
		return RuleSet{}, false
	}
	p.pos++ // Consume '{'

	selectors, err := ParseSelectorGroup(prelude)
	declarations := p.parseDeclarationList(true)
	if err != nil {
		// An invalid selector invalidates the whole rule.
		p.errs = multierr.Append(p.errs, err)
		return RuleSet{}, false
	}
	if len(declarations) == 0 {
		return RuleSet{}, false
	}
	return RuleSet{Selectors: selectors, Declarations: declarations}, true
}

// parseDeclarationList reads declarations until EOF or, inside a block,
// until the closing brace (which is consumed).
func (p *Parser) parseDeclarationList(inBlock bool) []Declaration {
	var declarations []Declaration
	for {
		p.consumeWhitespace()
		if p.eof() {
			return declarations
		}
		tok := p.current()
		if tok.Type == TokenBraceClose && inBlock {
			p.pos++
			return declarations
		}
		if tok.Type == TokenSemicolon {
			p.pos++
			continue
		}
		if decl, ok := p.parseDeclaration(inBlock); ok {
			declarations = append(declarations, decl)
		}
	}
}

// parseDeclaration parses a single 'property: value' pair and leaves the
// parser on the terminating ';' or '}'.
func (p *Parser) parseDeclaration(inBlock bool) (Declaration, bool) {
	nameTok := p.current()
	if nameTok.Type != TokenIdent {
		p.errorf("unexpected %s %q where a property name was expected", nameTok.Type, nameTok.String())
		p.skipDeclaration(inBlock)
		return Declaration{}, false
	}
	p.pos++
	p.consumeWhitespace()
	if p.eof() || p.current().Type != TokenColon {
		p.errorf("property %q is missing ':'", nameTok.Value)
		p.skipDeclaration(inBlock)
		return Declaration{}, false
	}
	p.pos++

	start := p.pos
	p.skipDeclaration(inBlock)
	value := TrimWhitespace(p.tokens[start:p.pos])

	important := false
	if n := len(value); n >= 2 && value[n-1].Is("important") {
		bang := TrimWhitespace(value[:n-1])
		if m := len(bang); m > 0 && bang[m-1].IsDelim("!") {
			important = true
			value = TrimWhitespace(bang[:m-1])
		}
	}
	if len(value) == 0 {
		p.errorf("property %q has an empty value", nameTok.Value)
		return Declaration{}, false
	}
	return Declaration{
		Property:  strings.ToLower(nameTok.Value),
		Value:     value,
		Important: important,
	}, true
}

// skipDeclaration advances to the next top-level ';' or, inside a block, '}'.
func (p *Parser) skipDeclaration(inBlock bool) {
	depth := 0
	for !p.eof() {
		switch p.current().Type {
		case TokenFunction, TokenParenOpen, TokenBracketOpen, TokenBraceOpen:
			depth++
		case TokenParenClose, TokenBracketClose:
			if depth > 0 {
				depth--
			}
		case TokenBraceClose:
			if depth == 0 {
				if inBlock {
					return
				}
				// A stray '}' in an inline style ends the declaration.
				p.pos++
				return
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
		p.pos++
	}
}

// ParseSelector parses one selector group from text, e.g. "h1, h2 > .title".
func ParseSelector(text string) ([]ComplexSelector, error) {
	return ParseSelectorGroup(Tokenize(text))
}

// ParseSelectorGroup parses a comma-separated selector list. Any invalid
// selector in the list makes the whole group invalid.
func ParseSelectorGroup(tokens []Token) ([]ComplexSelector, error) {
	var group []ComplexSelector
	start := 0
	for i := 0; i <= len(tokens); i++ {
		if i < len(tokens) && tokens[i].Type != TokenComma {
			continue
		}
		part := TrimWhitespace(tokens[start:i])
		start = i + 1
		sel, err := parseComplexSelector(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", TokensString(tokens), err)
		}
		group = append(group, sel)
	}
	return group, nil
}

// selectorScanner walks the tokens of one complex selector.
type selectorScanner struct {
	tokens []Token
	pos    int
}

func (s *selectorScanner) eof() bool   { return s.pos >= len(s.tokens) }
func (s *selectorScanner) peek() Token { return s.tokens[s.pos] }

func (s *selectorScanner) next() Token {
	t := s.tokens[s.pos]
	s.pos++
	return t
}

func (s *selectorScanner) skipSpaces() bool {
	skipped := false
	for !s.eof() && s.peek().Type == TokenWhitespace {
		s.pos++
		skipped = true
	}
	return skipped
}

func parseComplexSelector(tokens []Token) (ComplexSelector, error) {
	var complexSelector ComplexSelector
	if len(tokens) == 0 {
		return complexSelector, fmt.Errorf("empty selector")
	}
	s := &selectorScanner{tokens: tokens}
	combinator := CombinatorNone

	for {
		simple, err := parseSimpleSelector(s)
		if err != nil {
			return ComplexSelector{}, err
		}
		complexSelector.Selectors = append(complexSelector.Selectors, SimpleSelectorWithCombinator{
			Combinator:     combinator,
			SimpleSelector: simple,
		})

		sawSpace := s.skipSpaces()
		if s.eof() {
			return complexSelector, nil
		}
		switch t := s.peek(); {
		case t.IsDelim(">"):
			combinator = CombinatorChild
			s.pos++
		case t.IsDelim("+"):
			combinator = CombinatorAdjacentSibling
			s.pos++
		case t.IsDelim("~"):
			combinator = CombinatorGeneralSibling
			s.pos++
		case sawSpace:
			combinator = CombinatorDescendant
		default:
			return ComplexSelector{}, fmt.Errorf("unexpected %q", t.String())
		}
		s.skipSpaces()
		if s.eof() {
			return ComplexSelector{}, fmt.Errorf("dangling combinator")
		}
	}
}

// parseSimpleSelector parses a compound selector (e.g., div#id.class1[type]:hover).
func parseSimpleSelector(s *selectorScanner) (SimpleSelector, error) {
	selector := SimpleSelector{}

	if !s.eof() {
		if t := s.peek(); t.Type == TokenIdent {
			selector.TagName = strings.ToLower(t.Value)
			s.pos++
		} else if t.IsDelim("*") {
			selector.TagName = "*"
			s.pos++
		}
	}

loop:
	for !s.eof() {
		t := s.peek()
		switch {
		case t.Type == TokenHash:
			s.pos++
			selector.ID = t.Value
		case t.IsDelim("."):
			s.pos++
			if s.eof() || s.peek().Type != TokenIdent {
				return selector, fmt.Errorf("expected class name after '.'")
			}
			selector.Classes = append(selector.Classes, s.next().Value)
		case t.Type == TokenBracketOpen:
			s.pos++
			attr, err := parseAttributeSelector(s)
			if err != nil {
				return selector, err
			}
			selector.Attributes = append(selector.Attributes, attr)
		case t.Type == TokenColon:
			s.pos++
			if err := parsePseudo(s, &selector); err != nil {
				return selector, err
			}
		default:
			break loop
		}
	}

	if !selector.IsValid() {
		if s.eof() {
			return selector, fmt.Errorf("missing simple selector")
		}
		return selector, fmt.Errorf("unexpected %q", s.peek().String())
	}
	return selector, nil
}

// parseAttributeSelector parses the contents of `[...]`; the '[' is already consumed.
func parseAttributeSelector(s *selectorScanner) (AttributeSelector, error) {
	s.skipSpaces()
	if s.eof() || s.peek().Type != TokenIdent {
		return AttributeSelector{}, fmt.Errorf("expected attribute name")
	}
	name := strings.ToLower(s.next().Value)
	s.skipSpaces()
	if s.eof() {
		return AttributeSelector{}, fmt.Errorf("unexpected end of attribute selector")
	}
	if s.peek().Type == TokenBracketClose {
		s.pos++
		return AttributeSelector{Name: name}, nil
	}

	op := s.next()
	if op.Type != TokenDelim {
		return AttributeSelector{}, fmt.Errorf("unexpected %q in attribute selector", op.String())
	}
	operator := op.Value
	// A lone "~", "|" etc. followed by "=" arrives as two delimiters.
	if operator != "=" && !strings.HasSuffix(operator, "=") {
		if s.eof() || !s.peek().IsDelim("=") {
			return AttributeSelector{}, fmt.Errorf("invalid attribute operator %q", operator)
		}
		s.pos++
		operator += "="
	}
	switch operator {
	case "=", "~=", "|=", "^=", "$=", "*=":
	default:
		return AttributeSelector{}, fmt.Errorf("invalid attribute operator %q", operator)
	}

	s.skipSpaces()
	if s.eof() {
		return AttributeSelector{}, fmt.Errorf("missing attribute value")
	}
	val := s.next()
	if val.Type != TokenIdent && val.Type != TokenString && val.Type != TokenNumber {
		return AttributeSelector{}, fmt.Errorf("invalid attribute value %q", val.String())
	}
	s.skipSpaces()
	// Case-sensitivity flags ([a="b" i]) are accepted and ignored.
	if !s.eof() && (s.peek().Is("i") || s.peek().Is("s")) {
		s.pos++
		s.skipSpaces()
	}
	if s.eof() || s.peek().Type != TokenBracketClose {
		return AttributeSelector{}, fmt.Errorf("expected ']' to close attribute selector")
	}
	s.pos++
	return AttributeSelector{Name: name, Operator: operator, Value: val.Value}, nil
}

// parsePseudo parses what follows a ':'.
func parsePseudo(s *selectorScanner, selector *SimpleSelector) error {
	if s.eof() {
		return fmt.Errorf("expected pseudo-class name")
	}
	if s.peek().Type == TokenColon {
		s.pos++
		if s.eof() || s.peek().Type != TokenIdent {
			return fmt.Errorf("expected pseudo-element name")
		}
		selector.PseudoElement = strings.ToLower(s.next().Value)
		return nil
	}

	t := s.next()
	switch t.Type {
	case TokenIdent:
		name := strings.ToLower(t.Value)
		switch name {
		case "before", "after", "first-line", "first-letter":
			// CSS 2.1 single-colon pseudo-elements.
			selector.PseudoElement = name
		default:
			selector.PseudoClasses = append(selector.PseudoClasses, PseudoClass{Name: name})
		}
		return nil
	case TokenFunction:
		name := strings.ToLower(t.Value)
		start := s.pos
		depth := 1
		for !s.eof() {
			tt := s.next().Type
			if tt == TokenFunction || tt == TokenParenOpen {
				depth++
			} else if tt == TokenParenClose {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if depth != 0 {
			return fmt.Errorf("unterminated :%s(", name)
		}
		args := TrimWhitespace(s.tokens[start : s.pos-1])
		pc := PseudoClass{Name: name, Argument: TokensString(args)}
		switch name {
		case "nth-child", "nth-last-child", "nth-of-type", "nth-last-of-type":
			a, b, err := parseNth(pc.Argument)
			if err != nil {
				return err
			}
			pc.A, pc.B = a, b
		case "not":
			inner := &selectorScanner{tokens: args}
			not, err := parseSimpleSelector(inner)
			if err != nil {
				return err
			}
			if !inner.eof() {
				return fmt.Errorf(":not() takes a single compound selector")
			}
			pc.Not = &not
		case "lang":
			if len(args) != 1 || args[0].Type != TokenIdent {
				return fmt.Errorf(":lang() takes one language code")
			}
			pc.Argument = args[0].Value
		}
		selector.PseudoClasses = append(selector.PseudoClasses, pc)
		return nil
	}
	return fmt.Errorf("unexpected %q after ':'", t.String())
}

// parseNth parses the an+b microsyntax ("odd", "even", "3", "-n+2", "2n+1").
func parseNth(arg string) (int, int, error) {
	s := strings.ToLower(strings.ReplaceAll(arg, " ", ""))
	switch s {
	case "odd":
		return 2, 1, nil
	case "even":
		return 2, 0, nil
	case "":
		return 0, 0, fmt.Errorf("empty an+b expression")
	}
	idx := strings.IndexByte(s, 'n')
	if idx < 0 {
		b, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid an+b expression %q", arg)
		}
		return 0, b, nil
	}
	var a int
	switch aPart := s[:idx]; aPart {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(aPart)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid an+b expression %q", arg)
		}
		a = v
	}
	b := 0
	if bPart := s[idx+1:]; bPart != "" {
		v, err := strconv.Atoi(bPart)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid an+b expression %q", arg)
		}
		b = v
	}
	return a, b, nil
}
