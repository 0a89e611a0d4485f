// internal/browser/parser/tokenizer.go
package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	TokenIdent TokenType = iota
	TokenAtKeyword
	TokenString
	TokenNumber
	TokenPercentage
	TokenDimension
	TokenHash
	TokenFunction
	TokenURI
	TokenDelim
	TokenWhitespace
	TokenColon
	TokenSemicolon
	TokenComma
	TokenBracketOpen
	TokenBracketClose
	TokenParenOpen
	TokenParenClose
	TokenBraceOpen
	TokenBraceClose
)

var tokenTypeNames = [...]string{
	TokenIdent:        "ident",
	TokenAtKeyword:    "at-keyword",
	TokenString:       "string",
	TokenNumber:       "number",
	TokenPercentage:   "percentage",
	TokenDimension:    "dimension",
	TokenHash:         "hash",
	TokenFunction:     "function",
	TokenURI:          "uri",
	TokenDelim:        "delim",
	TokenWhitespace:   "whitespace",
	TokenColon:        "colon",
	TokenSemicolon:    "semicolon",
	TokenComma:        "comma",
	TokenBracketOpen:  "[",
	TokenBracketClose: "]",
	TokenParenOpen:    "(",
	TokenParenClose:   ")",
	TokenBraceOpen:    "{",
	TokenBraceClose:   "}",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// Token is one lexical unit of CSS text.
//
// Value holds the decoded payload: the identifier for idents, functions and
// at-keywords (without the trailing '(' or leading '@'), the unescaped contents
// of strings and url(), the name of a hash, or the literal text of a delimiter.
// Numeric tokens carry their parsed value in Number and, for dimensions, the
// unit in Unit.
type Token struct {
	Type   TokenType
	Value  string
	Number float64
	Unit   string
}

// Is reports whether the token is an ident matching name case-insensitively.
func (t Token) Is(name string) bool {
	return t.Type == TokenIdent && strings.EqualFold(t.Value, name)
}

// IsDelim reports whether the token is the given delimiter.
func (t Token) IsDelim(d string) bool {
	return t.Type == TokenDelim && t.Value == d
}

// String serializes the token back to CSS text.
func (t Token) String() string {
	switch t.Type {
	case TokenAtKeyword:
		return "@" + t.Value
	case TokenString:
		return strconv.Quote(t.Value)
	case TokenNumber:
		if t.Value != "" {
			return t.Value
		}
		return formatNumber(t.Number)
	case TokenPercentage:
		if t.Value != "" {
			return t.Value
		}
		return formatNumber(t.Number) + "%"
	case TokenDimension:
		if t.Value != "" {
			return t.Value
		}
		return formatNumber(t.Number) + t.Unit
	case TokenHash:
		return "#" + t.Value
	case TokenFunction:
		return t.Value + "("
	case TokenURI:
		return "url(" + t.Value + ")"
	case TokenWhitespace:
		return " "
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenParenOpen:
		return "("
	case TokenParenClose:
		return ")"
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	}
	return t.Value
}

// TokensString joins tokens back into CSS text.
func TokensString(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// TrimWhitespace drops leading and trailing whitespace tokens.
func TrimWhitespace(tokens []Token) []Token {
	start, end := 0, len(tokens)
	for start < end && tokens[start].Type == TokenWhitespace {
		start++
	}
	for end > start && tokens[end-1].Type == TokenWhitespace {
		end--
	}
	return tokens[start:end]
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Tokenize turns CSS text into a flat token stream. It never fails: characters
// the lexer does not recognize come back as delimiters, and comments are
// dropped. Consecutive whitespace, including whitespace separated only by
// comments, collapses into a single whitespace token.
func Tokenize(text string) []Token {
	lexer := css.NewLexer(parse.NewInputString(text))
	tokens := make([]Token, 0, len(text)/3+1)
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			// io.EOF or a lexer error; either way the stream ends here.
			return tokens
		}
		tok, ok := convertToken(tt, data)
		if !ok {
			continue
		}
		if tok.Type == TokenWhitespace && len(tokens) > 0 && tokens[len(tokens)-1].Type == TokenWhitespace {
			continue
		}
		tokens = append(tokens, tok)
	}
}

func convertToken(tt css.TokenType, data []byte) (Token, bool) {
	s := string(data)
	switch tt {
	case css.CommentToken, css.CDOToken, css.CDCToken, css.EmptyToken:
		return Token{}, false
	case css.WhitespaceToken:
		return Token{Type: TokenWhitespace, Value: " "}, true
	case css.IdentToken, css.CustomPropertyNameToken:
		return Token{Type: TokenIdent, Value: unescape(s)}, true
	case css.FunctionToken:
		return Token{Type: TokenFunction, Value: unescape(strings.TrimSuffix(s, "("))}, true
	case css.AtKeywordToken:
		return Token{Type: TokenAtKeyword, Value: unescape(strings.TrimPrefix(s, "@"))}, true
	case css.HashToken:
		return Token{Type: TokenHash, Value: unescape(strings.TrimPrefix(s, "#"))}, true
	case css.StringToken:
		return Token{Type: TokenString, Value: unescape(unquote(s))}, true
	case css.URLToken:
		return Token{Type: TokenURI, Value: urlContents(s)}, true
	case css.NumberToken:
		n, _ := strconv.ParseFloat(s, 64)
		return Token{Type: TokenNumber, Value: s, Number: n}, true
	case css.PercentageToken:
		n, _ := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return Token{Type: TokenPercentage, Value: s, Number: n}, true
	case css.DimensionToken:
		n, unit := splitDimension(s)
		return Token{Type: TokenDimension, Value: s, Number: n, Unit: strings.ToLower(unit)}, true
	case css.ColonToken:
		return Token{Type: TokenColon, Value: ":"}, true
	case css.SemicolonToken:
		return Token{Type: TokenSemicolon, Value: ";"}, true
	case css.CommaToken:
		return Token{Type: TokenComma, Value: ","}, true
	case css.LeftBracketToken:
		return Token{Type: TokenBracketOpen, Value: "["}, true
	case css.RightBracketToken:
		return Token{Type: TokenBracketClose, Value: "]"}, true
	case css.LeftParenthesisToken:
		return Token{Type: TokenParenOpen, Value: "("}, true
	case css.RightParenthesisToken:
		return Token{Type: TokenParenClose, Value: ")"}, true
	case css.LeftBraceToken:
		return Token{Type: TokenBraceOpen, Value: "{"}, true
	case css.RightBraceToken:
		return Token{Type: TokenBraceClose, Value: "}"}, true
	}
	// Delimiters, match operators (~= |= ...), unicode ranges, bad strings and
	// bad urls all surface as delimiters so value parsers reject them.
	return Token{Type: TokenDelim, Value: s}, true
}

// splitDimension separates "12.5px" into 12.5 and "px". The numeric prefix
// follows the CSS number grammar, so "1e3px" is 1000px but "2em" is 2 "em".
func splitDimension(s string) (float64, string) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	n, _ := strconv.ParseFloat(s[:i], 64)
	return n, unescape(s[i:])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if len(s) >= 1 && (s[0] == '"' || s[0] == '\'') {
		return s[1:]
	}
	return s
}

func urlContents(s string) string {
	inner := s
	if i := strings.IndexByte(inner, '('); i >= 0 {
		inner = inner[i+1:]
	}
	inner = strings.TrimSuffix(inner, ")")
	inner = strings.TrimSpace(inner)
	if len(inner) > 0 && (inner[0] == '"' || inner[0] == '\'') {
		inner = unquote(inner)
	}
	return unescape(inner)
}

// unescape decodes CSS escapes: "\" followed by 1-6 hex digits (and one
// optional whitespace), an escaped newline (line continuation, removed), or
// any other escaped character taken literally.
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch {
		case s[i] == '\n':
		case s[i] == '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case isHex(s[i]):
			j := i
			for j < len(s) && j-i < 6 && isHex(s[j]) {
				j++
			}
			cp, _ := strconv.ParseUint(s[i:j], 16, 32)
			r := rune(cp)
			if r == 0 || !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			sb.WriteRune(r)
			if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
				j++
			}
			i = j - 1
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
