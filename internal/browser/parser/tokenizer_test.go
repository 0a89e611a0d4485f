// internal/browser/parser/tokenizer_test.go
package parser

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeSimpleValues(t *testing.T) {
	t.Run("Dimension", func(t *testing.T) {
		tokens := Tokenize("12px")
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenDimension, tokens[0].Type)
		assert.Equal(t, 12.0, tokens[0].Number)
		assert.Equal(t, "px", tokens[0].Unit)
	})

	t.Run("Ident", func(t *testing.T) {
		tokens := Tokenize("inherit")
		require.Len(t, tokens, 1)
		assert.Equal(t, TokenIdent, tokens[0].Type)
		assert.Equal(t, "inherit", tokens[0].Value)
		assert.True(t, tokens[0].Is("INHERIT"))
	})
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []Token
	}{
		{"Number", "-1.5", []Token{{Type: TokenNumber, Value: "-1.5", Number: -1.5}}},
		{"Exponent", "1e3", []Token{{Type: TokenNumber, Value: "1e3", Number: 1000}}},
		{"Percentage", "50%", []Token{{Type: TokenPercentage, Value: "50%", Number: 50}}},
		{"Dimension Upper Unit", "2EM", []Token{{Type: TokenDimension, Value: "2EM", Number: 2, Unit: "em"}}},
		{"Double Quoted", `"a b"`, []Token{{Type: TokenString, Value: "a b"}}},
		{"Single Quoted Escape", `'it\'s'`, []Token{{Type: TokenString, Value: "it's"}}},
		{"Hex Escape", `"\41 B"`, []Token{{Type: TokenString, Value: "AB"}}},
		{"Hash", "#fff", []Token{{Type: TokenHash, Value: "fff"}}},
		{"Function", "rgb(", []Token{{Type: TokenFunction, Value: "rgb"}}},
		{"At Keyword", "@media", []Token{{Type: TokenAtKeyword, Value: "media"}}},
		{"Bare URL", `url(img/b.png)`, []Token{{Type: TokenURI, Value: "img/b.png"}}},
		{"Delim", "!", []Token{{Type: TokenDelim, Value: "!"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Tokenize(tt.input))
		})
	}
}

func TestTokenizeWhitespaceAndComments(t *testing.T) {
	tokens := Tokenize("10px   /* gap */  \n\t 20px")
	assert.Equal(t, []TokenType{TokenDimension, TokenWhitespace, TokenDimension}, types(tokens))

	tokens = Tokenize("/* only */")
	assert.Empty(t, tokens)
}

func TestTokenizePunctuation(t *testing.T) {
	tokens := Tokenize("a{b:c;d,e}[f](g)")
	assert.Equal(t, []TokenType{
		TokenIdent, TokenBraceOpen, TokenIdent, TokenColon, TokenIdent, TokenSemicolon,
		TokenIdent, TokenComma, TokenIdent, TokenBraceClose,
		TokenBracketOpen, TokenIdent, TokenBracketClose,
		TokenParenOpen, TokenIdent, TokenParenClose,
	}, types(tokens))
}

func TestTokenizeMalformedInput(t *testing.T) {
	// Unterminated strings and stray characters never fail.
	assert.NotPanics(t, func() {
		Tokenize(`"unterminated`)
		Tokenize(`\`)
		Tokenize("url(")
		Tokenize("\x00\xff")
	})
	assert.NotEmpty(t, Tokenize(`"unterminated`))
}

func TestTokensStringRoundTrip(t *testing.T) {
	tests := []string{
		"10px 20px",
		"rgb(1,2,3)",
		"+1",
		"50%",
		"#abc",
		"@media",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, input, TokensString(Tokenize(input)))
		})
	}
}

func TestTrimWhitespace(t *testing.T) {
	tokens := Tokenize("  a b  ")
	trimmed := TrimWhitespace(tokens)
	assert.Equal(t, []TokenType{TokenIdent, TokenWhitespace, TokenIdent}, types(trimmed))
	assert.Empty(t, TrimWhitespace(Tokenize("   ")))
}

func FuzzTokenize(f *testing.F) {
	f.Add([]byte("div { margin: 0 auto; }"))
	f.Add([]byte(`a[href^="x"]:hover::before { content: "\2014"; }`))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		text, err := consumer.GetString()
		if err != nil {
			return
		}
		tokens := Tokenize(text)
		for i := 1; i < len(tokens); i++ {
			if tokens[i].Type == TokenWhitespace && tokens[i-1].Type == TokenWhitespace {
				t.Fatalf("adjacent whitespace tokens for %q", text)
			}
		}
		// The stylesheet parser must never panic on the same input.
		NewParser(text).Parse()
		ParseInlineStyle(text)
	})
}
