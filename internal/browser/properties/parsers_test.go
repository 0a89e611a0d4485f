// internal/browser/properties/parsers_test.go
package properties

import (
	"image/color"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxlayout/internal/browser/parser"
)

// parse runs a declaration through a fresh registry.
func parse(name, value string) []Value {
	return NewRegistry().Parse(name, parser.Tokenize(value))
}

func byID(vs []Value) map[PropertyID]Value {
	m := make(map[PropertyID]Value, len(vs))
	for _, v := range vs {
		m[v.Property] = v
	}
	return m
}

var red = color.RGBA{R: 255, A: 255}

// --- Rejection and inherit rules ---

func TestTrailingTokensDropDeclaration(t *testing.T) {
	assert.Empty(t, parse("font-size", "12px extra"))
	assert.Empty(t, parse("display", "block inline"))
	assert.Empty(t, parse("margin", "1px 2px 3px 4px 5px"))
	assert.Empty(t, parse("color", "red,"))

	vs := parse("font-size", "12px")
	require.Len(t, vs, 1)
	assert.Equal(t, FontSize, vs[0].Property)
	assert.Equal(t, Length{Value: 12, Unit: UnitPx}, vs[0].Length)
}

func TestInheritCoversEveryLonghand(t *testing.T) {
	tests := []struct {
		name string
		want []PropertyID
	}{
		{"color", []PropertyID{Color}},
		{"margin", []PropertyID{MarginTop, MarginRight, MarginBottom, MarginLeft}},
		{"border-left", []PropertyID{BorderLeftWidth, BorderLeftStyle, BorderLeftColor}},
		{"font", []PropertyID{FontStyle, FontVariant, FontWeight, FontSize, LineHeight, FontFamily}},
		{"flex", []PropertyID{FlexGrow, FlexShrink, FlexBasis}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := parse(tt.name, " inherit ")
			require.Len(t, vs, len(tt.want))
			for i, v := range vs {
				assert.Equal(t, tt.want[i], v.Property)
				assert.Equal(t, TypeInherit, v.Type)
			}
		})
	}

	t.Run("Border Sets Twelve Longhands", func(t *testing.T) {
		assert.Len(t, parse("border", "inherit"), 12)
	})
	t.Run("Inherit Must Stand Alone", func(t *testing.T) {
		assert.Empty(t, parse("margin", "inherit 1px"))
	})
}

func TestInvalidValuesAreDropped(t *testing.T) {
	tests := []struct{ name, value string }{
		{"display", "bogus"},
		{"width", "-5px"},
		{"width", "10"},
		{"padding-left", "-1px"},
		{"z-index", "2.5"},
		{"font-weight", "450"},
		{"border-top-style", "wavy"},
		{"color", "#ggg"},
		{"color", "rgb(1, 2)"},
		{"quotes", `"a" "b" "c"`},
		{"text-decoration", "underline underline"},
		{"font", "12px"},
		{"font", "normal normal normal normal 12px serif"},
		{"width", "12qq"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" "+tt.value, func(t *testing.T) {
			assert.Empty(t, parse(tt.name, tt.value))
		})
	}
}

// --- Individual parsers ---

func TestKeywordAndLengthParsers(t *testing.T) {
	t.Run("Keyword Is Lowercased", func(t *testing.T) {
		vs := parse("DISPLAY", "BLOCK")
		require.Len(t, vs, 1)
		assert.Equal(t, Display, vs[0].Property)
		assert.True(t, vs[0].Is("block"))
	})

	t.Run("Auto", func(t *testing.T) {
		vs := parse("width", "auto")
		require.Len(t, vs, 1)
		assert.Equal(t, TypeAuto, vs[0].Type)
	})

	t.Run("Percentage", func(t *testing.T) {
		vs := parse("width", "50%")
		require.Len(t, vs, 1)
		assert.Equal(t, TypePercentage, vs[0].Type)
		assert.Equal(t, 50.0, vs[0].Number)
	})

	t.Run("Negative Offset", func(t *testing.T) {
		vs := parse("left", "-5px")
		require.Len(t, vs, 1)
		assert.Equal(t, -5.0, vs[0].Length.Value)
	})

	t.Run("Unitless Zero", func(t *testing.T) {
		vs := parse("height", "0")
		require.Len(t, vs, 1)
		assert.Equal(t, Length{Unit: UnitPx}, vs[0].Length)
	})

	t.Run("Max None", func(t *testing.T) {
		vs := parse("max-width", "none")
		require.Len(t, vs, 1)
		assert.Equal(t, TypeNone, vs[0].Type)
	})

	t.Run("Integer And Clamped Number", func(t *testing.T) {
		vs := parse("z-index", "-3")
		require.Len(t, vs, 1)
		assert.Equal(t, TypeInteger, vs[0].Type)
		assert.Equal(t, -3, vs[0].Int())

		vs = parse("opacity", "1.5")
		require.Len(t, vs, 1)
		assert.Equal(t, 1.0, vs[0].Number)
	})
}

func TestBoxShorthands(t *testing.T) {
	tests := []struct {
		value string
		want  [4]float64
	}{
		{"1px", [4]float64{1, 1, 1, 1}},
		{"1px 2px", [4]float64{1, 2, 1, 2}},
		{"1px 2px 3px", [4]float64{1, 2, 3, 2}},
		{"1px 2px 3px 4px", [4]float64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			vs := parse("padding", tt.value)
			require.Len(t, vs, 4)
			for i, id := range []PropertyID{PaddingTop, PaddingRight, PaddingBottom, PaddingLeft} {
				assert.Equal(t, id, vs[i].Property)
				assert.Equal(t, tt.want[i], vs[i].Length.Value)
			}
		})
	}

	t.Run("Margin Auto", func(t *testing.T) {
		vs := parse("margin", "0 auto")
		require.Len(t, vs, 4)
		assert.True(t, vs[1].IsAuto())
		assert.True(t, vs[3].IsAuto())
	})

	t.Run("Longhand Dispatch", func(t *testing.T) {
		vs := parse("margin-bottom", "-2em")
		require.Len(t, vs, 1)
		assert.Equal(t, MarginBottom, vs[0].Property)
		assert.Equal(t, Length{Value: -2, Unit: UnitEm}, vs[0].Length)
	})
}

func TestBorderParsers(t *testing.T) {
	t.Run("Border Shorthand", func(t *testing.T) {
		vs := parse("border", "1px solid red")
		require.Len(t, vs, 12)
		m := byID(vs)
		assert.Equal(t, 1.0, m[BorderLeftWidth].Length.Value)
		assert.True(t, m[BorderTopStyle].Is("solid"))
		assert.Equal(t, red, m[BorderBottomColor].Color)
	})

	t.Run("Any Order With Defaults", func(t *testing.T) {
		vs := parse("border-top", "dashed")
		require.Len(t, vs, 3)
		assert.Equal(t, BorderTopWidth, vs[0].Property)
		assert.Equal(t, 3.0, vs[0].Length.Value)
		assert.True(t, vs[1].Is("dashed"))
		assert.True(t, vs[2].Is("currentcolor"))
	})

	t.Run("Side Longhands", func(t *testing.T) {
		vs := parse("border-right-width", "thick")
		require.Len(t, vs, 1)
		assert.Equal(t, BorderRightWidth, vs[0].Property)
		assert.True(t, vs[0].Is("thick"))

		vs = parse("border-left-color", "blue")
		require.Len(t, vs, 1)
		assert.Equal(t, BorderLeftColor, vs[0].Property)
	})

	t.Run("Per Kind Shorthand", func(t *testing.T) {
		vs := parse("border-style", "solid none")
		require.Len(t, vs, 4)
		assert.True(t, vs[0].Is("solid"))
		assert.True(t, vs[1].Is("none"))
		assert.Equal(t, BorderLeftStyle, vs[3].Property)
	})

	t.Run("Radius", func(t *testing.T) {
		vs := parse("border-radius", "4px 50%")
		require.Len(t, vs, 4)
		assert.Equal(t, 4.0, vs[2].Length.Value)
		assert.Equal(t, TypePercentage, vs[3].Type)

		vs = parse("border-radius", "4px / 2px")
		require.Len(t, vs, 4)
		assert.Equal(t, 4.0, vs[0].Length.Value)
	})

	t.Run("Outline", func(t *testing.T) {
		vs := parse("outline", "invert dotted")
		require.Len(t, vs, 3)
		assert.True(t, vs[1].Is("dotted"))
		assert.True(t, vs[2].Is("invert"))
	})
}

func TestColorParsing(t *testing.T) {
	tests := []struct {
		value string
		want  color.RGBA
	}{
		{"red", red},
		{"#f00", red},
		{"#ff000080", color.RGBA{R: 255, A: 128}},
		{"rgb(0, 128, 255)", color.RGBA{G: 128, B: 255, A: 255}},
		{"rgb(100%, 0%, 0%)", red},
		{"rgba(255, 0, 0, 0)", color.RGBA{R: 255}},
		{"hsl(0, 100%, 50%)", red},
		{"transparent", color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			vs := parse("color", tt.value)
			require.Len(t, vs, 1)
			assert.Equal(t, TypeColor, vs[0].Type)
			assert.Equal(t, tt.want, vs[0].Color)
		})
	}

	t.Run("Current Color", func(t *testing.T) {
		vs := parse("background-color", "currentColor")
		require.Len(t, vs, 1)
		assert.True(t, vs[0].Is("currentcolor"))
	})
}

func TestFontParsers(t *testing.T) {
	t.Run("Full Shorthand", func(t *testing.T) {
		vs := parse("font", "italic bold 12px/1.5 Georgia, serif")
		require.Len(t, vs, 6)
		m := byID(vs)
		assert.True(t, m[FontStyle].Is("italic"))
		assert.True(t, m[FontVariant].Is("normal"))
		assert.Equal(t, 700.0, m[FontWeight].Number)
		assert.Equal(t, Length{Value: 12, Unit: UnitPx}, m[FontSize].Length)
		assert.Equal(t, TypeNumber, m[LineHeight].Type)
		assert.Equal(t, 1.5, m[LineHeight].Number)
		require.Len(t, m[FontFamily].Components, 2)
		assert.Equal(t, "Georgia", m[FontFamily].Components[0].Text)
		assert.True(t, m[FontFamily].Components[1].Is("serif"))
	})

	t.Run("Normal Counts Toward Prefix", func(t *testing.T) {
		vs := parse("font", "normal small-caps 10pt monospace")
		require.Len(t, vs, 6)
		m := byID(vs)
		assert.True(t, m[FontVariant].Is("small-caps"))
		assert.Equal(t, 400.0, m[FontWeight].Number)
		assert.Equal(t, TypeNormal, m[LineHeight].Type)
	})

	t.Run("System Font", func(t *testing.T) {
		assert.Len(t, parse("font", "caption"), 6)
	})

	t.Run("Family List", func(t *testing.T) {
		vs := parse("font-family", `Times New Roman, 'Arial Black', monospace`)
		require.Len(t, vs, 1)
		fams := vs[0].Components
		require.Len(t, fams, 3)
		assert.Equal(t, "Times New Roman", fams[0].Text)
		assert.Equal(t, "Arial Black", fams[1].Text)
		assert.True(t, fams[2].Is("monospace"))
		assert.Equal(t, `"Times New Roman", "Arial Black", monospace`, vs[0].String())
	})

	t.Run("Weights", func(t *testing.T) {
		vs := parse("font-weight", "bold")
		require.Len(t, vs, 1)
		assert.Equal(t, "bold", vs[0].Keyword)
		assert.Equal(t, 700.0, vs[0].Number)

		vs = parse("font-weight", "300")
		require.Len(t, vs, 1)
		assert.Equal(t, 300.0, vs[0].Number)
	})
}

func TestMiscParsers(t *testing.T) {
	t.Run("Flex Keywords", func(t *testing.T) {
		vs := parse("flex", "none")
		require.Len(t, vs, 3)
		assert.Equal(t, 0.0, vs[0].Number)
		assert.Equal(t, 0.0, vs[1].Number)
		assert.True(t, vs[2].IsAuto())
	})

	t.Run("Flex Single Number", func(t *testing.T) {
		vs := parse("flex", "2")
		require.Len(t, vs, 3)
		assert.Equal(t, 2.0, vs[0].Number)
		assert.Equal(t, 1.0, vs[1].Number)
		assert.Equal(t, TypePercentage, vs[2].Type)
	})

	t.Run("Flex Full", func(t *testing.T) {
		vs := parse("flex", "1 3 100px")
		require.Len(t, vs, 3)
		assert.Equal(t, 3.0, vs[1].Number)
		assert.Equal(t, 100.0, vs[2].Length.Value)
	})

	t.Run("Flex Flow", func(t *testing.T) {
		vs := parse("flex-flow", "wrap column")
		require.Len(t, vs, 2)
		assert.True(t, vs[0].Is("column"))
		assert.True(t, vs[1].Is("wrap"))
	})

	t.Run("Counters", func(t *testing.T) {
		vs := parse("counter-reset", "chapter 2 section")
		require.Len(t, vs, 1)
		assert.Equal(t, []Counter{{Name: "chapter", Value: 2}, {Name: "section", Value: 0}}, vs[0].Counters)

		vs = parse("counter-increment", "item")
		require.Len(t, vs, 1)
		assert.Equal(t, []Counter{{Name: "item", Value: 1}}, vs[0].Counters)
	})

	t.Run("Content", func(t *testing.T) {
		vs := parse("content", `"x" counter(item, upper-roman) attr(title) open-quote`)
		require.Len(t, vs, 1)
		items := vs[0].Components
		require.Len(t, items, 4)
		assert.Equal(t, TypeString, items[0].Type)
		assert.Equal(t, TypeCounter, items[1].Type)
		assert.Equal(t, "item", items[1].Text)
		assert.Equal(t, "upper-roman", items[1].Keyword)
		assert.Equal(t, TypeAttr, items[2].Type)
		assert.True(t, items[3].Is("open-quote"))
	})

	t.Run("Quotes", func(t *testing.T) {
		vs := parse("quotes", `"«" "»"`)
		require.Len(t, vs, 1)
		assert.Len(t, vs[0].Components, 2)
	})

	t.Run("Background Shorthand", func(t *testing.T) {
		vs := parse("background", "red url(a.png) no-repeat")
		require.Len(t, vs, 5)
		m := byID(vs)
		assert.Equal(t, red, m[BackgroundColor].Color)
		assert.Equal(t, "a.png", m[BackgroundImage].Text)
		assert.True(t, m[BackgroundRepeat].Is("no-repeat"))
		assert.True(t, m[BackgroundAttachment].Is("scroll"))
	})

	t.Run("Background Position", func(t *testing.T) {
		tests := []struct {
			value string
			want  string
		}{
			{"right top", "100% 0%"},
			{"top", "50% 0%"},
			{"10px", "10px 50%"},
			{"25% 75%", "25% 75%"},
		}
		for _, tt := range tests {
			vs := parse("background-position", tt.value)
			require.Len(t, vs, 1, tt.value)
			assert.Equal(t, tt.want, vs[0].String(), tt.value)
		}
	})

	t.Run("List Style", func(t *testing.T) {
		vs := parse("list-style", "square inside")
		require.Len(t, vs, 3)
		assert.True(t, vs[0].Is("square"))
		assert.True(t, vs[1].Is("inside"))
		assert.Equal(t, TypeNone, vs[2].Type)

		vs = parse("list-style", "none")
		require.Len(t, vs, 3)
		assert.True(t, vs[0].Is("none"))
	})

	t.Run("Text Decoration", func(t *testing.T) {
		vs := parse("text-decoration", "underline overline")
		require.Len(t, vs, 1)
		assert.Equal(t, "underline overline", vs[0].String())
	})

	t.Run("Border Spacing", func(t *testing.T) {
		vs := parse("border-spacing", "2px")
		require.Len(t, vs, 1)
		assert.Equal(t, "2px 2px", vs[0].String())
	})
}

func TestGenericFallback(t *testing.T) {
	vs := parse("-x-custom", "foo  bar")
	require.Len(t, vs, 1)
	assert.Equal(t, PropertyGeneric, vs[0].Property)
	assert.Equal(t, TypeTokens, vs[0].Type)
	assert.Equal(t, "-x-custom", vs[0].Name)
	assert.Equal(t, "foo bar", vs[0].String())
}

// --- Registry ---

func TestRegistryCoversEveryLonghand(t *testing.T) {
	r := NewRegistry()
	for _, id := range All() {
		_, ok := r.Lookup(id.String())
		assert.True(t, ok, "no parser for %s", id)
	}
	_, ok := r.Lookup("Margin-Top")
	assert.True(t, ok)
	_, ok = r.Lookup("no-such-property")
	assert.False(t, ok)
}

func FuzzRegistryParse(f *testing.F) {
	f.Add([]byte("font\x00italic bold 12px/1.5 serif"))
	f.Add([]byte("background\x00url(x) red top left"))
	r := NewRegistry()
	names := r.Names()
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		idx, err := consumer.GetInt()
		if err != nil {
			return
		}
		value, err := consumer.GetString()
		if err != nil {
			return
		}
		name := names[int(uint(idx)%uint(len(names)))]
		for _, v := range r.Parse(name, parser.Tokenize(value)) {
			if v.Property == PropertyGeneric {
				t.Fatalf("registered property %s fell back to the generic parser", name)
			}
		}
	})
}

func TestParseColor(t *testing.T) {
	testCases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"white", color.RGBA{255, 255, 255, 255}, true},
		{" #f00 ", red, true},
		{"rgb(0, 128, 0)", color.RGBA{G: 128, A: 255}, true},
		{"transparent", color.RGBA{}, true},
		{"currentColor", color.RGBA{}, false},
		{"red blue", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseColor(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
