// internal/browser/style/useragent.go
package style

import "github.com/xkilldash9x/boxlayout/internal/browser/parser"

// DefaultUserAgentCSS follows the CSS 2.1 default style sheet for HTML 4,
// plus intrinsic dimensions for form elements.
const DefaultUserAgentCSS = `
html, address, blockquote, body, dd, div, dl, dt, fieldset, form, frame, frameset,
h1, h2, h3, h4, h5, h6, noframes, ol, p, ul, center, dir, hr, menu, pre,
header, footer, section, article, nav, main, aside, figure, figcaption { display: block; }

li { display: list-item; }
head, script, style, title, meta, link, template { display: none; }
table { display: table; }
tr { display: table-row; }
thead { display: table-header-group; }
tbody { display: table-row-group; }
tfoot { display: table-footer-group; }
col { display: table-column; }
colgroup { display: table-column-group; }
td, th { display: table-cell; }
caption { display: table-caption; text-align: center; }

body { margin: 8px; }
h1 { font-size: 2em; margin: .67em 0; }
h2 { font-size: 1.5em; margin: .75em 0; }
h3 { font-size: 1.17em; margin: .83em 0; }
h4, p, blockquote, ul, fieldset, form, ol, dl, dir, menu { margin: 1.12em 0; }
h5 { font-size: .83em; margin: 1.5em 0; }
h6 { font-size: .75em; margin: 1.67em 0; }
h1, h2, h3, h4, h5, h6, b, strong { font-weight: bolder; }
blockquote { margin-left: 40px; margin-right: 40px; }
i, cite, em, var, address { font-style: italic; }
pre, tt, code, kbd, samp { font-family: monospace; }
pre { white-space: pre; }
button, textarea, input, select { display: inline-block; }
big { font-size: 1.17em; }
small, sub, sup { font-size: .83em; }
sub { vertical-align: sub; }
sup { vertical-align: super; }
table { border-spacing: 2px; }
thead, tbody, tfoot { vertical-align: middle; }
td, th, tr { vertical-align: inherit; }
th { font-weight: bolder; text-align: center; }
s, strike, del { text-decoration: line-through; }
hr { border: 1px inset; margin: .5em 0; }
ol, ul, dir, menu, dd { margin-left: 40px; }
ol { list-style-type: decimal; }
ol ul, ul ol, ul ul, ol ol { margin-top: 0; margin-bottom: 0; }
u, ins { text-decoration: underline; }
center { text-align: center; }
:link, :visited { text-decoration: underline; }
:focus { outline: thin dotted invert; }

input, button, textarea, select {
    box-sizing: border-box;
    margin: 2px 0;
    padding: 1px 2px;
    border: 1px solid #767676;
    font-size: inherit;
    line-height: normal;
}

input { width: 170px; }

input[type="checkbox"], input[type="radio"] {
    width: 13px;
    height: 13px;
    padding: 0;
    margin: 3px;
}

button, input[type="submit"], input[type="button"], input[type="reset"] {
    width: auto;
    height: auto;
    padding: 1px 6px;
    text-align: center;
    cursor: default;
}

input[type="hidden"] { display: none; }

a:link { color: #0000ee; cursor: pointer; }
a:visited { color: #551a8b; }
`

// UserAgentSheet parses DefaultUserAgentCSS.
func UserAgentSheet() *parser.StyleSheet {
	return parser.NewParser(DefaultUserAgentCSS).Parse()
}
