package content

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightStyle is the chroma style used for rendered excerpts.
const HighlightStyle = "github"

// Highlight renders source text as HTML markup. languageHint is the block's
// file path (or a bare language name); an unrecognized hint falls back to
// content analysis, then to plain text. Highlighting is cosmetic — a failure
// never affects geometry or arrows, so callers may use the raw text instead.
func Highlight(text, languageHint string) (string, error) {
	lexer := lexers.Match(languageHint)
	if lexer == nil {
		lexer = lexers.Get(languageHint)
	}
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var buf strings.Builder
	formatter := html.New(html.WithClasses(false))
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return buf.String(), nil
}
