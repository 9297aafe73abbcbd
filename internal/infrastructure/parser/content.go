package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"TruthPost/internal/ports"
)

var (
	markupExpr     = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)
	whitespaceExpr = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesExpr = regexp.MustCompile(`\n{3,}`)
)

// blockSelector lists elements that start a new line in extracted text.
const blockSelector = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr, section, article"

// ContentNormalizer turns rich-text submissions into the plain text scored by the text model.
type ContentNormalizer struct{}

var _ ports.ContentNormalizer = ContentNormalizer{}

// NewContentNormalizer returns the HTML-aware normalizer.
func NewContentNormalizer() ContentNormalizer {
	return ContentNormalizer{}
}

// PlainText returns content unchanged apart from whitespace when it carries no markup.
func (ContentNormalizer) PlainText(content string) string {
	if !markupExpr.MatchString(content) {
		return collapse(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return collapse(content)
	}

	doc.Find("script, style, noscript, iframe").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AfterHtml("\n")
	})

	return collapse(doc.Text())
}

func collapse(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespaceExpr.ReplaceAllString(line, " "))
	}
	joined := strings.Join(lines, "\n")
	return strings.TrimSpace(blankLinesExpr.ReplaceAllString(joined, "\n\n"))
}
