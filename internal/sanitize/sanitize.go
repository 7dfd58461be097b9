// Package sanitize turns Canvas HTML fragments into plain text suitable
// for search indexing.
package sanitize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Sanitizer strips markup from an HTML fragment, returning plain text.
type Sanitizer interface {
	Strip(html string) string
}

// nonContentSelectors lists elements whose text never belongs in search text.
const nonContentSelectors = "script, style"

// HTMLStripper extracts the text content of an HTML fragment using goquery.
type HTMLStripper struct{}

// NewHTMLStripper creates the default sanitizer.
func NewHTMLStripper() *HTMLStripper {
	return &HTMLStripper{}
}

// Strip returns the visible text of the fragment with scripts and styles
// removed and whitespace collapsed. Input that fails to parse as HTML is
// returned trimmed but otherwise untouched; goquery parses almost anything,
// so this is a last resort rather than an error path.
func (s *HTMLStripper) Strip(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	doc.Find(nonContentSelectors).Remove()
	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
