package ocr

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, section, article, header, footer, dt, dd"

var reInlineSpace = regexp.MustCompile(`[ \t\x{00a0}]+`)

// htmlToText renders a saved portal page as text, one block per line.
func htmlToText(payload []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return Result{Method: MethodHTML}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, iframe, svg").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, ln := range strings.Split(doc.Find("body").Text(), "\n") {
		ln = strings.TrimSpace(reInlineSpace.ReplaceAllString(ln, " "))
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return Result{Text: strings.Join(lines, "\n"), Pages: 1, Method: MethodHTML, Confidence: 1}, nil
}

// clean drops page separators and blank-line runs left by the tools.
func clean(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\f", "\n\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
