// internal/social/text.go
//
// Status content to plain text.
// Responsibilities:
//   - Drop the HTML Mastodon wraps around status text.
//   - Keep paragraph and line breaks as newlines.

package social

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips the markup Mastodon puts in status content.
// Paragraphs and line breaks become newlines.
func PlainText(content string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "p" {
				b.WriteByte('\n')
			}
		}
	}
}
