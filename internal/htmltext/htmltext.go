// Package htmltext strips markup from email bodies for uniform parsing.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip returns the concatenation of all text nodes in document order with
// character references decoded. Plain text passes through unchanged apart
// from entity decoding. The tokenizer is best-effort on broken nesting, so
// Strip never fails on malformed markup.
func Strip(body string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))

	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way return what we have.
			return b.String()
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isInvisible(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isInvisible(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		}
	}
}

// isInvisible reports tags whose text content is not part of the rendered
// body. Script and style payloads would otherwise pollute field extraction.
func isInvisible(tag string) bool {
	return tag == "script" || tag == "style"
}
