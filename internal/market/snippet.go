package market

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup returns the visible text of an hh snippet, dropping tags such
// as <highlighttext> and decoding entities.
func StripMarkup(snippet string) string {
	if !strings.ContainsAny(snippet, "<&") {
		return strings.TrimSpace(snippet)
	}
	doc, err := html.Parse(strings.NewReader(snippet))
	if err != nil {
		return strings.TrimSpace(snippet)
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " ")
}
