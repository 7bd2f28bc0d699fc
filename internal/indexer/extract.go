package indexer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TextExtractor turns an HTTP response body into the (title, text) pair the
// text pipeline indexes. This is "the HTML→text readability extractor"
// spec.md §1 places outside the core; a real deployment would swap this
// default for a proper readability implementation (stripping navigation,
// boilerplate, ads) without touching the indexing pipeline.
type TextExtractor interface {
	Extract(body io.Reader) (title, text string, err error)
}

// HTMLExtractor is the default TextExtractor: it walks the parsed HTML
// tree, takes the text of the first <title> element (trimmed), and
// concatenates the text of every node outside <title>, <script>, <style>
// and <noscript>.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(body io.Reader) (string, string, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return "", "", err
	}

	var title strings.Builder
	var text strings.Builder
	var walk func(n *html.Node, skip bool)
	walk = func(n *html.Node, skip bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				var t strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						t.WriteString(c.Data)
					}
				}
				if title.Len() == 0 {
					title.WriteString(t.String())
				}
				return
			}
		case html.TextNode:
			if !skip {
				text.WriteString(n.Data)
				text.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	return strings.TrimSpace(title.String()), strings.TrimSpace(text.String()), nil
}
