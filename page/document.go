// Package page segments an HTML document into analyzable text units and
// applies or removes keypoint highlighting on the parsed tree.
//
// Highlighting mutates the tree directly rather than round-tripping through
// serialized markup: matched text nodes are split into plain and wrapped
// segments, and subtrees already inside a wrapper are skipped, so applying
// highlights to an already-highlighted document never double-wraps.
package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/richinex/keylight/storage"
)

// Document is a parsed HTML page plus the URL it was loaded from.
type Document struct {
	URL  string
	root *html.Node
}

// Parse reads an HTML document. The given URL identifies the page for
// caching and policy decisions.
func Parse(r io.Reader, rawURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{URL: rawURL, root: root}, nil
}

// Render serializes the document, including any highlight markup, back to HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Origin returns the cache partition key for the document's URL.
func (d *Document) Origin() string {
	return storage.OriginOf(d.URL)
}

// nodeText returns the concatenated text content of a subtree. Text inside
// existing highlight wrappers is included: wrappers add no characters, so a
// highlighted unit hashes to the same key as its unhighlighted form.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseWhitespace folds runs of whitespace into single spaces and trims
// the ends, giving segmentation a stable view of rendered text.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
