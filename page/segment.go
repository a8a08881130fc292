package page

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextUnit is one paragraph-level element considered as an independent
// analysis input.
type TextUnit struct {
	Node *html.Node
	Text string
}

// unitAtoms are the paragraph-level elements that form text units.
var unitAtoms = map[atom.Atom]bool{
	atom.P:          true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Td:         true,
	atom.Figcaption: true,
	atom.Dd:         true,
}

// skipAtoms are subtrees that never contribute analyzable text.
var skipAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// TextUnits enumerates the document's analyzable units. An element qualifies
// when it is paragraph-level and its collapsed text is at least minLength
// characters; shorter elements are too sparse to be worth an API call. Once
// an element qualifies the walk does not descend into it, so nested
// paragraph-level elements never produce overlapping units.
func (d *Document) TextUnits(minLength int) []TextUnit {
	var units []TextUnit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipAtoms[n.DataAtom] {
				return
			}
			if unitAtoms[n.DataAtom] {
				text := collapseWhitespace(nodeText(n))
				if utf8.RuneCountInString(text) >= minLength {
					units = append(units, TextUnit{Node: n, Text: text})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return units
}
