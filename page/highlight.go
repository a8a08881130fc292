package page

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/richinex/keylight/config"
)

// Highlight wrapper identity. The data attribute, not the tag, marks a span
// as ours so clearing never touches author-written <mark> elements.
const (
	wrapperTag  = "mark"
	wrapperAttr = "data-keylight"
)

// maxKeypointsPerUnit bounds DOM mutation cost per text unit.
const maxKeypointsPerUnit = 5

// StyleAttr builds the inline style for a highlight wrapper.
func StyleAttr(style, color string) string {
	switch style {
	case config.StyleUnderline:
		return fmt.Sprintf("text-decoration: underline; text-decoration-color: %s; text-decoration-thickness: 2px;", color)
	case config.StyleDashed:
		return fmt.Sprintf("text-decoration: underline dashed; text-decoration-color: %s; text-decoration-thickness: 2px;", color)
	default:
		return fmt.Sprintf("background-color: %s;", color)
	}
}

// FilterKeypoints keeps the keypoints eligible for highlighting in a unit:
// non-empty verbatim substrings of the unit's text (case-insensitive),
// ordered by descending length so longer matches win over fragments they
// contain, capped at maxKeypointsPerUnit. Ties keep model-returned order.
func FilterKeypoints(text string, keypoints []string) []string {
	lower := strings.ToLower(text)

	var eligible []string
	for _, kp := range keypoints {
		kp = strings.TrimSpace(kp)
		if kp == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kp)) {
			eligible = append(eligible, kp)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return utf8.RuneCountInString(eligible[i]) > utf8.RuneCountInString(eligible[j])
	})

	if len(eligible) > maxKeypointsPerUnit {
		eligible = eligible[:maxKeypointsPerUnit]
	}
	return eligible
}

// Highlight wraps every occurrence of each keypoint inside the unit's subtree
// and returns the number of wrappers inserted. Matching is case-insensitive
// and literal except for whitespace: keypoints come from whitespace-collapsed
// unit text, while node data keeps the source's own newlines and tabs, so
// each gap in the keypoint matches any whitespace run. Pattern metacharacters
// are escaped. Text already inside a wrapper is skipped, which makes
// re-analysis of a highlighted page safe.
func Highlight(unit *html.Node, keypoints []string, styleAttr string) int {
	total := 0
	for _, kp := range keypoints {
		re, err := keypointPattern(kp)
		if err != nil {
			continue
		}
		for _, textNode := range plainTextNodes(unit) {
			total += wrapMatches(textNode, re, styleAttr)
		}
	}
	return total
}

// keypointPattern compiles the match pattern for one keypoint: escaped words
// joined by \s+, case-insensitive. Returns an error for whitespace-only input.
func keypointPattern(kp string) (*regexp.Regexp, error) {
	words := strings.Fields(kp)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty keypoint")
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(`(?i)` + strings.Join(words, `\s+`))
}

// ClearHighlights unwraps every highlight wrapper in the document, restoring
// its children in place. Calling it on a clean document is a no-op.
func ClearHighlights(doc *Document) int {
	wrappers := collectWrappers(doc.root)
	for _, w := range wrappers {
		unwrap(w)
	}
	return len(wrappers)
}

func isWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != wrapperTag {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == wrapperAttr {
			return true
		}
	}
	return false
}

// plainTextNodes collects the text nodes of a subtree that are not inside an
// existing highlight wrapper. Collected up front because wrapping mutates
// the tree under the walk.
func plainTextNodes(n *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isWrapper(n) {
			return
		}
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return nodes
}

// wrapMatches splits a text node into plain and highlighted segments, one
// wrapper per match. Returns the number of wrappers inserted.
func wrapMatches(node *html.Node, re *regexp.Regexp, styleAttr string) int {
	matches := re.FindAllStringIndex(node.Data, -1)
	if len(matches) == 0 {
		return 0
	}

	parent := node.Parent
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parent.InsertBefore(newTextNode(node.Data[last:m[0]]), node)
		}
		wrapper := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Mark,
			Data:     wrapperTag,
			Attr: []html.Attribute{
				{Key: wrapperAttr, Val: "1"},
				{Key: "style", Val: styleAttr},
			},
		}
		wrapper.AppendChild(newTextNode(node.Data[m[0]:m[1]]))
		parent.InsertBefore(wrapper, node)
		last = m[1]
	}
	if last < len(node.Data) {
		parent.InsertBefore(newTextNode(node.Data[last:]), node)
	}
	parent.RemoveChild(node)
	return len(matches)
}

func newTextNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func collectWrappers(root *html.Node) []*html.Node {
	var wrappers []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isWrapper(n) {
			wrappers = append(wrappers, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return wrappers
}

// unwrap replaces a wrapper with its children.
func unwrap(w *html.Node) {
	parent := w.Parent
	if parent == nil {
		return
	}
	for c := w.FirstChild; c != nil; {
		next := c.NextSibling
		w.RemoveChild(c)
		parent.InsertBefore(c, w)
		c = next
	}
	parent.RemoveChild(w)
}
