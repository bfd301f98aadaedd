// Package parser turns fetched markup into a queryable node tree.
package parser

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Node is an element of a parsed document. A nil *Node is valid and behaves
// like an empty match: queries return nothing and text is "".
type Node struct {
	n *html.Node
}

// Parse builds a node tree from HTML text. The HTML parser is lenient, so
// errors are limited to reader failures.
func Parse(text string) (*Node, error) {
	doc, err := htmlquery.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return &Node{n: doc}, nil
}

// Wrap adapts an html.Node.
func Wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n}
}

// Find returns the first node matching the XPath expression relative to n,
// or nil. Invalid expressions match nothing.
func (n *Node) Find(expr string) *Node {
	if n == nil {
		return nil
	}
	found, err := htmlquery.Query(n.n, expr)
	if err != nil || found == nil {
		return nil
	}
	return &Node{n: found}
}

// FindAll returns every node matching the XPath expression relative to n.
func (n *Node) FindAll(expr string) []*Node {
	if n == nil {
		return nil
	}
	found, err := htmlquery.QueryAll(n.n, expr)
	if err != nil {
		return nil
	}
	nodes := make([]*Node, 0, len(found))
	for _, f := range found {
		nodes = append(nodes, &Node{n: f})
	}
	return nodes
}

// Valid reports whether expr compiles as XPath.
func Valid(expr string) error {
	_, err := htmlquery.QueryAll(&html.Node{Type: html.DocumentNode}, expr)
	return err
}

// Text returns the node's inner text with surrounding whitespace trimmed
// and entities decoded.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n.n))
}

// RawText returns the node's inner text as it appears in the page, without
// trimming.
func (n *Node) RawText() string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n.n)
}

// OwnText returns only the node's direct text children, trimmed.
func (n *Node) OwnText() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return htmlquery.SelectAttr(n.n, name)
}

// Tag returns the element name, or "" for non-elements.
func (n *Node) Tag() string {
	if n == nil || n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return Wrap(n.n.Parent)
}

// PrevElement returns the closest preceding sibling that is an element.
func (n *Node) PrevElement() *Node {
	if n == nil {
		return nil
	}
	for s := n.n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return &Node{n: s}
		}
	}
	return nil
}

// HTML renders the node including its own tag.
func (n *Node) HTML() string {
	if n == nil {
		return ""
	}
	return htmlquery.OutputHTML(n.n, true)
}
