// Package dom holds small helpers for building and inspecting
// golang.org/x/net/html nodes.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

type Options struct {
	ID       string
	Class    string
	Text     string
	Attrs    []html.Attribute
	Children []*html.Node
}

// Element builds a detached element node.
func Element(tag string, o Options) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	if o.ID != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: o.ID})
	}
	if o.Class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: o.Class})
	}
	n.Attr = append(n.Attr, o.Attrs...)

	if o.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: o.Text})
	}
	for _, c := range o.Children {
		Detach(c)
		n.AppendChild(c)
	}

	return n
}

func Div(o Options) *html.Node {
	return Element("div", o)
}

func Link(href, text, class string, attrs ...html.Attribute) *html.Node {
	return Element("a", Options{
		Class: class,
		Text:  text,
		Attrs: append([]html.Attribute{{Key: "href", Val: href}}, attrs...),
	})
}

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func Classes(n *html.Node) []string {
	v, _ := Attr(n, "class")
	return strings.Fields(v)
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, classes ...string) {
	have := Classes(n)
	for _, c := range classes {
		if !HasClass(n, c) {
			have = append(have, c)
		}
	}
	SetAttr(n, "class", strings.Join(have, " "))
}

// ElementChildren mirrors the DOM's Element.children: text and comment
// nodes are skipped.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// Text returns the text content of n with whitespace collapsed and the
// result NFC normalized. Arabic chapter titles on the supported sites mix
// composed and decomposed forms.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return CleanText(b.String())
}

func CleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func collectText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte(' ')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
