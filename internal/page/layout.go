package page

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/brogergvhs/endless/internal/dom"
)

type LineKind int

const (
	LineText LineKind = iota
	LineHeading
	LineLink
	LineBlank
)

type Line struct {
	Text string
	Kind LineKind
}

// Rect is the vertical extent of an element in rows.
type Rect struct {
	Top    int
	Height int
}

func (r Rect) Bottom() int { return r.Top + r.Height }

// TextLayout lays a document out as wrapped terminal rows. Width <= 0
// disables wrapping.
type TextLayout struct {
	Width int
}

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Link:     true,
	atom.Meta:     true,
}

var inline = map[atom.Atom]bool{
	atom.A:      true,
	atom.Abbr:   true,
	atom.B:      true,
	atom.Bdi:    true,
	atom.Bdo:    true,
	atom.Br:     true,
	atom.Cite:   true,
	atom.Code:   true,
	atom.Em:     true,
	atom.Font:   true,
	atom.I:      true,
	atom.Img:    true,
	atom.Label:  true,
	atom.Mark:   true,
	atom.Q:      true,
	atom.S:      true,
	atom.Small:  true,
	atom.Span:   true,
	atom.Strong: true,
	atom.Sub:    true,
	atom.Sup:    true,
	atom.Time:   true,
	atom.U:      true,
}

var spaced = map[atom.Atom]bool{
	atom.P:  true,
	atom.H1: true,
	atom.H2: true,
	atom.H3: true,
	atom.H4: true,
	atom.H5: true,
	atom.H6: true,
}

func isHeading(n *html.Node) bool {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func isInline(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		return inline[n.DataAtom]
	}
	return false
}

func ignorable(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return true
	case html.ElementNode:
		return skipped[n.DataAtom]
	}
	return false
}

type layoutState struct {
	width int
	lines []Line
	rects map[*html.Node]Rect
}

// Layout places root and every element below it.
func (l TextLayout) Layout(root *html.Node) ([]Line, map[*html.Node]Rect) {
	s := &layoutState{width: l.Width, rects: make(map[*html.Node]Rect)}
	if root != nil {
		s.block(root)
	}
	return s.lines, s.rects
}

func (s *layoutState) block(n *html.Node) {
	top := len(s.lines)

	kind := LineText
	if n.Type == html.ElementNode && isHeading(n) {
		kind = LineHeading
	}

	var run []*html.Node
	flush := func() {
		if len(run) > 0 {
			s.run(run, kind)
			run = nil
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if ignorable(c) {
			continue
		}
		if isInline(c) {
			run = append(run, c)
			continue
		}
		flush()
		s.block(c)
	}
	flush()

	if n.Type == html.ElementNode && spaced[n.DataAtom] && len(s.lines) > top {
		s.lines = append(s.lines, Line{Kind: LineBlank})
	}
	s.rects[n] = Rect{Top: top, Height: len(s.lines) - top}
}

// run lays out consecutive inline nodes as one anonymous block.
func (s *layoutState) run(nodes []*html.Node, kind LineKind) {
	top := len(s.lines)

	var b strings.Builder
	links := true
	for _, n := range nodes {
		before := b.Len()
		inlineText(n, &b)
		text := strings.TrimSpace(b.String()[before:])
		if text != "" && !(n.Type == html.ElementNode && n.DataAtom == atom.A) {
			links = false
		}
	}
	if links && kind == LineText {
		kind = LineLink
	}

	for _, seg := range strings.Split(b.String(), "\n") {
		seg = dom.CleanText(seg)
		if seg == "" {
			continue
		}
		for _, row := range wrap(seg, s.width) {
			s.lines = append(s.lines, Line{Text: row, Kind: kind})
		}
	}

	r := Rect{Top: top, Height: len(s.lines) - top}
	for _, n := range nodes {
		markInline(n, r, s.rects)
	}
}

func inlineText(n *html.Node, b *strings.Builder) {
	switch {
	case n.Type == html.TextNode:
		b.WriteString(n.Data)
		return
	case ignorable(n):
		return
	case n.Type == html.ElementNode && n.DataAtom == atom.Br:
		b.WriteByte('\n')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inlineText(c, b)
	}
}

func markInline(n *html.Node, r Rect, rects map[*html.Node]Rect) {
	if n.Type != html.ElementNode {
		return
	}
	rects[n] = r
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		markInline(c, r, rects)
	}
}

func wrap(text string, width int) []string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return []string{text}
	}

	var (
		rows []string
		cur  strings.Builder
		w    int
	)
	emit := func() {
		if cur.Len() > 0 {
			rows = append(rows, cur.String())
			cur.Reset()
			w = 0
		}
	}

	for _, word := range strings.Fields(text) {
		ww := runewidth.StringWidth(word)
		if ww > width {
			emit()
			for _, r := range word {
				rw := runewidth.RuneWidth(r)
				if w+rw > width {
					emit()
				}
				cur.WriteRune(r)
				w += rw
			}
			continue
		}

		need := ww
		if w > 0 {
			need++
		}
		if w+need > width {
			emit()
			need = ww
		}
		if w > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
		w += need
	}
	emit()

	return rows
}
