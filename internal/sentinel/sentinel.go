// Package sentinel defines the markers and attributes that tie chapter
// containers in the page to the chapter they hold.
package sentinel

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/dom"
)

const (
	AttrPlacement = "data-placement"
	AttrURL       = "data-url"
	AttrTitle     = "data-chapter-title"
	AttrNextURL   = "data-next-url"
	AttrNovelID   = "data-novel-id"

	ClassContainer = "chapter-container"
	ClassTrack     = "track-content"
	ClassSentinel  = "sentinel"

	// NoNextChapter is stored in data-next-url when the chapter has no
	// next link.
	NoNextChapter = "404"
)

type Placement string

const (
	Top    Placement = "top"
	Middle Placement = "middle"
	Bottom Placement = "bottom"
)

type Identity struct {
	URL     string
	Title   string
	NextURL string
}

// HasNext reports whether NextURL points anywhere.
func (id Identity) HasNext() bool {
	return id.NextURL != "" && id.NextURL != NoNextChapter
}

type Marker struct {
	Placement Placement
	Identity  Identity
}

func (id Identity) attrs() []html.Attribute {
	next := id.NextURL
	if next == "" {
		next = NoNextChapter
	}
	return []html.Attribute{
		{Key: AttrURL, Val: id.URL},
		{Key: AttrTitle, Val: id.Title},
		{Key: AttrNextURL, Val: next},
	}
}

// NewMarker builds an empty marker element; it lays out with zero height.
func NewMarker(p Placement, id Identity) *html.Node {
	return dom.Div(dom.Options{
		Class: ClassSentinel,
		Attrs: append(id.attrs(), html.Attribute{Key: AttrPlacement, Val: string(p)}),
	})
}

// Wrap turns an existing content element into a tracked chapter
// container: top marker first, middle and bottom markers last.
func Wrap(container *html.Node, id Identity) {
	dom.AddClass(container, ClassContainer, ClassTrack)
	for _, a := range id.attrs() {
		dom.SetAttr(container, a.Key, a.Val)
	}

	top := NewMarker(Top, id)
	if container.FirstChild != nil {
		container.InsertBefore(top, container.FirstChild)
	} else {
		container.AppendChild(top)
	}
	container.AppendChild(NewMarker(Middle, id))
	container.AppendChild(NewMarker(Bottom, id))
}

// Build creates a detached chapter container holding nodes between the
// top and middle markers.
func Build(id Identity, nodes []*html.Node) *html.Node {
	children := make([]*html.Node, 0, len(nodes)+3)
	children = append(children, NewMarker(Top, id))
	children = append(children, nodes...)
	children = append(children, NewMarker(Middle, id), NewMarker(Bottom, id))

	return dom.Div(dom.Options{
		Class:    ClassContainer + " " + ClassTrack,
		Attrs:    id.attrs(),
		Children: children,
	})
}

// SetNovelID records the novel a container's progress belongs to.
func SetNovelID(container *html.Node, novelID int64) {
	dom.SetAttr(container, AttrNovelID, strconv.FormatInt(novelID, 10))
}

func IsContainer(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && dom.HasClass(n, ClassTrack)
}

func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	_, ok := dom.Attr(n, AttrPlacement)
	return ok
}

// ReadIdentity reads the chapter identity off a container or marker.
func ReadIdentity(n *html.Node) Identity {
	url, _ := dom.Attr(n, AttrURL)
	title, _ := dom.Attr(n, AttrTitle)
	next, _ := dom.Attr(n, AttrNextURL)
	if next == "" {
		next = NoNextChapter
	}
	return Identity{URL: url, Title: title, NextURL: next}
}

// Parse reads a marker. ok is false for nodes that are not markers or
// carry an unknown placement.
func Parse(n *html.Node) (m Marker, ok bool) {
	if !IsMarker(n) {
		return Marker{}, false
	}
	v, _ := dom.Attr(n, AttrPlacement)
	switch p := Placement(v); p {
	case Top, Middle, Bottom:
		return Marker{Placement: p, Identity: ReadIdentity(n)}, true
	default:
		return Marker{}, false
	}
}
