// Package page models the document a reader is looking at: an HTML tree,
// its layout in terminal rows, a scrollable viewport and the observers
// that react to what enters it.
package page

import (
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Options struct {
	Width  int
	Height int
}

// Page is safe for concurrent use. Functions passed to View and Mutate run
// with the page locked and must not call back into the Page; observer and
// listener callbacks run unlocked.
type Page struct {
	mu sync.Mutex

	doc     *goquery.Document
	url     string
	layout  TextLayout
	height  int
	scrollY int

	dirty bool
	lines []Line
	rects map[*html.Node]Rect

	intersection []*IntersectionObserver
	mutation     []*MutationObserver
	scroll       map[int]func()
	nextID       int
	subs         map[int]chan struct{}
}

func New(doc *goquery.Document, rawURL string, o Options) *Page {
	if o.Height <= 0 {
		o.Height = 1
	}
	return &Page{
		doc:    doc,
		url:    rawURL,
		layout: TextLayout{Width: o.Width},
		height: o.Height,
		dirty:  true,
		scroll: make(map[int]func()),
		subs:   make(map[int]chan struct{}),
	}
}

// URL is the address bar.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// ReplaceURL rewrites the address bar without loading anything.
func (p *Page) ReplaceURL(rawURL string) {
	p.mu.Lock()
	changed := p.url != rawURL
	p.url = rawURL
	p.mu.Unlock()

	if changed {
		p.notify()
	}
}

// Fragment returns the address bar's fragment without '#'.
func (p *Page) Fragment() string {
	u, err := url.Parse(p.URL())
	if err != nil {
		return ""
	}
	return u.Fragment
}

func (p *Page) View(fn func(doc *goquery.Document)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// Mutate changes the document. fn returns the nodes it inserted; they are
// reported to mutation observers before intersections are re-evaluated.
func (p *Page) Mutate(fn func(doc *goquery.Document) []*html.Node) {
	p.mu.Lock()
	added := fn(p.doc)
	p.dirty = true
	observers := append([]*MutationObserver(nil), p.mutation...)
	p.mu.Unlock()

	if len(added) > 0 {
		for _, mo := range observers {
			mo.deliver(added)
		}
	}
	p.Evaluate()
	p.notify()
}

// AppendTo appends nodes to the first element matching selector. It
// reports false when nothing matches.
func (p *Page) AppendTo(selector string, nodes ...*html.Node) bool {
	ok := false
	p.Mutate(func(doc *goquery.Document) []*html.Node {
		target := doc.Find(selector).First()
		if target.Length() == 0 {
			return nil
		}
		parent := target.Get(0)
		for _, n := range nodes {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			parent.AppendChild(n)
		}
		ok = true
		return nodes
	})
	return ok
}

func (p *Page) ensureLayout() {
	if !p.dirty {
		return
	}
	root := p.doc.Find("body").First()
	var n *html.Node
	if root.Length() > 0 {
		n = root.Get(0)
	} else if len(p.doc.Nodes) > 0 {
		n = p.doc.Nodes[0]
	}
	p.lines, p.rects = p.layout.Layout(n)
	p.dirty = false
	p.clamp()
}

func (p *Page) clamp() {
	limit := len(p.lines) - p.height
	if limit < 0 {
		limit = 0
	}
	if p.scrollY > limit {
		p.scrollY = limit
	}
	if p.scrollY < 0 {
		p.scrollY = 0
	}
}

// Lines returns a copy of the laid out document.
func (p *Page) Lines() []Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLayout()
	return append([]Line(nil), p.lines...)
}

// Visible returns the rows currently inside the viewport.
func (p *Page) Visible() []Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLayout()

	end := p.scrollY + p.height
	if end > len(p.lines) {
		end = len(p.lines)
	}
	if p.scrollY >= end {
		return nil
	}
	return append([]Line(nil), p.lines[p.scrollY:end]...)
}

// Rect reports where n is laid out. ok is false for nodes outside the
// rendered document.
func (p *Page) Rect(n *html.Node) (Rect, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLayout()
	r, ok := p.rects[n]
	return r, ok
}

type Viewport struct {
	ScrollY int
	Height  int
	Total   int
}

func (p *Page) Viewport() Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensureLayout()
	return Viewport{ScrollY: p.scrollY, Height: p.height, Total: len(p.lines)}
}

func (p *Page) ScrollTo(y int) {
	p.mu.Lock()
	p.ensureLayout()
	prev := p.scrollY
	p.scrollY = y
	p.clamp()
	moved := p.scrollY != prev
	p.mu.Unlock()

	if moved {
		p.scrolled()
	}
}

func (p *Page) ScrollBy(dy int) {
	p.mu.Lock()
	y := p.scrollY
	p.mu.Unlock()
	p.ScrollTo(y + dy)
}

// Resize changes the viewport. A width change re-wraps the document.
func (p *Page) Resize(width, height int) {
	if height <= 0 {
		height = 1
	}
	p.mu.Lock()
	if width != p.layout.Width {
		p.layout.Width = width
		p.dirty = true
	}
	p.height = height
	p.ensureLayout()
	p.clamp()
	p.mu.Unlock()

	p.scrolled()
}

func (p *Page) scrolled() {
	p.mu.Lock()
	listeners := make([]func(), 0, len(p.scroll))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.scroll[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	p.Evaluate()
	p.notify()
}

// AddScrollListener registers fn for scroll and resize events. The
// returned function removes it.
func (p *Page) AddScrollListener(fn func()) (remove func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.scroll[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.scroll, id)
			p.mu.Unlock()
		})
	}
}

// Subscribe returns a channel that receives a value whenever the page
// changes. Bursts are coalesced.
func (p *Page) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Page) notify() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type Stats struct {
	IntersectionObservers int
	ObservedTargets       int
	MutationObservers     int
	ScrollListeners       int
}

// Stats counts live observers and listeners.
func (p *Page) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		IntersectionObservers: len(p.intersection),
		MutationObservers:     len(p.mutation),
		ScrollListeners:       len(p.scroll),
	}
	for _, io := range p.intersection {
		s.ObservedTargets += len(io.targets)
	}
	return s
}
