package page

import (
	"sync"

	"golang.org/x/net/html"
)

// Entry reports a target whose visibility crossed the observer's
// threshold, or its state on the first evaluation after Observe.
type Entry struct {
	Target         *html.Node
	Ratio          float64
	IsIntersecting bool
}

type target struct {
	node      *html.Node
	delivered bool
	above     bool
}

type IntersectionObserver struct {
	page      *Page
	threshold float64
	cb        func([]Entry, *IntersectionObserver)

	// guarded by page.mu
	targets []*target
	index   map[*html.Node]*target
	closed  bool
}

// NewIntersectionObserver creates an observer firing cb with the entries
// of each evaluation that has any. Observing does not evaluate; the page
// evaluates after scrolls, resizes, mutations and explicit Evaluate calls.
func (p *Page) NewIntersectionObserver(threshold float64, cb func([]Entry, *IntersectionObserver)) *IntersectionObserver {
	io := &IntersectionObserver{
		page:      p,
		threshold: threshold,
		cb:        cb,
		index:     make(map[*html.Node]*target),
	}

	p.mu.Lock()
	p.intersection = append(p.intersection, io)
	p.mu.Unlock()

	return io
}

func (io *IntersectionObserver) Observe(n *html.Node) {
	io.page.mu.Lock()
	defer io.page.mu.Unlock()

	if io.closed {
		return
	}
	if _, ok := io.index[n]; ok {
		return
	}
	t := &target{node: n}
	io.index[n] = t
	io.targets = append(io.targets, t)
}

func (io *IntersectionObserver) Unobserve(n *html.Node) {
	io.page.mu.Lock()
	defer io.page.mu.Unlock()

	t, ok := io.index[n]
	if !ok {
		return
	}
	delete(io.index, n)
	for i, x := range io.targets {
		if x == t {
			io.targets = append(io.targets[:i], io.targets[i+1:]...)
			break
		}
	}
}

// Disconnect stops observing every target and detaches the observer from
// its page.
func (io *IntersectionObserver) Disconnect() {
	p := io.page
	p.mu.Lock()
	defer p.mu.Unlock()

	io.closed = true
	io.targets = nil
	io.index = make(map[*html.Node]*target)
	for i, x := range p.intersection {
		if x == io {
			p.intersection = append(p.intersection[:i], p.intersection[i+1:]...)
			break
		}
	}
}

func (io *IntersectionObserver) isClosed() bool {
	io.page.mu.Lock()
	defer io.page.mu.Unlock()
	return io.closed
}

// Observed reports how many targets are watched.
func (io *IntersectionObserver) Observed() int {
	io.page.mu.Lock()
	defer io.page.mu.Unlock()
	return len(io.targets)
}

// ratio of r visible in [top, top+height), relative to the smaller of the
// element and the viewport so tall elements can still fill the screen.
// Zero-height targets are edge-adjacent inclusive: a marker on row
// top+height, just below the last visible row, counts as visible.
func visibleRatio(r Rect, top, height int) float64 {
	bottom := top + height
	if r.Height == 0 {
		if r.Top >= top && r.Top <= bottom {
			return 1
		}
		return 0
	}

	visible := min(r.Bottom(), bottom) - max(r.Top, top)
	if visible <= 0 {
		return 0
	}
	return float64(visible) / float64(min(r.Height, height))
}

// VisibleRatio reports the visible share of r in the current viewport.
func (p *Page) VisibleRatio(r Rect) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return visibleRatio(r, p.scrollY, p.height)
}

type delivery struct {
	io      *IntersectionObserver
	entries []Entry
}

// Evaluate recomputes intersections and invokes observer callbacks.
func (p *Page) Evaluate() {
	p.mu.Lock()
	p.ensureLayout()

	var out []delivery
	for _, io := range p.intersection {
		var entries []Entry
		for _, t := range io.targets {
			ratio := 0.0
			if r, ok := p.rects[t.node]; ok {
				ratio = visibleRatio(r, p.scrollY, p.height)
			}
			above := ratio > 0 && ratio >= io.threshold
			if t.delivered && above == t.above {
				continue
			}
			t.delivered = true
			t.above = above
			entries = append(entries, Entry{Target: t.node, Ratio: ratio, IsIntersecting: above})
		}
		if len(entries) > 0 {
			out = append(out, delivery{io: io, entries: entries})
		}
	}
	p.mu.Unlock()

	for _, d := range out {
		if !d.io.isClosed() {
			d.io.cb(d.entries, d.io)
		}
	}
}

type MutationObserver struct {
	page *Page
	cb   func(added []*html.Node)

	mu     sync.Mutex
	closed bool
}

// ObserveMutations registers cb for every Mutate call.
func (p *Page) ObserveMutations(cb func(added []*html.Node)) *MutationObserver {
	mo := &MutationObserver{page: p, cb: cb}

	p.mu.Lock()
	p.mutation = append(p.mutation, mo)
	p.mu.Unlock()

	return mo
}

func (mo *MutationObserver) deliver(added []*html.Node) {
	mo.mu.Lock()
	closed := mo.closed
	mo.mu.Unlock()

	if !closed {
		mo.cb(added)
	}
}

func (mo *MutationObserver) Disconnect() {
	mo.mu.Lock()
	mo.closed = true
	mo.mu.Unlock()

	p := mo.page
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, x := range p.mutation {
		if x == mo {
			p.mutation = append(p.mutation[:i], p.mutation[i+1:]...)
			break
		}
	}
}
