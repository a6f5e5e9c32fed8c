// Package tracker records reading progress as chapters scroll through the
// viewport and asks for the next chapter when one is finished.
package tracker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/sentinel"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
)

const (
	DefaultThreshold = 0.5
	unknownTitle     = "unknown"
	msgSetupFailed   = "Setting up chapter failed!"
)

type Store interface {
	FindNovelByURI(ctx context.Context, uri string) (*store.Novel, error)
	FindChapter(ctx context.Context, novelID int64, link string) (*store.Chapter, error)
	InsertChapter(ctx context.Context, c store.Chapter) (int64, bool, error)
	UpdateChapter(ctx context.Context, id int64, p store.ChapterPatch) error
	RaiseCompletion(ctx context.Context, id int64, pct int, at time.Time) (bool, error)
}

type Loader interface {
	LoadNext(ctx context.Context, next string) (sentinel.Identity, error)
	Decorate(container *html.Node, id sentinel.Identity) bool
}

type Options struct {
	Page    *page.Page
	Site    *sites.Site
	Store   Store
	Loader  Loader
	Notices *notify.Center
	Log     *ui.Logger

	// Threshold is the visible share an element needs to count as seen.
	Threshold float64
	Now       func() time.Time
}

// State is the progress of one chapter container.
type State struct {
	Started bool
	Ended   bool
}

type registration struct {
	container int
	identity  sentinel.Identity
	placement sentinel.Placement
	percent   int
}

type Tracker struct {
	opts Options
	ctx  context.Context

	novelID int64
	io      *page.IntersectionObserver
	mo      *page.MutationObserver
	queue   *queue

	mu        sync.Mutex
	observed  map[*html.Node]bool
	regs      map[*html.Node]registration
	states    map[int]State
	active    sentinel.Identity
	destroyed bool
}

func New(o Options) *Tracker {
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultThreshold
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Tracker{
		opts:     o,
		observed: make(map[*html.Node]bool),
		regs:     make(map[*html.Node]registration),
		states:   make(map[int]State),
	}
}

// Start links the page to its novel, prepares the current chapter and
// begins observing. ctx bounds store lookups and next-chapter loads.
func (t *Tracker) Start(ctx context.Context) {
	t.ctx = ctx
	t.queue = newQueue()

	t.novelID = t.resolveNovel(ctx)
	t.setupCurrentChapter()

	t.io = t.opts.Page.NewIntersectionObserver(t.opts.Threshold, t.onIntersect)
	t.scan()
	t.mo = t.opts.Page.ObserveMutations(func([]*html.Node) { t.scan() })

	t.opts.Page.Evaluate()
}

// resolveNovel finds the library entry of the novel the chapter belongs
// to through the page's breadcrumb link. Zero means not in the library.
func (t *Tracker) resolveNovel(ctx context.Context) int64 {
	var href string
	t.opts.Page.View(func(doc *goquery.Document) {
		href, _ = doc.Find(t.opts.Site.Selectors.NovelBreadCrumb).First().Attr("href")
	})
	uri := sites.NovelURI(href)
	if uri == "" {
		t.opts.Log.Debugf("no novel breadcrumb on page")
		return 0
	}

	n, err := t.opts.Store.FindNovelByURI(ctx, uri)
	if err != nil {
		t.opts.Log.Errorf("look up novel %q: %v", uri, err)
		return 0
	}
	if n == nil {
		t.opts.Log.Debugf("novel %q is not in the library; progress is not recorded", uri)
		return 0
	}
	t.opts.Log.Debugf("tracking novel %q (id %d)", uri, n.ID)
	return n.ID
}

func (t *Tracker) setupCurrentChapter() {
	sel := t.opts.Site.Selectors
	base := t.opts.Page.URL()
	found := false

	t.opts.Page.Mutate(func(doc *goquery.Document) []*html.Node {
		content := doc.Find(sel.Content).First()
		if content.Length() == 0 {
			return nil
		}
		found = true
		node := content.Get(0)
		if sentinel.IsContainer(node) {
			return nil
		}

		title := dom.CleanText(doc.Find(sel.Title).First().Text())
		if title == "" {
			title = unknownTitle
		}
		next := sentinel.NoNextChapter
		if href, ok := doc.Find(sel.NextLink).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			next = resolve(base, href)
		}

		id := sentinel.Identity{URL: base, Title: title, NextURL: next}
		t.opts.Loader.Decorate(node, id)
		sentinel.Wrap(node, id)
		if t.novelID != 0 {
			sentinel.SetNovelID(node, t.novelID)
		}
		return nil
	})

	if !found {
		t.notice(notify.Error, msgSetupFailed)
	}
}

func (t *Tracker) notice(v notify.Variant, msg string) {
	if t.opts.Notices != nil {
		t.opts.Notices.Show(notify.Notice{Message: msg, Variant: v})
	} else {
		t.opts.Log.Warnf("%s", msg)
	}
}

// scan registers every chapter container not seen before. Containers are
// numbered by document position, and each element child is observed with
// the share of the chapter read once it is seen.
func (t *Tracker) scan() {
	type found struct {
		container *html.Node
		ordinal   int
		identity  sentinel.Identity
		children  []*html.Node
	}

	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	var fresh []found
	t.opts.Page.View(func(doc *goquery.Document) {
		doc.Find("." + sentinel.ClassTrack).Each(func(i int, s *goquery.Selection) {
			n := s.Get(0)
			t.mu.Lock()
			seen := t.observed[n]
			t.mu.Unlock()
			if seen {
				return
			}
			fresh = append(fresh, found{
				container: n,
				ordinal:   i,
				identity:  sentinel.ReadIdentity(n),
				children:  dom.ElementChildren(n),
			})
		})
	})
	if len(fresh) == 0 {
		return
	}

	var observe []*html.Node
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	for _, f := range fresh {
		t.observed[f.container] = true
		if _, ok := t.states[f.ordinal]; !ok {
			t.states[f.ordinal] = State{}
		}
		t.active = f.identity

		total := len(f.children)
		for i, child := range f.children {
			reg := registration{
				container: f.ordinal,
				identity:  f.identity,
				percent:   (i + 1) * 100 / total,
			}
			if m, ok := sentinel.Parse(child); ok {
				reg.placement = m.Placement
			}
			t.regs[child] = reg
			observe = append(observe, child)
		}
		t.opts.Log.Debugf("tracking chapter %q (%d elements)", f.identity.Title, total)
	}
	t.mu.Unlock()

	for _, n := range observe {
		t.io.Observe(n)
	}
}

func (t *Tracker) onIntersect(entries []page.Entry, io *page.IntersectionObserver) {
	for _, e := range entries {
		if !e.IsIntersecting {
			continue
		}

		t.mu.Lock()
		reg, ok := t.regs[e.Target]
		if !ok || t.destroyed {
			t.mu.Unlock()
			continue
		}
		st := t.states[reg.container]

		var task func()
		switch {
		case reg.placement == sentinel.Top && !st.Started:
			st.Started = true
			task = func() { t.chapterStarted(reg) }
		case reg.placement == sentinel.Bottom && !st.Ended:
			st.Ended = true
			task = func() { t.chapterEnded(reg) }
		case st.Started && !st.Ended:
			task = func() { t.chapterProgressed(reg) }
		}
		t.states[reg.container] = st
		delete(t.regs, e.Target)
		t.mu.Unlock()

		io.Unobserve(e.Target)
		if task != nil {
			t.queue.push(task)
		}
	}
}

func (t *Tracker) chapterStarted(reg registration) {
	if t.novelID == 0 {
		return
	}
	ch, err := t.opts.Store.FindChapter(t.ctx, t.novelID, reg.identity.URL)
	if err != nil {
		t.opts.Log.Errorf("find chapter %s: %v", reg.identity.URL, err)
		return
	}
	if ch != nil {
		return
	}
	t.insert(reg, 0)
}

func (t *Tracker) chapterProgressed(reg registration) {
	if t.novelID == 0 {
		return
	}
	ch, err := t.opts.Store.FindChapter(t.ctx, t.novelID, reg.identity.URL)
	if err != nil {
		t.opts.Log.Errorf("find chapter %s: %v", reg.identity.URL, err)
		return
	}
	if ch == nil {
		t.insert(reg, reg.percent)
		return
	}
	if ch.ReadingCompletion >= reg.percent {
		return
	}
	if _, err := t.opts.Store.RaiseCompletion(t.ctx, ch.ID, reg.percent, t.opts.Now()); err != nil {
		t.opts.Log.Errorf("update progress of %s: %v", reg.identity.URL, err)
		return
	}
	t.opts.Log.Debugf("%q at %d%%", reg.identity.Title, reg.percent)
}

func (t *Tracker) chapterEnded(reg registration) {
	if t.novelID != 0 {
		t.complete(reg)
	}

	t.queue.begin()
	go func() {
		defer t.queue.done()
		id, err := t.opts.Loader.LoadNext(t.ctx, reg.identity.NextURL)
		if err != nil {
			t.opts.Log.Debugf("next chapter after %q: %v", reg.identity.Title, err)
			return
		}
		t.mu.Lock()
		t.active = id
		t.mu.Unlock()
	}()
}

func (t *Tracker) complete(reg registration) {
	ch, err := t.opts.Store.FindChapter(t.ctx, t.novelID, reg.identity.URL)
	if err != nil {
		t.opts.Log.Errorf("find chapter %s: %v", reg.identity.URL, err)
		return
	}
	if ch == nil {
		t.insert(reg, 100)
		return
	}

	full := 100
	now := t.opts.Now()
	if err := t.opts.Store.UpdateChapter(t.ctx, ch.ID, store.ChapterPatch{ReadingCompletion: &full, LastRead: &now}); err != nil {
		t.opts.Log.Errorf("complete %s: %v", reg.identity.URL, err)
	}
}

func (t *Tracker) insert(reg registration, pct int) {
	_, inserted, err := t.opts.Store.InsertChapter(t.ctx, store.Chapter{
		NovelID:           t.novelID,
		Link:              reg.identity.URL,
		Title:             reg.identity.Title,
		ReadingCompletion: pct,
		LastRead:          t.opts.Now(),
	})
	if err != nil {
		t.opts.Log.Errorf("record chapter %s: %v", reg.identity.URL, err)
		return
	}
	if inserted {
		t.opts.Log.Debugf("recorded %q at %d%%", reg.identity.Title, pct)
	}
}

// NovelID is the library id progress is recorded under, zero when the
// novel is not in the library.
func (t *Tracker) NovelID() int64 { return t.novelID }

// Active is the identity of the chapter most recently added to tracking.
func (t *Tracker) Active() sentinel.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// States returns a copy of the per-container progress, keyed by the
// container's position among chapter containers.
func (t *Tracker) States() map[int]State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int]State, len(t.states))
	for k, v := range t.states {
		out[k] = v
	}
	return out
}

// Wait blocks until queued store writes and next-chapter loads are done.
func (t *Tracker) Wait() {
	if t.queue != nil {
		t.queue.wait()
	}
}

// Destroy disconnects the observers and forgets all tracking state. A
// load already in flight is not cancelled.
func (t *Tracker) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.observed = make(map[*html.Node]bool)
	t.regs = make(map[*html.Node]registration)
	t.states = make(map[int]State)
	t.mu.Unlock()

	if t.io != nil {
		t.io.Disconnect()
	}
	if t.mo != nil {
		t.mo.Disconnect()
	}
	if t.queue != nil {
		t.queue.close()
	}
}

func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	r, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(r).String()
}
