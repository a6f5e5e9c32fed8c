// Package urlsync keeps the address bar on the chapter that dominates the
// viewport.
package urlsync

import (
	"context"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/sentinel"
	"github.com/brogergvhs/endless/internal/ui"
)

const (
	DefaultThreshold = 10
	DefaultDebounce  = 50 * time.Millisecond
	DefaultInterval  = time.Second
)

type Options struct {
	Page *page.Page
	Log  *ui.Logger

	// Threshold is the visible percentage a chapter must exceed to win.
	Threshold float64
	Debounce  time.Duration
	Interval  time.Duration
}

// Candidate is a chapter container with its rect relative to the top of
// the viewport.
type Candidate struct {
	URL  string
	Rect page.Rect
}

// Select returns the index of the candidate with the largest visible
// percentage, provided that percentage exceeds threshold. Visibility is
// measured against the smaller of the candidate and the viewport.
func Select(candidates []Candidate, viewportHeight int, threshold float64) (int, bool) {
	best, bestPct := -1, 0.0
	for i, c := range candidates {
		if c.Rect.Height <= 0 {
			continue
		}
		visible := min(c.Rect.Bottom(), viewportHeight) - max(c.Rect.Top, 0)
		pct := float64(visible) / float64(min(c.Rect.Height, viewportHeight)) * 100
		if pct > bestPct {
			best, bestPct = i, pct
		}
	}
	if best < 0 || bestPct <= threshold {
		return -1, false
	}
	return best, true
}

type Synchronizer struct {
	opts Options

	mu      sync.Mutex
	timer   *time.Timer
	remove  func()
	stop    chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

func New(o Options) *Synchronizer {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return &Synchronizer{opts: o}
}

// Start syncs after every burst of scrolling and on a fixed interval
// until Stop is called or ctx ends.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.remove = s.opts.Page.AddScrollListener(s.scrolled)
	s.mu.Unlock()

	go s.loop(ctx)
}

func (s *Synchronizer) loop(ctx context.Context) {
	defer close(s.done)

	tick := time.NewTicker(s.opts.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-tick.C:
			s.Sync()
		}
	}
}

func (s *Synchronizer) scrolled() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, func() {
		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if !stopped {
			s.Sync()
		}
	})
}

// Sync points the address bar at the dominant chapter. It reports whether
// the URL changed.
func (s *Synchronizer) Sync() bool {
	p := s.opts.Page

	var nodes []*html.Node
	p.View(func(doc *goquery.Document) {
		nodes = doc.Find("." + sentinel.ClassContainer).Nodes
	})

	vp := p.Viewport()
	candidates := make([]Candidate, 0, len(nodes))
	for _, n := range nodes {
		r, ok := p.Rect(n)
		if !ok {
			continue
		}
		r.Top -= vp.ScrollY
		candidates = append(candidates, Candidate{URL: sentinel.ReadIdentity(n).URL, Rect: r})
	}

	i, ok := Select(candidates, vp.Height, s.opts.Threshold)
	if !ok {
		return false
	}
	url := candidates[i].URL
	if url == "" || url == p.URL() {
		return false
	}

	p.ReplaceURL(url)
	s.opts.Log.Debugf("address bar -> %s", url)
	return true
}

// Stop removes the scroll listener and stops both triggers. It is safe to
// call more than once, and before Start.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	remove, stop, done := s.remove, s.stop, s.done
	s.mu.Unlock()

	if remove != nil {
		remove()
	}
	if stop != nil {
		close(stop)
		<-done
	}
}
