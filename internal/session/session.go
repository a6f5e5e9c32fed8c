// Package session opens a site page and manages the auto-loading engine
// that runs on chapter pages.
package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/endless/internal/loader"
	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/prefs"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/tracker"
	"github.com/brogergvhs/endless/internal/ui"
	"github.com/brogergvhs/endless/internal/urlsync"
)

const disableParam = "autoLoaderDisabled"

type Fetcher interface {
	loader.Fetcher
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

type Options struct {
	URL     string
	Fetcher Fetcher
	Store   tracker.Store
	Prefs   *prefs.Prefs
	Notices *notify.Center
	Log     *ui.Logger

	// Site skips hostname lookup when set.
	Site *sites.Site

	Width  int
	Height int

	VisibilityThreshold float64
	URLUpdateThreshold  float64
	ScrollDebounce      time.Duration
	SyncInterval        time.Duration
}

type Session struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	page     *page.Page
	site     *sites.Site
	pageType sites.PageType
	loader   *loader.Loader

	// suppressed is set by ?autoLoaderDisabled=true and keeps the engine
	// off on open, whatever the stored flag says.
	suppressed bool

	mu      sync.Mutex
	tracker *tracker.Tracker
	syncer  *urlsync.Synchronizer
	closed  bool
}

// Open fetches o.URL and builds the page. On chapter pages the engine is
// started when auto-loading is on and the URL does not disable it.
func Open(ctx context.Context, o Options) (*Session, error) {
	if o.Fetcher == nil || o.Prefs == nil {
		return nil, fmt.Errorf("session: fetcher and prefs are required")
	}

	site := o.Site
	if site == nil {
		var err error
		if site, err = sites.ForURL(o.URL); err != nil {
			return nil, err
		}
	}

	doc, err := o.Fetcher.FetchDocument(ctx, o.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.URL, err)
	}

	u, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		opts:       o,
		ctx:        sctx,
		cancel:     cancel,
		site:       site,
		pageType:   site.Detect(doc, u.Fragment),
		suppressed: u.Query().Get(disableParam) == "true",
	}
	s.page = page.New(doc, o.URL, page.Options{Width: o.Width, Height: o.Height})
	s.loader = loader.New(s.page, site, o.Fetcher, o.Notices, o.Log)
	o.Log.Debugf("opened %s as %s page on %s", o.URL, s.pageType, site.Host)

	if s.pageType != sites.PageChapter {
		return s, nil
	}

	on, err := o.Prefs.AutoLoad()
	if err != nil {
		o.Log.Warnf("read auto-load flag: %v", err)
	}
	if s.suppressed {
		o.Log.Infof("auto loader disabled by %s", disableParam)
		return s, nil
	}
	if on {
		s.start()
	}
	return s, nil
}

func (s *Session) Page() *page.Page { return s.page }

func (s *Session) Site() *sites.Site { return s.site }

func (s *Session) PageType() sites.PageType { return s.pageType }

func (s *Session) Notices() *notify.Center { return s.opts.Notices }

// Tracker is the live tracker, nil while the engine is off.
func (s *Session) Tracker() *tracker.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker
}

// Running reports whether the engine is live.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker != nil
}

// AutoLoad is the persisted flag.
func (s *Session) AutoLoad() bool {
	on, err := s.opts.Prefs.AutoLoad()
	if err != nil {
		s.opts.Log.Warnf("read auto-load flag: %v", err)
	}
	return on
}

// SetAutoLoad persists on and starts or stops the engine to match. Off
// the chapter pages only the flag changes.
func (s *Session) SetAutoLoad(on bool) error {
	if err := s.opts.Prefs.SetAutoLoad(on); err != nil {
		return fmt.Errorf("save auto-load flag: %w", err)
	}
	if s.pageType != sites.PageChapter {
		return nil
	}
	if on {
		s.start()
	} else {
		s.stop()
	}
	return nil
}

// Appearance is the stored reader appearance.
func (s *Session) Appearance() prefs.Appearance {
	return s.opts.Prefs.Appearance()
}

func (s *Session) SetAppearance(a prefs.Appearance) error {
	if err := s.opts.Prefs.SetAppearance(a); err != nil {
		return fmt.Errorf("save appearance: %w", err)
	}
	return nil
}

// Toggle flips the persisted flag and returns the new value.
func (s *Session) Toggle() (bool, error) {
	on := !s.AutoLoad()
	return on, s.SetAutoLoad(on)
}

func (s *Session) start() {
	s.mu.Lock()
	if s.closed || s.tracker != nil {
		s.mu.Unlock()
		return
	}
	t := tracker.New(tracker.Options{
		Page:      s.page,
		Site:      s.site,
		Store:     s.opts.Store,
		Loader:    s.loader,
		Notices:   s.opts.Notices,
		Log:       s.opts.Log,
		Threshold: s.opts.VisibilityThreshold,
	})
	sy := urlsync.New(urlsync.Options{
		Page:      s.page,
		Log:       s.opts.Log,
		Threshold: s.opts.URLUpdateThreshold,
		Debounce:  s.opts.ScrollDebounce,
		Interval:  s.opts.SyncInterval,
	})
	s.tracker, s.syncer = t, sy
	s.mu.Unlock()

	t.Start(s.ctx)
	sy.Start(s.ctx)
	s.opts.Log.Debugf("auto loader started")
}

func (s *Session) stop() {
	s.mu.Lock()
	t, sy := s.tracker, s.syncer
	s.tracker, s.syncer = nil, nil
	s.mu.Unlock()

	if t == nil {
		return
	}
	t.Destroy()
	sy.Stop()
	s.opts.Log.Debugf("auto loader stopped")
}

// Close stops the engine and cancels outstanding loads.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.cancel()
}
