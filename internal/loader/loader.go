// Package loader appends the next chapter to the page when the reader
// reaches the end of the current one.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sentinel"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/ui"
)

var (
	ErrNoNextChapter = errors.New("no next chapter")
	ErrInvalidURL    = errors.New("invalid next chapter URL")
	ErrAlreadyLoaded = errors.New("chapter already loaded")
	ErrNoAppendPoint = errors.New("append target not found")
)

const (
	msgNoNext       = "No next chapter found"
	msgInvalidURL   = "Invalid next chapter URL"
	msgLoadFailed   = "Error loading next chapter"
	msgNoContent    = "Chapter content not found"
	panelClass      = "chapter-options"
	panelLinkClass  = "chapter-options-link"
	msgNewChapterFm = "New Chapter: %s"
)

type Fetcher interface {
	Chapter(ctx context.Context, url string) (*providers.ChapterPage, error)
}

type Loader struct {
	page    *page.Page
	site    *sites.Site
	fetch   Fetcher
	notices *notify.Center
	log     *ui.Logger

	mu        sync.Mutex
	loaded    map[string]bool
	decorated map[string]bool
}

func New(p *page.Page, site *sites.Site, f Fetcher, notices *notify.Center, log *ui.Logger) *Loader {
	return &Loader{
		page:      p,
		site:      site,
		fetch:     f,
		notices:   notices,
		log:       log,
		loaded:    make(map[string]bool),
		decorated: make(map[string]bool),
	}
}

func (l *Loader) notice(v notify.Variant, msg string) {
	if l.notices != nil {
		l.notices.Show(notify.Notice{Message: msg, Variant: v})
	} else {
		l.log.Infof("%s", msg)
	}
}

// LoadNext fetches the chapter at next and appends it to the page as a
// tracked container. Failures leave the page untouched and are reported
// both as a notice and as the returned error.
func (l *Loader) LoadNext(ctx context.Context, next string) (sentinel.Identity, error) {
	if next == "" || next == sentinel.NoNextChapter {
		l.notice(notify.Warning, msgNoNext)
		return sentinel.Identity{}, ErrNoNextChapter
	}

	u, err := resolve(l.page.URL(), next)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		l.notice(notify.Error, msgInvalidURL)
		return sentinel.Identity{}, fmt.Errorf("%w: %q", ErrInvalidURL, next)
	}
	target := u.String()

	l.mu.Lock()
	if l.loaded[target] {
		l.mu.Unlock()
		return sentinel.Identity{}, fmt.Errorf("%w: %s", ErrAlreadyLoaded, target)
	}
	l.loaded[target] = true
	l.mu.Unlock()

	ch, err := l.fetch.Chapter(ctx, target)
	if err != nil {
		l.forget(target)
		l.log.Errorf("fetch next chapter %s: %v", target, err)
		if errors.Is(err, providers.ErrContentNotFound) {
			l.notice(notify.Error, msgNoContent)
		} else {
			l.notice(notify.Error, msgLoadFailed)
		}
		return sentinel.Identity{}, fmt.Errorf("load %s: %w", target, err)
	}

	id := sentinel.Identity{URL: target, Title: ch.Title, NextURL: ch.NextURL}
	if !id.HasNext() {
		id.NextURL = sentinel.NoNextChapter
	}

	container := sentinel.Build(id, ch.Nodes)
	l.Decorate(container, id)

	if !l.page.AppendTo(l.site.Selectors.AppendTo, container) {
		l.forget(target)
		l.notice(notify.Error, msgLoadFailed)
		return sentinel.Identity{}, fmt.Errorf("%w: %q", ErrNoAppendPoint, l.site.Selectors.AppendTo)
	}

	l.notice(notify.Success, fmt.Sprintf(msgNewChapterFm, id.Title))
	return id, nil
}

// resolve makes next absolute against the page's current address.
func resolve(base, next string) (*url.URL, error) {
	ref, err := url.Parse(next)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return b.ResolveReference(ref), nil
}

func (l *Loader) forget(target string) {
	l.mu.Lock()
	delete(l.loaded, target)
	l.mu.Unlock()
}

// Decorate adds the navigation panel to a chapter container, once per
// chapter URL. The panel goes before the bottom marker when the container
// already has one.
func (l *Loader) Decorate(container *html.Node, id sentinel.Identity) bool {
	l.mu.Lock()
	if l.decorated[id.URL] {
		l.mu.Unlock()
		return false
	}
	l.decorated[id.URL] = true
	l.loaded[id.URL] = true
	l.mu.Unlock()

	panel := l.panel(id)

	var bottom *html.Node
	for c := container.LastChild; c != nil; c = c.PrevSibling {
		if m, ok := sentinel.Parse(c); ok && m.Placement == sentinel.Bottom {
			bottom = c
			break
		}
	}
	if bottom != nil {
		container.InsertBefore(panel, bottom)
	} else {
		container.AppendChild(panel)
	}
	return true
}

func (l *Loader) panel(id sentinel.Identity) *html.Node {
	href, disabled := "#", "true"
	if id.HasNext() {
		href, disabled = id.NextURL, "false"
	}

	link := func(href, text string) *html.Node {
		return dom.Div(dom.Options{Children: []*html.Node{
			dom.Link(href, text, panelLinkClass, html.Attribute{Key: "data-disabled", Val: disabled}),
		}})
	}

	return dom.Div(dom.Options{
		Class: panelClass,
		Children: []*html.Node{
			link(href, "Next Chapter"),
			link(l.site.LibraryURL(), "Library"),
		},
	})
}
