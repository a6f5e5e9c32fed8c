// Package library manages the novels the reader follows: adding them from
// their landing pages, grouping them by status and checking the sites for
// new chapters.
package library

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
)

const (
	msgAdded    = "Added to library"
	msgPlanning = "Planning to read"
	msgRemoved  = "Removed from library"
)

type Fetcher interface {
	Novel(ctx context.Context, url string) (*providers.NovelInfo, error)
}

type Options struct {
	Store   *store.Store
	Fetcher Fetcher
	Notices *notify.Center
	Log     *ui.Logger

	// Workers and Rate bound Refresh: concurrent page fetches and fetches
	// per second.
	Workers int
	Rate    float64

	// Progress renders a bar during Refresh when set.
	Progress *ui.MPBProgressManager

	// Site pins the site new novels are recorded under instead of looking
	// it up from the URL host.
	Site *sites.Site

	// NovelURL overrides where Refresh fetches a novel's landing page.
	NovelURL func(n store.Novel) (string, error)
}

type Library struct {
	opts    Options
	limiter *rate.Limiter
}

func New(o Options) *Library {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Rate <= 0 {
		o.Rate = 1
	}
	if o.NovelURL == nil {
		o.NovelURL = landingPage
	}
	return &Library{
		opts:    o,
		limiter: rate.NewLimiter(rate.Limit(o.Rate), o.Workers),
	}
}

func landingPage(n store.Novel) (string, error) {
	site, ok := sites.Lookup(n.Site)
	if !ok {
		return "", fmt.Errorf("unsupported site: %q", n.Site)
	}
	return site.NovelURL(n.URI), nil
}

func (l *Library) notice(v notify.Variant, msg string) {
	if l.opts.Notices != nil {
		l.opts.Notices.Show(notify.Notice{Message: msg, Variant: v})
	}
}

// FetchNovelInfo reads a novel's metadata from its landing page.
func (l *Library) FetchNovelInfo(ctx context.Context, url string) (*providers.NovelInfo, error) {
	info, err := l.opts.Fetcher.Novel(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch novel %s: %w", url, err)
	}
	return info, nil
}

// Add stores the novel at url with status, reading when empty. A novel
// already in the library only has its status changed.
func (l *Library) Add(ctx context.Context, url string, status store.Status) (*store.Novel, error) {
	if status == "" {
		status = store.StatusReading
	}
	if _, err := store.ParseStatus(string(status)); err != nil {
		return nil, err
	}

	site := l.opts.Site
	if site == nil {
		var err error
		if site, err = sites.ForURL(url); err != nil {
			return nil, err
		}
	}

	info, err := l.FetchNovelInfo(ctx, url)
	if err != nil {
		return nil, err
	}
	if info.URI == "" {
		return nil, fmt.Errorf("no novel slug in %s", url)
	}

	existing, err := l.opts.Store.FindNovelByURI(ctx, info.URI)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := l.opts.Store.UpdateNovel(ctx, existing.ID, store.NovelPatch{Status: &status}); err != nil {
			return nil, err
		}
		existing.Status = status
		l.announce(status)
		return existing, nil
	}

	n := store.Novel{
		URI:           info.URI,
		Site:          site.Host,
		Name:          info.Name,
		Cover:         info.Cover,
		Status:        status,
		NovelChapters: info.Chapters,
		CreatedAt:     time.Now().UTC(),
	}
	id, err := l.opts.Store.InsertNovel(ctx, n)
	if err != nil {
		return nil, err
	}
	n.ID = id
	l.opts.Log.Infof("added %q (%d chapters) as %s", n.Name, n.NovelChapters, n.Status)
	l.announce(status)
	return &n, nil
}

func (l *Library) announce(status store.Status) {
	if status == store.StatusPlanToRead {
		l.notice(notify.Warning, msgPlanning)
		return
	}
	l.notice(notify.Success, msgAdded)
}

// Get returns the novel stored under uri or store.ErrNotFound.
func (l *Library) Get(ctx context.Context, uri string) (*store.Novel, error) {
	n, err := l.opts.Store.FindNovelByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, uri)
	}
	return n, nil
}

// Remove deletes the novel and its reading history.
func (l *Library) Remove(ctx context.Context, uri string) error {
	n, err := l.Get(ctx, uri)
	if err != nil {
		return err
	}
	if err := l.opts.Store.DeleteNovel(ctx, n.ID); err != nil {
		return err
	}
	l.notice(notify.Success, msgRemoved)
	return nil
}

func (l *Library) SetStatus(ctx context.Context, uri string, status store.Status) error {
	n, err := l.Get(ctx, uri)
	if err != nil {
		return err
	}
	return l.opts.Store.UpdateNovel(ctx, n.ID, store.NovelPatch{Status: &status})
}

type Group struct {
	Status store.Status
	Label  string
	Novels []store.Novel
}

var labels = map[store.Status]string{
	store.StatusReading:    "Currently reading",
	store.StatusCompleted:  "Completed",
	store.StatusDropped:    "Dropped",
	store.StatusPaused:     "Paused",
	store.StatusPlanToRead: "Plan to read",
}

func Label(s store.Status) string {
	return labels[s]
}

// Groups returns the non-empty status groups in display order.
func (l *Library) Groups(ctx context.Context) ([]Group, error) {
	all, err := l.opts.Store.ListNovels(ctx, "")
	if err != nil {
		return nil, err
	}
	byStatus := make(map[store.Status][]store.Novel)
	for _, n := range all {
		byStatus[n.Status] = append(byStatus[n.Status], n)
	}

	var out []Group
	for _, st := range store.Statuses {
		if len(byStatus[st]) == 0 {
			continue
		}
		out = append(out, Group{Status: st, Label: Label(st), Novels: byStatus[st]})
	}
	return out, nil
}

type Progress struct {
	Novel store.Novel
	store.NovelProgress
}

// Progress summarizes what has been read of the novel stored under uri.
func (l *Library) Progress(ctx context.Context, uri string) (*Progress, error) {
	n, err := l.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	p, err := l.opts.Store.Progress(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	return &Progress{Novel: *n, NovelProgress: p}, nil
}
