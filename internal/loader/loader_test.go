package loader_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/loader"
	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sentinel"
	"github.com/brogergvhs/endless/internal/sites"
)

type fakeFetcher struct {
	calls atomic.Int32
	fn    func(url string) (*providers.ChapterPage, error)
}

func (f *fakeFetcher) Chapter(_ context.Context, url string) (*providers.ChapterPage, error) {
	f.calls.Add(1)
	return f.fn(url)
}

func chapter(url, title, next string) *providers.ChapterPage {
	return &providers.ChapterPage{
		URL:     url,
		Title:   title,
		NextURL: next,
		Nodes: []*html.Node{
			dom.Element("p", dom.Options{Text: "first"}),
			dom.Element("p", dom.Options{Text: "second"}),
		},
	}
}

type fixture struct {
	page    *page.Page
	notices *notify.Center
	fetch   *fakeFetcher
	loader  *loader.Loader
}

func setup(t *testing.T, body string) *fixture {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	site, _ := sites.Lookup("cenele.com")
	f := &fixture{
		page:    page.New(doc, "https://cenele.com/cont/n/1/", page.Options{Width: 80, Height: 20}),
		notices: notify.New(nil, time.Minute),
		fetch:   &fakeFetcher{},
	}
	t.Cleanup(f.notices.DismissAll)
	f.loader = loader.New(f.page, site, f.fetch, f.notices, nil)
	return f
}

const body = `<html><body><div class="reading-content"><div class="text-right"><p>current</p></div></div></body></html>`

func (f *fixture) lastNotice(t *testing.T) notify.Notice {
	t.Helper()
	active := f.notices.Active()
	require.NotEmpty(t, active)
	return active[len(active)-1]
}

func TestLoadNext_NoNextChapter(t *testing.T) {
	for _, next := range []string{"", "404"} {
		f := setup(t, body)

		_, err := f.loader.LoadNext(context.Background(), next)
		assert.ErrorIs(t, err, loader.ErrNoNextChapter)
		assert.Equal(t, int32(0), f.fetch.calls.Load())

		n := f.lastNotice(t)
		assert.Equal(t, "No next chapter found", n.Message)
		assert.Equal(t, notify.Warning, n.Variant)
	}
}

func TestLoadNext_InvalidURL(t *testing.T) {
	for _, next := range []string{"%zz", "http://[::1", "ftp://cenele.com/x", "http://", "mailto:a@b.c"} {
		f := setup(t, body)

		_, err := f.loader.LoadNext(context.Background(), next)
		assert.ErrorIs(t, err, loader.ErrInvalidURL, next)
		assert.Equal(t, int32(0), f.fetch.calls.Load())
		assert.Equal(t, "Invalid next chapter URL", f.lastNotice(t).Message)
		assert.Equal(t, notify.Error, f.lastNotice(t).Variant)
	}
}

func TestLoadNext_ResolvesRelativeURL(t *testing.T) {
	cases := map[string]string{
		"/cont/n/2/":                   "https://cenele.com/cont/n/2/",
		"../2/":                        "https://cenele.com/cont/n/2/",
		"//cenele.com/cont/n/3/":       "https://cenele.com/cont/n/3/",
		"https://cenele.com/cont/n/4/": "https://cenele.com/cont/n/4/",
	}
	for next, want := range cases {
		f := setup(t, body)
		var got string
		f.fetch.fn = func(u string) (*providers.ChapterPage, error) {
			got = u
			return chapter(u, "Two", ""), nil
		}

		id, err := f.loader.LoadNext(context.Background(), next)
		require.NoError(t, err, next)
		assert.Equal(t, want, got, next)
		assert.Equal(t, want, id.URL, next)
		assert.Equal(t, int32(1), f.fetch.calls.Load())
	}
}

func TestLoadNext_FetchFailureLeavesPageAlone(t *testing.T) {
	f := setup(t, body)
	before := f.page.Lines()

	f.fetch.fn = func(string) (*providers.ChapterPage, error) {
		return nil, &providers.HTTPError{URL: "u", Status: 503}
	}

	_, err := f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	var httpErr *providers.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.Status)
	assert.Equal(t, "Error loading next chapter", f.lastNotice(t).Message)
	assert.Equal(t, before, f.page.Lines())

	// a failed load may be retried
	f.fetch.fn = func(u string) (*providers.ChapterPage, error) { return chapter(u, "Two", ""), nil }
	_, err = f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	assert.NoError(t, err)
}

func TestLoadNext_ContentNotFound(t *testing.T) {
	f := setup(t, body)
	f.fetch.fn = func(string) (*providers.ChapterPage, error) {
		return nil, providers.ErrContentNotFound
	}

	_, err := f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	assert.ErrorIs(t, err, providers.ErrContentNotFound)
	assert.Equal(t, "Chapter content not found", f.lastNotice(t).Message)
}

func TestLoadNext_AppendsSentinelContainer(t *testing.T) {
	f := setup(t, body)
	f.fetch.fn = func(u string) (*providers.ChapterPage, error) { return chapter(u, "Two", ""), nil }

	var added []*html.Node
	f.page.ObserveMutations(func(n []*html.Node) { added = append(added, n...) })

	id, err := f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	require.NoError(t, err)
	assert.Equal(t, sentinel.Identity{
		URL:     "https://cenele.com/cont/n/2/",
		Title:   "Two",
		NextURL: sentinel.NoNextChapter,
	}, id)

	require.Len(t, added, 1)
	c := added[0]
	assert.True(t, sentinel.IsContainer(c))
	assert.Equal(t, id, sentinel.ReadIdentity(c))

	var parentClass string
	f.page.View(func(doc *goquery.Document) {
		parentClass, _ = dom.Attr(c.Parent, "class")
	})
	assert.Equal(t, "reading-content", parentClass)

	var shape []string
	for _, ch := range dom.ElementChildren(c) {
		if m, ok := sentinel.Parse(ch); ok {
			shape = append(shape, string(m.Placement))
		} else if dom.HasClass(ch, "chapter-options") {
			shape = append(shape, "panel")
		} else {
			shape = append(shape, ch.Data)
		}
	}
	assert.Equal(t, []string{"top", "p", "p", "middle", "panel", "bottom"}, shape)

	n := f.lastNotice(t)
	assert.Equal(t, "New Chapter: Two", n.Message)
	assert.Equal(t, notify.Success, n.Variant)

	_, err = f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	assert.ErrorIs(t, err, loader.ErrAlreadyLoaded)
	assert.Equal(t, int32(1), f.fetch.calls.Load())
}

func TestLoadNext_NoAppendTarget(t *testing.T) {
	f := setup(t, `<html><body><p>nothing here</p></body></html>`)
	f.fetch.fn = func(u string) (*providers.ChapterPage, error) { return chapter(u, "Two", ""), nil }

	_, err := f.loader.LoadNext(context.Background(), "https://cenele.com/cont/n/2/")
	assert.ErrorIs(t, err, loader.ErrNoAppendPoint)
}

func TestDecorate_OncePerURL(t *testing.T) {
	f := setup(t, body)
	id := sentinel.Identity{URL: "https://cenele.com/cont/n/1/", Title: "One", NextURL: "https://cenele.com/cont/n/2/"}

	c := dom.Div(dom.Options{})
	assert.True(t, f.loader.Decorate(c, id))
	assert.False(t, f.loader.Decorate(c, id))
	require.Len(t, dom.ElementChildren(c), 1)

	var hrefs []string
	goquery.NewDocumentFromNode(c).Find("a").Each(func(_ int, s *goquery.Selection) {
		h, _ := s.Attr("href")
		hrefs = append(hrefs, h)
	})
	assert.Equal(t, []string{id.NextURL, "https://cenele.com/my-account/#user-library"}, hrefs)

	// the decorated chapter is on the page already
	_, err := f.loader.LoadNext(context.Background(), id.URL)
	assert.True(t, errors.Is(err, loader.ErrAlreadyLoaded))
}
