package urlsync_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/page"
	"github.com/brogergvhs/endless/internal/urlsync"
)

func TestSelect(t *testing.T) {
	// Viewport of 100 rows: A covers 80 of them, B 15.
	candidates := []urlsync.Candidate{
		{URL: "A", Rect: page.Rect{Top: -420, Height: 500}},
		{URL: "B", Rect: page.Rect{Top: 85, Height: 300}},
	}

	i, ok := urlsync.Select(candidates, 100, 10)
	require.True(t, ok)
	assert.Equal(t, "A", candidates[i].URL)

	_, ok = urlsync.Select(candidates, 100, 85)
	assert.False(t, ok)

	_, ok = urlsync.Select(nil, 100, 10)
	assert.False(t, ok)
}

func TestSelect_ShortChapterFullyVisibleWins(t *testing.T) {
	candidates := []urlsync.Candidate{
		{URL: "tall", Rect: page.Rect{Top: -50, Height: 60}},
		{URL: "short", Rect: page.Rect{Top: 12, Height: 5}},
		{URL: "empty", Rect: page.Rect{Top: 0, Height: 0}},
	}

	i, ok := urlsync.Select(candidates, 20, 10)
	require.True(t, ok)
	assert.Equal(t, "short", candidates[i].URL)
}

// twoChapters lays out chapter A on rows 0-9 and chapter B on rows 10-19.
func twoChapters(t *testing.T) *page.Page {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<html><body>`)
	for _, name := range []string{"A", "B"} {
		fmt.Fprintf(&b, `<div class="chapter-container track-content" data-url="https://cenele.com/%s/">`, name)
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, `<div>%s %d</div>`, name, i)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</body></html>`)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	require.NoError(t, err)
	return page.New(doc, "https://cenele.com/A/", page.Options{Width: 40, Height: 5})
}

func TestSync(t *testing.T) {
	p := twoChapters(t)
	s := urlsync.New(urlsync.Options{Page: p})

	assert.False(t, s.Sync(), "A already in the address bar")

	p.ScrollTo(12)
	assert.True(t, s.Sync())
	assert.Equal(t, "https://cenele.com/B/", p.URL())

	// Straddling both chapters at 60/40 still favours the larger share.
	p.ScrollTo(7)
	assert.True(t, s.Sync())
	assert.Equal(t, "https://cenele.com/A/", p.URL())
}

func TestSync_ThresholdBlocksUpdate(t *testing.T) {
	p := twoChapters(t)
	s := urlsync.New(urlsync.Options{Page: p, Threshold: 100})

	p.ScrollTo(12)
	assert.False(t, s.Sync())
	assert.Equal(t, "https://cenele.com/A/", p.URL())
}

func TestStart_DebouncedScrollUpdatesURL(t *testing.T) {
	p := twoChapters(t)
	s := urlsync.New(urlsync.Options{Page: p, Debounce: 10 * time.Millisecond, Interval: time.Hour})
	s.Start(context.Background())
	defer s.Stop()

	p.ScrollTo(12)
	assert.Eventually(t, func() bool {
		return p.URL() == "https://cenele.com/B/"
	}, time.Second, 5*time.Millisecond)
}

func TestStart_IntervalUpdatesURL(t *testing.T) {
	p := twoChapters(t)
	s := urlsync.New(urlsync.Options{Page: p, Interval: 10 * time.Millisecond})

	// Move before starting so only the ticker can notice.
	p.ScrollTo(12)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return p.URL() == "https://cenele.com/B/"
	}, time.Second, 5*time.Millisecond)
}

func TestStop_IsIdempotentAndReleasesListener(t *testing.T) {
	p := twoChapters(t)
	s := urlsync.New(urlsync.Options{Page: p, Debounce: 10 * time.Millisecond, Interval: 10 * time.Millisecond})

	s.Start(context.Background())
	assert.Equal(t, 1, p.Stats().ScrollListeners)

	s.Stop()
	s.Stop()
	assert.Equal(t, 0, p.Stats().ScrollListeners)

	p.ScrollTo(12)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "https://cenele.com/A/", p.URL())

	urlsync.New(urlsync.Options{Page: p}).Stop()
}
