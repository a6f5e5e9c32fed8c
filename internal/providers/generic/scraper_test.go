package generic_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/providers/generic"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/ui"
)

const kolChapter = `<html><body><article><div class="x"></div><style>.hid1{display:none} .hid2 span{}</style>
<div class="epwrapper">
  <div class="cat-series">Chapter 2</div>
  <div id="kol_content"><p>one</p><p class="hid1">secret</p>loose text<p>two</p></div>
  <div class="naveps"><div><div><a href="/series/n/ch-3/">next</a></div></div></div>
</div></article></body></html>`

const ceneleNovel = `<html><body>
<div class="post-title"><h1>My Novel</h1></div>
<div class="summary_image"><a><img src="/cover.jpg"></a></div>
<ul><li><ul><li><ul><li><a href="/1">1</a></li><li><a href="/2">2</a></li></ul></li></ul></li></ul>
</body></html>`

func serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/series/n/ch-2/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(kolChapter))
	})
	mux.HandleFunc("/series/n/empty/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="epwrapper"></div></body></html>`))
	})
	mux.HandleFunc("/cont/my-novel/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ceneleNovel))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func scraper(site string) *generic.Scraper {
	s, _ := sites.Lookup(site)
	return generic.NewScraper(http.DefaultClient, ui.NewFileLogger(false, nil), 1).ForSite(s)
}

func TestChapter_ExtractsContentAndDropsHiddenText(t *testing.T) {
	srv := serve(t)

	page, err := scraper("kolbook.xyz").Chapter(context.Background(), srv.URL+"/series/n/ch-2/")
	require.NoError(t, err)

	assert.Equal(t, "Chapter 2", page.Title)
	assert.Equal(t, srv.URL+"/series/n/ch-3/", page.NextURL)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, "one", dom.Text(page.Nodes[0]))
	assert.Equal(t, "two", dom.Text(page.Nodes[1]))
	for _, n := range page.Nodes {
		assert.Nil(t, n.Parent, "nodes are detached")
	}
}

func TestExtractChapter_BlankNextLink(t *testing.T) {
	site, _ := sites.Lookup("kolbook.xyz")
	for _, href := range []string{`href=""`, `href="  "`, ``} {
		markup := strings.Replace(kolChapter, `href="/series/n/ch-3/"`, href, 1)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		require.NoError(t, err)

		page, err := generic.ExtractChapter(doc, site, "https://kolbook.xyz/series/n/ch-2/")
		require.NoError(t, err)
		assert.Empty(t, page.NextURL, href)
	}
}

func TestChapter_Errors(t *testing.T) {
	srv := serve(t)
	s := scraper("kolbook.xyz")

	_, err := s.Chapter(context.Background(), srv.URL+"/series/n/empty/")
	assert.ErrorIs(t, err, providers.ErrContentNotFound)

	_, err = s.Chapter(context.Background(), srv.URL+"/missing")
	var httpErr *providers.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestChapter_UnknownSite(t *testing.T) {
	s := generic.NewScraper(http.DefaultClient, nil, 1)
	_, err := s.Chapter(context.Background(), "https://example.com/ch-1/")
	assert.Error(t, err)
}

func TestNovel(t *testing.T) {
	srv := serve(t)

	info, err := scraper("cenele.com").Novel(context.Background(), srv.URL+"/cont/my-novel/")
	require.NoError(t, err)

	assert.Equal(t, "my-novel", info.URI)
	assert.Equal(t, "My Novel", info.Name)
	assert.Equal(t, srv.URL+"/cover.jpg", info.Cover)
	assert.Equal(t, 2, info.Chapters)
}

func TestNovel_Fallbacks(t *testing.T) {
	srv := serve(t)

	// A kolbook-shaped scraper finds none of its selectors on this page.
	info, err := scraper("kolbook.xyz").Novel(context.Background(), srv.URL+"/cont/my-novel/")
	require.NoError(t, err)
	assert.Equal(t, "unknown", info.Name)
	assert.Equal(t, "#", info.Cover)
	assert.Equal(t, 0, info.Chapters)
}
