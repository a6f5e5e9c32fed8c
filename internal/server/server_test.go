package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/library"
	"github.com/brogergvhs/endless/internal/prefs"
	"github.com/brogergvhs/endless/internal/providers/generic"
	"github.com/brogergvhs/endless/internal/server"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/store"
)

const novelPage = `<html><body class="manga-page">` +
	`<div class="post-title"><h1>My Novel</h1></div>` +
	`<ul><li><ul><li><ul><li><a href="/1">1</a></li><li><a href="/2">2</a></li></ul></li></ul></li></ul>` +
	`</body></html>`

type fixture struct {
	site  *httptest.Server
	store *store.Store
	prefs *prefs.Prefs
	h     http.Handler
}

func setup(t *testing.T) *fixture {
	t.Helper()

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cont/my-novel/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(novelPage))
	}))
	t.Cleanup(site.Close)

	st, err := store.Open(store.Memory, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	p, err := prefs.Open(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)

	cenele, _ := sites.Lookup("cenele.com")
	lib := library.New(library.Options{
		Store:   st,
		Fetcher: generic.NewScraper(site.Client(), nil, 1).ForSite(cenele),
		Rate:    1000,
		Site:    cenele,
		NovelURL: func(n store.Novel) (string, error) {
			return site.URL + "/cont/" + n.URI + "/", nil
		},
	})

	return &fixture{
		site:  site,
		store: st,
		prefs: p,
		h:     server.New(server.Options{Library: lib, Store: st, Prefs: p}).Handler(),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (f *fixture) seed(t *testing.T, uri string, status store.Status) int64 {
	t.Helper()
	id, err := f.store.InsertNovel(context.Background(), store.Novel{URI: uri, Name: uri, Status: status})
	require.NoError(t, err)
	return id
}

func TestHealth(t *testing.T) {
	f := setup(t)
	rec, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestAddNovel(t *testing.T) {
	f := setup(t)

	rec, body := f.do(t, http.MethodPost, "/api/novels", map[string]string{
		"url":    f.site.URL + "/cont/my-novel/",
		"status": "planToRead",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "my-novel", body["uri"])
	assert.Equal(t, "My Novel", body["name"])
	assert.Equal(t, "planToRead", body["status"])
	assert.EqualValues(t, 2, body["novelChapters"])

	rec, _ = f.do(t, http.MethodPost, "/api/novels", map[string]string{"url": f.site.URL + "/cont/missing/"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/novels", map[string]string{"url": f.site.URL + "/cont/my-novel/", "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/novels", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNovels(t *testing.T) {
	f := setup(t)
	f.seed(t, "a", store.StatusReading)
	f.seed(t, "b", store.StatusDropped)

	rec, body := f.do(t, http.MethodGet, "/api/novels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])

	rec, body = f.do(t, http.MethodGet, "/api/novels?status=dropped", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	rec, _ = f.do(t, http.MethodGet, "/api/novels?status=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = f.do(t, http.MethodGet, "/api/library", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := body["groups"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, "reading", groups[0].(map[string]any)["status"])
}

func TestNovelByID(t *testing.T) {
	f := setup(t)
	id := f.seed(t, "a", store.StatusReading)
	path := fmt.Sprintf("/api/novels/%d", id)

	rec, body := f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", body["uri"])

	rec, body = f.do(t, http.MethodPatch, path, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["status"])

	rec, _ = f.do(t, http.MethodPatch, path, map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, _, err := f.store.InsertChapter(context.Background(), store.Chapter{NovelID: id, Link: "x", ReadingCompletion: 50, LastRead: time.Now()})
	require.NoError(t, err)

	rec, body = f.do(t, http.MethodGet, path+"/chapters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	rec, body = f.do(t, http.MethodGet, path+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["chaptersRead"])
	assert.EqualValues(t, 50, body["averageCompletion"])

	rec, _ = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/novels/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	f := setup(t)
	f.seed(t, "my-novel", store.StatusReading)

	rec, body := f.do(t, http.MethodPost, "/api/library/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["updated"], 1)

	n, err := f.store.FindNovelByURI(context.Background(), "my-novel")
	require.NoError(t, err)
	assert.Equal(t, 2, n.NovelChapters)
}

func TestAutoLoadSetting(t *testing.T) {
	f := setup(t)

	rec, body := f.do(t, http.MethodGet, "/api/settings/autoload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["enabled"])

	rec, body = f.do(t, http.MethodPut, "/api/settings/autoload", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["enabled"])

	on, err := f.prefs.AutoLoad()
	require.NoError(t, err)
	assert.True(t, on)

	rec, _ = f.do(t, http.MethodPut, "/api/settings/autoload", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
