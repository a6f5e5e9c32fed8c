package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
)

func open(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Memory, ui.NewFileLogger(false, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func novel(t *testing.T, s *store.Store, uri string) int64 {
	t.Helper()
	id, err := s.InsertNovel(context.Background(), store.Novel{URI: uri, Name: uri})
	require.NoError(t, err)
	return id
}

func TestNovels_CRUD(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	id := novel(t, s, "my-novel")

	n, err := s.FindNovelByURI(ctx, "my-novel")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, store.StatusReading, n.Status)
	assert.Equal(t, store.DefaultSite, n.Site)
	assert.False(t, n.CreatedAt.IsZero())

	missing, err := s.FindNovelByURI(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.InsertNovel(ctx, store.Novel{URI: "my-novel"})
	assert.ErrorIs(t, err, store.ErrNovelExists)

	paused := store.StatusPaused
	count := 120
	require.NoError(t, s.UpdateNovel(ctx, id, store.NovelPatch{Status: &paused, NovelChapters: &count}))

	n, err = s.GetNovel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPaused, n.Status)
	assert.Equal(t, 120, n.NovelChapters)

	bad := store.Status("archived")
	assert.ErrorIs(t, s.UpdateNovel(ctx, id, store.NovelPatch{Status: &bad}), store.ErrInvalidStatus)
	assert.ErrorIs(t, s.UpdateNovel(ctx, 999, store.NovelPatch{Status: &paused}), store.ErrNotFound)

	novel(t, s, "other")
	list, err := s.ListNovels(ctx, store.StatusPaused)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "my-novel", list[0].URI)

	filtered, err := s.FilterNovels(ctx, func(n store.Novel) bool { return n.URI == "other" })
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	require.NoError(t, s.DeleteNovel(ctx, id))
	assert.ErrorIs(t, s.DeleteNovel(ctx, id), store.ErrNotFound)
}

func TestInsertNovel_KeepsSite(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	id, err := s.InsertNovel(ctx, store.Novel{URI: "kol", Site: "kolbook.xyz", Status: store.StatusPlanToRead})
	require.NoError(t, err)

	n, err := s.GetNovel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kolbook.xyz", n.Site)
	assert.Equal(t, store.StatusPlanToRead, n.Status)
}

func TestChapters_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	c := store.Chapter{NovelID: nid, Link: "https://cenele.com/cont/n/1/", Title: "One"}
	id, inserted, err := s.InsertChapter(ctx, c)
	require.NoError(t, err)
	assert.True(t, inserted)

	c.ReadingCompletion = 50
	again, inserted, err := s.InsertChapter(ctx, c)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id, again)

	got, err := s.FindChapter(ctx, nid, c.Link)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReadingCompletion, "conflicting insert must not overwrite")
}

func TestChapters_ConcurrentInsertsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "same"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := s.ListChapters(ctx, nid)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestChapters_RaiseCompletionIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	id, _, err := s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "l", ReadingCompletion: 40})
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	changed, err := s.RaiseCompletion(ctx, id, 30, at)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.RaiseCompletion(ctx, id, 60, at)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := s.FindChapter(ctx, nid, "l")
	require.NoError(t, err)
	assert.Equal(t, 60, got.ReadingCompletion)
	assert.True(t, got.LastRead.Equal(at))

	_, err = s.RaiseCompletion(ctx, id, 101, at)
	assert.ErrorIs(t, err, store.ErrInvalidCompletion)
}

func TestChapters_UpdateFilterDelete(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	a, _, _ := s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "a"})
	_, _, _ = s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "b"})

	full := 100
	require.NoError(t, s.UpdateChapter(ctx, a, store.ChapterPatch{ReadingCompletion: &full}))

	done, err := s.FilterChapters(ctx, nid, func(c store.Chapter) bool { return c.ReadingCompletion == 100 })
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a", done[0].Link)

	over := 150
	assert.ErrorIs(t, s.UpdateChapter(ctx, a, store.ChapterPatch{ReadingCompletion: &over}), store.ErrInvalidCompletion)

	require.NoError(t, s.DeleteChapter(ctx, a))
	assert.ErrorIs(t, s.DeleteChapter(ctx, a), store.ErrNotFound)
}

func TestDeleteNovel_CascadesToChapters(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	_, _, err := s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "a"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteNovel(ctx, nid))

	got, err := s.FindChapter(ctx, nid, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	nid := novel(t, s, "n")

	p, err := s.Progress(ctx, nid)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ChaptersRead)
	assert.Nil(t, p.LastRead)

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	_, _, _ = s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "a", ReadingCompletion: 100, LastRead: older})
	_, _, _ = s.InsertChapter(ctx, store.Chapter{NovelID: nid, Link: "b", ReadingCompletion: 50, LastRead: newer})

	p, err = s.Progress(ctx, nid)
	require.NoError(t, err)
	assert.Equal(t, 2, p.ChaptersRead)
	assert.InDelta(t, 75, p.AverageCompletion, 0.001)
	require.NotNil(t, p.LastRead)
	assert.Equal(t, "b", p.LastRead.Link)
}

func TestOpen_FileReopensMigrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	log := ui.NewFileLogger(false, nil)

	s, err := store.Open(path, log)
	require.NoError(t, err)
	novel(t, s, "kept")
	require.NoError(t, s.Close())

	s, err = store.Open(path, log)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.FindNovelByURI(context.Background(), "kept")
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestParseStatus(t *testing.T) {
	st, err := store.ParseStatus("planToRead")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPlanToRead, st)

	_, err = store.ParseStatus("reading ")
	assert.ErrorIs(t, err, store.ErrInvalidStatus)
}
