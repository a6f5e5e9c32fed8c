package library

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brogergvhs/endless/internal/notify"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
)

// Compare matches fresh metadata to stored novels by URI. A novel whose
// chapter count changed is an update; every other stored novel, fetched or
// not, is unchanged. Matched novels carry the fresh name, cover and count.
func Compare(old []store.Novel, fresh []providers.NovelInfo) (updates, unchanged []store.Novel) {
	byURI := make(map[string]providers.NovelInfo, len(fresh))
	for _, f := range fresh {
		byURI[f.URI] = f
	}

	for _, n := range old {
		f, ok := byURI[n.URI]
		if !ok {
			unchanged = append(unchanged, n)
			continue
		}
		merged := n
		merged.Name = f.Name
		merged.Cover = f.Cover
		merged.NovelChapters = f.Chapters
		if f.Chapters != n.NovelChapters {
			updates = append(updates, merged)
		} else {
			unchanged = append(unchanged, merged)
		}
	}
	return updates, unchanged
}

type RefreshResult struct {
	Updated   []store.Novel
	Unchanged []store.Novel
	Failed    map[string]error
}

// Refresh re-reads every novel's landing page and stores the new chapter
// counts. A page that cannot be fetched leaves its novel unchanged and is
// reported in Failed.
func (l *Library) Refresh(ctx context.Context, stats *ui.Stats) (*RefreshResult, error) {
	if stats == nil {
		stats = &ui.Stats{}
	}

	novels, err := l.opts.Store.ListNovels(ctx, "")
	if err != nil {
		return nil, err
	}
	res := &RefreshResult{Failed: make(map[string]error)}
	if len(novels) == 0 {
		return res, nil
	}

	var ph *ui.ProgressHandle
	if l.opts.Progress != nil {
		ph = l.opts.Progress.Register("refresh", "novels")
		ph.SetTotal(len(novels))
		defer ph.MarkDone()
	}

	workers := l.opts.Workers
	if workers > len(novels) {
		workers = len(novels)
	}

	var mu sync.Mutex
	fresh := make([]providers.NovelInfo, 0, len(novels))

	jobs := make(chan store.Novel)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for n := range jobs {
				info, err := l.check(gctx, n)
				stats.Checked.Add(1)

				mu.Lock()
				if err != nil {
					res.Failed[n.URI] = err
					stats.Failed.Add(1)
				} else {
					fresh = append(fresh, *info)
				}
				mu.Unlock()

				if ph != nil {
					ph.Step(err != nil)
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, n := range novels {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- n:
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Updated, res.Unchanged = Compare(novels, fresh)
	for _, n := range res.Updated {
		count, name, cover := n.NovelChapters, n.Name, n.Cover
		if err := l.opts.Store.UpdateNovel(ctx, n.ID, store.NovelPatch{
			Name:          &name,
			Cover:         &cover,
			NovelChapters: &count,
		}); err != nil {
			return nil, fmt.Errorf("save %s: %w", n.URI, err)
		}
		stats.Updated.Add(1)
		l.opts.Log.Infof("%q now has %d chapters", n.Name, n.NovelChapters)
	}

	switch {
	case len(res.Updated) > 0:
		l.notice(notify.Success, fmt.Sprintf("Successfully updated %d novels", len(res.Updated)))
	case len(res.Unchanged) > 0:
		l.notice(notify.Success, fmt.Sprintf("No updates found for %d novels", len(res.Unchanged)))
	}
	return res, nil
}

func (l *Library) check(ctx context.Context, n store.Novel) (*providers.NovelInfo, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url, err := l.opts.NovelURL(n)
	if err != nil {
		return nil, err
	}
	info, err := l.FetchNovelInfo(ctx, url)
	if err != nil {
		l.opts.Log.Warnf("refresh %s: %v", n.URI, err)
		return nil, err
	}
	// The stored slug wins over whatever the URL yields.
	info.URI = n.URI
	return info, nil
}
