package providers

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

var ErrContentNotFound = errors.New("chapter content not found")

// HTTPError is a fetch that completed with a non-2xx status.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.Status, e.URL)
}

// ChapterPage is a chapter fetched from its own page, reduced to what
// gets spliced into the reader.
type ChapterPage struct {
	URL     string
	Title   string
	NextURL string
	Nodes   []*html.Node
}

type NovelInfo struct {
	URL      string
	URI      string
	Name     string
	Cover    string
	Chapters int
}

type Scraper interface {
	Chapter(ctx context.Context, url string) (*ChapterPage, error)
	Novel(ctx context.Context, url string) (*NovelInfo, error)
}
