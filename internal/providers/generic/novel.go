package generic

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sites"
)

// Novel fetches a novel's landing page.
func (s *Scraper) Novel(ctx context.Context, target string) (*providers.NovelInfo, error) {
	site, err := s.siteFor(target)
	if err != nil {
		return nil, err
	}

	doc, err := s.FetchDocument(ctx, target)
	if err != nil {
		return nil, err
	}

	info := ExtractNovel(doc, site, target)
	s.log.Debugf("novel %q (%s): %d chapters", info.Name, info.URI, info.Chapters)
	return info, nil
}

// ExtractNovel reads name, cover and chapter count. Missing name and cover
// fall back to "unknown" and "#".
func ExtractNovel(doc *goquery.Document, site *sites.Site, target string) *providers.NovelInfo {
	name := dom.CleanText(doc.Find(site.Novel.Title).First().Text())
	if name == "" {
		name = "unknown"
	}

	cover := "#"
	img := doc.Find(site.Novel.Cover).First()
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			cover = resolve(target, v)
			break
		}
	}

	return &providers.NovelInfo{
		URL:      target,
		URI:      sites.NovelURI(target),
		Name:     name,
		Cover:    cover,
		Chapters: doc.Find(site.Novel.Chapters).Length(),
	}
}
