package generic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/endless/internal/dom"
	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sites"
)

const unknownChapter = "Unknown Chapter"

var styleClassRe = regexp.MustCompile(`\.([a-zA-Z_][a-zA-Z0-9_-]*)`)

// Chapter fetches a chapter page and detaches its content.
func (s *Scraper) Chapter(ctx context.Context, target string) (*providers.ChapterPage, error) {
	site, err := s.siteFor(target)
	if err != nil {
		return nil, err
	}

	doc, err := s.FetchDocument(ctx, target)
	if err != nil {
		return nil, err
	}

	page, err := ExtractChapter(doc, site, target)
	if err != nil {
		return nil, err
	}

	s.log.Debugf("chapter %q: %d nodes, next=%s", page.Title, len(page.Nodes), page.NextURL)
	return page, nil
}

// ExtractChapter reduces a parsed chapter page to its content. Elements
// hidden by the site's anti-copy stylesheet are dropped first.
func ExtractChapter(doc *goquery.Document, site *sites.Site, target string) (*providers.ChapterPage, error) {
	container := doc.Find(site.Selectors.ContentContainer).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q", providers.ErrContentNotFound, site.Selectors.ContentContainer)
	}

	if site.HiddenStyle != "" {
		for _, class := range HiddenClasses(doc, site.HiddenStyle) {
			container.Find("." + class).Remove()
		}
	}

	content := container.Find(site.Selectors.Content).First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("%w: no %q", providers.ErrContentNotFound, site.Selectors.Content)
	}

	title := dom.CleanText(doc.Find(site.Selectors.Title).First().Text())
	if title == "" {
		title = unknownChapter
	}

	next := ""
	if href, ok := doc.Find(site.Selectors.NextLink).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		next = resolve(target, href)
	}

	var nodes []*html.Node
	for _, n := range dom.ElementChildren(content.Get(0)) {
		dom.Detach(n)
		nodes = append(nodes, n)
	}

	return &providers.ChapterPage{
		URL:     target,
		Title:   title,
		NextURL: next,
		Nodes:   nodes,
	}, nil
}

// HiddenClasses lists the class names declared in the style element
// matched by selector.
func HiddenClasses(doc *goquery.Document, selector string) []string {
	css := doc.Find(selector).First().Text()

	seen := map[string]bool{}
	var out []string
	for _, m := range styleClassRe.FindAllStringSubmatch(css, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}
