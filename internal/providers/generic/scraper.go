package generic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/endless/internal/providers"
	"github.com/brogergvhs/endless/internal/sites"
	"github.com/brogergvhs/endless/internal/ui"
	"github.com/brogergvhs/endless/internal/util"
)

type Scraper struct {
	client   *http.Client
	log      *ui.Logger
	attempts int
	backoff  time.Duration

	// site overrides hostname lookup. Tests serve pages from httptest
	// hosts that no site claims.
	site *sites.Site
}

func NewScraper(c *http.Client, log *ui.Logger, attempts int) *Scraper {
	return &Scraper{
		client:   c,
		log:      log,
		attempts: attempts,
		backoff:  500 * time.Millisecond,
	}
}

// ForSite pins the scraper to s regardless of the fetched host.
func (s *Scraper) ForSite(site *sites.Site) *Scraper {
	cp := *s
	cp.site = site
	return &cp
}

func (s *Scraper) siteFor(target string) (*sites.Site, error) {
	if s.site != nil {
		return s.site, nil
	}
	return sites.ForURL(target)
}

// FetchDocument GETs target and parses it. Non-2xx statuses become
// *providers.HTTPError.
func (s *Scraper) FetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := util.DoWithRetry(ctx, s.client, req, s.attempts, s.backoff)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.log.Debugf("failed to close response body for %s: %v", target, cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providers.HTTPError{URL: target, Status: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}

func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	r, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(r).String()
}
