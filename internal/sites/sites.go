// Package sites describes the novel sites the reader understands: their
// selectors, paths and how to tell which kind of page is open.
package sites

import (
	"fmt"
	"net/url"
	"strings"
)

type PageType string

const (
	PageChapter     PageType = "chapter"
	PageNovel       PageType = "page"
	PageHome        PageType = "home"
	PageUserLibrary PageType = "user-library"
)

type Selectors struct {
	NextLink         string
	ContentContainer string
	AppendTo         string
	Title            string
	Content          string
	NovelBreadCrumb  string
}

// NovelSelectors locate the metadata on a novel's landing page.
type NovelSelectors struct {
	Title    string
	Cover    string
	Chapters string
}

type Site struct {
	Host      string
	Tag       string
	Selectors Selectors
	Novel     NovelSelectors
	NovelPath string
	LibLink   string

	// HiddenStyle selects a <style> element whose class rules hide
	// anti-copy text inside chapter content. Empty when the site has none.
	HiddenStyle string

	PageRules []PageRule
}

var registry = map[string]*Site{
	"cenele.com": {
		Host: "cenele.com",
		Tag:  "cenel",
		Selectors: Selectors{
			NextLink:         ".next_page",
			ContentContainer: ".text-left",
			AppendTo:         ".reading-content",
			Title:            "#chapter-heading",
			Content:          ".text-right",
			NovelBreadCrumb:  " div.c-breadcrumb > ol > li:nth-child(2) > a",
		},
		Novel: NovelSelectors{
			Title:    ".post-title > h1:nth-child(1)",
			Cover:    ".summary_image > a:nth-child(1) > img:nth-child(1)",
			Chapters: "li > ul > li > ul > li > a",
		},
		NovelPath: "/cont/",
		LibLink:   "/my-account/#user-library",
		PageRules: []PageRule{
			{Type: PageChapter, BodyClasses: []string{"reading-manga"}},
			{Type: PageNovel, BodyClasses: []string{"manga-page"}},
			{
				Type:           PageUserLibrary,
				BodyClasses:    []string{"page"},
				NotBodyClasses: []string{"home"},
				HashContains:   "#user-library",
			},
		},
	},
	"kolbook.xyz": {
		Host: "kolbook.xyz",
		Tag:  "kolnovel",
		Selectors: Selectors{
			NextLink:         ".naveps > div:nth-child(1) > div:nth-child(1) > a:nth-child(1)",
			ContentContainer: ".epwrapper",
			AppendTo:         ".epwrapper",
			Title:            ".cat-series",
			Content:          "#kol_content",
			NovelBreadCrumb:  ".ts-breadcrumb > div:nth-child(1) > span:nth-child(2) > a:nth-child(1)",
		},
		Novel: NovelSelectors{
			Title:    "article > div.sertobig > div > div.sertoinfo > h1",
			Cover:    "article > div.sertobig > div > div.sertothumb > img",
			Chapters: ".eplister > ul > li > a",
		},
		NovelPath:   "/series/",
		LibLink:     "/my-account/#user-library",
		HiddenStyle: "article > style:nth-child(2)",
		PageRules: []PageRule{
			{Type: PageChapter, Selector: "article > div.bixbox.episodedl"},
			{Type: PageNovel, Selector: "article > div.sertobig"},
			{Type: PageUserLibrary, HashContains: "#user-library"},
		},
	},
}

func Lookup(host string) (*Site, bool) {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	s, ok := registry[host]
	return s, ok
}

// ForURL resolves the site serving rawURL.
func ForURL(rawURL string) (*Site, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	s, ok := Lookup(u.Host)
	if !ok {
		return nil, fmt.Errorf("unsupported site: %q", u.Host)
	}
	return s, nil
}

func Hosts() []string {
	return []string{"cenele.com", "kolbook.xyz"}
}

// NovelURI extracts the novel slug from a breadcrumb or novel page link:
// the second-to-last segment of the path, which with the trailing slash
// the sites use is the slug itself.
func NovelURI(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	parts := strings.Split(u.Path, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// NovelURL builds the landing page URL for uri on s.
func (s *Site) NovelURL(uri string) string {
	return "https://" + s.Host + s.NovelPath + uri + "/"
}

func (s *Site) LibraryURL() string {
	return "https://" + s.Host + s.LibLink
}
