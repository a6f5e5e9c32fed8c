package sites

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageRule matches when every non-empty condition holds.
type PageRule struct {
	Type           PageType
	BodyClasses    []string
	NotBodyClasses []string
	Selector       string
	HashContains   string
}

func (r PageRule) matches(doc *goquery.Document, fragment string) bool {
	body := doc.Find("body").First()
	for _, c := range r.BodyClasses {
		if !body.HasClass(c) {
			return false
		}
	}
	for _, c := range r.NotBodyClasses {
		if body.HasClass(c) {
			return false
		}
	}
	if r.Selector != "" && doc.Find(r.Selector).Length() == 0 {
		return false
	}
	if r.HashContains != "" && !containsHash(fragment, r.HashContains) {
		return false
	}
	return true
}

func containsHash(fragment, want string) bool {
	return fragment != "" && strings.Contains("#"+fragment, want)
}

// Detect classifies doc. fragment is the URL fragment without '#'. The
// site tag is written to the body's host attribute so styles can key on it.
func (s *Site) Detect(doc *goquery.Document, fragment string) PageType {
	doc.Find("body").First().SetAttr("host", s.Tag)

	for _, r := range s.PageRules {
		if r.matches(doc, fragment) {
			return r.Type
		}
	}
	return PageHome
}
