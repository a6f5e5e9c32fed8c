package sites_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/sites"
)

func doc(t *testing.T, s string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	require.NoError(t, err)
	return d
}

func TestLookup(t *testing.T) {
	for _, host := range []string{"cenele.com", "www.cenele.com", "KOLBOOK.xyz", "kolbook.xyz:443"} {
		_, ok := sites.Lookup(host)
		assert.True(t, ok, host)
	}
	_, ok := sites.Lookup("example.com")
	assert.False(t, ok)

	_, err := sites.ForURL("https://example.com/x")
	assert.Error(t, err)

	s, err := sites.ForURL("https://kolbook.xyz/series/abc/")
	require.NoError(t, err)
	assert.Equal(t, "#kol_content", s.Selectors.Content)
}

func TestNovelURI(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://cenele.com/cont/my-novel/", "my-novel"},
		{"https://kolbook.xyz/series/other-one/", "other-one"},
		{"/cont/relative/", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, sites.NovelURI(tt.href))
		})
	}
}

func TestDetect_Cenele(t *testing.T) {
	s, _ := sites.Lookup("cenele.com")

	tests := []struct {
		name     string
		body     string
		fragment string
		want     sites.PageType
	}{
		{"chapter", `<body class="reading-manga page"></body>`, "", sites.PageChapter},
		{"novel", `<body class="manga-page"></body>`, "", sites.PageNovel},
		{"library", `<body class="page"></body>`, "user-library", sites.PageUserLibrary},
		{"home page with hash", `<body class="page home"></body>`, "user-library", sites.PageHome},
		{"plain", `<body></body>`, "", sites.PageHome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(t, "<html>"+tt.body+"</html>")
			assert.Equal(t, tt.want, s.Detect(d, tt.fragment))

			host, _ := d.Find("body").Attr("host")
			assert.Equal(t, "cenel", host)
		})
	}
}

func TestDetect_Kolbook(t *testing.T) {
	s, _ := sites.Lookup("kolbook.xyz")

	assert.Equal(t, sites.PageChapter,
		s.Detect(doc(t, `<article><div class="bixbox episodedl"></div></article>`), ""))
	assert.Equal(t, sites.PageNovel,
		s.Detect(doc(t, `<article><div class="sertobig"></div></article>`), ""))
	assert.Equal(t, sites.PageUserLibrary,
		s.Detect(doc(t, `<div></div>`), "user-library"))
	assert.Equal(t, sites.PageHome, s.Detect(doc(t, `<div></div>`), ""))
}

func TestSiteURLs(t *testing.T) {
	s, _ := sites.Lookup("cenele.com")
	assert.Equal(t, "https://cenele.com/cont/abc/", s.NovelURL("abc"))
	assert.Equal(t, "https://cenele.com/my-account/#user-library", s.LibraryURL())
}
