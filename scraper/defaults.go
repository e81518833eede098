package scraper

import "time"

// DefaultBaseURL is the site the default probe lists were tuned against.
const DefaultBaseURL = "https://www.blogdumoderateur.com"

// DefaultProfile returns the built-in probe lists, exclusions and
// politeness settings. Callers receive a fresh copy they may modify.
func DefaultProfile() *Profile {
	return &Profile{
		BaseURL: DefaultBaseURL,
		Probes: FieldProbes{
			Title: []FieldProbe{
				{Name: "entry-title", Selector: "h1.entry-title"},
				{Name: "h1", Selector: "h1"},
				{Name: "og-title", Selector: `meta[property="og:title"]`, Attr: "content"},
				{Name: "document-title", Selector: "title"},
			},
			Thumbnail: []FieldProbe{
				{Name: "og-image", Selector: `meta[property="og:image"]`, Attr: "content", URL: true},
				{Name: "post-image", Selector: "img.wp-post-image", Attr: "src", URL: true},
				{Name: "article-img", Selector: "article img", Attr: "src", URL: true},
			},
			Category: []FieldProbe{
				{Name: "article-tag", Selector: `meta[property="article:tag"]`, Attr: "content"},
				{Name: "article-section", Selector: `meta[property="article:section"]`, Attr: "content"},
				{Name: "rel-category", Selector: `a[rel~="category"]`},
				{Name: "cat-links", Selector: ".cat-links a"},
				{Name: "post-category", Selector: ".post-category"},
			},
			Summary: []FieldProbe{
				{Name: "meta-description", Selector: `meta[name="description"]`, Attr: "content"},
				{Name: "og-description", Selector: `meta[property="og:description"]`, Attr: "content"},
				{Name: "entry-summary", Selector: ".entry-summary", MinLength: 50},
				{Name: "chapo", Selector: ".article-chapo, .chapo, .lead", MinLength: 50},
				{Name: "first-paragraph", Selector: "article p", MinLength: 50},
			},
			Author: []FieldProbe{
				{Name: "byline", Selector: ".byline"},
				{Name: "meta-author", Selector: `meta[name="author"]`, Attr: "content"},
				{Name: "rel-author", Selector: `a[rel="author"]`},
				{Name: "author-name", Selector: ".author-name, .entry-author, .author"},
			},
			Content: []FieldProbe{
				{Name: "entry-content", Selector: "div.entry-content", MinLength: 50},
				{Name: "article-content", Selector: "article .content, .article-content, .post-content", MinLength: 50},
				{Name: "article-paragraphs", Selector: "article p", Join: true, MinLength: 50},
				{Name: "main-paragraphs", Selector: "main p", Join: true, MinLength: 50},
				{Name: "readability", Kind: KindReadability, MinLength: 50},
			},
			Date: []string{
				"time[datetime]",
				".entry-date",
				`meta[property="article:published_time"]`,
				".published",
				".date",
				"time",
			},
		},
		List: ListConfig{
			ListingURLs:    []string{DefaultBaseURL + "/"},
			ContainerHints: []string{"post", "article", "entry", "item"},
			LinkSelectors: []string{
				"h2 a",
				"h3 a",
				".entry-title a",
				".post-title a",
				"a.article-link",
				".card a",
			},
			PaginationFormats: []string{
				"{base}/page/{n}/",
				"{base}?page={n}",
				"{base}?paged={n}",
			},
			MaxPages:        3,
			MaxArticles:     0,
			FallbackMinText: 10,
			FallbackLimit:   20,
			RespectRobots:   true,
		},
		Classifier: ClassifierConfig{
			Exclusions: []string{
				`/page/\d+`,
				`/category/`,
				`/categorie/`,
				`/tag/`,
				`/author/`,
				`/auteur/`,
				`/search(/|$)`,
				`/recherche(/|$)`,
				`/feed/?$`,
				`/rss(/|$)`,
				`/wp-json`,
				`/wp-admin`,
				`/wp-content/`,
				`/wp-login`,
				`/comments/`,
				`/login(/|$)`,
				`/contact(/|$)`,
				`/about(/|$)`,
				`/a-propos(/|$)`,
				`/mentions-legales(/|$)`,
				`/newsletter(/|$)`,
			},
			SoftExclusions: []string{
				`/feed/?$`,
				`/rss(/|$)`,
				`/wp-admin`,
				`/wp-content/`,
			},
			AssetExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".ico",
				".pdf", ".css", ".js", ".xml", ".zip", ".mp3", ".mp4",
			},
			MinSegments: 2,
			MinLength:   10,
		},
		Politeness: Politeness{
			PageDelayMin:    1 * time.Second,
			PageDelayMax:    3 * time.Second,
			ArticleDelayMin: 1 * time.Second,
			ArticleDelayMax: 3 * time.Second,
		},
		MaxImages: 5,
	}
}
