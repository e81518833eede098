package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgrab/articles"
)

// lazy-load attributes consulted when src is missing
var srcAttrs = []string{"src", "data-src", "data-lazy-src", "data-original"}

// CollectImages walks every <img> in the document and returns up to limit
// entries keyed image_1, image_2, ... in document order. limit <= 0 means
// unbounded. Images without a resolvable source are skipped silently.
func CollectImages(doc *goquery.Document, base *url.URL, limit int) map[string]articles.Image {
	images := make(map[string]articles.Image)

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if limit > 0 && len(images) >= limit {
			return false
		}

		src := imageSource(img, base)
		if src == "" {
			return true
		}

		key := fmt.Sprintf("image_%d", len(images)+1)
		images[key] = articles.Image{
			URL:     src,
			Caption: imageCaption(img),
		}
		return true
	})

	return images
}

func imageSource(img *goquery.Selection, base *url.URL) string {
	for _, attr := range srcAttrs {
		if value, ok := img.Attr(attr); ok {
			if resolved := resolveRef(base, value); resolved != "" {
				return resolved
			}
		}
	}

	// srcset: "a.jpg 300w, b.jpg 600w" -> a.jpg
	if srcset, ok := img.Attr("srcset"); ok {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return resolveRef(base, fields[0])
		}
	}

	return ""
}

// imageCaption tries alt, then title, then a nearby caption element.
func imageCaption(img *goquery.Selection) string {
	if alt := Normalize(img.AttrOr("alt", "")); alt != "" {
		return alt
	}
	if title := Normalize(img.AttrOr("title", "")); title != "" {
		return title
	}

	if caption := img.Closest("figure").Find("figcaption").First(); caption.Length() > 0 {
		return Normalize(caption.Text())
	}

	// WordPress wraps captioned images in a div with a sibling caption
	if caption := img.NextAllFiltered("figcaption, .wp-caption-text").First(); caption.Length() > 0 {
		return Normalize(caption.Text())
	}
	if caption := img.Parent().NextAllFiltered("figcaption, .wp-caption-text").First(); caption.Length() > 0 {
		return Normalize(caption.Text())
	}

	return ""
}
