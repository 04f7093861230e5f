package listing

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/citypulse/cityingest/internal/domain"
)

// Extractor pulls listing items out of rendered HTML using a selector
// contract.
type Extractor struct {
	selectors Selectors
	baseURL   *url.URL
}

// NewExtractor creates an extractor for one site's selector contract.
// baseURL resolves relative links and image sources.
func NewExtractor(selectors Selectors, baseURL string) (*Extractor, error) {
	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selectors: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Extractor{selectors: selectors, baseURL: base}, nil
}

// Extract parses the rendered page and returns one RawListing per
// complete item. Items missing title, date text, or link are dropped
// here and counted; they never become a RawListing.
func (e *Extractor) Extract(html string) ([]domain.RawListing, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	var (
		listings []domain.RawListing
		dropped  int
	)
	now := time.Now()

	doc.Find(e.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find(e.selectors.Title).First().Text())
		rawDate := strings.TrimSpace(item.Find(e.selectors.Date).First().Text())
		link := e.itemLink(item)

		if title == "" || rawDate == "" || link == "" {
			dropped++
			return
		}

		listings = append(listings, domain.RawListing{
			NativeID:  nativeID(link),
			Title:     title,
			RawDate:   rawDate,
			Location:  strings.TrimSpace(item.Find(e.selectors.Location).First().Text()),
			URL:       link,
			ImageURL:  e.itemImage(item),
			ScrapedAt: now,
		})
	})

	return listings, dropped, nil
}

// itemLink resolves the item's canonical link against the base URL.
func (e *Extractor) itemLink(item *goquery.Selection) string {
	href, ok := item.Find(e.selectors.Link).First().Attr("href")
	if !ok {
		// The item container itself may be the anchor.
		href, ok = item.Attr("href")
		if !ok {
			return ""
		}
	}
	return e.resolve(href)
}

// itemImage resolves the item's image source, preferring lazy-load
// attributes over src.
func (e *Extractor) itemImage(item *goquery.Selection) string {
	if e.selectors.Image == "" {
		return ""
	}
	img := item.Find(e.selectors.Image).First()
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
			return e.resolve(src)
		}
	}
	return ""
}

func (e *Extractor) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return e.baseURL.ResolveReference(u).String()
}

// nativeID derives a source-native identifier from the canonical link:
// the last non-empty path segment, or the full URL when the path is bare.
func nativeID(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return link
	}
	return last
}
