package scraper

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/books-rpa/models"
)

const (
	listingSelector = "section"
	itemSelector    = "article.product_pod"
	ratingClass     = "star-rating"
)

// Extractor turns listing pages into raw entries.
type Extractor struct {
	metrics *Metrics
}

// NewExtractor returns an extractor reporting to metrics, which may be nil.
func NewExtractor(metrics *Metrics) *Extractor {
	return &Extractor{metrics: metrics}
}

// Entries yields one raw entry per complete catalog item on page, in
// document order. Items missing a field element are skipped.
func (x *Extractor) Entries(page *Page) (iter.Seq[models.RawEntry], error) {
	listing := page.Doc.Find(listingSelector)
	if listing.Length() == 0 {
		return nil, &ExtractionError{Page: page.Number, URL: page.URL.String(), Err: ErrListingNotFound}
	}
	items := listing.Find(itemSelector)

	return func(yield func(models.RawEntry) bool) {
		items.EachWithBreak(func(i int, item *goquery.Selection) bool {
			entry, missing := extractEntry(item)
			if missing != "" {
				x.metrics.IncSkipped(missing)
				slog.Debug("skipping incomplete item",
					slog.Int("page", page.Number),
					slog.Int("index", i),
					slog.String("missing", missing),
				)
				return true
			}
			x.metrics.IncEntries()
			return yield(entry)
		})
	}, nil
}

// extractEntry returns the entry, or the name of the first missing field.
func extractEntry(item *goquery.Selection) (models.RawEntry, string) {
	link := item.Find("h3 > a").First()
	if link.Length() == 0 {
		return models.RawEntry{}, "title"
	}
	title, ok := link.Attr("title")
	if !ok {
		title = link.Text()
	}

	price := item.Find("p.price_color").First()
	if price.Length() == 0 {
		return models.RawEntry{}, "price"
	}

	availability := item.Find("p.instock.availability").First()
	if availability.Length() == 0 {
		availability = item.Find("p.availability").First()
	}
	if availability.Length() == 0 {
		return models.RawEntry{}, "availability"
	}

	rating := item.Find("p." + ratingClass).First()
	if rating.Length() == 0 {
		return models.RawEntry{}, "rating"
	}

	return models.RawEntry{
		Title:            strings.TrimSpace(title),
		PriceText:        strings.TrimSpace(price.Text()),
		AvailabilityText: strings.Join(strings.Fields(availability.Text()), " "),
		RatingMarker:     ratingMarker(rating.AttrOr("class", "")),
	}, ""
}

func ratingMarker(class string) string {
	parts := make([]string, 0, 1)
	for _, token := range strings.Fields(class) {
		if token != ratingClass {
			parts = append(parts, token)
		}
	}
	return strings.Join(parts, " ")
}
