package scraper

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aluiziolira/books-rpa/config"
	"github.com/jarcoal/httpmock"
)

const testBaseURL = "http://example.test/"

var ratingWords = []string{"One", "Two", "Three", "Four", "Five"}

// catalogPage describes one fixture listing page.
type catalogPage struct {
	number   int
	total    int
	items    int
	hasNext  bool
	omit     map[int]string // item index -> element to leave out
	override map[int]string // item index -> availability text
	noPager  bool
}

func (cp catalogPage) html() string {
	var builder strings.Builder
	builder.WriteString("<html><body><section><div class=\"alert\">results</div><ol class=\"row\">")

	for i := 0; i < cp.items; i++ {
		id := (cp.number-1)*cp.items + i + 1
		missing := cp.omit[i]
		builder.WriteString("<li><article class=\"product_pod\">")
		fmt.Fprintf(&builder, "<div class=\"image_container\"><img src=\"media/cache/book-%d.jpg\" /></div>", id)
		if missing != "rating" {
			fmt.Fprintf(&builder, "<p class=\"star-rating %s\"></p>", ratingWords[id%5])
		}
		if missing != "title" {
			fmt.Fprintf(&builder, "<h3><a href=\"catalogue/book-%d/index.html\" title=\"Book %d\">Book %d...</a></h3>", id, id, id)
		}
		builder.WriteString("<div class=\"product_price\">")
		if missing != "price" {
			fmt.Fprintf(&builder, "<p class=\"price_color\">&pound;%d.%02d</p>", 10+id, id%100)
		}
		if missing != "availability" {
			availability := "In stock"
			if text, ok := cp.override[i]; ok {
				availability = text
			}
			fmt.Fprintf(&builder, "<p class=\"instock availability\">\n    <i class=\"icon-ok\"></i>\n    %s\n</p>", availability)
		}
		builder.WriteString("</div></article></li>")
	}
	builder.WriteString("</ol><div><ul class=\"pager\">")
	if !cp.noPager {
		fmt.Fprintf(&builder, "<li class=\"current\">\n    Page %d of %d\n</li>", cp.number, cp.total)
	}
	if cp.hasNext {
		fmt.Fprintf(&builder, "<li class=\"next\"><a href=\"page-%d.html\">next</a></li>", cp.number+1)
	}
	builder.WriteString("</ul></div></section></body></html>")
	return builder.String()
}

func pageURL(number int) string {
	if number == 1 {
		return testBaseURL
	}
	return fmt.Sprintf("%spage-%d.html", testBaseURL, number)
}

func htmlResponder(body string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(200, body)
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	}
}

func newMockSite(pages ...catalogPage) *httpmock.MockTransport {
	transport := httpmock.NewMockTransport()
	for _, page := range pages {
		transport.RegisterResponder("GET", pageURL(page.number), htmlResponder(page.html()))
	}
	return transport
}

func testConfig(t interface{ TempDir() string }) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBaseURL
	cfg.SettleDelay = 0
	cfg.MaxPages = 10
	cfg.VisitedCacheSize = 16
	cfg.OutputDir = t.TempDir()
	return cfg
}

// twoPageSite is 2 pages of 20 items each; item 4 on page 1 has no price.
func twoPageSite() *httpmock.MockTransport {
	return newMockSite(
		catalogPage{number: 1, total: 2, items: 20, hasNext: true, omit: map[int]string{4: "price"}},
		catalogPage{number: 2, total: 2, items: 20},
	)
}
