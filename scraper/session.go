package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/books-rpa/config"
	"github.com/gocolly/colly/v2"
)

const (
	nextSelector  = "li.next > a"
	pagerSelector = "li.current"
)

var pagerPattern = regexp.MustCompile(`(?i)page\s+(\d+)\s+of\s+(\d+)`)

// Page is one rendered listing page.
type Page struct {
	Number int
	URL    *url.URL
	Doc    *goquery.Document

	// Current and Total come from the "Page X of Y" pager; zero when the
	// page has no pager.
	Current int
	Total   int
}

// NextURL resolves the page's "next" link, if any.
func (p *Page) NextURL() (string, bool) {
	href, ok := p.Doc.Find(nextSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return p.URL.ResolveReference(ref).String(), true
}

// HasMorePages reports whether the pager says pages remain after this one.
func (p *Page) HasMorePages() bool {
	return p.Total > 0 && p.Current < p.Total
}

// Session owns the colly collector used to load pages. It is not safe for
// concurrent use; the navigator drives it one page at a time.
type Session struct {
	collector   *colly.Collector
	transport   http.RoundTripper
	settleDelay time.Duration

	mu     sync.Mutex
	closed bool

	// Per-load capture written by collector callbacks.
	body       []byte
	finalURL   *url.URL
	statusCode int
}

// OpenSession acquires a session for the configured base URL. A nil
// transport selects a default HTTP transport.
func OpenSession(cfg *config.Config, transport http.RoundTripper) (*Session, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.AllowURLRevisit = true

	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	collector.WithTransport(transport)

	s := &Session{
		collector:   collector,
		transport:   transport,
		settleDelay: cfg.SettleDelay,
	}
	collector.OnResponse(func(r *colly.Response) {
		s.body = r.Body
		s.finalURL = r.Request.URL
		s.statusCode = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			s.statusCode = r.StatusCode
		}
	})
	return s, nil
}

// Load visits rawURL, waits the settle delay, and parses the rendered page.
func (s *Session) Load(ctx context.Context, rawURL string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.body, s.finalURL, s.statusCode = nil, nil, 0
	if err := s.collector.Visit(rawURL); err != nil {
		return nil, classifyError(err, s.statusCode)
	}
	if s.finalURL == nil {
		return nil, fmt.Errorf("no response captured for %s", rawURL)
	}

	if s.settleDelay > 0 {
		timer := time.NewTimer(s.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.body))
	if err != nil {
		return nil, fmt.Errorf("parse page body: %w", err)
	}

	page := &Page{URL: s.finalURL, Doc: doc}
	if m := pagerPattern.FindStringSubmatch(doc.Find(pagerSelector).First().Text()); m != nil {
		page.Current, _ = strconv.Atoi(m[1])
		page.Total, _ = strconv.Atoi(m[2])
	}
	return page, nil
}

// Close releases the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.body = nil
	if closer, ok := s.transport.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
