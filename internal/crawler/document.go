package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse parses HTML content. baseURL is used to resolve relative links and
// may be empty.
func Parse(content io.Reader, baseURL string) (*Document, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	d := &Document{doc: goquery.NewDocumentFromNode(root)}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		d.base = u
	}
	return d, nil
}

// FetchDocument fetches pageURL with f and parses the result.
func FetchDocument(ctx context.Context, f Fetcher, pageURL string) (*Document, error) {
	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(body), pageURL)
}

// Find returns the elements matching a CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the whitespace-trimmed text of the whole document.
func (d *Document) Text() string {
	return strings.TrimSpace(d.doc.Text())
}

// Resolve resolves href against the page URL.
// Non-navigational links (javascript:, mailto:, tel:, data:, "#") resolve
// to the empty string.
func (d *Document) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if d.base == nil {
		return u.String()
	}
	return d.base.ResolveReference(u).String()
}

// Links returns the resolved href of every anchor inside sel, in document
// order, skipping links that do not resolve.
func (d *Document) Links(sel *goquery.Selection) []string {
	var links []string
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if resolved := d.Resolve(href); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links
}
