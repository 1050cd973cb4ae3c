package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TestHTTPFetcher tests fetching pages over HTTP.
func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends headers", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != "test-agent" {
				t.Errorf("got User-Agent %q, expected test-agent", got)
			}
			if got := r.Header.Get("X-Api-Key"); got != "secret" {
				t.Errorf("got X-Api-Key %q, expected secret", got)
			}
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}))
		defer server.Close()

		f := NewHTTPFetcher(
			WithUserAgent("test-agent"),
			WithHeaders(map[string]string{"X-Api-Key": "secret"}),
		)
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(body), "hello") {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("error status returns StatusError", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewHTTPFetcher().Fetch(context.Background(), server.URL)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("got status %d, expected 404", statusErr.StatusCode)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
		}))
		defer server.Close()

		_, err := NewHTTPFetcher(WithMaxBodySize(1024)).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("timeout is a normal error", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		_, err := NewHTTPFetcher(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), server.URL)
		if err == nil {
			t.Error("expected timeout error")
		}
	})
}

// TestDocument tests querying parsed pages.
func TestDocument(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<h2>Ghana</h2>
<p>Who: 14 people. <a href="/story">story</a> <a href="mailto:x@example.com">mail</a></p>
<table><tr><td>Ghana: 14</td></tr></table>
</body></html>`

	doc, err := Parse(strings.NewReader(page), "https://example.com/tracking/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("finds elements by selector", func(t *testing.T) {
		t.Parallel()
		if got := strings.TrimSpace(doc.Find("h2").First().Text()); got != "Ghana" {
			t.Errorf("got %q, expected Ghana", got)
		}
		if n := doc.Find("td").Length(); n != 1 {
			t.Errorf("got %d cells, expected 1", n)
		}
	})

	t.Run("collects resolved links", func(t *testing.T) {
		t.Parallel()
		links := doc.Links(doc.Find("p"))
		if len(links) != 1 || links[0] != "https://example.com/story" {
			t.Errorf("unexpected links %v", links)
		}
	})

	t.Run("text covers the whole page", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(doc.Text(), "Who: 14 people") {
			t.Errorf("unexpected text %q", doc.Text())
		}
	})
}

// TestDocumentResolve tests URL resolution edge cases.
func TestDocumentResolve(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader("<html></html>"), "https://ohss.example.gov/topics/monthly")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "relative path", href: "tables/2025-01.xlsx", want: "https://ohss.example.gov/topics/tables/2025-01.xlsx"},
		{name: "absolute path", href: "/data/x", want: "https://ohss.example.gov/data/x"},
		{name: "absolute URL", href: "https://other.example.org/a", want: "https://other.example.org/a"},
		{name: "javascript", href: "javascript:void(0)", want: ""},
		{name: "mailto", href: "MAILTO:someone@example.com", want: ""},
		{name: "fragment only", href: "#", want: ""},
		{name: "empty", href: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := doc.Resolve(tt.href); got != tt.want {
				t.Errorf("Resolve(%q) = %q, expected %q", tt.href, got, tt.want)
			}
		})
	}
}

// stubFetcher serves a fixed body.
type stubFetcher struct {
	body string
	err  error
}

func (s stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return []byte(s.body), s.err
}

// TestFetchDocument tests the fetch and parse helper.
func TestFetchDocument(t *testing.T) {
	t.Parallel()

	t.Run("parses fetched content", func(t *testing.T) {
		t.Parallel()
		doc, err := FetchDocument(context.Background(), stubFetcher{body: "<p>one</p><p>two</p>"}, "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var texts []string
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, s.Text())
		})
		if strings.Join(texts, ",") != "one,two" {
			t.Errorf("unexpected paragraphs %v", texts)
		}
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		t.Parallel()
		want := errors.New("boom")
		_, err := FetchDocument(context.Background(), stubFetcher{err: want}, "https://example.com")
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})
}
