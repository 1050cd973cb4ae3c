// Package crawler fetches source pages and exposes their HTML structure to
// the source adapters.
//
// # Components
//
//   - HTTPFetcher: fetches one URL with a fixed timeout and a body size limit
//   - Document: a parsed page queried with CSS selectors
//
// Adapters depend on the Fetcher interface rather than on HTTPFetcher, so
// tests can serve pages from memory.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(crawler.WithTimeout(30 * time.Second))
//	doc, err := crawler.FetchDocument(ctx, fetcher, "https://example.com/page")
//	doc.Find("h2").Each(func(_ int, s *goquery.Selection) { ... })
//
// # Politeness
//
// The fetcher never retries. Spacing requests to the same host is the job
// of the pipeline orchestrator.
package crawler
