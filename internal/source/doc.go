// Package source turns source pages into partial removal records.
//
// # Adapters
//
// An Adapter fetches one page and extracts zero or more records from it.
// Five kinds are provided:
//
//   - StructuredAdapter: one heading per destination followed by labeled
//     paragraphs ("Date(s):", "Who:", "More:")
//   - PatternAdapter: ordered regular expression templates run over prose
//   - TableAdapter: "Label: Number" cells in table rows
//   - IndexAdapter: a page that only links to sub-reports; emits a single
//     summary record without a count
//   - StatisticsAdapter: numbers found in statistics blocks
//
// Adapters never return records together with an error. A failed fetch or
// a page without the expected structure is logged by the adapter and
// returned as a *FetchError or *ParseError, and the caller treats the
// source's contribution as empty.
//
// Records returned by adapters are partial: DataSource and ScrapedAt are
// filled in by the pipeline.
//
// # Registry
//
// Registry maps source names to adapters, endpoints and enabled flags.
// NewDefaultRegistry ships the built-in sources; ApplyConfig adds or
// changes sources from a sources file.
package source
