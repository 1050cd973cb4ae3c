// Package report exports the dataset in human- and machine-readable
// formats.
//
// Every format implements Writer:
//   - JSONWriter: the records as an indented JSON array
//   - CSVWriter: one flattened row per record
//   - MarkdownWriter: summary, per-country breakdown and a detail table
//   - TextWriter: the same content as plain text for terminals
//
// Writers only read the records they are given; they never touch the
// store.
package report
