// Package database keeps the history of update runs in SQLite.
//
// Each run is stored with its totals in the runs table and one row per
// source in source_runs. The history is a side record: the dataset itself
// lives in the JSON store, and losing the history database loses nothing
// but the run log.
//
// modernc.org/sqlite is a CGO-free driver, so the binary stays easy to
// cross-compile.
package database
