// Package store persists the merged dataset and implements the merge rule.
//
// The dataset is a single JSON array of records, pretty-printed with a
// two-space indent. It only grows: Merge appends records whose identity key
// is new and never reorders or edits existing entries. Writes go to a
// temporary file in the same directory that is then renamed over the
// dataset, so readers see either the old or the new file.
//
// FileStore.Update serializes read-merge-write cycles with an in-process
// mutex and a lock file next to the dataset, so two processes cannot
// interleave their updates.
package store
