// Package model defines the data structures shared by the ingest pipeline,
// the persisted store and the report writers.
//
// The main types are:
//   - Record: one reported removal action in canonical form
//   - Date: a calendar day without time zone, serialized as YYYY-MM-DD
//   - IdentityKey: the deduplication key of a Record
//   - Summary: aggregate statistics over a list of Records
//   - Run: the outcome of one pipeline execution, kept in run history
//
// Records are serialized with the field names of the removals dataset
// (destination_country, date, date_range_end, ...) so that files written by
// earlier tooling load without conversion. Unknown fields are preserved.
package model
