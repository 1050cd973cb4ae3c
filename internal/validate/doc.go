// Package validate checks a dataset file without modifying it.
//
// Structure is checked against an embedded JSON Schema. Rules the schema
// cannot express, such as whether a date is a real calendar day or whether
// a range ends before it starts, are checked in Go afterwards.
package validate
