// Package pipeline runs the registered sources and merges their output into
// the store.
//
// The Orchestrator visits enabled sources in registration order, waits a
// fixed delay between fetches, and isolates failures: a source that errors
// or panics contributes no records and is reported in the run result, while
// the remaining sources still run. Records are stamped with the source name
// and the extraction time before they leave the orchestrator.
//
// The Updater combines an Orchestrator with a store. Collection happens
// outside the store lock; only the merge and the write happen under it.
package pipeline
