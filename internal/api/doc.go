// Package api serves the dataset over a read-only HTTP API.
//
// Routes:
//
//	GET /api/v1/removals                    all records with metadata
//	GET /api/v1/removals/summary            aggregate statistics
//	GET /api/v1/removals/country/{country}  records for one destination
//	GET /healthz                            liveness
//	GET /metrics                            Prometheus metrics
//
// The store is read on every request, so an update running in another
// process is visible as soon as its atomic rename completes.
package api
