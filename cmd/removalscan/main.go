// Package main provides the entry point for the removalscan CLI.
//
// removalscan collects reports of third-country removals from public
// sources, merges them into an append-only JSON dataset, and exports or
// serves that dataset.
//
// Usage:
//
//	removalscan update
//	removalscan export --format csv
//	removalscan serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
