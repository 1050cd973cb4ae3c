package model

import "time"

// SourceRun is the outcome of collecting one source.
type SourceRun struct {
	// Name is the source name.
	Name string `json:"name"`
	// Records is the number of records the source contributed.
	Records int `json:"records"`
	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`
	// Duration is how long collection took.
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the source contributed nothing because of an error.
func (s SourceRun) Failed() bool {
	return s.Error != ""
}

// Run is one execution of the update pipeline.
type Run struct {
	ID         int64       `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Collected  int         `json:"collected"`
	Added      int         `json:"added"`
	Total      int         `json:"total"`
	Sources    []SourceRun `json:"sources"`
}

// FailedSources returns the number of sources that failed in the run.
func (r Run) FailedSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Failed() {
			n++
		}
	}
	return n
}
