package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nao1215/removalscan/internal/model"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://removalscan.local/schema/removals.schema.json"

// Issue is one problem found in the dataset.
type Issue struct {
	// Index is the position of the offending entry, or -1 for problems
	// with the document as a whole.
	Index int `json:"index"`
	// Field is the offending field, empty when the whole entry is wrong.
	Field string `json:"field,omitempty"`
	// Message describes the problem.
	Message string `json:"message"`
}

// String formats the issue for terminal output.
func (i Issue) String() string {
	switch {
	case i.Index < 0:
		return i.Message
	case i.Field == "":
		return fmt.Sprintf("entry %d: %s", i.Index, i.Message)
	default:
		return fmt.Sprintf("entry %d: %s: %s", i.Index, i.Field, i.Message)
	}
}

// Report is the outcome of validating a dataset.
type Report struct {
	Valid   bool    `json:"valid"`
	Entries int     `json:"entries"`
	Issues  []Issue `json:"issues"`
}

// Validator checks datasets against the record schema.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("loading record schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling record schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// ValidateFile reads and validates the dataset at path.
func (v *Validator) ValidateFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return v.Validate(data), nil
}

// Validate checks a dataset document.
func (v *Validator) Validate(data []byte) *Report {
	report := &Report{Issues: make([]Issue, 0)}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		report.Issues = append(report.Issues, Issue{Index: -1, Message: "invalid JSON: " + err.Error()})
		return report
	}

	entries, ok := doc.([]any)
	if !ok {
		report.Issues = append(report.Issues, Issue{Index: -1, Message: "document must be an array of records"})
		return report
	}
	report.Entries = len(entries)

	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			report.Issues = append(report.Issues, Issue{Index: -1, Message: err.Error()})
			return report
		}
		report.Issues = append(report.Issues, schemaIssues(ve)...)
	}

	for i, e := range entries {
		if obj, ok := e.(map[string]any); ok {
			report.Issues = append(report.Issues, checkDates(i, obj)...)
		}
	}

	sort.SliceStable(report.Issues, func(a, b int) bool {
		return report.Issues[a].Index < report.Issues[b].Index
	})
	report.Valid = len(report.Issues) == 0
	return report
}

// schemaIssues flattens a validation error tree into one issue per leaf.
// When several leaves point at the same field, as the branches of a oneOf
// do, only the last one is kept.
func schemaIssues(ve *jsonschema.ValidationError) []Issue {
	var out []Issue
	pos := make(map[Issue]int)

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		index, field := splitLocation(e.InstanceLocation)
		issue := Issue{Index: index, Field: field, Message: e.Message}
		key := Issue{Index: index, Field: field}
		if field == "" {
			key.Message = e.Message
		}
		if i, ok := pos[key]; ok {
			out[i] = issue
			return
		}
		pos[key] = len(out)
		out = append(out, issue)
	}
	walk(ve)
	return out
}

// splitLocation turns a JSON pointer like "/3/date" into (3, "date").
func splitLocation(loc string) (int, string) {
	parts := strings.SplitN(strings.TrimPrefix(loc, "/"), "/", 3)
	if len(parts) == 0 || parts[0] == "" {
		return -1, ""
	}
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return -1, ""
	}
	if len(parts) == 1 {
		return index, ""
	}
	return index, parts[1]
}

// checkDates verifies calendar validity and range order of one entry.
func checkDates(index int, entry map[string]any) []Issue {
	var issues []Issue

	parse := func(field string) (model.Date, bool) {
		s, ok := entry[field].(string)
		if !ok || !isDateShaped(s) {
			return model.Date{}, false
		}
		d, err := model.ParseDate(s)
		if err != nil {
			issues = append(issues, Issue{Index: index, Field: field, Message: fmt.Sprintf("%q is not a calendar date", s)})
			return model.Date{}, false
		}
		return d, true
	}

	start, okStart := parse("date")
	end, okEnd := parse("date_range_end")
	if okStart && okEnd && end.Before(start) {
		issues = append(issues, Issue{
			Index:   index,
			Field:   "date_range_end",
			Message: fmt.Sprintf("range ends (%s) before it starts (%s)", end, start),
		})
	}
	return issues
}

// isDateShaped reports whether s has the YYYY-MM-DD shape. Other strings
// are already reported by the schema.
func isDateShaped(s string) bool {
	if len(s) != len(model.DateLayout) {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
