package config

import "fmt"

// Adapter kinds accepted in the sources file.
const (
	KindStructured = "structured"
	KindPattern    = "pattern"
	KindTable      = "table"
	KindIndex      = "index"
	KindStatistics = "statistics"
)

var knownKinds = map[string]struct{}{
	KindStructured: {},
	KindPattern:    {},
	KindTable:      {},
	KindIndex:      {},
	KindStatistics: {},
}

// SourceSpec describes one source in the sources file.
//
// An entry whose name matches an already registered source may omit the
// endpoint; it then only changes the enabled flag, patterns or scope.
type SourceSpec struct {
	// Name identifies the source and becomes the data_source of its records.
	Name string `yaml:"name"`

	// Endpoint is the page to fetch.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Kind selects the adapter. Empty means "pattern".
	Kind string `yaml:"kind,omitempty"`

	// Enabled toggles the source. Nil leaves the current state, or enables
	// a new source.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Patterns replaces the templates of a pattern adapter. Each pattern
	// must define the named groups "count" and "place".
	Patterns []string `yaml:"patterns,omitempty"`

	// Scope limits a pattern adapter to the text of the first matching
	// CSS selector.
	Scope []string `yaml:"scope,omitempty"`
}

// IsEnabled reports the effective enabled flag, given the current one.
func (s SourceSpec) IsEnabled(current bool) bool {
	if s.Enabled == nil {
		return current
	}
	return *s.Enabled
}

// EffectiveKind returns the adapter kind, defaulting to pattern.
func (s SourceSpec) EffectiveKind() string {
	if s.Kind == "" {
		return KindPattern
	}
	return s.Kind
}

// Defaults holds settings applied to every source.
type Defaults struct {
	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// SourcesFile represents the structure of the .removalscan.yaml file.
type SourcesFile struct {
	Defaults Defaults     `yaml:"defaults,omitempty"`
	Sources  []SourceSpec `yaml:"sources,omitempty"`
}

// Validate checks names and kinds of all entries.
func (f *SourcesFile) Validate() error {
	seen := make(map[string]struct{}, len(f.Sources))
	for i, s := range f.Sources {
		if s.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrInvalidSource, i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %q is listed twice", ErrInvalidSource, s.Name)
		}
		seen[s.Name] = struct{}{}
		if _, ok := knownKinds[s.EffectiveKind()]; !ok {
			return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidSource, s.Name, s.Kind)
		}
	}
	return nil
}
