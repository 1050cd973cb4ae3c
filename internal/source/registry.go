package source

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/removalscan/internal/config"
	"github.com/nao1215/removalscan/internal/crawler"
)

var (
	// ErrUnknownSource is returned when a source name is not registered.
	ErrUnknownSource = errors.New("unknown source")
	// ErrEmptyName is returned when registering a source without a name.
	ErrEmptyName = errors.New("source name must not be empty")
	// ErrMissingEndpoint is returned when a new source has no endpoint.
	ErrMissingEndpoint = errors.New("source endpoint must not be empty")
)

// SourceConfig describes one registered source.
type SourceConfig struct {
	Name     string
	Endpoint string
	Adapter  Adapter
	Enabled  bool
}

// recipe describes how to rebuild a source's adapter when its settings
// change.
type recipe struct {
	kind     string
	notes    string
	patterns []string
	scope    []string
}

// Registry maps source names to their configuration, in registration
// order. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	fetcher crawler.Fetcher
	opts    []Option
	order   []string
	sources map[string]SourceConfig
	recipes map[string]recipe
}

// NewRegistry creates an empty Registry. The options are passed to every
// adapter the registry builds.
func NewRegistry(fetcher crawler.Fetcher, opts ...Option) *Registry {
	return &Registry{
		fetcher: fetcher,
		opts:    opts,
		sources: make(map[string]SourceConfig),
		recipes: make(map[string]recipe),
	}
}

// Built-in source endpoints.
const (
	HardGHistoryURL    = "https://hardghistory.ghost.io/tracking-all-of-trumps-third-country-removals-that-we-know-of/"
	AmnestyUSAURL      = "https://www.amnestyusa.org/blog/third-country-deportations-another-cruel-piece-of-president-trumps-anti-immigrant-agenda/"
	DeportationDataURL = "https://deportationdata.org/data/ice.html"
	DHSOHSSURL         = "https://ohss.dhs.gov/topics/immigration/immigration-enforcement/monthly-tables"
	ICEStatisticsURL   = "https://www.ice.gov/statistics"
)

type builtin struct {
	name     string
	endpoint string
	recipe   recipe
}

var builtins = []builtin{
	{name: "hard_g_history", endpoint: HardGHistoryURL, recipe: recipe{kind: config.KindStructured}},
	{
		name:     "amnesty_usa",
		endpoint: AmnestyUSAURL,
		recipe: recipe{
			kind:  config.KindPattern,
			notes: "Extracted from Amnesty USA article",
			scope: []string{"article", "div.entry-content"},
		},
	},
	{
		name:     "deportation_data",
		endpoint: DeportationDataURL,
		recipe:   recipe{kind: config.KindTable, notes: "Extracted from deportation data table"},
	},
	{
		name:     "dhs_ohss",
		endpoint: DHSOHSSURL,
		recipe:   recipe{kind: config.KindIndex, notes: "DHS OHSS monthly reports available"},
	},
	{
		name:     "ice_statistics",
		endpoint: ICEStatisticsURL,
		recipe:   recipe{kind: config.KindStatistics, notes: "ICE statistics"},
	},
}

// NewDefaultRegistry creates a Registry holding the built-in sources, all
// enabled.
func NewDefaultRegistry(fetcher crawler.Fetcher, opts ...Option) *Registry {
	r := NewRegistry(fetcher, opts...)
	for _, b := range builtins {
		adapter, err := r.build(b.endpoint, b.recipe)
		if err != nil {
			// Built-in recipes only use the default templates.
			panic(err)
		}
		r.put(b.name, b.endpoint, adapter, true, &b.recipe)
	}
	return r
}

// Register adds a source or replaces the source with the same name.
// A replaced source keeps its position. A nil adapter selects a
// PatternAdapter with the default templates bound to endpoint.
func (r *Registry) Register(name, endpoint string, adapter Adapter, enabled bool) error {
	if name == "" {
		return ErrEmptyName
	}
	var rc *recipe
	if adapter == nil {
		rc = &recipe{kind: config.KindPattern, notes: "Extracted from " + name}
		built, err := r.build(endpoint, *rc)
		if err != nil {
			return err
		}
		adapter = built
	}
	r.put(name, endpoint, adapter, enabled, rc)
	return nil
}

func (r *Registry) put(name, endpoint string, adapter Adapter, enabled bool, rc *recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = SourceConfig{Name: name, Endpoint: endpoint, Adapter: adapter, Enabled: enabled}
	if rc != nil {
		r.recipes[name] = *rc
	} else {
		delete(r.recipes, name)
	}
}

// SetEnabled changes the enabled flag of a registered source.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc, ok := r.sources[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	sc.Enabled = enabled
	r.sources[name] = sc
	return nil
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (SourceConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.sources[name]
	return sc, ok
}

// List returns all sources in registration order.
func (r *Registry) List() []SourceConfig {
	return r.list(false)
}

// ListEnabled returns the enabled sources in registration order.
func (r *Registry) ListEnabled() []SourceConfig {
	return r.list(true)
}

func (r *Registry) list(enabledOnly bool) []SourceConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SourceConfig, 0, len(r.order))
	for _, name := range r.order {
		sc := r.sources[name]
		if enabledOnly && !sc.Enabled {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// ApplyConfig registers or updates sources from a sources file.
//
// An entry naming an existing source that only sets "enabled" toggles it.
// Any other setting rebuilds the adapter, keeping the existing endpoint
// and adapter kind unless the entry overrides them. New sources need an
// endpoint and default to the pattern kind.
func (r *Registry) ApplyConfig(f *config.SourcesFile) error {
	if f == nil {
		return nil
	}
	if err := f.Validate(); err != nil {
		return err
	}

	for _, spec := range f.Sources {
		existing, exists := r.Get(spec.Name)
		if exists && spec.Endpoint == "" && spec.Kind == "" && len(spec.Patterns) == 0 && len(spec.Scope) == 0 {
			if err := r.SetEnabled(spec.Name, spec.IsEnabled(existing.Enabled)); err != nil {
				return err
			}
			continue
		}

		endpoint := spec.Endpoint
		if endpoint == "" {
			if !exists {
				return fmt.Errorf("%w: %q", ErrMissingEndpoint, spec.Name)
			}
			endpoint = existing.Endpoint
		}

		rc := r.recipeFor(spec.Name)
		if spec.Kind != "" {
			rc.kind = spec.Kind
		}
		if len(spec.Patterns) > 0 {
			rc.patterns = spec.Patterns
		}
		if len(spec.Scope) > 0 {
			rc.scope = spec.Scope
		}

		adapter, err := r.build(endpoint, rc)
		if err != nil {
			return fmt.Errorf("source %q: %w", spec.Name, err)
		}
		r.put(spec.Name, endpoint, adapter, spec.IsEnabled(!exists || existing.Enabled), &rc)
	}
	return nil
}

// recipeFor returns the stored recipe of name, or a default pattern recipe.
func (r *Registry) recipeFor(name string) recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rc, ok := r.recipes[name]; ok {
		return rc
	}
	return recipe{kind: config.KindPattern, notes: "Extracted from " + name}
}

// build creates the adapter described by rc.
func (r *Registry) build(endpoint string, rc recipe) (Adapter, error) {
	opts := append([]Option{}, r.opts...)
	if rc.notes != "" {
		opts = append(opts, WithNotes(rc.notes))
	}

	switch rc.kind {
	case config.KindStructured:
		return NewStructuredAdapter(r.fetcher, endpoint, opts...), nil
	case config.KindTable:
		return NewTableAdapter(r.fetcher, endpoint, opts...), nil
	case config.KindIndex:
		return NewIndexAdapter(r.fetcher, endpoint, opts...), nil
	case config.KindStatistics:
		return NewStatisticsAdapter(r.fetcher, endpoint, opts...), nil
	case config.KindPattern, "":
		exprs := rc.patterns
		if len(exprs) == 0 {
			exprs = DefaultPatterns
		}
		templates, err := ParseTemplates(exprs...)
		if err != nil {
			return nil, err
		}
		if len(rc.scope) > 0 {
			opts = append(opts, WithScope(rc.scope...))
		}
		return NewPatternAdapter(r.fetcher, endpoint, templates, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", config.ErrInvalidSource, rc.kind)
	}
}
