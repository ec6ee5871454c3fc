// Package persona defines the voice agents: their record schemas, prompts,
// confirmations and static reference data.
package persona

import (
	"sort"
	"strings"

	"github.com/hpungsan/intake/internal/record"
)

// Persona is a record-filling agent variant.
type Persona struct {
	// Name is the persona key: the tool type prefix and the journal collection name.
	Name string

	// Title is a short human description.
	Title string

	// Instructions is the system prompt handed to the dialogue engine.
	Instructions string

	// Schema declares the record the persona fills.
	Schema *record.Schema

	// Confirm summarizes captured values. It must cope with a partial map
	// because a forced finalize persists an incomplete record.
	Confirm func(values map[string]record.Value) string

	// Recall renders a previous entry for the start of a new conversation.
	// Nil means the persona does not look back.
	Recall func(values map[string]record.Value) string

	// Farewell is appended after the confirmation (and after any save caveat).
	Farewell string

	// FileField names the field used to name one-file-per-record journal entries.
	FileField string
}

// Registry holds the configured personas and reference data.
type Registry struct {
	personas map[string]*Persona
	FAQ      *FAQ
	Concepts *Catalog
}

// Options configures branding and content for NewRegistry.
type Options struct {
	ShopName    string
	CompanyName string
	Concepts    *Catalog
}

// NewRegistry builds the order, lead and wellness personas.
func NewRegistry(opts Options) *Registry {
	if opts.ShopName == "" {
		opts.ShopName = "Brew Haven"
	}
	if opts.CompanyName == "" {
		opts.CompanyName = "ExampleCorp"
	}
	if opts.Concepts == nil {
		opts.Concepts = DefaultCatalog()
	}

	r := &Registry{
		personas: make(map[string]*Persona),
		FAQ:      DefaultFAQ(opts.CompanyName),
		Concepts: opts.Concepts,
	}
	for _, p := range []*Persona{
		Coffee(opts.ShopName),
		Lead(opts.CompanyName),
		Wellness(),
	} {
		r.personas[p.Name] = p
	}
	return r
}

// Lookup returns a record persona by name, case-insensitively.
func (r *Registry) Lookup(name string) (*Persona, bool) {
	p, ok := r.personas[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns the record persona names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.personas))
	for name := range r.personas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// value reads a text value with a fallback for unset fields.
func value(values map[string]record.Value, key, fallback string) string {
	if v, ok := values[key]; ok && v.String() != "" {
		return v.String()
	}
	return fallback
}
