// Package fields defines the registry of enrichment fields: the set of field
// names the service knows how to generate, their JSON kinds (used by the
// response parser for projection and repair), and named field profiles that
// can be loaded from a YAML file.
package fields

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the JSON shape of a field value
type Kind string

const (
	// KindString is a plain string value
	KindString Kind = "string"
	// KindArray is an array of strings
	KindArray Kind = "array"
	// KindObject is a string-keyed object of scalar values
	KindObject Kind = "object"
)

// Definition describes one enrichment field
type Definition struct {
	Name        string
	DisplayName string
	Kind        Kind
}

// The identification fields are extracted from the product name; the content
// fields are generated.
var builtin = []Definition{
	{Name: "manufacturer", DisplayName: "Manufacturer", Kind: KindString},
	{Name: "trademark", DisplayName: "Trademark", Kind: KindString},
	{Name: "category", DisplayName: "Category", Kind: KindString},
	{Name: "model_name", DisplayName: "Model", Kind: KindString},
	{Name: "description", DisplayName: "Description", Kind: KindString},
	{Name: "features", DisplayName: "Features", Kind: KindArray},
	{Name: "specifications", DisplayName: "Specifications", Kind: KindObject},
	{Name: "seo_keywords", DisplayName: "SEO Keywords", Kind: KindArray},
	{Name: "marketing_copy", DisplayName: "Marketing Copy", Kind: KindString},
	{Name: "pros", DisplayName: "Pros", Kind: KindArray},
	{Name: "cons", DisplayName: "Cons", Kind: KindArray},
}

// Registry holds the known field definitions
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry creates a registry with the built-in field definitions
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition, len(builtin))}
	for _, d := range builtin {
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r
}

// Lookup returns the definition for a field name
func (r *Registry) Lookup(name string) (Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// KindOf returns the kind of a field, defaulting to string for unknown names
func (r *Registry) KindOf(name string) Kind {
	if d, ok := r.defs[name]; ok {
		return d.Kind
	}
	return KindString
}

// Names returns all known field names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Normalize validates a requested field list against the registry, removing
// duplicates while preserving the caller's order. Order matters for prompt
// text, so it is kept; cache keys sort independently.
func (r *Registry) Normalize(requested []string) ([]string, error) {
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	var unknown []string
	for _, name := range requested {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		if _, ok := r.defs[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown fields: %s", strings.Join(unknown, ", "))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid fields requested")
	}
	return out, nil
}
