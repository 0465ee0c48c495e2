package persona

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog holds the persona registry. It is immutable once loaded.
type Catalog struct {
	profiles map[Persona]*Profile
	order    []Persona
}

type catalogFile struct {
	Personas []*Profile `yaml:"personas"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("persona: embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{profiles: make(map[Persona]*Profile, len(f.Personas))}
	for _, p := range f.Personas {
		if !p.Name.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, p.Name)
		}
		if _, dup := c.profiles[p.Name]; dup {
			return nil, fmt.Errorf("persona %s defined twice", p.Name)
		}
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("persona %s: %w", p.Name, err)
		}
		c.profiles[p.Name] = p
		c.order = append(c.order, p.Name)
	}

	for _, p := range All {
		if _, ok := c.profiles[p]; !ok {
			return nil, fmt.Errorf("persona %s missing from catalog", p)
		}
	}

	return c, nil
}

func validateProfile(p *Profile) error {
	if len(p.Events) == 0 {
		return fmt.Errorf("no events defined")
	}

	seen := make(map[Event]bool, len(p.Events))
	for _, e := range p.Events {
		if seen[e] {
			return fmt.Errorf("event %q listed twice", e)
		}
		seen[e] = true
	}

	if err := p.Diagram.validate(); err != nil {
		return err
	}

	for e, n := range p.Highlights {
		if !seen[e] {
			return fmt.Errorf("%w: highlight for %q", ErrUnknownEvent, e)
		}
		if !p.Diagram.Has(n) {
			return fmt.Errorf("%w: %q mapped from %q", ErrUnknownNode, n, e)
		}
	}

	return nil
}

// Profiles returns every persona profile in display order.
func (c *Catalog) Profiles() []*Profile {
	out := make([]*Profile, len(c.order))
	for i, name := range c.order {
		out[i] = c.profiles[name]
	}
	return out
}

func (c *Catalog) Profile(p Persona) (*Profile, error) {
	prof, ok := c.profiles[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, p)
	}
	return prof, nil
}

// ResolveHighlight picks the node to highlight for an event. A non-empty
// override always wins; an unmapped event yields no highlight.
func (c *Catalog) ResolveHighlight(p Persona, e Event, override Node) Node {
	if override != "" {
		return override
	}
	prof, ok := c.profiles[p]
	if !ok {
		return ""
	}
	return prof.Highlights[e]
}

// ResolveHighlight resolves against the embedded catalog.
func ResolveHighlight(p Persona, e Event, override Node) Node {
	return Default().ResolveHighlight(p, e, override)
}
