// Package catalog holds the profile catalog and the resolver that
// turns a requested profile set into an execution plan. The catalog is
// built once at startup and read-only afterwards.
package catalog

import (
	"fmt"
	"sort"
	"time"
)

// Category classifies a profile.
type Category string

const (
	// Core profiles perform external I/O against a single source.
	CategoryCore Category = "CORE"
	// Analysis profiles interpret core outputs.
	CategoryAnalysis Category = "ANALYSIS"
	// Intelligence profiles derive higher-level signals.
	CategoryIntelligence Category = "INTELLIGENCE"
	// Meta profiles bundle other profiles.
	CategoryMeta Category = "META"
)

// categoryRank orders categories for deterministic tie-breaking:
// CORE < ANALYSIS < INTELLIGENCE.
func categoryRank(c Category) int {
	switch c {
	case CategoryCore:
		return 0
	case CategoryAnalysis:
		return 1
	case CategoryIntelligence:
		return 2
	default:
		return 3
	}
}

// Profile describes one named bundle of checks.
type Profile struct {
	Name              string
	Category          Category
	Dependencies      []string // non-META only
	Members           []string // META only
	Checks            []string
	Description       string
	EstimatedDuration time.Duration
}

// Catalog is the immutable profile registry.
type Catalog struct {
	profiles map[string]Profile
	order    []string // definition order, for All()
}

// New builds a catalog from the given profiles and validates it.
func New(profiles []Profile) (*Catalog, error) {
	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, dup := c.profiles[p.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate profile %q", p.Name)
		}
		c.profiles[p.Name] = p
		c.order = append(c.order, p.Name)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the named profile.
func (c *Catalog) Get(name string) (Profile, bool) {
	p, ok := c.profiles[name]
	return p, ok
}

// All returns every profile in definition order.
func (c *Catalog) All() []Profile {
	out := make([]Profile, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.profiles[name])
	}
	return out
}

// ByCategory returns the profiles of one category, sorted by name.
func (c *Catalog) ByCategory(cat Category) []Profile {
	var out []Profile
	for _, name := range c.order {
		if p := c.profiles[name]; p.Category == cat {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks the catalog invariants:
//  1. every dependency and META member refers to a known profile,
//  2. the transitive dependency graph is acyclic,
//  3. META expansion terminates,
//  4. CORE profiles have no dependencies.
func (c *Catalog) Validate() error {
	for name, p := range c.profiles {
		if p.Category == CategoryMeta {
			if len(p.Members) == 0 {
				return fmt.Errorf("catalog: meta profile %q has no members", name)
			}
			if len(p.Dependencies) > 0 {
				return fmt.Errorf("catalog: meta profile %q must not declare dependencies", name)
			}
			for _, m := range p.Members {
				if _, ok := c.profiles[m]; !ok {
					return fmt.Errorf("catalog: profile %q references unknown member %q", name, m)
				}
			}
			continue
		}
		if p.Category == CategoryCore && len(p.Dependencies) > 0 {
			return fmt.Errorf("catalog: core profile %q must have no dependencies", name)
		}
		for _, d := range p.Dependencies {
			if _, ok := c.profiles[d]; !ok {
				return fmt.Errorf("catalog: profile %q references unknown dependency %q", name, d)
			}
			if dep := c.profiles[d]; dep.Category == CategoryMeta {
				return fmt.Errorf("catalog: profile %q depends on meta profile %q", name, d)
			}
		}
	}

	if err := c.checkDependencyCycles(); err != nil {
		return err
	}
	return c.checkMetaCycles()
}

// checkDependencyCycles runs DFS with grey/black marking over the
// non-META dependency graph.
func (c *Catalog) checkDependencyCycles() error {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(c.profiles))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case grey:
			return fmt.Errorf("catalog: circular dependency: %v", append(path, name))
		case black:
			return nil
		}
		color[name] = grey
		for _, d := range c.profiles[name].Dependencies {
			if err := visit(d, append(path, name)); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}

	for _, name := range c.order {
		if c.profiles[name].Category == CategoryMeta {
			continue
		}
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// checkMetaCycles verifies recursive META expansion terminates.
func (c *Catalog) checkMetaCycles() error {
	var visit func(name string, seen map[string]bool) error
	visit = func(name string, seen map[string]bool) error {
		p := c.profiles[name]
		if p.Category != CategoryMeta {
			return nil
		}
		if seen[name] {
			return fmt.Errorf("catalog: meta expansion cycle through %q", name)
		}
		seen[name] = true
		for _, m := range p.Members {
			if err := visit(m, seen); err != nil {
				return err
			}
		}
		delete(seen, name)
		return nil
	}

	for _, name := range c.order {
		if err := visit(name, make(map[string]bool)); err != nil {
			return err
		}
	}
	return nil
}
