package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Resolution failures. Only these abort a whole run.
var (
	ErrEmptyRequest       = errors.New("no profiles requested")
	ErrUnknownProfile     = errors.New("unknown profile")
	ErrCircularDependency = errors.New("circular dependency")
)

// Plan is a resolved, schedulable profile set.
type Plan struct {
	// Requested is the caller's input, order preserved.
	Requested []string
	// Expanded has META profiles replaced by their non-META members,
	// deduplicated, first-occurrence order.
	Expanded []string
	// ExecutionOrder is a topological linearization: dependencies
	// precede dependents.
	ExecutionOrder []string
	// ParallelGroups are the DAG levels: each group's dependencies lie
	// entirely in earlier groups.
	ParallelGroups [][]string

	CoreProfiles         []string
	AnalysisProfiles     []string
	IntelligenceProfiles []string

	// EstimatedDuration sums group maxima, assuming groups run their
	// members concurrently. Advisory only.
	EstimatedDuration time.Duration
}

// Contains reports whether the plan schedules the named profile.
func (p *Plan) Contains(name string) bool {
	for _, n := range p.ExecutionOrder {
		if n == name {
			return true
		}
	}
	return false
}

// ParseRequest splits comma-separated profile names, trimming and
// lowercasing. Blank elements are dropped; an effectively empty
// request is an error.
func ParseRequest(input string) ([]string, error) {
	var names []string
	for _, part := range strings.Split(input, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, ErrEmptyRequest
	}
	return names, nil
}

// Resolve turns a requested profile list into an execution plan.
// Fails with ErrUnknownProfile or ErrCircularDependency; no partial
// plan is returned on failure.
func (c *Catalog) Resolve(requested []string) (*Plan, error) {
	if len(requested) == 0 {
		return nil, ErrEmptyRequest
	}
	for _, name := range requested {
		if _, ok := c.profiles[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
		}
	}

	expanded := c.expandMeta(requested)

	// Close over transitive dependencies.
	selected := make(map[string]bool)
	var addWithDeps func(name string)
	addWithDeps = func(name string) {
		if selected[name] {
			return
		}
		selected[name] = true
		for _, d := range c.profiles[name].Dependencies {
			addWithDeps(d)
		}
	}
	for _, name := range expanded {
		addWithDeps(name)
	}

	order, groups, err := c.schedule(selected)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Requested:      append([]string(nil), requested...),
		Expanded:       expanded,
		ExecutionOrder: order,
		ParallelGroups: groups,
	}
	for _, name := range order {
		switch c.profiles[name].Category {
		case CategoryCore:
			plan.CoreProfiles = append(plan.CoreProfiles, name)
		case CategoryAnalysis:
			plan.AnalysisProfiles = append(plan.AnalysisProfiles, name)
		case CategoryIntelligence:
			plan.IntelligenceProfiles = append(plan.IntelligenceProfiles, name)
		}
	}
	for _, group := range groups {
		var max time.Duration
		for _, name := range group {
			if d := c.profiles[name].EstimatedDuration; d > max {
				max = d
			}
		}
		plan.EstimatedDuration += max
	}
	return plan, nil
}

// ResolveRequest parses and resolves a comma-separated request string.
func (c *Catalog) ResolveRequest(input string) (*Plan, error) {
	names, err := ParseRequest(input)
	if err != nil {
		return nil, err
	}
	return c.Resolve(names)
}

// expandMeta replaces META profiles by their non-META members via DFS,
// preserving first-occurrence order of the resulting names. A per-path
// seen set terminates recursive META definitions.
func (c *Catalog) expandMeta(requested []string) []string {
	var out []string
	emitted := make(map[string]bool)

	var expand func(name string, seenMeta map[string]bool)
	expand = func(name string, seenMeta map[string]bool) {
		p := c.profiles[name]
		if p.Category != CategoryMeta {
			if !emitted[name] {
				emitted[name] = true
				out = append(out, name)
			}
			return
		}
		if seenMeta[name] {
			return
		}
		seenMeta[name] = true
		for _, m := range p.Members {
			expand(m, seenMeta)
		}
	}

	for _, name := range requested {
		expand(name, make(map[string]bool))
	}
	return out
}

// schedule runs Kahn's algorithm over the induced subgraph and derives
// level-based parallel groups. Ready nodes are drained in category
// order (CORE < ANALYSIS < INTELLIGENCE) then alphabetically, which
// makes the linearization deterministic.
func (c *Catalog) schedule(selected map[string]bool) ([]string, [][]string, error) {
	indegree := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))
	for name := range selected {
		indegree[name] = 0
	}
	for name := range selected {
		for _, d := range c.profiles[name].Dependencies {
			if !selected[d] {
				continue
			}
			indegree[name]++
			dependents[d] = append(dependents[d], name)
		}
	}

	less := func(a, b string) bool {
		ra, rb := categoryRank(c.profiles[a].Category), categoryRank(c.profiles[b].Category)
		if ra != rb {
			return ra < rb
		}
		return a < b
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	var order []string
	var groups [][]string
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		group := ready
		ready = nil

		order = append(order, group...)
		groups = append(groups, group)

		for _, name := range group {
			for _, dep := range dependents[name] {
				indegree[dep]--
				if indegree[dep] == 0 {
					ready = append(ready, dep)
				}
			}
		}
	}

	if len(order) != len(selected) {
		var stuck []string
		for name := range selected {
			if indegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, nil, fmt.Errorf("%w: %v", ErrCircularDependency, stuck)
	}
	return order, groups, nil
}
