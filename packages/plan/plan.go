// Package plan loads and validates YAML run plans: the gatekeepers a run
// expects and the dependency edges between them, checked for unknown
// references and cycles before any test executes.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan declares the gatekeepers of a run.
type Plan struct {
	Gatekeepers []Gatekeeper `yaml:"gatekeepers"`
}

// Gatekeeper declares one named gate and its prerequisites.
type Gatekeeper struct {
	Key       string   `yaml:"key"`
	DependsOn []string `yaml:"dependsOn,omitempty"`
}

// Load reads and parses a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML plan content.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

// Validate checks the plan for empty or duplicate keys, references to
// undeclared gatekeepers, and dependency cycles.
func (p *Plan) Validate() error {
	keys := make(map[string]bool, len(p.Gatekeepers))
	for _, g := range p.Gatekeepers {
		if g.Key == "" {
			return fmt.Errorf("plan contains a gatekeeper with an empty key")
		}
		if keys[g.Key] {
			return fmt.Errorf("duplicate gatekeeper key %q", g.Key)
		}
		keys[g.Key] = true
	}

	for _, g := range p.Gatekeepers {
		for _, dep := range g.DependsOn {
			if !keys[dep] {
				return fmt.Errorf("gatekeeper %q depends on %q which is not declared", g.Key, dep)
			}
		}
	}

	return p.checkCycles()
}

// checkCycles runs Kahn's algorithm over the declared edges; leftover nodes
// mean a cycle.
func (p *Plan) checkCycles() error {
	inDegree := make(map[string]int, len(p.Gatekeepers))
	dependents := make(map[string][]string)

	for _, g := range p.Gatekeepers {
		inDegree[g.Key] = 0
	}
	for _, g := range p.Gatekeepers {
		for _, dep := range g.DependsOn {
			dependents[dep] = append(dependents[dep], g.Key)
			inDegree[g.Key]++
		}
	}

	var queue []string
	for _, g := range p.Gatekeepers {
		if inDegree[g.Key] == 0 {
			queue = append(queue, g.Key)
		}
	}

	resolved := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		resolved++

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if resolved != len(p.Gatekeepers) {
		var stuck []string
		for key, degree := range inDegree {
			if degree > 0 {
				stuck = append(stuck, key)
			}
		}
		return fmt.Errorf("dependency cycle involving %d gatekeeper(s): %v", len(stuck), stuck)
	}
	return nil
}

// Keys returns the declared gatekeeper keys in declaration order.
func (p *Plan) Keys() []string {
	out := make([]string, 0, len(p.Gatekeepers))
	for _, g := range p.Gatekeepers {
		out = append(out, g.Key)
	}
	return out
}
