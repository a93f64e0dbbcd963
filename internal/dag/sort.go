// Package dag orders workflow jobs by their declared dependencies.
package dag

import (
	"fmt"
	"strings"
)

// DependencyError reports an edge to an unknown job or a dependency
// cycle.
type DependencyError struct {
	// Job is the declaring job for an unknown dependency.
	Job string
	// Unknown is the referenced job missing from the scanned set.
	Unknown string
	// Cycle lists the jobs left unprocessed by the sort.
	Cycle []string
}

func (e *DependencyError) Error() string {
	if e.Unknown != "" {
		return fmt.Sprintf("job %q depends on %q, which does not exist in the workflow", e.Job, e.Unknown)
	}
	return fmt.Sprintf("circular dependency involving jobs: %s", strings.Join(e.Cycle, ", "))
}

// Sort returns names in dependency order using Kahn's algorithm. The
// deps map gives, for each job, the jobs it depends on. Jobs absent
// from the map have no dependencies. The FIFO queue preserves the
// input order of names, so identical inputs yield identical outputs.
func Sort(names []string, deps map[string][]string) ([]string, error) {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	inDegree := make(map[string]int, len(names))
	dependents := make(map[string][]string, len(names))
	for _, name := range names {
		for _, dep := range deps[name] {
			if !known[dep] {
				return nil, &DependencyError{Job: name, Unknown: dep}
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	sorted := make([]string, 0, len(names))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		sorted = append(sorted, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(names) {
		processed := make(map[string]bool, len(sorted))
		for _, name := range sorted {
			processed[name] = true
		}
		var cycle []string
		for _, name := range names {
			if !processed[name] {
				cycle = append(cycle, name)
			}
		}
		return nil, &DependencyError{Cycle: cycle}
	}

	return sorted, nil
}
