// Package dag provides a directed acyclic graph over phase numbers. It
// supports cycle detection, strictly-backward edge validation, topological
// ordering, and ready-phase queries used by the build orchestrator.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// ErrForwardEdge is returned when a phase depends on an equal or later phase
// number. Build phases may only reference earlier phases.
var ErrForwardEdge = errors.New("forward dependency")

// Graph is a DAG of phase numbers. Edges point from a phase to its
// dependencies: if phase 3 depends on phase 1, there is an edge 3 → 1.
type Graph struct {
	nodes map[int]bool
	// deps maps phase → set of dependency phases (forward edges).
	deps map[int]map[int]bool
	// dependents maps phase → set of phases that depend on it.
	dependents map[int]map[int]bool
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[int]bool),
		deps:       make(map[int]map[int]bool),
		dependents: make(map[int]map[int]bool),
	}
}

// AddNode adds a phase number. Returns ErrDuplicateNode if it already exists.
func (g *Graph) AddNode(n int) error {
	if g.nodes[n] {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n)
	}
	g.nodes[n] = true
	g.deps[n] = make(map[int]bool)
	g.dependents[n] = make(map[int]bool)
	return nil
}

// AddDependency records that phase n depends on phase dep. Both nodes must
// exist, dep must be strictly smaller than n, and self-edges are rejected.
func (g *Graph) AddDependency(n, dep int) error {
	if n == dep {
		return fmt.Errorf("%w: %d", ErrSelfEdge, n)
	}
	if !g.nodes[n] {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, n)
	}
	if !g.nodes[dep] {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, dep)
	}
	if dep > n {
		return fmt.Errorf("%w: %d depends on %d", ErrForwardEdge, n, dep)
	}
	g.deps[n][dep] = true
	g.dependents[dep][n] = true
	return nil
}

// Nodes returns all phase numbers in ascending order.
func (g *Graph) Nodes() []int {
	out := make([]int, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Deps returns the direct dependencies of phase n in ascending order.
func (g *Graph) Deps(n int) []int {
	out := make([]int, 0, len(g.deps[n]))
	for d := range g.deps[n] {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// Dependents returns the phases that directly depend on n, ascending.
func (g *Graph) Dependents(n int) []int {
	out := make([]int, 0, len(g.dependents[n]))
	for d := range g.dependents[n] {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// TopoOrder returns a topological ordering of all phases (dependencies
// first). Ties are broken by ascending phase number, so for a valid build
// graph the result equals ascending phase order. Returns ErrCycle if the
// graph is cyclic.
func (g *Graph) TopoOrder() ([]int, error) {
	indegree := make(map[int]int, len(g.nodes))
	for n := range g.nodes {
		indegree[n] = len(g.deps[n])
	}

	var ready []int
	for n, d := range indegree {
		if d == 0 {
			ready = append(ready, n)
		}
	}
	sort.Ints(ready)

	order := make([]int, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		newly := make([]int, 0)
		for dep := range g.dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				newly = append(newly, dep)
			}
		}
		sort.Ints(newly)
		ready = mergeSorted(ready, newly)
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// Ready returns phases whose dependencies are all satisfied by the done set
// and which are not themselves done, in ascending order. Skipped phases
// belong in the done set: they satisfy dependencies without executing.
func (g *Graph) Ready(done map[int]bool) []int {
	var out []int
	for n := range g.nodes {
		if done[n] {
			continue
		}
		ok := true
		for dep := range g.deps[n] {
			if !done[dep] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
