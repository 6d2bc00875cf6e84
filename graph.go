package arbiter

import "github.com/arbiter-go/resolve/requirement"

// graphNode is what the graph remembers about one project: the version
// selected for it, and the effective requirement that selection must keep
// satisfying as more edges are added.
type graphNode struct {
	version     SelectedVersion
	requirement requirement.Requirement
}

// Graph is a resolved dependency graph: one node per project (its selected
// version and the effective requirement that version was chosen against),
// plus a dependent → dependencies edge set. It is mutated only through
// AddRoot/AddEdge (which preserve every invariant below) or by a Resolver
// during a single Resolve call.
//
// Invariants:
//  1. For every node, its requirement is satisfied by its selected version.
//  2. Every project named by an edge endpoint is present in nodes.
//  3. The edge relation is acyclic.
//  4. No two nodes share a project.
//
// Every public mutation preserves invariants 1, 2 and 4. AddEdge does not
// check for cycles: an edge that closes a cycle is recorded, and
// NewInstaller reports such a graph as an InternalError.
type Graph struct {
	nodes *projectMap[graphNode]
	edges *projectMap[projectSet]
}

// NewGraph returns an empty resolved dependency graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: newProjectMap[graphNode](),
		edges: newProjectMap[projectSet](),
	}
}

// AddRoot adds resolved as a node with no incoming edge. If the project
// already has a node, r is intersected with its existing effective
// requirement; a mutually exclusive pair, or an intersection the existing
// selection no longer satisfies, is reported as an error and the graph is
// left unchanged.
func (g *Graph) AddRoot(resolved ResolvedDependency, r requirement.Requirement) error {
	return g.upsertNode(resolved, r)
}

// AddEdge adds resolved as a node if absent (via the same intersection
// logic as AddRoot), then records an edge from dependent to resolved's
// project. AddEdge fails if dependent does not already have a node.
func (g *Graph) AddEdge(dependent ProjectIdentifier, resolved ResolvedDependency, r requirement.Requirement) error {
	if !g.nodes.Has(dependent) {
		return &InternalError{Detail: "AddEdge: dependent project has no node in the graph"}
	}
	if err := g.upsertNode(resolved, r); err != nil {
		return err
	}
	set, ok := g.edges.Get(dependent)
	if !ok {
		set = newProjectSet()
		g.edges.Set(dependent, set)
	}
	set.Add(resolved.Project)
	return nil
}

func (g *Graph) upsertNode(resolved ResolvedDependency, r requirement.Requirement) error {
	existing, ok := g.nodes.Get(resolved.Project)
	if !ok {
		if !r.SatisfiedBy(resolved.Version.Version) {
			return &ConflictingNodeError{Project: resolved.Project, Existing: requirement.Any(), Proposed: r}
		}
		g.nodes.Set(resolved.Project, graphNode{version: resolved.Version, requirement: r})
		return nil
	}

	merged, ok := requirement.Intersect(existing.requirement, r)
	if !ok {
		return &MutuallyExclusiveConstraintsError{Project: resolved.Project, A: existing.requirement, B: r}
	}
	version := existing.version
	if !version.EqualTo(resolved.Version) {
		// A later addRoot/addEdge names a different concrete version for a
		// project that already has one selected — only acceptable if the
		// existing selection still satisfies the merged requirement; the
		// graph never silently re-selects.
		if !merged.SatisfiedBy(version.Version) {
			return &ConflictingNodeError{Project: resolved.Project, Existing: existing.requirement, Proposed: r}
		}
	} else if !merged.SatisfiedBy(version.Version) {
		return &ConflictingNodeError{Project: resolved.Project, Existing: existing.requirement, Proposed: r}
	}
	g.nodes.Set(resolved.Project, graphNode{version: version, requirement: merged})
	return nil
}

// ProjectVersion returns the version selected for p, if p has a node.
func (g *Graph) ProjectVersion(p ProjectIdentifier) (SelectedVersion, bool) {
	n, ok := g.nodes.Get(p)
	if !ok {
		return SelectedVersion{}, false
	}
	return n.version, true
}

// ProjectRequirement returns the effective requirement recorded for p, if
// p has a node.
func (g *Graph) ProjectRequirement(p ProjectIdentifier) (requirement.Requirement, bool) {
	n, ok := g.nodes.Get(p)
	if !ok {
		return requirement.Requirement{}, false
	}
	return n.requirement, true
}

// DependenciesOf returns the immediate dependencies recorded for p, in
// ascending ProjectIdentifier order.
func (g *Graph) DependenciesOf(p ProjectIdentifier) []ProjectIdentifier {
	set, ok := g.edges.Get(p)
	if !ok {
		return nil
	}
	return set.SortedKeys()
}

// NodeCount returns the number of projects with a node in the graph.
func (g *Graph) NodeCount() int {
	return g.nodes.Len()
}

// Nodes returns every resolved dependency in the graph, in ascending
// ProjectIdentifier order.
func (g *Graph) Nodes() []ResolvedDependency {
	ids := g.nodes.SortedKeys()
	out := make([]ResolvedDependency, len(ids))
	for i, id := range ids {
		n, _ := g.nodes.Get(id)
		out[i] = ResolvedDependency{Project: id, Version: n.version}
	}
	return out
}

// Clone returns a deep-enough copy of g: mutating the clone's nodes or
// edges never affects g. ProjectIdentifier values themselves are shared
// opaque references (cloning them is the caller's responsibility via
// ProjectIdentifier.Clone if independent lifetimes are needed).
func (g *Graph) Clone() *Graph {
	clone := NewGraph()
	for _, id := range g.nodes.Keys() {
		n, _ := g.nodes.Get(id)
		clone.nodes.Set(id, n)
	}
	for _, id := range g.edges.Keys() {
		set, _ := g.edges.Get(id)
		newSet := newProjectSet()
		for _, dep := range set.Keys() {
			newSet.Add(dep)
		}
		clone.edges.Set(id, newSet)
	}
	return clone
}

// SubgraphRootedAt returns a new graph containing exactly the nodes
// reachable from roots (inclusive), with edges restricted to that subset.
// The roots need not share a common ancestor.
func (g *Graph) SubgraphRootedAt(roots []ProjectIdentifier) *Graph {
	reachable := newProjectSet()
	var visit func(p ProjectIdentifier)
	visit = func(p ProjectIdentifier) {
		if reachable.Has(p) {
			return
		}
		if !g.nodes.Has(p) {
			return
		}
		reachable.Add(p)
		for _, dep := range g.DependenciesOf(p) {
			visit(dep)
		}
	}
	for _, r := range roots {
		visit(r)
	}

	sub := NewGraph()
	for _, id := range reachable.SortedKeys() {
		n, _ := g.nodes.Get(id)
		sub.nodes.Set(id, n)
	}
	for _, id := range reachable.SortedKeys() {
		set, ok := g.edges.Get(id)
		if !ok {
			continue
		}
		newSet := newProjectSet()
		for _, dep := range set.Keys() {
			if reachable.Has(dep) {
				newSet.Add(dep)
			}
		}
		if newSet.Len() > 0 {
			sub.edges.Set(id, newSet)
		}
	}
	return sub
}
