package arbiter

import (
	"testing"

	"github.com/arbiter-go/resolve/requirement"
	"github.com/google/go-cmp/cmp"
)

func TestGraphAddRootAndAddEdge(t *testing.T) {
	g := NewGraph()
	a := testProject("a")
	b := testProject("b")

	if err := g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Any()); err != nil {
		t.Fatalf("AddRoot(a): %v", err)
	}
	if err := g.AddEdge(a, ResolvedDependency{Project: b, Version: testVersion("2.0.0")}, requirement.Any()); err != nil {
		t.Fatalf("AddEdge(a,b): %v", err)
	}

	if v, ok := g.ProjectVersion(b); !ok || v.Version.String() != "2.0.0" {
		t.Fatalf("ProjectVersion(b) = %v, %v", v, ok)
	}
	deps := g.DependenciesOf(a)
	if len(deps) != 1 || !deps[0].EqualTo(b) {
		t.Fatalf("DependenciesOf(a) = %v, want [b]", deps)
	}
}

func TestGraphAddEdgeFailsWithoutDependentNode(t *testing.T) {
	g := NewGraph()
	a := testProject("a")
	b := testProject("b")
	err := g.AddEdge(a, ResolvedDependency{Project: b, Version: testVersion("1.0.0")}, requirement.Any())
	if err == nil {
		t.Fatalf("expected an error when dependent has no node")
	}
}

func TestGraphAddRootConflictingRequirement(t *testing.T) {
	g := NewGraph()
	a := testProject("a")
	if err := g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Exactly(testVersion("1.0.0").Version)); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	err := g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Exactly(testVersion("2.0.0").Version))
	if err == nil {
		t.Fatalf("expected a conflict error")
	}
}

func TestGraphDependencyOrderAscending(t *testing.T) {
	g := NewGraph()
	a := testProject("a")
	g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Any())
	for _, name := range []string{"zeta", "alpha", "mu"} {
		g.AddEdge(a, ResolvedDependency{Project: testProject(name), Version: testVersion("1.0.0")}, requirement.Any())
	}
	deps := g.DependenciesOf(a)
	var names []string
	for _, d := range deps {
		names = append(names, d.Payload().(string))
	}
	want := []string{"alpha", "mu", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("dependency order mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphSubgraphRootedAt(t *testing.T) {
	g := NewGraph()
	a, b, c := testProject("a"), testProject("b"), testProject("c")
	g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Any())
	g.AddRoot(ResolvedDependency{Project: c, Version: testVersion("1.0.0")}, requirement.Any())
	g.AddEdge(a, ResolvedDependency{Project: b, Version: testVersion("1.0.0")}, requirement.Any())

	sub := g.SubgraphRootedAt([]ProjectIdentifier{a})
	if sub.NodeCount() != 2 {
		t.Fatalf("subgraph has %d nodes, want 2 (a, b)", sub.NodeCount())
	}
	if _, ok := sub.ProjectVersion(c); ok {
		t.Fatalf("subgraph should not contain unreachable project c")
	}
}

func TestGraphClone(t *testing.T) {
	g := NewGraph()
	a := testProject("a")
	g.AddRoot(ResolvedDependency{Project: a, Version: testVersion("1.0.0")}, requirement.Any())

	clone := g.Clone()
	clone.AddEdge(a, ResolvedDependency{Project: testProject("b"), Version: testVersion("1.0.0")}, requirement.Any())

	if g.NodeCount() != 1 {
		t.Fatalf("mutating clone affected original: NodeCount() = %d, want 1", g.NodeCount())
	}
	if clone.NodeCount() != 2 {
		t.Fatalf("clone NodeCount() = %d, want 2", clone.NodeCount())
	}
}
