package arbiter

import (
	"testing"

	"github.com/arbiter-go/resolve/requirement"
)

func buildLayeredGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	leaf := testProject("leaf")
	mid := testProject("mid")
	top := testProject("top")

	if err := g.AddRoot(ResolvedDependency{Project: top, Version: testVersion("1.0.0")}, requirement.Any()); err != nil {
		t.Fatalf("AddRoot(top): %v", err)
	}
	if err := g.AddEdge(top, ResolvedDependency{Project: mid, Version: testVersion("1.0.0")}, requirement.Any()); err != nil {
		t.Fatalf("AddEdge(top,mid): %v", err)
	}
	if err := g.AddEdge(mid, ResolvedDependency{Project: leaf, Version: testVersion("1.0.0")}, requirement.Any()); err != nil {
		t.Fatalf("AddEdge(mid,leaf): %v", err)
	}
	return g
}

func TestInstallerPhaseLayering(t *testing.T) {
	g := buildLayeredGraph(t)
	inst, err := NewInstaller(g)
	if err != nil {
		t.Fatalf("NewInstaller: %v", err)
	}
	if inst.PhaseCount() != 3 {
		t.Fatalf("PhaseCount() = %d, want 3", inst.PhaseCount())
	}

	phase0 := inst.InPhase(0)
	if len(phase0) != 1 || phase0[0].Project.Payload().(string) != "leaf" {
		t.Fatalf("phase 0 = %v, want [leaf]", phase0)
	}
	phase1 := inst.InPhase(1)
	if len(phase1) != 1 || phase1[0].Project.Payload().(string) != "mid" {
		t.Fatalf("phase 1 = %v, want [mid]", phase1)
	}
	phase2 := inst.InPhase(2)
	if len(phase2) != 1 || phase2[0].Project.Payload().(string) != "top" {
		t.Fatalf("phase 2 = %v, want [top]", phase2)
	}
}

func TestInstallerIndependentProjectsShareAPhase(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"a", "b", "c"} {
		if err := g.AddRoot(ResolvedDependency{Project: testProject(name), Version: testVersion("1.0.0")}, requirement.Any()); err != nil {
			t.Fatalf("AddRoot(%s): %v", name, err)
		}
	}
	inst, err := NewInstaller(g)
	if err != nil {
		t.Fatalf("NewInstaller: %v", err)
	}
	if inst.PhaseCount() != 1 {
		t.Fatalf("PhaseCount() = %d, want 1", inst.PhaseCount())
	}
	if len(inst.InPhase(0)) != 3 {
		t.Fatalf("phase 0 has %d projects, want 3", len(inst.InPhase(0)))
	}
}

func TestInstallerSoundness(t *testing.T) {
	g := buildLayeredGraph(t)
	inst, err := NewInstaller(g)
	if err != nil {
		t.Fatalf("NewInstaller: %v", err)
	}

	phaseOf := make(map[string]int)
	for i := 0; i < inst.PhaseCount(); i++ {
		for _, rd := range inst.InPhase(i) {
			phaseOf[rd.Project.Payload().(string)] = i
		}
	}
	for _, id := range g.Nodes() {
		name := id.Project.Payload().(string)
		for _, dep := range g.DependenciesOf(id.Project) {
			depName := dep.Payload().(string)
			if phaseOf[name] <= phaseOf[depName] {
				t.Fatalf("dependent %s (phase %d) must be in a later phase than dependency %s (phase %d)",
					name, phaseOf[name], depName, phaseOf[depName])
			}
		}
	}
}
