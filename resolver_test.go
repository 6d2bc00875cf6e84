package arbiter

import (
	"context"
	"testing"

	"github.com/arbiter-go/resolve/requirement"
	"github.com/arbiter-go/resolve/semver"
)

func resolveOrFatal(t *testing.T, fetcher Fetcher, roots []Dependency) *Graph {
	t.Helper()
	r, err := Prepare(Parameters{Fetcher: fetcher, RootDependencies: roots})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	g, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g
}

func TestResolveEmpty(t *testing.T) {
	g := resolveOrFatal(t, newFakeFetcher(), nil)
	if g.NodeCount() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", g.NodeCount())
	}
	inst, err := NewInstaller(g)
	if err != nil {
		t.Fatalf("NewInstaller: %v", err)
	}
	if inst.PhaseCount() != 0 {
		t.Fatalf("expected 0 phases, got %d", inst.PhaseCount())
	}
}

func TestResolveSingleProjectPicksHighestSatisfying(t *testing.T) {
	f := newFakeFetcher()
	f.setVersions("x", "1.0.0", "2.0.0", "3.0.0")

	g := resolveOrFatal(t, f, []Dependency{
		{Project: testProject("x"), Requirement: requirement.AtLeast(semver.MustParse("2.0.0"))},
	})

	v, ok := g.ProjectVersion(testProject("x"))
	if !ok {
		t.Fatalf("x has no selected version")
	}
	if v.Version.String() != "3.0.0" {
		t.Fatalf("selected %s, want 3.0.0", v.Version)
	}
}

func TestResolveThreeIndependentProjects(t *testing.T) {
	f := newFakeFetcher()
	f.setVersions("A", "1.0.0", "2.0.0", "3.0.0")
	f.setVersions("B", "2.0.0")
	f.setVersions("C", "1.0.0")

	g := resolveOrFatal(t, f, []Dependency{
		{Project: testProject("A"), Requirement: requirement.AtLeast(semver.MustParse("2.0.1"))},
		{Project: testProject("B"), Requirement: requirement.CompatibleWith(semver.MustParse("2.0.0"), requirement.Strict)},
		{Project: testProject("C"), Requirement: requirement.Exactly(semver.MustParse("1.0.0"))},
	})

	want := map[string]string{"A": "3.0.0", "B": "2.0.0", "C": "1.0.0"}
	for name, expect := range want {
		v, ok := g.ProjectVersion(testProject(name))
		if !ok {
			t.Fatalf("%s has no selected version", name)
		}
		if v.Version.String() != expect {
			t.Fatalf("%s = %s, want %s", name, v.Version, expect)
		}
	}

	inst, err := NewInstaller(g)
	if err != nil {
		t.Fatalf("NewInstaller: %v", err)
	}
	if inst.PhaseCount() != 1 {
		t.Fatalf("expected exactly one phase, got %d", inst.PhaseCount())
	}
	if len(inst.InPhase(0)) != 3 {
		t.Fatalf("expected 3 projects in phase 0, got %d", len(inst.InPhase(0)))
	}
}

func TestResolveTransitive(t *testing.T) {
	f := newFakeFetcher()
	f.setVersions("ancestor", "1.0.1-alpha")
	f.setVersions("parent", "1.0.0", "1.2.3", "1.3.0")
	f.setVersions("middle", "1.0.0", "1.0.1", "1.3.0")
	f.setVersions("leaf_majors_only", "1.0.0", "2.0.0")
	f.setVersions("leaf_dailybuild", "2.0.0", "2.1.0+dailybuild")
	f.setVersions("leaf", "0.2.0", "0.2.3")

	f.setDeps("ancestor", "1.0.1-alpha",
		Dependency{Project: testProject("middle"), Requirement: requirement.CompatibleWith(semver.MustParse("1.0.1"), requirement.Strict)},
		Dependency{Project: testProject("leaf_majors_only"), Requirement: requirement.AtLeast(semver.MustParse("1.0.0"))},
		Dependency{Project: testProject("leaf_dailybuild"), Requirement: requirement.AtLeast(semver.MustParse("2.0.0"))},
	)
	f.setDeps("middle", "1.3.0",
		Dependency{Project: testProject("leaf_majors_only"), Requirement: requirement.Exactly(semver.MustParse("2.0.0"))},
		Dependency{Project: testProject("leaf"), Requirement: requirement.CompatibleWith(semver.MustParse("0.2.0"), requirement.AllowVersionZeroPatches)},
	)
	f.setDeps("parent", "1.3.0",
		Dependency{Project: testProject("leaf"), Requirement: requirement.Exactly(semver.MustParse("0.2.3"))},
		Dependency{Project: testProject("leaf_dailybuild"), Requirement: requirement.CompatibleWith(semver.MustParse("2.1.0"), requirement.Strict)},
	)

	g := resolveOrFatal(t, f, []Dependency{
		{Project: testProject("ancestor"), Requirement: requirement.Exactly(semver.MustParse("1.0.1-alpha"))},
		{Project: testProject("parent"), Requirement: requirement.CompatibleWith(semver.MustParse("1.2.3"), requirement.Strict)},
	})

	want := map[string]string{
		"ancestor":         "1.0.1-alpha",
		"middle":           "1.3.0",
		"parent":           "1.3.0",
		"leaf":             "0.2.3",
		"leaf_majors_only": "2.0.0",
		"leaf_dailybuild":  "2.1.0+dailybuild",
	}
	for name, expect := range want {
		v, ok := g.ProjectVersion(testProject(name))
		if !ok {
			t.Fatalf("%s has no selected version", name)
		}
		if v.Version.String() != expect {
			t.Fatalf("%s = %s, want %s", name, v.Version, expect)
		}
	}
}

func TestResolveMutualExclusion(t *testing.T) {
	f := newFakeFetcher()
	f.setVersions("A", "1.0.0", "2.0.0")

	r, err := Prepare(Parameters{Fetcher: f, RootDependencies: []Dependency{
		{Project: testProject("A"), Requirement: requirement.Exactly(semver.MustParse("1.0.0"))},
		{Project: testProject("A"), Requirement: requirement.AtLeast(semver.MustParse("2.0.0"))},
	}})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_, err = r.Resolve(context.Background())
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
	if _, ok := err.(*MutuallyExclusiveConstraintsError); !ok {
		t.Fatalf("got %T (%v), want *MutuallyExclusiveConstraintsError", err, err)
	}
}

func TestResolvePrereleaseOptIn(t *testing.T) {
	f := newFakeFetcher()
	f.setVersions("X", "1.0.0", "1.0.1-alpha", "1.0.1")

	cases := []struct {
		name string
		req  requirement.Requirement
		want string
	}{
		{"at least stable base selects release", requirement.AtLeast(semver.MustParse("1.0.0")), "1.0.1"},
		{"exactly prerelease selects prerelease", requirement.Exactly(semver.MustParse("1.0.1-alpha")), "1.0.1-alpha"},
		{"at least prerelease base still prefers release", requirement.AtLeast(semver.MustParse("1.0.1-alpha")), "1.0.1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := resolveOrFatal(t, f, []Dependency{{Project: testProject("X"), Requirement: c.req}})
			v, ok := g.ProjectVersion(testProject("X"))
			if !ok {
				t.Fatalf("X has no selected version")
			}
			if v.Version.String() != c.want {
				t.Fatalf("got %s, want %s", v.Version, c.want)
			}
		})
	}
}
