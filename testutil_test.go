package arbiter

import (
	"context"

	"github.com/arbiter-go/resolve/semver"
	"github.com/arbiter-go/resolve/value"
)

func stringCapability() value.Capability {
	return value.Capability{
		EqualTo:           func(a, b any) bool { return a.(string) == b.(string) },
		LessThan:          func(a, b any) bool { return a.(string) < b.(string) },
		Hash:              func(a any) uint64 { return fnv64a(a.(string)) },
		CreateDescription: func(a any) string { return a.(string) },
	}
}

func testProject(name string) ProjectIdentifier {
	return NewProjectIdentifier(name, stringCapability())
}

func testVersion(s string) SelectedVersion {
	return NewSelectedVersion(semver.MustParse(s), value.Value{})
}

func testVersions(ss ...string) []SelectedVersion {
	out := make([]SelectedVersion, len(ss))
	for i, s := range ss {
		out[i] = testVersion(s)
	}
	return out
}

// fakeFetcher is an in-memory Fetcher backed by fixture maps keyed by
// project name and version string, for tests that don't need real I/O.
type fakeFetcher struct {
	versions map[string][]SelectedVersion
	deps     map[string]map[string][]Dependency
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		versions: make(map[string][]SelectedVersion),
		deps:     make(map[string]map[string][]Dependency),
	}
}

func (f *fakeFetcher) setVersions(project string, versions ...string) {
	f.versions[project] = testVersions(versions...)
}

func (f *fakeFetcher) setDeps(project, version string, deps ...Dependency) {
	if f.deps[project] == nil {
		f.deps[project] = make(map[string][]Dependency)
	}
	f.deps[project][version] = deps
}

func (f *fakeFetcher) AvailableVersions(ctx context.Context, project ProjectIdentifier) ([]SelectedVersion, error) {
	return f.versions[project.Payload().(string)], nil
}

func (f *fakeFetcher) DependenciesOf(ctx context.Context, project ProjectIdentifier, version SelectedVersion) ([]Dependency, error) {
	return f.deps[project.Payload().(string)][version.Version.String()], nil
}
