// Command example is a minimal demonstration of embedding the resolver: it
// is not part of the core library and is not exercised by any core
// operation. Grounded on the teacher's root-level example.go, which shows
// embedding gps.Prepare/Solve the same way.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/arbiter-go/resolve"
	"github.com/arbiter-go/resolve/requirement"
	"github.com/arbiter-go/resolve/semver"
	"github.com/arbiter-go/resolve/value"
)

// demoFetcher is a tiny in-memory Fetcher standing in for a real source of
// project metadata (a registry client, a database, a filesystem scan).
type demoFetcher struct {
	versions map[string][]arbiter.SelectedVersion
	deps     map[string][]arbiter.Dependency
}

func (f *demoFetcher) AvailableVersions(ctx context.Context, p arbiter.ProjectIdentifier) ([]arbiter.SelectedVersion, error) {
	return f.versions[p.Payload().(string)], nil
}

func (f *demoFetcher) DependenciesOf(ctx context.Context, p arbiter.ProjectIdentifier, v arbiter.SelectedVersion) ([]arbiter.Dependency, error) {
	return f.deps[fmt.Sprintf("%s@%s", p.Payload().(string), v.Version)], nil
}

func projectNamed(name string) arbiter.ProjectIdentifier {
	return arbiter.NewProjectIdentifier(name, value.Capability{
		EqualTo:           func(a, b any) bool { return a.(string) == b.(string) },
		LessThan:          func(a, b any) bool { return a.(string) < b.(string) },
		Hash:              value.HashStructure(),
		CreateDescription: func(a any) string { return a.(string) },
	})
}

func versionOf(s string) arbiter.SelectedVersion {
	return arbiter.NewSelectedVersion(semver.MustParse(s), value.Value{})
}

func main() {
	fetcher := &demoFetcher{
		versions: map[string][]arbiter.SelectedVersion{
			"webapp": {versionOf("1.0.0")},
			"router": {versionOf("1.0.0"), versionOf("1.1.0"), versionOf("2.0.0")},
		},
		deps: map[string][]arbiter.Dependency{
			"webapp@1.0.0": {
				{Project: projectNamed("router"), Requirement: requirement.AtLeast(semver.MustParse("1.0.0"))},
			},
		},
	}

	resolver, err := arbiter.Prepare(arbiter.Parameters{
		Fetcher: fetcher,
		RootDependencies: []arbiter.Dependency{
			{Project: projectNamed("webapp"), Requirement: requirement.Exactly(semver.MustParse("1.0.0"))},
		},
		Trace:       true,
		TraceLogger: log.New(os.Stdout, "", 0),
	})
	if err != nil {
		log.Fatal(err)
	}

	graph, err := resolver.Resolve(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	installer, err := arbiter.NewInstaller(graph)
	if err != nil {
		log.Fatal(err)
	}
	for i := 0; i < installer.PhaseCount(); i++ {
		fmt.Printf("phase %d:\n", i)
		for _, rd := range installer.InPhase(i) {
			fmt.Printf("  %s @ %s\n", rd.Project, rd.Version)
		}
	}
}
