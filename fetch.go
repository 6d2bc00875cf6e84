package arbiter

import (
	"context"
	"sort"

	"github.com/arbiter-go/resolve/semver"
	"github.com/arbiter-go/resolve/value"
	"golang.org/x/sync/singleflight"
)

// Fetcher supplies the two pieces of data the resolver cannot derive on its
// own: which versions of a project exist, and what a given version of a
// project depends on. Implementations may perform I/O; the resolver calls
// them synchronously from the task driving the search, but an
// implementation is free to dispatch internally to
// background workers as long as it still returns synchronously.
type Fetcher interface {
	// AvailableVersions returns every version the caller is willing to
	// consider for project, in any order — the memoizing cache sorts
	// descending by SemVer precedence before the resolver sees them.
	AvailableVersions(ctx context.Context, project ProjectIdentifier) ([]SelectedVersion, error)

	// DependenciesOf returns the dependency list a specific version of
	// project declares.
	DependenciesOf(ctx context.Context, project ProjectIdentifier, version SelectedVersion) ([]Dependency, error)
}

// MetadataLookup is an optional capability a Fetcher may additionally
// implement for callers who can resolve a version by an opaque metadata
// blob (e.g. a commit hash) that need not appear in AvailableVersions.
type MetadataLookup interface {
	SelectedVersionForMetadata(ctx context.Context, project ProjectIdentifier, metadata value.Value) (SelectedVersion, bool, error)
}

// cachedFetcher wraps a caller's Fetcher with memoization and per-key call
// deduplication: each mandatory callback is invoked at most once per unique
// argument pair over the cachedFetcher's lifetime, and concurrent resolver
// workers asking for the same key block on one in-flight call rather than
// racing to populate the memo (the spec's "no callback invoked from more
// than one task at a time for the same key", implemented with
// singleflight.Group instead of a hand-rolled promise).
type cachedFetcher struct {
	fetcher Fetcher

	availableVersionsGroup singleflight.Group
	dependenciesOfGroup    singleflight.Group

	availableVersions *projectMap[[]SelectedVersion]
	dependencies      *projectMap[*versionDependencyCache]

	stats *Stats
}

// versionDependencyCache holds the memoized DependenciesOf results for one
// project, keyed by linear scan over SelectedVersion equality (a project
// typically has at most a few dozen live versions in a single resolve, so a
// hash-bucketed structure here would be overhead without benefit).
type versionDependencyCache struct {
	entries []versionDependencyEntry
}

type versionDependencyEntry struct {
	version SelectedVersion
	deps    []Dependency
}

func newCachedFetcher(f Fetcher, stats *Stats) *cachedFetcher {
	return &cachedFetcher{
		fetcher:           f,
		availableVersions: newProjectMap[[]SelectedVersion](),
		dependencies:      newProjectMap[*versionDependencyCache](),
		stats:             stats,
	}
}

// AvailableVersions returns project's candidate versions, sorted descending
// by SemVer precedence, fetching and caching them on first request.
func (c *cachedFetcher) AvailableVersions(ctx context.Context, project ProjectIdentifier) ([]SelectedVersion, error) {
	if cached, ok := c.availableVersions.Get(project); ok {
		return cached, nil
	}

	key := projectCacheKey(project)
	result, err, _ := c.availableVersionsGroup.Do(key, func() (any, error) {
		if cached, ok := c.availableVersions.Get(project); ok {
			return cached, nil
		}
		c.stats.AvailableVersionsCalls++
		versions, err := c.fetcher.AvailableVersions(ctx, project)
		if err != nil {
			return nil, &UserError{Project: project, Cause: err}
		}
		sorted := append([]SelectedVersion(nil), versions...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return semver.Compare(sorted[i].Version, sorted[j].Version) > 0
		})
		c.availableVersions.Set(project, sorted)
		c.stats.CachedAvailableVersionsSize++
		return sorted, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]SelectedVersion), nil
}

// DependenciesOf returns the dependency list version declares for project,
// fetching and caching it on first request.
func (c *cachedFetcher) DependenciesOf(ctx context.Context, project ProjectIdentifier, version SelectedVersion) ([]Dependency, error) {
	if bucket, ok := c.dependencies.Get(project); ok {
		for _, e := range bucket.entries {
			if e.version.EqualTo(version) {
				return e.deps, nil
			}
		}
	}

	key := projectCacheKey(project) + "@" + version.String()
	result, err, _ := c.dependenciesOfGroup.Do(key, func() (any, error) {
		if bucket, ok := c.dependencies.Get(project); ok {
			for _, e := range bucket.entries {
				if e.version.EqualTo(version) {
					return e.deps, nil
				}
			}
		}
		c.stats.DependenciesOfCalls++
		deps, err := c.fetcher.DependenciesOf(ctx, project, version)
		if err != nil {
			return nil, &UserError{Project: project, Cause: err}
		}
		bucket, ok := c.dependencies.Get(project)
		if !ok {
			bucket = &versionDependencyCache{}
			c.dependencies.Set(project, bucket)
		}
		bucket.entries = append(bucket.entries, versionDependencyEntry{version: version, deps: deps})
		c.stats.CachedDependenciesSize++
		return deps, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Dependency), nil
}

// projectCacheKey derives a singleflight key for project. singleflight
// dedupes by string key, so this folds the opaque Hash down to text; hash
// collisions only risk an extra blocking wait, not incorrect memoization,
// since every cache read afterward re-verifies identity via EqualTo.
func projectCacheKey(p ProjectIdentifier) string {
	return formatUint64(p.Hash())
}

func formatUint64(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
