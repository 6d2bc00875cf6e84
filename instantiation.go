package arbiter

import (
	"slices"

	"github.com/arbiter-go/resolve/requirement"
	"github.com/arbiter-go/resolve/semver"
)

// Instantiation groups every version of one project that declares an
// identical unordered set of Dependency values. Its identity is that
// dependency set. The resolver prunes the search by marking an
// Instantiation infeasible once any of its member versions is proven to
// lead nowhere: every other member would fail for the same structural
// reason, so there is no need to retry them individually.
type Instantiation struct {
	deps     []Dependency
	key      uint64
	versions []SelectedVersion // descending by precedence, matching fetch order

	infeasible           bool
	infeasibleSinceDepth int
}

// Dependencies returns the shared dependency set identifying this class.
func (inst *Instantiation) Dependencies() []Dependency {
	return inst.deps
}

// Versions returns every version known to belong to this class, descending
// by SemVer precedence.
func (inst *Instantiation) Versions() []SelectedVersion {
	return inst.versions
}

// BestSatisfying returns the highest-precedence version in this class
// satisfying r. Grounded on the original implementation's
// Instantiation::bestVersionSatisfying, which exposes this independent of
// any live resolve — e.g. for a caller wanting to know "what would the next
// compatible bump be" without running a full resolution.
func (inst *Instantiation) BestSatisfying(r requirement.Requirement) (SelectedVersion, bool) {
	for _, v := range inst.versions {
		if r.SatisfiedBy(v.Version) {
			return v, true
		}
	}
	return SelectedVersion{}, false
}

// markInfeasible records that this instantiation cannot lead to a
// consistent graph, as of search depth. The mark is depth-scoped rather
// than permanent: backtracking past depth can relax an ancestor constraint
// that made this instantiation infeasible, so a later visit at a shallower
// depth must not inherit a stale rejection.
func (inst *Instantiation) markInfeasible(depth int) {
	inst.infeasible = true
	inst.infeasibleSinceDepth = depth
}

// isInfeasibleAt reports whether inst should be skipped when the search is
// currently at the given depth.
func (inst *Instantiation) isInfeasibleAt(depth int) bool {
	return inst.infeasible && inst.infeasibleSinceDepth <= depth
}

// projectMemo is the per-project state the resolver accumulates during a
// single resolve call: the set of Instantiations discovered so far for
// that project's versions. The full version domain itself lives in
// cachedFetcher's availableVersions cache; projectMemo only needs to track
// dependency-set equivalence classes.
type projectMemo struct {
	instantiations []*Instantiation
}

func newProjectMemo() *projectMemo {
	return &projectMemo{}
}

// getOrCreate returns the Instantiation for the given dependency set,
// creating one if this is the first version observed with that set, and
// records version as a member.
func (m *projectMemo) getOrCreate(deps []Dependency, version SelectedVersion) *Instantiation {
	key := dependencySetKey(deps)
	for _, inst := range m.instantiations {
		if inst.key == key && dependencySetEqual(inst.deps, deps) {
			pos := len(inst.versions)
			for i, existing := range inst.versions {
				if existing.EqualTo(version) {
					return inst
				}
				if pos == len(inst.versions) && semver.Compare(version.Version, existing.Version) > 0 {
					pos = i
				}
			}
			inst.versions = slices.Insert(inst.versions, pos, version)
			return inst
		}
	}
	inst := &Instantiation{deps: deps, key: key, versions: []SelectedVersion{version}}
	m.instantiations = append(m.instantiations, inst)
	return inst
}
