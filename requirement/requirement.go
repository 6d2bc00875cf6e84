// Package requirement implements the predicate lattice used to constrain
// which SemVer versions of a project are acceptable: Any, AtLeast,
// CompatibleWith, Exactly, and Compound, together with a pairwise
// intersection operation that yields the tightest joint constraint or
// signals mutual exclusion.
package requirement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arbiter-go/resolve/semver"
)

// Strictness controls whether CompatibleWith treats a patch bump as
// compatible when the base version's major component is 0.
type Strictness int

const (
	// Strict requires an exact patch match when major == 0.
	Strict Strictness = iota
	// AllowVersionZeroPatches permits patch bumps even when major == 0.
	AllowVersionZeroPatches
)

func (s Strictness) String() string {
	switch s {
	case Strict:
		return "strict"
	case AllowVersionZeroPatches:
		return "allowVersionZeroPatches"
	default:
		return fmt.Sprintf("Strictness(%d)", int(s))
	}
}

// strictest returns the stricter of two Strictness values; Strict dominates.
func strictest(a, b Strictness) Strictness {
	if a == Strict || b == Strict {
		return Strict
	}
	return AllowVersionZeroPatches
}

// kind tags which variant of the Requirement sum a value holds.
type kind int

const (
	kindAny kind = iota
	kindAtLeast
	kindCompatibleWith
	kindExactly
	kindCompound
)

// Requirement is a predicate over semver.Version. The zero Requirement is
// not meaningful; construct one with the Any/AtLeast/CompatibleWith/
// Exactly/Compound constructors.
type Requirement struct {
	kind       kind
	version    semver.Version
	strictness Strictness
	members    []Requirement // kindCompound only
}

// Any returns the requirement satisfied by every version.
func Any() Requirement {
	return Requirement{kind: kindAny}
}

// AtLeast returns the requirement satisfied by versions with precedence >= v.
func AtLeast(v semver.Version) Requirement {
	return Requirement{kind: kindAtLeast, version: v}
}

// CompatibleWith returns the "~>"-style requirement described in the
// package-level Requirement lattice: major must match; if the base's major
// is 0, minor must also match, and (under Strict) patch must match too; and
// precedence must be >= v.
func CompatibleWith(v semver.Version, strictness Strictness) Requirement {
	return Requirement{kind: kindCompatibleWith, version: v, strictness: strictness}
}

// Exactly returns the requirement satisfied only by v, compared
// component-for-component including prerelease and build metadata.
func Exactly(v semver.Version) Requirement {
	return Requirement{kind: kindExactly, version: v}
}

// Compound returns the requirement satisfied iff every member is satisfied.
// Nested Compound members passed in are flattened.
func Compound(members ...Requirement) Requirement {
	var flat []Requirement
	for _, m := range members {
		if m.kind == kindCompound {
			flat = append(flat, m.members...)
		} else {
			flat = append(flat, m)
		}
	}
	return Requirement{kind: kindCompound, members: flat}
}

// Strictness returns r's strictness value. Valid only when r is a
// CompatibleWith requirement; returns Strict otherwise.
func (r Requirement) Strictness() Strictness {
	if r.kind != kindCompatibleWith {
		return Strict
	}
	return r.strictness
}

// Base returns the version a CompatibleWith/AtLeast/Exactly requirement is
// anchored to, and whether r carries one at all (Any and Compound do not).
func (r Requirement) Base() (semver.Version, bool) {
	switch r.kind {
	case kindAtLeast, kindCompatibleWith, kindExactly:
		return r.version, true
	default:
		return semver.Version{}, false
	}
}

// HasPrereleaseBase reports whether r is anchored to a version that itself
// carries a prerelease component — used by callers implementing the
// prerelease opt-in rule (a prerelease candidate is only considered when
// the requirement explicitly names a prerelease of the same major.minor.patch).
func (r Requirement) HasPrereleaseBase() bool {
	v, ok := r.Base()
	return ok && v.HasPrerelease()
}

// AllowsPrerelease reports whether r explicitly opts in to considering a
// prerelease candidate equal to v's (major, minor, patch) triple — the
// SemVer norm that a prerelease is only ever selected when a requirement
// names a prerelease of that same triple, never incidentally via a plain
// AtLeast/CompatibleWith that happens to be satisfied by one.
func (r Requirement) AllowsPrerelease(v semver.Version) bool {
	switch r.kind {
	case kindCompound:
		for _, m := range r.members {
			if m.AllowsPrerelease(v) {
				return true
			}
		}
		return false
	case kindAny:
		return false
	default:
		base, ok := r.Base()
		return ok && base.HasPrerelease() &&
			base.Major == v.Major && base.Minor == v.Minor && base.Patch == v.Patch
	}
}

// SatisfiedBy reports whether v satisfies r.
func (r Requirement) SatisfiedBy(v semver.Version) bool {
	switch r.kind {
	case kindAny:
		return true
	case kindAtLeast:
		return semver.Compare(v, r.version) >= 0
	case kindCompatibleWith:
		return compatibleSatisfiedBy(r.version, r.strictness, v)
	case kindExactly:
		return v.Equal(r.version)
	case kindCompound:
		for _, m := range r.members {
			if !m.SatisfiedBy(v) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func compatibleSatisfiedBy(base semver.Version, strictness Strictness, v semver.Version) bool {
	if v.Major != base.Major {
		return false
	}
	if base.Major == 0 {
		if v.Minor != base.Minor {
			return false
		}
		if strictness == Strict && v.Patch != base.Patch {
			return false
		}
	}
	return semver.Compare(v, base) >= 0
}

// Intersect computes the requirement whose satisfying set is the
// intersection of r and o's satisfying sets. A false second return means r
// and o are mutually exclusive; the returned Requirement is then the zero
// value and must not be used. Intersect is commutative and, on Compound
// results, set-equal regardless of call order.
func Intersect(r, o Requirement) (Requirement, bool) {
	switch {
	case r.kind == kindAny:
		return o, true
	case o.kind == kindAny:
		return r, true
	case r.kind == kindCompound:
		return intersectCompound(r, o)
	case o.kind == kindCompound:
		return intersectCompound(o, r)
	case r.kind == kindExactly:
		return intersectExactly(r, o)
	case o.kind == kindExactly:
		return intersectExactly(o, r)
	case r.kind == kindAtLeast && o.kind == kindAtLeast:
		if semver.Compare(r.version, o.version) >= 0 {
			return AtLeast(r.version), true
		}
		return AtLeast(o.version), true
	case r.kind == kindAtLeast && o.kind == kindCompatibleWith:
		return intersectAtLeastCompatible(r, o)
	case r.kind == kindCompatibleWith && o.kind == kindAtLeast:
		return intersectAtLeastCompatible(o, r)
	case r.kind == kindCompatibleWith && o.kind == kindCompatibleWith:
		return intersectCompatibleCompatible(r, o)
	default:
		return Requirement{}, false
	}
}

func intersectAtLeastCompatible(atLeast, compat Requirement) (Requirement, bool) {
	if atLeast.SatisfiedBy(compat.version) {
		return compat, true
	}
	if compat.SatisfiedBy(atLeast.version) {
		return CompatibleWith(atLeast.version, compat.strictness), true
	}
	return Requirement{}, false
}

func intersectCompatibleCompatible(a, b Requirement) (Requirement, bool) {
	switch {
	case a.SatisfiedBy(b.version):
		return CompatibleWith(higherBase(a.version, b.version), strictest(a.strictness, b.strictness)), true
	case b.SatisfiedBy(a.version):
		return CompatibleWith(higherBase(a.version, b.version), strictest(a.strictness, b.strictness)), true
	default:
		return Requirement{}, false
	}
}

func higherBase(a, b semver.Version) semver.Version {
	if semver.Compare(a, b) >= 0 {
		return a
	}
	return b
}

func intersectExactly(exact, other Requirement) (Requirement, bool) {
	if other.kind == kindExactly {
		if exact.version.Equal(other.version) {
			return exact, true
		}
		return Requirement{}, false
	}
	if other.SatisfiedBy(exact.version) {
		return exact, true
	}
	return Requirement{}, false
}

// intersectCompound returns the Compound whose members are rs ∪ {other},
// where rs is compound's existing members — a true set union, so other is
// dropped rather than duplicated if it already equals one of rs.
func intersectCompound(compound, other Requirement) (Requirement, bool) {
	members := append([]Requirement{}, compound.members...)
	for _, m := range members {
		if m.Equal(other) {
			return compound, true
		}
	}
	return Compound(append(members, other)...), true
}

// Equal reports structural equality, treating Compound member order as a
// set (Compound{a,b} == Compound{b,a}).
func (r Requirement) Equal(o Requirement) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case kindAny:
		return true
	case kindAtLeast, kindExactly:
		return r.version.Equal(o.version)
	case kindCompatibleWith:
		return r.version.Equal(o.version) && r.strictness == o.strictness
	case kindCompound:
		return compoundEqual(r.members, o.members)
	default:
		return false
	}
}

func compoundEqual(a, b []Requirement) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ra := range a {
		found := false
		for j, rb := range b {
			if used[j] {
				continue
			}
			if ra.Equal(rb) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String renders r in a ">="/"~>"/"==" prefixed form used for tracing. No
// parser in this module reads the form back.
func (r Requirement) String() string {
	switch r.kind {
	case kindAny:
		return "any"
	case kindAtLeast:
		return ">=" + r.version.String()
	case kindCompatibleWith:
		return "~>" + r.version.String() + "(" + r.strictness.String() + ")"
	case kindExactly:
		return "==" + r.version.String()
	case kindCompound:
		parts := make([]string, len(r.members))
		for i, m := range r.members {
			parts[i] = m.String()
		}
		sort.Strings(parts)
		return "all(" + strings.Join(parts, ", ") + ")"
	default:
		return "<invalid requirement>"
	}
}
