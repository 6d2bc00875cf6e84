// Package arbiter is an embeddable SemVer dependency resolver: given root
// requirements and caller-supplied fetch callbacks, it produces a single
// consistent assignment of one version per project and an installation
// schedule of mutually-independent phases.
package arbiter

import (
	"fmt"

	"github.com/arbiter-go/resolve/requirement"
	"github.com/arbiter-go/resolve/semver"
	"github.com/arbiter-go/resolve/value"
)

// ProjectIdentifier names a project the resolver reasons about. Its
// identity, ordering, and hash are entirely delegated to the caller's
// value.Capability; the resolver never inspects the wrapped payload.
type ProjectIdentifier struct {
	id value.Value
}

// NewProjectIdentifier wraps payload as a ProjectIdentifier using cap.
func NewProjectIdentifier(payload any, cap value.Capability) ProjectIdentifier {
	return ProjectIdentifier{id: value.NewOpaqueValue(payload, cap)}
}

// EqualTo reports whether p and o name the same project.
func (p ProjectIdentifier) EqualTo(o ProjectIdentifier) bool {
	return p.id.EqualTo(o.id)
}

// LessThan imposes the caller's arbitrary but deterministic order over
// projects, used to make worklist tie-breaks and iteration order stable.
func (p ProjectIdentifier) LessThan(o ProjectIdentifier) bool {
	return p.id.LessThan(o.id)
}

// Hash returns the caller-derived hash of p's identity.
func (p ProjectIdentifier) Hash() uint64 {
	return p.id.Hash()
}

// Payload returns the identity data originally passed to
// NewProjectIdentifier.
func (p ProjectIdentifier) Payload() any {
	return p.id.Payload()
}

// String renders p via the caller's CreateDescription, if supplied.
func (p ProjectIdentifier) String() string {
	return p.id.String()
}

// Release drops this reference to the underlying opaque value, running the
// caller's destructor once the last reference is released.
func (p ProjectIdentifier) Release() {
	p.id.Release()
}

// Clone returns a new reference to the same project identity.
func (p ProjectIdentifier) Clone() ProjectIdentifier {
	return ProjectIdentifier{id: p.id.Clone()}
}

// SelectedVersion is a concrete version of a project: a SemVer plus an
// opaque metadata value (e.g. a specific commit backing a prerelease tag).
// Ordering follows SemVer precedence; equality additionally requires
// metadata equality.
type SelectedVersion struct {
	Version  semver.Version
	Metadata value.Value
}

// NewSelectedVersion pairs v with metadata. metadata may be the zero
// value.Value if the caller has no use for it.
func NewSelectedVersion(v semver.Version, metadata value.Value) SelectedVersion {
	return SelectedVersion{Version: v, Metadata: metadata}
}

// EqualTo reports whether s and o are the same version and metadata.
func (s SelectedVersion) EqualTo(o SelectedVersion) bool {
	if !s.Version.Equal(o.Version) {
		return false
	}
	if !s.Metadata.IsValid() && !o.Metadata.IsValid() {
		return true
	}
	if s.Metadata.IsValid() != o.Metadata.IsValid() {
		return false
	}
	return s.Metadata.EqualTo(o.Metadata)
}

// LessThan orders by SemVer precedence first, then by metadata (if present)
// as a tie-break so two selected versions sharing a SemVer but differing
// metadata still sort deterministically.
func (s SelectedVersion) LessThan(o SelectedVersion) bool {
	if c := semver.Compare(s.Version, o.Version); c != 0 {
		return c < 0
	}
	if s.Metadata.IsValid() && o.Metadata.IsValid() {
		return s.Metadata.LessThan(o.Metadata)
	}
	return !s.Metadata.IsValid() && o.Metadata.IsValid()
}

// String renders the SemVer, plus bracketed metadata description if present.
func (s SelectedVersion) String() string {
	if s.Metadata.IsValid() {
		return fmt.Sprintf("%s[%s]", s.Version, s.Metadata)
	}
	return s.Version.String()
}

// Dependency is a requirement a project places on another project:
// ("this project", must satisfy this Requirement).
type Dependency struct {
	Project     ProjectIdentifier
	Requirement requirement.Requirement
}

// dependencySetKey derives an order-independent identity for an unordered
// slice of Dependency, used to key Instantiation equivalence classes (see
// instantiation.go). Two dependency lists that are the same set, in any
// order, must produce equal keys.
func dependencySetKey(deps []Dependency) uint64 {
	// XOR is commutative, so key is independent of slice order; each
	// element's hash folds in both the project identity and the
	// requirement's canonical string form.
	var acc uint64
	for _, d := range deps {
		h := d.Project.Hash()
		h ^= fnv64a(d.Requirement.String())
		acc ^= mix64(h)
	}
	return acc
}

// fnv64a hashes a string with the 64-bit FNV-1a algorithm.
func fnv64a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// mix64 spreads bits so that XOR-folding several mix64 outputs together
// (as dependencySetKey does) doesn't cancel out structurally similar inputs.
func mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// dependencySetEqual reports whether two Dependency slices represent the
// same unordered set: same projects, each with an Equal requirement.
func dependencySetEqual(a, b []Dependency) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, da := range a {
		found := false
		for j, db := range b {
			if used[j] {
				continue
			}
			if da.Project.EqualTo(db.Project) && da.Requirement.Equal(db.Requirement) {
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

// ResolvedDependency is a fully-settled (project, version) pair, as they
// appear in a resolved graph's nodes and in installer phases.
type ResolvedDependency struct {
	Project ProjectIdentifier
	Version SelectedVersion
}
