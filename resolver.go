package arbiter

import (
	"context"
	"log"
	"time"

	"github.com/arbiter-go/resolve/requirement"
)

// Parameters configures a Resolver, mirroring the teacher's SolveParameters:
// a plain struct of doc-commented fields validated by a Prepare-style
// constructor rather than a builder API.
type Parameters struct {
	// Fetcher supplies available versions and dependency lists. Required.
	Fetcher Fetcher

	// InitialGraph, if non-nil, seeds the resolve with an already-consistent
	// graph (e.g. from a prior resolve); it is cloned, never mutated in place.
	InitialGraph *Graph

	// RootDependencies are the requirements to resolve into the graph.
	RootDependencies []Dependency

	// Trace, if true, narrates the search to TraceLogger, which must then
	// be non-nil.
	Trace bool

	// TraceLogger receives trace output when Trace is true.
	TraceLogger *log.Logger
}

// Prepare validates params and returns a Resolver ready to run Resolve.
func Prepare(params Parameters) (*Resolver, error) {
	if params.Fetcher == nil {
		return nil, &InternalError{Detail: "Prepare: Parameters.Fetcher must not be nil"}
	}
	if params.Trace && params.TraceLogger == nil {
		return nil, &InternalError{Detail: "Prepare: Trace requested without a TraceLogger"}
	}

	graph := params.InitialGraph
	if graph == nil {
		graph = NewGraph()
	} else {
		graph = graph.Clone()
	}

	stats := &Stats{}
	r := &Resolver{
		graph:    graph,
		fetch:    newCachedFetcher(params.Fetcher, stats),
		rootDeps: params.RootDependencies,
		stats:    stats,
		memos:    newProjectMap[*projectMemo](),
		tracer:   tracer{enabled: params.Trace, logger: params.TraceLogger},
	}
	return r, nil
}

// searchState is the mutable state a Resolver accumulates while searching:
// which projects have an accumulated effective requirement, which of those
// have a version tentatively chosen, the dependency edges declared by
// chosen projects, and the worklist of projects still undecided. It is
// cloned at every candidate attempt and restored verbatim on backtrack —
// the "check, then commit-or-undo" shape the spec's tentative-add-then-undo
// description reduces to once expressed without mutation-in-place.
type searchState struct {
	requirements *projectMap[requirement.Requirement]
	selected     *projectMap[SelectedVersion]
	pendingEdges *projectMap[[]Dependency]
	worklist     *worklist
}

func newSearchState() *searchState {
	return &searchState{
		requirements: newProjectMap[requirement.Requirement](),
		selected:     newProjectMap[SelectedVersion](),
		pendingEdges: newProjectMap[[]Dependency](),
		worklist:     newWorklist(),
	}
}

func (s *searchState) clone() *searchState {
	clone := newSearchState()
	for _, id := range s.requirements.Keys() {
		v, _ := s.requirements.Get(id)
		clone.requirements.Set(id, v)
	}
	for _, id := range s.selected.Keys() {
		v, _ := s.selected.Get(id)
		clone.selected.Set(id, v)
	}
	for _, id := range s.pendingEdges.Keys() {
		v, _ := s.pendingEdges.Get(id)
		clone.pendingEdges.Set(id, append([]Dependency(nil), v...))
	}
	for _, id := range s.worklist.byID.Keys() {
		e, _ := s.worklist.byID.Get(id)
		clone.worklist.Push(id, e.requirement, e.domainSize)
	}
	return clone
}

// Resolver runs a single backtracking search over the product of
// per-project candidate domains, honoring requirement intersection and
// consistency, and produces a fully resolved Graph or a diagnostic failure.
// The core search is single-threaded: fetch callbacks are invoked
// synchronously from the task calling Resolve.
type Resolver struct {
	graph    *Graph
	fetch    *cachedFetcher
	rootDeps []Dependency
	stats    *Stats
	memos    *projectMap[*projectMemo]
	tracer   tracer

	state *searchState
}

// Resolve runs the search to completion, returning the resulting graph or
// the most descriptive failure encountered once every backtracking
// possibility is exhausted. Resolve is not safe to call twice on the same
// Resolver; construct a fresh one via Prepare for each resolve.
func (r *Resolver) Resolve(ctx context.Context) (*Graph, error) {
	start := time.Now()
	defer func() { r.stats.Elapsed = time.Since(start) }()

	r.state = newSearchState()

	for _, d := range r.rootDeps {
		if err := r.mergeRequirement(ctx, d.Project, d.Requirement); err != nil {
			r.tracer.done(false, 0)
			return nil, err
		}
	}

	if err := r.solve(ctx, 0); err != nil {
		r.tracer.done(false, 0)
		return nil, err
	}

	if err := r.commit(); err != nil {
		r.tracer.done(false, 0)
		return nil, err
	}
	r.tracer.done(true, r.graph.NodeCount())
	return r.graph, nil
}

// Stats returns the counters accumulated by the most recent Resolve call.
func (r *Resolver) Stats() Stats {
	return *r.stats
}

// solve is the recursive core of the search loop: pop the next unselected
// project, try its candidates in descending precedence, and recurse. depth
// tracks how many choices are currently committed, used to scope
// Instantiation infeasibility marks (see instantiation.go).
func (r *Resolver) solve(ctx context.Context, depth int) error {
	if err := r.checkCancelled(ctx); err != nil {
		return err
	}

	entry, ok := r.state.worklist.Pop()
	if !ok {
		return nil
	}
	project, req := entry.project, entry.requirement

	candidates, err := r.fetch.AvailableVersions(ctx, project)
	if err != nil {
		return err
	}

	var trials []failedVersion
	memo := r.memoFor(project)

	for _, v := range candidates {
		if !versionAllowedBy(req, v) {
			continue
		}

		deps, err := r.fetch.DependenciesOf(ctx, project, v)
		if err != nil {
			return err
		}

		inst := memo.getOrCreate(deps, v)
		if inst.isInfeasibleAt(depth) {
			continue
		}

		snapshot := r.state.clone()
		cause := r.tryCandidate(ctx, project, v, req, deps)
		if cause == nil {
			r.tracer.selecting(project, v)
			r.tracer.push()
			cause = r.solve(ctx, depth+1)
			r.tracer.pop()
		}
		if cause == nil {
			return nil
		}

		if isImmediateError(cause) {
			return cause
		}

		r.stats.DeadEnds++
		r.tracer.rejecting(project, v, cause)
		trials = append(trials, failedVersion{version: v, cause: cause})
		inst.markInfeasible(depth)
		r.tracer.infeasibleInstantiation(project, inst.key)
		r.state = snapshot
		r.tracer.backtracking(project)
	}

	return &UnsatisfiableConstraintsError{Project: project, Requirement: req, FailedTrials: trials}
}

// tryCandidate tentatively commits project@v against req, propagating each
// declared dependency's requirement to whatever state currently tracks it.
// It returns nil on success (the caller's snapshot can be discarded) or an
// error describing why this candidate is infeasible (the caller restores
// its snapshot).
func (r *Resolver) tryCandidate(ctx context.Context, project ProjectIdentifier, v SelectedVersion, req requirement.Requirement, deps []Dependency) error {
	r.state.selected.Set(project, v)
	r.state.requirements.Set(project, req)

	for _, d := range deps {
		if err := r.mergeRequirement(ctx, d.Project, d.Requirement); err != nil {
			return err
		}
	}
	r.state.pendingEdges.Set(project, deps)
	return nil
}

// mergeRequirement folds req into whatever currently tracks project: an
// already-resolved graph node (from a prior resolve), a version tentatively
// selected earlier in this search, an existing worklist entry, or — if
// project is untouched — a freshly pushed worklist entry.
func (r *Resolver) mergeRequirement(ctx context.Context, project ProjectIdentifier, req requirement.Requirement) error {
	if v, existingReq, ok := r.lookupSelected(project); ok {
		merged, ok := requirement.Intersect(existingReq, req)
		if !ok {
			return &MutuallyExclusiveConstraintsError{Project: project, A: existingReq, B: req}
		}
		if !merged.SatisfiedBy(v.Version) {
			return &UnsatisfiableConstraintsError{Project: project, Requirement: merged}
		}
		r.state.requirements.Set(project, merged)
		return nil
	}

	if entry, ok := r.state.worklist.Get(project); ok {
		merged, ok := requirement.Intersect(entry.requirement, req)
		if !ok {
			return &MutuallyExclusiveConstraintsError{Project: project, A: entry.requirement, B: req}
		}
		domainSize, err := r.domainSizeEstimate(ctx, project, merged)
		if err != nil {
			return err
		}
		r.state.worklist.Push(project, merged, domainSize)
		r.state.requirements.Set(project, merged)
		return nil
	}

	domainSize, err := r.domainSizeEstimate(ctx, project, req)
	if err != nil {
		return err
	}
	r.state.worklist.Push(project, req, domainSize)
	r.state.requirements.Set(project, req)
	return nil
}

// lookupSelected reports the version and effective requirement recorded
// for project, checking this search's tentative selections first and
// falling back to the initial graph (projects resolved by a prior call).
func (r *Resolver) lookupSelected(project ProjectIdentifier) (SelectedVersion, requirement.Requirement, bool) {
	if v, ok := r.state.selected.Get(project); ok {
		req, _ := r.state.requirements.Get(project)
		return v, req, true
	}
	if v, ok := r.graph.ProjectVersion(project); ok {
		req, _ := r.graph.ProjectRequirement(project)
		return v, req, true
	}
	return SelectedVersion{}, requirement.Requirement{}, false
}

// domainSizeEstimate counts how many of project's available versions would
// currently be allowed by req, used as the worklist's fail-fast tie-break
// key. Fetching here may trigger the first AvailableVersions call for a
// project the search hasn't reached yet — the same tradeoff the teacher's
// unselectedComparator makes for its own version-count tie-break.
func (r *Resolver) domainSizeEstimate(ctx context.Context, project ProjectIdentifier, req requirement.Requirement) (int, error) {
	versions, err := r.fetch.AvailableVersions(ctx, project)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, v := range versions {
		if versionAllowedBy(req, v) {
			count++
		}
	}
	return count, nil
}

func (r *Resolver) memoFor(project ProjectIdentifier) *projectMemo {
	if m, ok := r.memos.Get(project); ok {
		return m
	}
	m := newProjectMemo()
	r.memos.Set(project, m)
	return m
}

// commit replays every tentative selection and pending edge from the
// successful search into the public Graph, which re-validates every
// invariant through its own AddRoot/AddEdge logic as it goes.
func (r *Resolver) commit() error {
	for _, project := range r.state.selected.SortedKeys() {
		v, _ := r.state.selected.Get(project)
		req, _ := r.state.requirements.Get(project)
		if err := r.graph.AddRoot(ResolvedDependency{Project: project, Version: v}, req); err != nil {
			return err
		}
	}
	for _, project := range r.state.pendingEdges.SortedKeys() {
		deps, _ := r.state.pendingEdges.Get(project)
		for _, d := range deps {
			depVersion, _, ok := r.lookupSelected(d.Project)
			if !ok {
				return &InternalError{Detail: "commit: dependency project has no selected version"}
			}
			if err := r.graph.AddEdge(project, ResolvedDependency{Project: d.Project, Version: depVersion}, d.Requirement); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return &CancelledError{Cause: ctx.Err()}
	default:
		return nil
	}
}

// isImmediateError reports whether err must propagate out of the search
// without further backtracking, per the policy in the package's error
// taxonomy: UserError and cancellation always win immediately, while
// MutuallyExclusiveConstraints/UnsatisfiableConstraints are ordinary
// candidate rejections until backtracking is exhausted.
func isImmediateError(err error) bool {
	switch err.(type) {
	case *UserError, *CancelledError:
		return true
	default:
		return false
	}
}

// versionAllowedBy reports whether v may be offered as a candidate for req:
// it must satisfy req, and if v carries a prerelease component, req must
// explicitly name a prerelease of the same (major, minor, patch) — the
// SemVer norm that prereleases are opt-in, never selected by a plain
// AtLeast/CompatibleWith that happens to be satisfied by one.
func versionAllowedBy(req requirement.Requirement, v SelectedVersion) bool {
	if !req.SatisfiedBy(v.Version) {
		return false
	}
	if !v.Version.HasPrerelease() {
		return true
	}
	return req.AllowsPrerelease(v.Version)
}
