package arbiter

import "time"

// Stats records counters accumulated over a single resolve call. It is
// read-only to callers; each Resolver built by Prepare starts its Stats at
// zero.
type Stats struct {
	// DeadEnds is the number of candidate versions tried and rejected.
	DeadEnds int

	// AvailableVersionsCalls is the number of times the fetch interface's
	// AvailableVersions callback was actually invoked (memoized repeats do
	// not count).
	AvailableVersionsCalls int

	// DependenciesOfCalls is the number of times DependenciesOf was
	// actually invoked.
	DependenciesOfCalls int

	// CachedDependenciesSize estimates the number of entries held in the
	// dependenciesOf memo, distinct from CachedAvailableVersionsSize since a
	// caller tuning memory behavior needs to know which cache is growing.
	CachedDependenciesSize int

	// CachedAvailableVersionsSize estimates the number of entries held in
	// the availableVersions memo.
	CachedAvailableVersionsSize int

	// Elapsed is the wall-clock duration of the resolve call.
	Elapsed time.Duration
}
