package arbiter

import (
	"container/heap"

	"github.com/arbiter-go/resolve/requirement"
)

// worklistEntry is one project still needing a version selected, carrying
// its currently-accumulated effective requirement and a domain-size hint
// used for the fail-fast tie-break.
type worklistEntry struct {
	project     ProjectIdentifier
	requirement requirement.Requirement
	domainSize  int
}

// worklistHeap implements container/heap.Interface over worklistEntry,
// ordered smallest-candidate-domain-first with a deterministic
// ProjectIdentifier tie-break — the same fail-fast heuristic golang-dep's
// unselectedComparator applies ("packages with fewer versions to pick from
// are less likely to benefit from backtracking, so deal with them early").
type worklistHeap []*worklistEntry

func (h worklistHeap) Len() int { return len(h) }

func (h worklistHeap) Less(i, j int) bool {
	if h[i].domainSize != h[j].domainSize {
		return h[i].domainSize < h[j].domainSize
	}
	return h[i].project.LessThan(h[j].project)
}

func (h worklistHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *worklistHeap) Push(x any) {
	*h = append(*h, x.(*worklistEntry))
}

func (h *worklistHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	*h = old[:n-1]
	return entry
}

// worklist is the resolver's queue of projects not yet assigned a version.
type worklist struct {
	heap    worklistHeap
	byID    *projectMap[*worklistEntry]
}

func newWorklist() *worklist {
	return &worklist{byID: newProjectMap[*worklistEntry]()}
}

// Len reports how many projects remain unselected.
func (w *worklist) Len() int {
	return len(w.heap)
}

// Get returns the current entry for project, if it is in the worklist.
func (w *worklist) Get(project ProjectIdentifier) (*worklistEntry, bool) {
	return w.byID.Get(project)
}

// Push adds project to the worklist, or updates its requirement and
// domain size in place if already present.
func (w *worklist) Push(project ProjectIdentifier, r requirement.Requirement, domainSize int) {
	if existing, ok := w.byID.Get(project); ok {
		existing.requirement = r
		existing.domainSize = domainSize
		heap.Fix(&w.heap, w.indexOf(existing))
		return
	}
	entry := &worklistEntry{project: project, requirement: r, domainSize: domainSize}
	w.byID.Set(project, entry)
	heap.Push(&w.heap, entry)
}

// indexOf does a linear scan for entry's position; worklists in a single
// resolve are small (bounded by the number of distinct projects touched),
// so this avoids threading heap indices through every entry mutation.
func (w *worklist) indexOf(entry *worklistEntry) int {
	for i, e := range w.heap {
		if e == entry {
			return i
		}
	}
	return -1
}

// Pop removes and returns the highest-priority entry.
func (w *worklist) Pop() (*worklistEntry, bool) {
	if len(w.heap) == 0 {
		return nil, false
	}
	entry := heap.Pop(&w.heap).(*worklistEntry)
	w.byID.Delete(entry.project)
	return entry, true
}
