package arbiter

// projectMap is a hash-bucketed associative map keyed by ProjectIdentifier.
// It exists because ProjectIdentifier wraps an opaque value.Value: its
// identity is defined by the caller-supplied EqualTo/Hash capability, not by
// Go's native comparison, so a bare `map[ProjectIdentifier]V` would silently
// use pointer/struct identity instead and violate the "same project" rule
// spec'd for component A.
type projectMap[V any] struct {
	buckets map[uint64][]projectMapEntry[V]
	size    int
}

type projectMapEntry[V any] struct {
	key   ProjectIdentifier
	value V
}

func newProjectMap[V any]() *projectMap[V] {
	return &projectMap[V]{buckets: make(map[uint64][]projectMapEntry[V])}
}

// Get returns the value stored for key, if any.
func (m *projectMap[V]) Get(key ProjectIdentifier) (V, bool) {
	for _, e := range m.buckets[key.Hash()] {
		if e.key.EqualTo(key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *projectMap[V]) Has(key ProjectIdentifier) bool {
	_, ok := m.Get(key)
	return ok
}

// Set inserts or overwrites the value stored for key.
func (m *projectMap[V]) Set(key ProjectIdentifier, v V) {
	h := key.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.key.EqualTo(key) {
			bucket[i].value = v
			return
		}
	}
	m.buckets[h] = append(bucket, projectMapEntry[V]{key: key, value: v})
	m.size++
}

// Delete removes key, if present.
func (m *projectMap[V]) Delete(key ProjectIdentifier) {
	h := key.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.key.EqualTo(key) {
			m.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			m.size--
			return
		}
	}
}

// Len returns the number of stored entries.
func (m *projectMap[V]) Len() int {
	return m.size
}

// Keys returns all stored keys, in unspecified order.
func (m *projectMap[V]) Keys() []ProjectIdentifier {
	keys := make([]ProjectIdentifier, 0, m.size)
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// SortedKeys returns all stored keys in ascending ProjectIdentifier order,
// per the resolver's and installer's determinism requirements (dependency
// iteration and phase membership are yielded in ascending order).
func (m *projectMap[V]) SortedKeys() []ProjectIdentifier {
	keys := m.Keys()
	insertionSortProjects(keys)
	return keys
}

// insertionSortProjects sorts in place by ProjectIdentifier.LessThan.
// Insertion sort is used deliberately: project counts in a resolve are
// small, and it avoids pulling in sort.Slice's reflection-based closures
// for a comparator that cannot panic on its own (LessThan is caller code).
func insertionSortProjects(ids []ProjectIdentifier) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].LessThan(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// projectSet is a set of ProjectIdentifier built on projectMap.
type projectSet struct {
	m *projectMap[struct{}]
}

func newProjectSet() projectSet {
	return projectSet{m: newProjectMap[struct{}]()}
}

func (s projectSet) Add(id ProjectIdentifier) { s.m.Set(id, struct{}{}) }
func (s projectSet) Has(id ProjectIdentifier) bool { return s.m.Has(id) }
func (s projectSet) Delete(id ProjectIdentifier) { s.m.Delete(id) }
func (s projectSet) Len() int { return s.m.Len() }
func (s projectSet) Keys() []ProjectIdentifier { return s.m.Keys() }
func (s projectSet) SortedKeys() []ProjectIdentifier { return s.m.SortedKeys() }
