// Package value implements an opaque identity capability: a way for a
// caller to hand the resolver an arbitrary piece of identity data (a
// project name, a URL, a database row) without the resolver ever needing to
// know its concrete type, while still letting the resolver compare, hash,
// and display instances of it.
package value

import "sync"

// EqualFunc reports whether two opaque payloads are the same identity.
type EqualFunc func(a, b any) bool

// LessFunc imposes an arbitrary total order over payloads, used only to
// make iteration order over sets of Values deterministic.
type LessFunc func(a, b any) bool

// HashFunc derives a hash of a payload consistent with EqualFunc: equal
// payloads must hash equal.
type HashFunc func(v any) uint64

// DescribeFunc renders a payload for diagnostics/tracing. Optional.
type DescribeFunc func(v any) string

// DestructorFunc releases any resources owned by a payload. Optional;
// called at most once, when the last reference to a Value is released.
type DestructorFunc func(v any)

// Capability bundles the functions a caller supplies to make an opaque
// payload usable by the resolver. EqualTo, LessThan, and Hash are required;
// CreateDescription and Destructor are optional.
type Capability struct {
	EqualTo           EqualFunc
	LessThan          LessFunc
	Hash              HashFunc
	CreateDescription DescribeFunc
	Destructor        DestructorFunc
}

// box is the shared, refcounted state behind a family of Values that were
// all derived (via Clone) from one NewOpaqueValue call. The payload's
// Destructor, if any, runs exactly once, when refcount drops to zero.
type box struct {
	mu      sync.Mutex
	payload any
	cap     Capability
	refs    int
}

func (b *box) retain() {
	b.mu.Lock()
	b.refs++
	b.mu.Unlock()
}

func (b *box) release() {
	b.mu.Lock()
	b.refs--
	run := b.refs == 0 && b.cap.Destructor != nil
	payload := b.payload
	b.mu.Unlock()
	if run {
		b.cap.Destructor(payload)
	}
}

// Value is an opaque, reference-counted wrapper around caller-supplied
// identity data. The zero Value is invalid; construct one with
// NewOpaqueValue. Values are safe to copy (via Clone) and must be released
// with Release when no longer needed, so that any Destructor runs.
type Value struct {
	b *box
}

// NewOpaqueValue wraps payload using the given capability. The returned
// Value holds the first (and, until Clone is called, only) reference.
func NewOpaqueValue(payload any, cap Capability) Value {
	if cap.EqualTo == nil || cap.LessThan == nil || cap.Hash == nil {
		panic("value: Capability must supply EqualTo, LessThan, and Hash")
	}
	b := &box{payload: payload, cap: cap, refs: 1}
	return Value{b: b}
}

// IsValid reports whether v was constructed via NewOpaqueValue (or Clone of
// one) rather than being the zero Value.
func (v Value) IsValid() bool {
	return v.b != nil
}

// Payload returns the wrapped identity data, exactly as supplied to
// NewOpaqueValue. Callers that need to inspect it must know its concrete
// type out of band; the resolver itself never does.
func (v Value) Payload() any {
	if v.b == nil {
		return nil
	}
	return v.b.payload
}

// Clone returns a new reference to the same underlying payload, bumping the
// shared refcount. Both the receiver and the returned Value must eventually
// be released independently.
func (v Value) Clone() Value {
	if v.b == nil {
		return Value{}
	}
	v.b.retain()
	return Value{b: v.b}
}

// Release drops this reference. Once the last reference to a given payload
// is released, its Destructor (if any) runs exactly once. Release is
// idempotent-unsafe: calling it twice on copies of the same Value
// double-releases, matching the shared-ownership contract callers opt into
// by calling Clone.
func (v Value) Release() {
	if v.b == nil {
		return
	}
	v.b.release()
}

// EqualTo reports whether v and o wrap identities considered equal by the
// capability supplied at construction. Only v's capability is consulted; o's
// capability is not checked against it.
func (v Value) EqualTo(o Value) bool {
	if v.b == nil || o.b == nil {
		return v.b == o.b
	}
	return v.b.cap.EqualTo(v.b.payload, o.b.payload)
}

// LessThan imposes the capability's arbitrary order over v and o.
func (v Value) LessThan(o Value) bool {
	if v.b == nil || o.b == nil {
		return o.b != nil
	}
	return v.b.cap.LessThan(v.b.payload, o.b.payload)
}

// Hash returns the capability's hash of v's payload.
func (v Value) Hash() uint64 {
	if v.b == nil {
		return 0
	}
	return v.b.cap.Hash(v.b.payload)
}

// String renders v via the capability's CreateDescription if supplied,
// otherwise falls back to a generic placeholder.
func (v Value) String() string {
	if v.b == nil {
		return "<invalid value>"
	}
	if v.b.cap.CreateDescription != nil {
		return v.b.cap.CreateDescription(v.b.payload)
	}
	return "<opaque value>"
}
