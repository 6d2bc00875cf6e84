package value

import "github.com/mitchellh/hashstructure/v2"

// HashStructure builds a HashFunc for payload types whose identity is fully
// captured by their exported field values (structs, strings, comparable
// builtins). It is a convenience for callers who don't want to hand-write a
// Hash function for NewOpaqueValue; anything with pointer fields or
// identity that depends on more than structural equality should supply its
// own HashFunc instead.
func HashStructure() HashFunc {
	return func(v any) uint64 {
		h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
		if err != nil {
			// hashstructure only errors on unsupported field kinds (e.g. channels,
			// funcs); a payload hitting this indicates misuse of HashStructure
			// rather than a recoverable runtime condition.
			panic("value: HashStructure: " + err.Error())
		}
		return h
	}
}
