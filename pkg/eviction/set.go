// Package eviction provides cache replacement policies as a reusable
// set data structure, decoupled from what the cache actually stores.
// Adapted from the teacher's pkg/eviction.
package eviction

// Set tracks values that are candidates for eviction under some cache
// replacement policy. It does not permit concurrent access; callers
// serialize access the same way the buffer cache serializes access to
// its index.
type Set[T comparable] interface {
	// Insert adds value to the set. value must not already be present.
	Insert(value T)

	// Touch indicates that value was just used, influencing when it
	// will next be considered for eviction. value must already be
	// present.
	Touch(value T)

	// Peek returns the value that would be evicted next, without
	// removing it. Must not be called on an empty set.
	Peek() T

	// Remove removes the value last returned by Peek.
	Remove()

	// Len reports how many values are currently tracked.
	Len() int
}
