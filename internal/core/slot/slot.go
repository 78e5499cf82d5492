package slot

// ID is a stable handle into a Store. IDs are never reused while the slot is
// live; a destroyed ID may be handed out again by a later Create.
type ID uint32

const none = -1

// Store is a packed dense allocator. Values live in a contiguous array so
// iteration is cache-friendly; two index maps keep Create, Get, and Destroy
// O(1). Destroy swap-removes, so packed order is not stable across destroys.
type Store[T any] struct {
	values []T    // packed live values
	ids    []ID   // packed index -> id
	packed []int  // id -> packed index, none if free
	free   []ID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		values: make([]T, 0, 64),
		ids:    make([]ID, 0, 64),
		packed: make([]int, 0, 64),
		free:   make([]ID, 0, 16),
	}
}

// Create stores value and returns its handle.
func (s *Store[T]) Create(value T) ID {
	var id ID
	if n := len(s.free); n > 0 {
		id = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		id = ID(len(s.packed))
		s.packed = append(s.packed, none)
	}
	s.packed[id] = len(s.values)
	s.values = append(s.values, value)
	s.ids = append(s.ids, id)
	return id
}

// Get returns a pointer into the packed array, or nil for a dead id. The
// pointer is invalidated by the next Create or Destroy.
func (s *Store[T]) Get(id ID) *T {
	if int(id) >= len(s.packed) {
		return nil
	}
	pi := s.packed[id]
	if pi == none {
		return nil
	}
	return &s.values[pi]
}

// Alive reports whether id refers to a live slot.
func (s *Store[T]) Alive(id ID) bool {
	return int(id) < len(s.packed) && s.packed[id] != none
}

// Destroy frees id's slot. The last packed value is swapped into the hole so
// the live region stays contiguous. Destroying a dead id is a no-op.
func (s *Store[T]) Destroy(id ID) {
	if int(id) >= len(s.packed) {
		return
	}
	pi := s.packed[id]
	if pi == none {
		return
	}
	last := len(s.values) - 1
	if pi != last {
		s.values[pi] = s.values[last]
		movedID := s.ids[last]
		s.ids[pi] = movedID
		s.packed[movedID] = pi
	}
	var zero T
	s.values[last] = zero
	s.values = s.values[:last]
	s.ids = s.ids[:last]
	s.packed[id] = none
	s.free = append(s.free, id)
}

// Len returns the number of live slots.
func (s *Store[T]) Len() int {
	return len(s.values)
}

// LiveIDs returns the ids of all live slots in packed order.
func (s *Store[T]) LiveIDs() []ID {
	out := make([]ID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Each calls fn for every live slot in packed order. fn must not create or
// destroy slots in this store.
func (s *Store[T]) Each(fn func(ID, *T)) {
	for i := range s.values {
		fn(s.ids[i], &s.values[i])
	}
}
