package slot

import (
	"math/rand"
	"testing"
)

func TestCreateGetDestroy(t *testing.T) {
	s := NewStore[string]()
	a := s.Create("a")
	b := s.Create("b")
	c := s.Create("c")

	if got := s.Get(b); got == nil || *got != "b" {
		t.Fatalf("Get(b) = %v, want b", got)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	s.Destroy(b)
	if s.Get(b) != nil {
		t.Fatal("Get on destroyed id should be nil")
	}
	if got := s.Get(a); got == nil || *got != "a" {
		t.Fatalf("Get(a) after swap-remove = %v, want a", got)
	}
	if got := s.Get(c); got == nil || *got != "c" {
		t.Fatalf("Get(c) after swap-remove = %v, want c", got)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestIDReuseAfterDestroy(t *testing.T) {
	s := NewStore[int]()
	a := s.Create(1)
	s.Destroy(a)
	b := s.Create(2)
	if a != b {
		t.Fatalf("freed id not reused: first %d, second %d", a, b)
	}
	if got := s.Get(b); got == nil || *got != 2 {
		t.Fatalf("reused slot holds %v, want 2", got)
	}
}

func TestDestroyDeadIDIsNoop(t *testing.T) {
	s := NewStore[int]()
	a := s.Create(1)
	s.Destroy(a)
	s.Destroy(a) // second destroy must not corrupt the free list
	b := s.Create(2)
	c := s.Create(3)
	if b == c {
		t.Fatalf("double destroy handed out duplicate id %d", b)
	}
}

// Randomized round-trip: every live id reads back what was last written,
// and the live count always equals creates minus destroys.
func TestRandomizedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewStore[int]()
	shadow := map[ID]int{}
	next := 0

	for step := 0; step < 5000; step++ {
		if len(shadow) == 0 || rng.Intn(3) != 0 {
			v := next
			next++
			id := s.Create(v)
			if _, dup := shadow[id]; dup {
				t.Fatalf("step %d: id %d handed out while live", step, id)
			}
			shadow[id] = v
		} else {
			var victim ID
			for id := range shadow {
				victim = id
				break
			}
			s.Destroy(victim)
			delete(shadow, victim)
		}

		if s.Len() != len(shadow) {
			t.Fatalf("step %d: Len = %d, want %d", step, s.Len(), len(shadow))
		}
	}

	for id, want := range shadow {
		got := s.Get(id)
		if got == nil || *got != want {
			t.Fatalf("id %d: got %v, want %d", id, got, want)
		}
	}

	seen := map[ID]bool{}
	s.Each(func(id ID, v *int) {
		if shadow[id] != *v {
			t.Fatalf("Each: id %d holds %d, want %d", id, *v, shadow[id])
		}
		seen[id] = true
	})
	if len(seen) != len(shadow) {
		t.Fatalf("Each visited %d slots, want %d", len(seen), len(shadow))
	}
}
