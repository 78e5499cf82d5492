// Package spatial provides the bounding-box tree used for segment
// proximity queries (hit-testing and collision candidate lookup).
package spatial

import "github.com/trackforge/engine/internal/geom"

const (
	maxEntries = 4
	minEntries = (maxEntries + 1) / 2
)

type entry[V comparable] struct {
	box   geom.BBox
	value V     // set on leaf entries
	child *node[V] // set on inner entries
}

type node[V comparable] struct {
	leaf    bool
	entries []entry[V]
}

func (n *node[V]) bbox() geom.BBox {
	b := geom.EmptyBBox()
	for _, e := range n.entries {
		b = b.Union(e.box)
	}
	return b
}

// Tree maps axis-aligned bounding boxes to values. Values must be unique;
// RemoveByValue identifies entries by value alone.
type Tree[V comparable] struct {
	root  *node[V]
	boxes map[V]geom.BBox
}

func NewTree[V comparable]() *Tree[V] {
	return &Tree[V]{
		root:  &node[V]{leaf: true},
		boxes: make(map[V]geom.BBox),
	}
}

// Len returns the number of stored values.
func (t *Tree[V]) Len() int {
	return len(t.boxes)
}

// Insert adds value under box. Inserting a value twice replaces its box.
func (t *Tree[V]) Insert(box geom.BBox, value V) {
	if _, ok := t.boxes[value]; ok {
		t.RemoveByValue(value)
	}
	t.boxes[value] = box
	t.insert(entry[V]{box: box, value: value})
}

func (t *Tree[V]) insert(e entry[V]) {
	split := t.root.insert(e)
	if split != nil {
		// Root overflowed: grow the tree by one level.
		old := t.root
		t.root = &node[V]{
			leaf: false,
			entries: []entry[V]{
				{box: old.bbox(), child: old},
				{box: split.bbox(), child: split},
			},
		}
	}
}

// insert descends to a leaf and returns a sibling node if n split.
func (n *node[V]) insert(e entry[V]) *node[V] {
	if n.leaf {
		n.entries = append(n.entries, e)
		if len(n.entries) > maxEntries {
			return n.split()
		}
		return nil
	}

	best := n.chooseSubtree(e.box)
	split := n.entries[best].child.insert(e)
	n.entries[best].box = n.entries[best].child.bbox()
	if split != nil {
		n.entries = append(n.entries, entry[V]{box: split.bbox(), child: split})
		if len(n.entries) > maxEntries {
			return n.split()
		}
	}
	return nil
}

// chooseSubtree picks the child needing the least area enlargement to cover
// box, breaking ties by smaller current area.
func (n *node[V]) chooseSubtree(box geom.BBox) int {
	best := 0
	bestEnl := n.entries[0].box.Enlargement(box)
	bestArea := n.entries[0].box.Area()
	for i := 1; i < len(n.entries); i++ {
		enl := n.entries[i].box.Enlargement(box)
		area := n.entries[i].box.Area()
		if enl < bestEnl || (enl == bestEnl && area < bestArea) {
			best = i
			bestEnl = enl
			bestArea = area
		}
	}
	return best
}

// split distributes n's entries into n and a new sibling. The two groups are
// seeded from the most-separated pair (largest union area minus individual
// areas); the rest are assigned greedily by least enlargement, tie-broken by
// smaller resulting group area.
func (n *node[V]) split() *node[V] {
	entries := n.entries

	si, sj := 0, 1
	worst := -1.0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			waste := entries[i].box.Union(entries[j].box).Area() -
				entries[i].box.Area() - entries[j].box.Area()
			if waste > worst {
				worst = waste
				si, sj = i, j
			}
		}
	}

	groupA := []entry[V]{entries[si]}
	groupB := []entry[V]{entries[sj]}
	boxA := entries[si].box
	boxB := entries[sj].box

	rest := make([]entry[V], 0, len(entries)-2)
	for i, e := range entries {
		if i != si && i != sj {
			rest = append(rest, e)
		}
	}

	for k, e := range rest {
		// If one group is starved, it takes everything left.
		remaining := len(rest) - k // what is left to assign, including e
		if len(groupA)+remaining <= minEntries {
			groupA = append(groupA, e)
			boxA = boxA.Union(e.box)
			continue
		}
		if len(groupB)+remaining <= minEntries {
			groupB = append(groupB, e)
			boxB = boxB.Union(e.box)
			continue
		}

		enlA := boxA.Enlargement(e.box)
		enlB := boxB.Enlargement(e.box)
		switch {
		case enlA < enlB:
			groupA = append(groupA, e)
			boxA = boxA.Union(e.box)
		case enlB < enlA:
			groupB = append(groupB, e)
			boxB = boxB.Union(e.box)
		case boxA.Union(e.box).Area() <= boxB.Union(e.box).Area():
			groupA = append(groupA, e)
			boxA = boxA.Union(e.box)
		default:
			groupB = append(groupB, e)
			boxB = boxB.Union(e.box)
		}
	}

	n.entries = groupA
	return &node[V]{leaf: n.leaf, entries: groupB}
}

// Search returns every value whose box intersects query. Order is
// unspecified.
func (t *Tree[V]) Search(query geom.BBox) []V {
	var out []V
	t.root.search(query, &out)
	return out
}

func (n *node[V]) search(query geom.BBox, out *[]V) {
	for _, e := range n.entries {
		if !e.box.Intersects(query) {
			continue
		}
		if n.leaf {
			*out = append(*out, e.value)
		} else {
			e.child.search(query, out)
		}
	}
}

// All returns every stored value.
func (t *Tree[V]) All() []V {
	out := make([]V, 0, len(t.boxes))
	for v := range t.boxes {
		out = append(out, v)
	}
	return out
}

// RemoveByValue deletes value from the tree. Returns false if absent.
// Underfull nodes on the removal path are dissolved and their entries
// reinserted from the root.
func (t *Tree[V]) RemoveByValue(value V) bool {
	box, ok := t.boxes[value]
	if !ok {
		return false
	}
	delete(t.boxes, value)

	var orphans []entry[V]
	if !t.root.remove(box, value, &orphans) {
		// The stored box must locate its entry; a miss means the tree and
		// the box map disagree.
		t.boxes[value] = box
		return false
	}

	// Collapse a single-child internal root.
	for !t.root.leaf && len(t.root.entries) == 1 {
		t.root = t.root.entries[0].child
	}
	if !t.root.leaf && len(t.root.entries) == 0 {
		t.root = &node[V]{leaf: true}
	}

	for _, e := range orphans {
		t.insert(e)
	}
	return true
}

// remove deletes the leaf entry for value, collecting entries of underfull
// nodes into orphans for reinsertion.
func (n *node[V]) remove(box geom.BBox, value V, orphans *[]entry[V]) bool {
	if n.leaf {
		for i, e := range n.entries {
			if e.value == value {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
				return true
			}
		}
		return false
	}
	for i, e := range n.entries {
		if !e.box.Intersects(box) {
			continue
		}
		if !e.child.remove(box, value, orphans) {
			continue
		}
		if len(e.child.entries) < minEntries {
			n.collectLeafEntries(e.child, orphans)
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
		} else {
			n.entries[i].box = e.child.bbox()
		}
		return true
	}
	return false
}

func (n *node[V]) collectLeafEntries(c *node[V], orphans *[]entry[V]) {
	if c.leaf {
		*orphans = append(*orphans, c.entries...)
		return
	}
	for _, e := range c.entries {
		n.collectLeafEntries(e.child, orphans)
	}
}
