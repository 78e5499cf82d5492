// Package track implements the rail network graph: joints, curved track
// segments, collision-aware insertion, draw ordering, and hit-testing.
package track

import (
	"sort"

	"github.com/trackforge/engine/internal/core/slot"
	"github.com/trackforge/engine/internal/geom"
)

// JointID identifies a joint. Handles come from the joint store and may be
// reused after the joint is destroyed.
type JointID uint32

// SegmentID identifies a track segment.
type SegmentID uint32

// Sense says which way a link leaves its joint relative to the joint's
// stored tangent.
type Sense uint8

const (
	// SenseTangent: traveling toward the neighbor proceeds along the
	// joint's tangent.
	SenseTangent Sense = iota
	// SenseReverse: traveling toward the neighbor proceeds against it.
	SenseReverse
)

func (s Sense) Opposite() Sense {
	if s == SenseTangent {
		return SenseReverse
	}
	return SenseTangent
}

func (s Sense) String() string {
	if s == SenseTangent {
		return "tangent"
	}
	return "reverse"
}

// Link is one directed adjacency entry: the segment reaching a neighbor and
// the sense of leaving toward it. Keeping the sense on the link (instead of
// parallel direction sets) makes the partition invariant structural.
type Link struct {
	Segment SegmentID
	Sense   Sense
}

// Joint is a point where track segments meet or end.
type Joint struct {
	Position  geom.Point
	Tangent   geom.Point // unit vector, the joint's canonical forward
	Elevation int
	Links     map[JointID]Link
}

// Neighbors returns the joints reachable by leaving with the given sense,
// sorted ascending so junction resolution is deterministic.
func (j *Joint) Neighbors(s Sense) []JointID {
	var out []JointID
	for id, l := range j.Links {
		if l.Sense == s {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// CountSense returns how many links leave with the given sense.
func (j *Joint) CountSense(s Sense) int {
	n := 0
	for _, l := range j.Links {
		if l.Sense == s {
			n++
		}
	}
	return n
}

// DeadEnd reports whether the joint has exactly one connection. Extending
// track from a dead end is an append, not a branch.
func (j *Joint) DeadEnd() bool {
	return len(j.Links) == 1
}

// EmptySense returns the direction with no connections, if exactly one side
// is unused. Only meaningful at dead ends and joints whose links all leave
// the same way.
func (j *Joint) EmptySense() (Sense, bool) {
	t := j.CountSense(SenseTangent)
	r := j.CountSense(SenseReverse)
	switch {
	case t == 0 && r > 0:
		return SenseTangent, true
	case r == 0 && t > 0:
		return SenseReverse, true
	}
	return 0, false
}

// Joints stores the network's joints.
type Joints struct {
	store *slot.Store[Joint]
}

func NewJoints() *Joints {
	return &Joints{store: slot.NewStore[Joint]()}
}

func (m *Joints) Create(pos, tangent geom.Point, elevation int) JointID {
	id := m.store.Create(Joint{
		Position:  pos,
		Tangent:   tangent.Normalize(),
		Elevation: elevation,
		Links:     make(map[JointID]Link, 2),
	})
	return JointID(id)
}

func (m *Joints) Get(id JointID) *Joint {
	return m.store.Get(slot.ID(id))
}

func (m *Joints) Destroy(id JointID) {
	m.store.Destroy(slot.ID(id))
}

func (m *Joints) Len() int {
	return m.store.Len()
}

// Each visits every live joint in packed order.
func (m *Joints) Each(fn func(JointID, *Joint)) {
	m.store.Each(func(id slot.ID, j *Joint) {
		fn(JointID(id), j)
	})
}
