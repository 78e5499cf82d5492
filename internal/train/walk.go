package train

import (
	"github.com/trackforge/engine/internal/track"
)

// Direction is the travel direction over a segment's parameter.
type Direction int8

const (
	// Forward travels t 0 -> 1 (Joint0 toward Joint1).
	Forward Direction = 1
	// Backward travels t 1 -> 0.
	Backward Direction = -1
)

func (d Direction) Flip() Direction { return -d }

// Position pins a point on the network: a segment, a parameter, and the
// travel direction over it.
type Position struct {
	Segment   track.SegmentID
	T         float64
	Direction Direction
}

// PassedJoint records one joint crossed during a walk, together with the
// sense the walk left it in.
type PassedJoint struct {
	Joint track.JointID
	Sense track.Sense
}

// Occupancy is the ordered history of graph elements currently spanned by a
// train's body, nearest-the-walk-origin first. Segments always holds one
// more entry than Joints: Segments[i+1] lies beyond Joints[i].
type Occupancy struct {
	Joints   []PassedJoint
	Segments []track.SegmentID
}

// walkResult is the outcome of advancing along the graph.
type walkResult struct {
	pos      Position
	stopped  bool // ran off a dead end; pos pins the end of the track
	joints   []PassedJoint
	segments []track.SegmentID
}

// advance walks distance world units from pos along the graph. distance is
// unsigned; pos.Direction carries the sign. Returns ok=false only on a
// graph inconsistency (a referenced joint or segment is missing), which is
// a bug, not a game state; running off a dead end is a normal stopped
// result pinned to the track end.
func advance(g *track.Graph, r Resolver, pos Position, distance float64, occ *Occupancy) (walkResult, bool) {
	res := walkResult{pos: pos}
	seg := g.Segment(pos.Segment)
	if seg == nil {
		return res, false
	}

	remaining := distance
	for {
		length := seg.Curve.Length()
		if length <= 0 {
			return res, false
		}
		dt := remaining / length
		var newT float64
		if res.pos.Direction == Forward {
			newT = res.pos.T + dt
		} else {
			newT = res.pos.T - dt
		}
		if newT >= 0 && newT <= 1 {
			res.pos.T = newT
			return res, true
		}

		// Crossing a joint: figure out which end we are leaving through and
		// how much distance is spent reaching it.
		var exitJoint track.JointID
		if res.pos.Direction == Forward {
			remaining -= (1 - res.pos.T) * length
			exitJoint = seg.Joint1
		} else {
			remaining -= res.pos.T * length
			exitJoint = seg.Joint0
		}

		j := g.Joint(exitJoint)
		if j == nil {
			return res, false
		}
		enteredFrom, ok := seg.OtherJoint(exitJoint)
		if !ok {
			return res, false
		}
		back, ok := j.Links[enteredFrom]
		if !ok {
			return res, false
		}
		// Continuing through the joint means leaving opposite to the sense
		// that points back where we came from.
		leave := back.Sense.Opposite()

		next, ok := r.Next(exitJoint, leave, occ)
		if !ok {
			// Dead end: pin to the segment's far endpoint.
			if res.pos.Direction == Forward {
				res.pos.T = 1
			} else {
				res.pos.T = 0
			}
			res.stopped = true
			return res, true
		}

		nextLink, ok := j.Links[next]
		if !ok {
			return res, false
		}
		nextSeg := g.Segment(nextLink.Segment)
		if nextSeg == nil {
			return res, false
		}

		res.joints = append(res.joints, PassedJoint{Joint: exitJoint, Sense: leave})
		res.segments = append(res.segments, nextLink.Segment)

		if nextSeg.Joint0 == exitJoint {
			res.pos = Position{Segment: nextLink.Segment, T: 0, Direction: Forward}
		} else {
			res.pos = Position{Segment: nextLink.Segment, T: 1, Direction: Backward}
		}
		seg = nextSeg
	}
}
