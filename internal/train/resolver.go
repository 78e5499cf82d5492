package train

import (
	"github.com/trackforge/engine/internal/track"
)

// Resolver picks the neighbor to continue toward when a walk crosses a
// joint.
type Resolver interface {
	// Next returns the joint to continue toward after entering joint with
	// leaving sense s. ok is false at a dead end for that sense.
	Next(joint track.JointID, s track.Sense, occ *Occupancy) (track.JointID, bool)
}

// DirectionResolver is the default Resolver. At an unconstrained junction it
// picks the lowest-id neighbor in the wanted sense: an arbitrary but
// deterministic choice. When an occupancy history is supplied and the joint
// appears in it, the resolver replays the hop a previous bogie committed
// to, which is what keeps all bogies of one train on the same physical path
// through a junction.
type DirectionResolver struct {
	Graph *track.Graph
}

func (r *DirectionResolver) Next(joint track.JointID, s track.Sense, occ *Occupancy) (track.JointID, bool) {
	j := r.Graph.Joint(joint)
	if j == nil {
		return 0, false
	}

	if occ != nil {
		for i, pj := range occ.Joints {
			if pj.Joint != joint || pj.Sense != s {
				continue
			}
			if i+1 < len(occ.Joints) {
				next := occ.Joints[i+1].Joint
				if _, ok := j.Links[next]; ok {
					return next, true
				}
			}
			if i+1 < len(occ.Segments) {
				seg := r.Graph.Segment(occ.Segments[i+1])
				if seg != nil {
					if next, ok := seg.OtherJoint(joint); ok {
						if _, live := j.Links[next]; live {
							return next, true
						}
					}
				}
			}
			break
		}
	}

	ns := j.Neighbors(s)
	if len(ns) == 0 {
		return 0, false
	}
	return ns[0], true
}
