package track

import "github.com/trackforge/engine/internal/geom"

// HitType discriminates projection results.
type HitType uint8

const (
	HitNone HitType = iota
	HitJoint
	HitCurve
	HitEdge
)

func (h HitType) String() string {
	switch h {
	case HitJoint:
		return "joint"
	case HitCurve:
		return "curve"
	case HitEdge:
		return "edge"
	}
	return "none"
}

// Projection is the tagged result of a point hit-test. Fields beyond Type
// are valid as follows: Joint for HitJoint; Segment and T for HitCurve and
// HitEdge; Point, Tangent, and Curvature whenever Type != HitNone.
type Projection struct {
	Type      HitType
	Joint     JointID
	Segment   SegmentID
	Point     geom.Point
	T         float64
	Tangent   geom.Point
	Curvature float64
}

// jointHitRadius is the default joint hit-test radius in world units.
const jointHitRadius = 1.0

// Project hit-tests a point against the network. Joint hits take precedence
// over curve hits, which take precedence over edge (shoulder) hits.
//
// Joint testing is a linear scan over all joints; joint counts stay small
// enough that indexing them spatially has not been worth it.
func (g *Graph) Project(p geom.Point) Projection {
	bestDist := g.hitRadius
	var bestJoint JointID
	found := false
	g.joints.Each(func(id JointID, j *Joint) {
		if d := j.Position.Distance(p); d < bestDist {
			bestDist = d
			bestJoint = id
			found = true
		}
	})
	if found {
		j := g.joints.Get(bestJoint)
		return Projection{
			Type:    HitJoint,
			Joint:   bestJoint,
			Point:   j.Position,
			Tangent: j.Tangent,
		}
	}

	if hit, ok := g.curves.ProjectOnCurve(p); ok {
		seg := g.curves.Get(hit.Segment)
		return Projection{
			Type:      HitCurve,
			Segment:   hit.Segment,
			Point:     hit.Point,
			T:         hit.T,
			Tangent:   seg.Curve.Derivative(hit.T).Normalize(),
			Curvature: seg.Curve.Curvature(hit.T),
		}
	}

	if hit, ok := g.curves.OnSegmentEdge(p); ok {
		seg := g.curves.Get(hit.Segment)
		return Projection{
			Type:      HitEdge,
			Segment:   hit.Segment,
			Point:     hit.Point,
			T:         hit.T,
			Tangent:   seg.Curve.Derivative(hit.T).Normalize(),
			Curvature: seg.Curve.Curvature(hit.T),
		}
	}

	return Projection{Type: HitNone}
}
