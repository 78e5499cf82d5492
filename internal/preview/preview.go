// Package preview synthesizes the ghost curve shown while the user drags
// out a new piece of track. Each end of the drag is classified into an
// endpoint kind; a fixed table keyed on which ends carry a tangent
// constraint picks the curve family (line, quadratic, reversed quadratic,
// cubic), and control points are placed along the constrained tangents.
package preview

import (
	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/track"
)

// Kind classifies one end of a previewed curve.
type Kind uint8

const (
	// KindNew is a free endpoint: a joint that does not exist yet, with no
	// tangent constraint.
	KindNew Kind = iota
	// KindConstrained snaps to a segment shoulder, parallel to the track.
	KindConstrained
	// KindBranchJoint starts a new branch at an existing joint.
	KindBranchJoint
	// KindExtendingTrack continues past a dead-end joint.
	KindExtendingTrack
	// KindBranchCurve starts from the middle of an existing curve.
	KindBranchCurve
)

func (k Kind) String() string {
	switch k {
	case KindConstrained:
		return "constrained"
	case KindBranchJoint:
		return "branchJoint"
	case KindExtendingTrack:
		return "extendingTrack"
	case KindBranchCurve:
		return "branchCurve"
	}
	return "new"
}

// Constrained reports whether this endpoint kind fixes the curve tangent.
func (k Kind) Constrained() bool { return k != KindNew }

// Endpoint describes one end of the preview: where it is, what it attaches
// to, and the tangent it must honor. Tangent is meaningful only when
// Kind.Constrained() holds.
type Endpoint struct {
	Kind      Kind
	Position  geom.Point
	Tangent   geom.Point
	Joint     track.JointID
	Segment   track.SegmentID
	T         float64
	Curvature float64
}

// Classify turns a hit-test result into a preview endpoint. A miss becomes
// a free endpoint at the query point. A joint hit becomes extendingTrack
// when the joint still has a free sense to grow out of, branchJoint
// otherwise.
func Classify(g *track.Graph, at geom.Point, p track.Projection) Endpoint {
	switch p.Type {
	case track.HitJoint:
		kind := KindBranchJoint
		if j := g.Joint(p.Joint); j != nil {
			if _, free := j.EmptySense(); free {
				kind = KindExtendingTrack
			}
		}
		return Endpoint{
			Kind:     kind,
			Position: p.Point,
			Tangent:  p.Tangent,
			Joint:    p.Joint,
		}
	case track.HitCurve:
		return Endpoint{
			Kind:      KindBranchCurve,
			Position:  p.Point,
			Tangent:   p.Tangent,
			Segment:   p.Segment,
			T:         p.T,
			Curvature: p.Curvature,
		}
	case track.HitEdge:
		return Endpoint{
			Kind:      KindConstrained,
			Position:  p.Point,
			Tangent:   p.Tangent,
			Segment:   p.Segment,
			T:         p.T,
			Curvature: p.Curvature,
		}
	}
	return Endpoint{Kind: KindNew, Position: at}
}

// ctrlRatio places a quadratic's control point this fraction of the chord
// along the constrained tangent.
const ctrlRatio = 0.5

// cubicRatio places each cubic control point this fraction of the chord
// along its endpoint's tangent.
const cubicRatio = 1.0 / 3

// orient flips tan if it points away from toward relative to from.
func orient(tan, from, toward geom.Point) geom.Point {
	if tan.Dot(toward.Sub(from)) < 0 {
		return tan.Scale(-1)
	}
	return tan
}

// ControlPoints returns the interior control points for the preview curve
// between a and b, ready to hand to the graph mutation that commits it:
// none for a line, one for a quadratic (from whichever end is constrained),
// two for a cubic.
func ControlPoints(a, b Endpoint) []geom.Point {
	chord := a.Position.Distance(b.Position)
	switch {
	case a.Kind.Constrained() && b.Kind.Constrained():
		ta := orient(a.Tangent, a.Position, b.Position)
		tb := orient(b.Tangent, b.Position, a.Position)
		return []geom.Point{
			a.Position.Add(ta.Scale(chord * cubicRatio)),
			b.Position.Add(tb.Scale(chord * cubicRatio)),
		}
	case a.Kind.Constrained():
		ta := orient(a.Tangent, a.Position, b.Position)
		return []geom.Point{a.Position.Add(ta.Scale(chord * ctrlRatio))}
	case b.Kind.Constrained():
		tb := orient(b.Tangent, b.Position, a.Position)
		return []geom.Point{b.Position.Add(tb.Scale(chord * ctrlRatio))}
	}
	return nil
}

// Curve builds the preview curve between a and b.
func Curve(a, b Endpoint) geom.Curve {
	ctrl := ControlPoints(a, b)
	switch len(ctrl) {
	case 1:
		return geom.Quad(a.Position, ctrl[0], b.Position)
	case 2:
		return geom.Cubic(a.Position, ctrl[0], ctrl[1], b.Position)
	}
	return geom.Line(a.Position, b.Position)
}
