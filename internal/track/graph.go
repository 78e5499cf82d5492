package track

import (
	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/core/event"
	"github.com/trackforge/engine/internal/geom"
)

// Graph is the façade over the joint and curve managers. It owns every
// topology mutation and all hit-testing. All fallibility is reported via
// boolean/zero returns: validation rejections are ordinary negative results;
// missing ids that are structurally guaranteed to exist are graph
// inconsistencies and additionally log at error level.
type Graph struct {
	joints *Joints
	curves *Manager
	bus    *event.Bus
	log    *zap.Logger
	gauge  float64

	hitRadius float64
	minElev   int
	maxElev   int
}

func NewGraph(log *zap.Logger) *Graph {
	bus := event.NewBus()
	return &Graph{
		joints: NewJoints(),
		curves: NewManager(bus, log),
		bus:    bus,
		log:    log,
		gauge:  DefaultGauge,

		hitRadius: jointHitRadius,
		minElev:   0,
		maxElev:   maxElevation,
	}
}

// maxElevation is the default top of the editable elevation range.
const maxElevation = 4

// SetElevationRange changes the accepted joint elevation bounds.
func (g *Graph) SetElevationRange(min, max int) {
	if min <= max {
		g.minElev, g.maxElev = min, max
	}
}

// SetGauge changes the track width applied to segments created afterwards.
func (g *Graph) SetGauge(gauge float64) {
	if gauge > 0 {
		g.gauge = gauge
	}
}

// SetHitRadius changes the joint hit-test radius used by Project.
func (g *Graph) SetHitRadius(r float64) {
	if r > 0 {
		g.hitRadius = r
	}
}

func (g *Graph) Bus() *event.Bus { return g.bus }

func (g *Graph) Joint(id JointID) *Joint { return g.joints.Get(id) }

func (g *Graph) Segment(id SegmentID) *Segment { return g.curves.Get(id) }

// SegmentBetween returns the segment connecting two joints, if any.
func (g *Graph) SegmentBetween(a, b JointID) (SegmentID, bool) {
	ja := g.joints.Get(a)
	if ja == nil {
		return 0, false
	}
	l, ok := ja.Links[b]
	return l.Segment, ok
}

func (g *Graph) EachJoint(fn func(JointID, *Joint))       { g.joints.Each(fn) }
func (g *Graph) EachSegment(fn func(SegmentID, *Segment)) { g.curves.Each(fn) }
func (g *Graph) JointCount() int                          { return g.joints.Len() }
func (g *Graph) SegmentCount() int                        { return g.curves.Len() }

// DrawData returns viewport-filtered slices in painter's order.
func (g *Graph) DrawData(viewport geom.BBox) []DrawEntry {
	return g.curves.DrawData(viewport)
}

// Resort recomputes the full draw order (the bulk-change path).
func (g *Graph) Resort() { g.curves.Resort() }

// CreateNewEmptyJoint adds an unconnected joint.
func (g *Graph) CreateNewEmptyJoint(pos, tangent geom.Point, elevation int) JointID {
	return g.joints.Create(pos, tangent, elevation)
}

// buildCurve assembles the 3- or 4-point curve from start through the
// optional control points to end.
func buildCurve(start geom.Point, ctrl []geom.Point, end geom.Point) (geom.Curve, bool) {
	switch len(ctrl) {
	case 0:
		return geom.Line(start, end), true
	case 1:
		return geom.Quad(start, ctrl[0], end), true
	case 2:
		return geom.Cubic(start, ctrl[0], ctrl[1], end), true
	}
	return geom.Curve{}, false
}

// adjacentSegments collects the segments already touching any of the given
// joints, for collision exclusion: they meet the new curve at a shared joint
// and must not count as crossings.
func (g *Graph) adjacentSegments(ids ...JointID) map[SegmentID]struct{} {
	out := make(map[SegmentID]struct{})
	for _, id := range ids {
		if j := g.joints.Get(id); j != nil {
			for _, l := range j.Links {
				out[l.Segment] = struct{}{}
			}
		}
	}
	return out
}

// link records the new segment in both joints' adjacency, classifying each
// side by comparing the curve's end derivative against the joint's stored
// tangent. The far end inverts the test: departing and arriving alignment
// are mirror conditions.
func (g *Graph) link(j0, j1 JointID, id SegmentID, curve geom.Curve) {
	a := g.joints.Get(j0)
	b := g.joints.Get(j1)

	s0 := SenseReverse
	if curve.Derivative(0).Dot(a.Tangent) > 0 {
		s0 = SenseTangent
	}
	s1 := SenseReverse
	if curve.Derivative(1).Dot(b.Tangent) < 0 {
		s1 = SenseTangent
	}
	a.Links[j1] = Link{Segment: id, Sense: s0}
	b.Links[j0] = Link{Segment: id, Sense: s1}
}

// ConnectJoints creates a segment between two existing joints. Fails if
// either id is dead, the joints are already connected, or more than two
// control points are given.
func (g *Graph) ConnectJoints(start, end JointID, ctrl []geom.Point) bool {
	if start == end {
		return false
	}
	js := g.joints.Get(start)
	je := g.joints.Get(end)
	if js == nil || je == nil {
		return false
	}
	if _, dup := js.Links[end]; dup {
		return false
	}
	curve, ok := buildCurve(js.Position, ctrl, je.Position)
	if !ok {
		return false
	}
	exclude := g.adjacentSegments(start, end)
	id := g.curves.CreateCurveWithJoints(curve, start, end, js.Elevation, je.Elevation, g.gauge, exclude)
	g.link(start, end, id, curve)
	return true
}

// BranchToNewJoint forks a new curve from an existing joint to a brand-new
// joint at endPos. The new joint inherits the source elevation and takes its
// tangent from the curve's end derivative.
func (g *Graph) BranchToNewJoint(from JointID, ctrl []geom.Point, endPos geom.Point) (JointID, bool) {
	jf := g.joints.Get(from)
	if jf == nil {
		return 0, false
	}
	curve, ok := buildCurve(jf.Position, ctrl, endPos)
	if !ok {
		return 0, false
	}
	tangent := curve.Derivative(1).Normalize()
	id := g.joints.Create(endPos, tangent, jf.Elevation)
	if !g.ConnectJoints(from, id, ctrl) {
		g.joints.Destroy(id)
		return 0, false
	}
	return id, true
}

// ExtendTrackFromJoint appends a curve to a dead end. The new curve's
// initial direction must point into the joint's unused direction (within
// 90 degrees of the corresponding tangent orientation); otherwise the
// extension would create a direction-ambiguous dead end and is rejected.
func (g *Graph) ExtendTrackFromJoint(from JointID, ctrl []geom.Point, endPos geom.Point) (JointID, bool) {
	jf := g.joints.Get(from)
	if jf == nil || !jf.DeadEnd() {
		return 0, false
	}
	empty, ok := jf.EmptySense()
	if !ok {
		return 0, false
	}
	curve, ok := buildCurve(jf.Position, ctrl, endPos)
	if !ok {
		return 0, false
	}
	aligned := curve.Derivative(0).Dot(jf.Tangent)
	if empty == SenseTangent && aligned <= 0 {
		return 0, false
	}
	if empty == SenseReverse && aligned >= 0 {
		return 0, false
	}
	return g.BranchToNewJoint(from, ctrl, endPos)
}

// InsertJointIntoTrackSegment splits the segment between two connected
// joints at parameter atT, returning the new joint. See the ByID variant.
func (g *Graph) InsertJointIntoTrackSegment(start, end JointID, atT float64) (JointID, bool) {
	id, ok := g.SegmentBetween(start, end)
	if !ok {
		return 0, false
	}
	return g.InsertJointIntoTrackSegmentByID(id, atT)
}

// InsertJointIntoTrackSegmentByID splits a segment at atT into two new
// segments joined by a new joint. Ramps are rejected: the new joint's
// elevation would be ambiguous. The new joint's tangent comes from the
// first sub-curve's end derivative.
func (g *Graph) InsertJointIntoTrackSegmentByID(id SegmentID, atT float64) (JointID, bool) {
	if atT <= 0 || atT >= 1 {
		return 0, false
	}
	seg := g.curves.Get(id)
	if seg == nil {
		return 0, false
	}
	j0ID, j1ID := seg.Joint0, seg.Joint1
	j0 := g.joints.Get(j0ID)
	j1 := g.joints.Get(j1ID)
	if j0 == nil || j1 == nil {
		g.log.Error("segment references dead joint",
			zap.Uint32("segment", uint32(id)))
		return 0, false
	}
	if j0.Elevation != j1.Elevation {
		return 0, false
	}
	elev := j0.Elevation
	gauge := seg.Gauge

	c1, c2 := seg.Curve.Split(atT)

	g.curves.DestroyCurve(id)
	delete(j0.Links, j1ID)
	delete(j1.Links, j0ID)

	newID := g.joints.Create(c1.End(), c1.Derivative(1).Normalize(), elev)

	id1 := g.curves.CreateCurveWithJoints(c1, j0ID, newID, elev, elev, gauge,
		g.adjacentSegments(j0ID, newID))
	g.link(j0ID, newID, id1, c1)

	id2 := g.curves.CreateCurveWithJoints(c2, newID, j1ID, elev, elev, gauge,
		g.adjacentSegments(newID, j1ID))
	g.link(newID, j1ID, id2, c2)

	return newID, true
}

// RemoveTrackSegment deletes a segment unless doing so would strip one of
// its joints of its only connection in one direction while the joint still
// has several in the other: that would orphan live traffic on the far side.
// Joints left without any connection are destroyed.
func (g *Graph) RemoveTrackSegment(id SegmentID) bool {
	seg := g.curves.Get(id)
	if seg == nil {
		return false
	}
	j0ID, j1ID := seg.Joint0, seg.Joint1
	j0 := g.joints.Get(j0ID)
	j1 := g.joints.Get(j1ID)
	if j0 == nil || j1 == nil {
		g.log.Error("segment references dead joint",
			zap.Uint32("segment", uint32(id)))
		return false
	}

	if blocksRemoval(j0, j1ID) || blocksRemoval(j1, j0ID) {
		return false
	}

	g.curves.DestroyCurve(id)
	delete(j0.Links, j1ID)
	delete(j1.Links, j0ID)
	// Decide both before destroying either: Destroy moves packed slots and
	// would invalidate the other joint pointer.
	destroy0 := len(j0.Links) == 0
	destroy1 := len(j1.Links) == 0
	if destroy0 {
		g.joints.Destroy(j0ID)
	}
	if destroy1 {
		g.joints.Destroy(j1ID)
	}
	return true
}

// blocksRemoval applies the deletion guard at one endpoint: refuse when the
// link toward neighbor is the joint's sole connection in its sense while
// the opposite sense carries more than one.
func blocksRemoval(j *Joint, neighbor JointID) bool {
	l, ok := j.Links[neighbor]
	if !ok {
		return false
	}
	return j.CountSense(l.Sense) == 1 && j.CountSense(l.Sense.Opposite()) > 1
}

// SetJointElevation edits a joint's elevation and recomputes every adjacent
// segment's slice elevations and draw entries, then publishes the change.
func (g *Graph) SetJointElevation(id JointID, elevation int) bool {
	if elevation < g.minElev || elevation > g.maxElev {
		return false
	}
	j := g.joints.Get(id)
	if j == nil {
		return false
	}
	j.Elevation = elevation
	for _, l := range j.Links {
		seg := g.curves.Get(l.Segment)
		if seg == nil {
			continue
		}
		ef, et := seg.ElevFrom, seg.ElevTo
		if seg.Joint0 == id {
			ef = elevation
		}
		if seg.Joint1 == id {
			et = elevation
		}
		g.curves.RefreshElevation(l.Segment, ef, et)
	}
	g.curves.Resort()
	event.Publish(g.bus, ElevationChanged{Joint: id, Elevation: elevation})
	return true
}
