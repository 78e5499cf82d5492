package track

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/core/event"
	"github.com/trackforge/engine/internal/core/slot"
	"github.com/trackforge/engine/internal/geom"
	"github.com/trackforge/engine/internal/spatial"
)

const railSamples = 25

// Manager owns segment storage, the spatial index, collision resolution at
// insertion time, and the persisted draw-order list.
type Manager struct {
	segments *slot.Store[Segment]
	index    *spatial.Tree[SegmentID]
	draw     []DrawEntry
	bus      *event.Bus
	log      *zap.Logger
}

func NewManager(bus *event.Bus, log *zap.Logger) *Manager {
	return &Manager{
		segments: slot.NewStore[Segment](),
		index:    spatial.NewTree[SegmentID](),
		bus:      bus,
		log:      log,
	}
}

func (m *Manager) Get(id SegmentID) *Segment {
	return m.segments.Get(slot.ID(id))
}

func (m *Manager) Len() int {
	return m.segments.Len()
}

// Each visits every live segment in packed order.
func (m *Manager) Each(fn func(SegmentID, *Segment)) {
	m.segments.Each(func(id slot.ID, s *Segment) {
		fn(SegmentID(id), s)
	})
}

// round2 caps split parameters at 2 decimal places so near-duplicate
// crossings collapse into one split instead of producing degenerate slivers.
func round2(t float64) float64 {
	return math.Round(t*100) / 100
}

// CreateCurveWithJoints registers a new segment between two joints,
// resolving collisions with overlapping segments.
//
// Split rules: a ramp (differing end elevations) is cut at every crossing;
// a flat segment is cut only where it crosses a ramp. Flat-over-flat
// overlaps are left whole and resolved by draw-order comparison alone.
// Whenever a crossing forces a cut, the existing segment on the other side
// is recut too, so both segments carry a slice boundary at the crossing.
//
// exclude lists segments that legitimately touch the new curve at a shared
// joint; collisions with them are not computed.
func (m *Manager) CreateCurveWithJoints(curve geom.Curve, j0, j1 JointID, elevFrom, elevTo int, gauge float64, exclude map[SegmentID]struct{}) SegmentID {
	box := curve.BBox()
	newSloped := elevFrom != elevTo

	ts, recut := m.collisionCuts(curve, newSloped, func(cid SegmentID, _ *Segment) bool {
		_, skip := exclude[cid]
		return skip
	})

	seg := Segment{
		Curve:     curve,
		Joint0:    j0,
		Joint1:    j1,
		ElevFrom:  elevFrom,
		ElevTo:    elevTo,
		Gauge:     gauge,
		RailLeft:  curve.OffsetPolyline(gauge/2, railSamples),
		RailRight: curve.OffsetPolyline(-gauge/2, railSamples),
	}
	seg.Slices = buildSlices(curve, dedupeSorted(ts), float64(elevFrom), float64(elevTo))

	id := SegmentID(m.segments.Create(seg))
	m.index.Insert(box, id)
	m.insertDrawForSegment(id)

	for cid, cuts := range recut {
		m.recutSegment(cid, cuts)
	}
	return id
}

// collisionCuts scans the spatial index for segments crossing curve and
// collects the split parameters the crossing rules demand: the cuts on
// curve itself, and the cuts each crossing partner must take on its own
// side. Flat-over-flat pairs are skipped; skip filters out candidates that
// legitimately touch curve (shared joints, or curve's own entry).
func (m *Manager) collisionCuts(curve geom.Curve, sloped bool, skip func(SegmentID, *Segment) bool) ([]float64, map[SegmentID][]float64) {
	var ts []float64
	recut := make(map[SegmentID][]float64)
	for _, cid := range m.index.Search(curve.BBox()) {
		cand := m.Get(cid)
		if cand == nil || skip(cid, cand) {
			continue
		}
		if !sloped && !cand.Sloped() {
			continue // flat vs flat: draw order only, no subdivision
		}
		for _, hit := range geom.Intersections(curve, cand.Curve) {
			if t := round2(hit.TA); t > 0 && t < 1 {
				ts = append(ts, t)
			}
			if ot := round2(hit.TB); ot > 0 && ot < 1 {
				recut[cid] = append(recut[cid], ot)
			}
		}
	}
	return ts, recut
}

// DestroyCurve removes a segment: spatial index entry, draw slices (with
// delete notifications), and the storage slot. Adjacency cleanup is the
// graph's job.
func (m *Manager) DestroyCurve(id SegmentID) {
	if m.Get(id) == nil {
		return
	}
	m.index.RemoveByValue(id)
	m.removeDrawForSegment(id)
	m.segments.Destroy(slot.ID(id))
}

// insertDrawForSegment adds one draw entry per slice of id.
func (m *Manager) insertDrawForSegment(id SegmentID) {
	seg := m.Get(id)
	for i, sl := range seg.Slices {
		m.insertDraw(DrawEntry{
			Segment:  id,
			Slice:    i,
			Curve:    sl.Curve,
			T0:       sl.T0,
			T1:       sl.T1,
			ElevFrom: sl.ElevFrom,
			ElevTo:   sl.ElevTo,
			Box:      sl.Curve.BBox(),
		})
	}
}

// recutSegment merges new cut parameters into id's existing slice
// boundaries and rebuilds its slices and draw entries.
func (m *Manager) recutSegment(id SegmentID, cuts []float64) {
	seg := m.Get(id)
	if seg == nil {
		return
	}
	for _, sl := range seg.Slices[:len(seg.Slices)-1] {
		cuts = append(cuts, sl.T1) // existing interior boundaries
	}
	seg.Slices = buildSlices(seg.Curve, dedupeSorted(cuts), float64(seg.ElevFrom), float64(seg.ElevTo))
	m.removeDrawForSegment(id)
	m.insertDrawForSegment(id)
}

// RefreshElevation rebuilds a segment's slice elevations and draw entries
// after an endpoint joint's elevation changed. When the edit flips the
// segment's slope state, crossings that previously demanded no subdivision
// may now demand it, so the collision scan runs again and both sides of
// every crossing are recut.
func (m *Manager) RefreshElevation(id SegmentID, elevFrom, elevTo int) {
	seg := m.Get(id)
	if seg == nil {
		return
	}
	wasSloped := seg.Sloped()
	seg.ElevFrom = elevFrom
	seg.ElevTo = elevTo
	var cuts []float64
	for _, sl := range seg.Slices[:len(seg.Slices)-1] {
		cuts = append(cuts, sl.T1)
	}
	var recut map[SegmentID][]float64
	if seg.Sloped() != wasSloped {
		j0, j1 := seg.Joint0, seg.Joint1
		var extra []float64
		extra, recut = m.collisionCuts(seg.Curve, seg.Sloped(), func(cid SegmentID, cand *Segment) bool {
			if cid == id {
				return true
			}
			return cand.Joint0 == j0 || cand.Joint0 == j1 ||
				cand.Joint1 == j0 || cand.Joint1 == j1
		})
		cuts = append(cuts, extra...)
	}
	seg.Slices = buildSlices(seg.Curve, dedupeSorted(cuts), float64(elevFrom), float64(elevTo))
	m.removeDrawForSegment(id)
	m.insertDrawForSegment(id)
	for cid, pcuts := range recut {
		m.recutSegment(cid, pcuts)
	}
}

// buildSlices cuts curve at the given sorted interior parameters. The
// resulting intervals partition [0,1] contiguously in increasing order.
func buildSlices(curve geom.Curve, cuts []float64, elevFrom, elevTo float64) []Slice {
	elevAt := func(t float64) float64 {
		return elevFrom + (elevTo-elevFrom)*t
	}
	if len(cuts) == 0 {
		return []Slice{{Curve: curve, T0: 0, T1: 1, ElevFrom: elevFrom, ElevTo: elevTo}}
	}
	out := make([]Slice, 0, len(cuts)+1)
	rest := curve
	prev := 0.0
	for _, c := range cuts {
		local := (c - prev) / (1 - prev)
		left, right := rest.Split(local)
		out = append(out, Slice{Curve: left, T0: prev, T1: c, ElevFrom: elevAt(prev), ElevTo: elevAt(c)})
		rest = right
		prev = c
	}
	out = append(out, Slice{Curve: rest, T0: prev, T1: 1, ElevFrom: elevAt(prev), ElevTo: elevTo})
	return out
}

// dedupeSorted sorts cuts ascending and drops duplicates.
func dedupeSorted(ts []float64) []float64 {
	if len(ts) == 0 {
		return ts
	}
	sort.Float64s(ts)
	out := ts[:1]
	for _, t := range ts[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

// CurveHit is a successful nearest-point projection onto a segment.
type CurveHit struct {
	Segment  SegmentID
	Point    geom.Point
	T        float64
	Distance float64
}

// projectRadius is the hit-test radius for direct curve hits, in world units.
const projectRadius = 1.0

// edgeRadius is the candidate search radius for shoulder (edge) hits.
const edgeRadius = 2.0

// ProjectOnCurve returns the nearest segment point within one world unit of
// p, or false if nothing is close enough.
func (m *Manager) ProjectOnCurve(p geom.Point) (CurveHit, bool) {
	best := CurveHit{Distance: math.Inf(1)}
	found := false
	for _, cid := range m.index.Search(geom.BBoxAround(p, projectRadius)) {
		seg := m.Get(cid)
		if seg == nil {
			continue
		}
		pt, t, dist := seg.Curve.Project(p)
		if dist < projectRadius && dist < best.Distance {
			best = CurveHit{Segment: cid, Point: pt, T: t, Distance: dist}
			found = true
		}
	}
	return best, found
}

// OnSegmentEdge hit-tests the shoulder beside a track: the projection must
// land outside the track's physical half-width but within the edge search
// radius. The returned point is pushed a full gauge width away from the
// centerline, on the side p is on.
func (m *Manager) OnSegmentEdge(p geom.Point) (CurveHit, bool) {
	best := CurveHit{Distance: math.Inf(1)}
	found := false
	for _, cid := range m.index.Search(geom.BBoxAround(p, edgeRadius)) {
		seg := m.Get(cid)
		if seg == nil {
			continue
		}
		pt, t, dist := seg.Curve.Project(p)
		if dist <= seg.Gauge/2 || dist >= edgeRadius || dist >= best.Distance {
			continue
		}
		side := 1.0
		if seg.Curve.Normal(t).Dot(p.Sub(pt)) < 0 {
			side = -1.0
		}
		edge := pt.Add(seg.Curve.Normal(t).Scale(side * seg.Gauge))
		best = CurveHit{Segment: cid, Point: edge, T: t, Distance: dist}
		found = true
	}
	return best, found
}
