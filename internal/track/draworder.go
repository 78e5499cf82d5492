package track

import (
	"cmp"
	"sort"

	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/core/event"
	"github.com/trackforge/engine/internal/geom"
)

// DrawEntry is one renderable slice in painter's order: lower entries draw
// first.
type DrawEntry struct {
	Segment  SegmentID
	Slice    int // index into the owning segment's Slices
	Curve    geom.Curve
	T0, T1   float64
	ElevFrom float64
	ElevTo   float64
	Box      geom.BBox
}

// compareDraw orders two draw entries back-to-front. The comparison is weak:
// unrelated slices compare equal and keep their relative order.
func (m *Manager) compareDraw(a, b DrawEntry) int {
	if a.Segment == b.Segment {
		return cmp.Compare(a.T0, b.T0)
	}
	sa := m.Get(a.Segment)
	sb := m.Get(b.Segment)
	if sa == nil || sb == nil {
		return 0
	}

	// Two flat segments order purely by elevation.
	if !sa.Sloped() && !sb.Sloped() {
		return cmp.Compare(sa.ElevFrom, sb.ElevFrom)
	}

	// Disjoint elevation intervals: the higher segment draws later.
	if sa.MaxElevation() < sb.MinElevation() || sb.MaxElevation() < sa.MinElevation() {
		return cmp.Compare(sa.MaxElevation(), sb.MaxElevation())
	}

	// Segments meeting at a joint never collide; their order is don't-care.
	if sa.SharesJoint(sb) {
		return 0
	}

	if !sa.Curve.BBox().Intersects(sb.Curve.BBox()) {
		return cmp.Compare(sa.MaxElevation(), sb.MaxElevation())
	}

	hits := geom.Intersections(sa.Curve, sb.Curve)
	if len(hits) == 0 {
		return cmp.Compare(sa.MaxElevation(), sb.MaxElevation())
	}
	if len(hits) > 1 {
		// Two segments crossing more than once cannot be totally ordered by
		// a single comparison; we order by the first crossing. See DESIGN.md.
		m.log.Warn("multiple crossings between segments in draw-order comparison",
			zap.Uint32("segmentA", uint32(a.Segment)),
			zap.Uint32("segmentB", uint32(b.Segment)),
			zap.Int("crossings", len(hits)))
	}
	ea := sa.ElevationAt(hits[0].TA)
	eb := sb.ElevationAt(hits[0].TB)
	return cmp.Compare(ea, eb)
}

// insertDraw places e into the persisted draw list by binary search and
// publishes the add notification.
func (m *Manager) insertDraw(e DrawEntry) {
	idx := sort.Search(len(m.draw), func(i int) bool {
		return m.compareDraw(m.draw[i], e) > 0
	})
	m.draw = append(m.draw, DrawEntry{})
	copy(m.draw[idx+1:], m.draw[idx:])
	m.draw[idx] = e
	event.Publish(m.bus, SliceAdded{Segment: e.Segment, Index: idx, Entry: e})
}

// removeDrawForSegment drops every draw entry owned by id, publishing one
// delete notification per slice. Returns the smallest removed index (or -1)
// so listeners can re-index cheaply.
func (m *Manager) removeDrawForSegment(id SegmentID) int {
	minIdx := -1
	kept := m.draw[:0]
	for _, e := range m.draw {
		if e.Segment == id {
			// Entries before this one are already compacted, so its index at
			// removal time is the kept count.
			idx := len(kept)
			event.Publish(m.bus, SliceRemoved{Segment: id, Index: idx})
			if minIdx == -1 {
				minIdx = idx
			}
			continue
		}
		kept = append(kept, e)
	}
	m.draw = kept
	return minIdx
}

// Resort recomputes the full draw order from scratch. The incremental
// binary-search path keeps the list sorted for single edits; bulk changes
// (elevation edits touching many segments) go through here.
func (m *Manager) Resort() {
	sort.SliceStable(m.draw, func(i, j int) bool {
		return m.compareDraw(m.draw[i], m.draw[j]) < 0
	})
}

// DrawData returns the slices whose boxes intersect the viewport, in
// painter's order.
func (m *Manager) DrawData(viewport geom.BBox) []DrawEntry {
	var out []DrawEntry
	for _, e := range m.draw {
		if e.Box.Intersects(viewport) {
			out = append(out, e)
		}
	}
	return out
}
