package train

import (
	"go.uber.org/zap"

	"github.com/trackforge/engine/internal/track"
)

// DefaultBogieOffsets is the spacing of a standard 3-car consist: distances
// from each bogie to the one ahead of it (the first entry is measured from
// the lead position).
var DefaultBogieOffsets = []float64{40, 10, 40, 10, 40}

// Train is a kinematic train anchored at its lead bogie. It reads the graph
// through its resolver and never mutates it.
type Train struct {
	graph    *track.Graph
	resolver Resolver
	log      *zap.Logger

	pos      Position
	offsets  []float64
	speed    float64
	accel    float64
	throttle Throttle
	occ      Occupancy
	placed   bool
}

func New(g *track.Graph, log *zap.Logger) *Train {
	return &Train{
		graph:    g,
		resolver: &DirectionResolver{Graph: g},
		log:      log,
		throttle: ThrottleN,
	}
}

func (t *Train) Speed() float64       { return t.speed }
func (t *Train) Acceleration() float64 { return t.accel }
func (t *Train) Throttle() Throttle   { return t.throttle }
func (t *Train) Position() Position   { return t.pos }
func (t *Train) Placed() bool         { return t.placed }

// OccupiedJoints returns the joints currently spanned by the train's body,
// lead-first.
func (t *Train) OccupiedJoints() []PassedJoint {
	return append([]PassedJoint(nil), t.occ.Joints...)
}

// OccupiedSegments returns the segments currently spanned, lead-first.
func (t *Train) OccupiedSegments() []track.SegmentID {
	return append([]track.SegmentID(nil), t.occ.Segments...)
}

// SetThrottle selects a throttle step.
func (t *Train) SetThrottle(th Throttle) bool {
	if !th.Valid() {
		return false
	}
	t.throttle = th
	return true
}

// Place anchors the train's lead at pos with the given bogie offsets. Fails
// if the body does not fit behind the lead (a bogie walk runs off the
// track). Placement seeds the occupancy history.
func (t *Train) Place(pos Position, offsets []float64) bool {
	if len(offsets) == 0 {
		offsets = DefaultBogieOffsets
	}
	if t.graph.Segment(pos.Segment) == nil {
		return false
	}
	prev := *t
	t.pos = pos
	t.offsets = append([]float64(nil), offsets...)
	t.occ = Occupancy{}
	if _, ok := t.placeBogies(); !ok {
		*t = prev
		return false
	}
	t.placed = true
	t.speed = 0
	t.throttle = ThrottleN
	return true
}

// BogiePositions returns each bogie's position, lead-first.
func (t *Train) BogiePositions() ([]Position, bool) {
	if !t.placed {
		return nil, false
	}
	return t.bogieWalks(false)
}

// bogieWalks expands the bogie offsets into positions by walking backward
// from the lead. Each bogie's walk is independent; the shared occupancy
// history is what forces them through the same junction exits. With trim
// set, the occupancy is re-seeded to end at the trailing bogie.
func (t *Train) bogieWalks(trim bool) ([]Position, bool) {
	back := t.pos
	back.Direction = back.Direction.Flip()

	positions := make([]Position, 0, len(t.offsets))
	cumulative := 0.0
	var tail walkResult
	for _, off := range t.offsets {
		cumulative += off
		res, ok := advance(t.graph, t.resolver, back, cumulative, &t.occ)
		if !ok || res.stopped {
			return nil, false
		}
		positions = append(positions, res.pos)
		tail = res
	}
	if trim {
		t.occ = Occupancy{
			Joints:   tail.joints,
			Segments: append([]track.SegmentID{t.pos.Segment}, tail.segments...),
		}
	}
	return positions, true
}

// placeBogies verifies the body fits and trims the occupancy history to the
// trailing bogie, releasing joints the train has fully passed.
func (t *Train) placeBogies() ([]Position, bool) {
	return t.bogieWalks(true)
}

func (t *Train) hardStop() {
	t.speed = 0
	t.accel = 0
	t.throttle = ThrottleN
}

// Update advances the simulation by deltaMs milliseconds.
func (t *Train) Update(deltaMs float64) {
	if !t.placed {
		return
	}
	dt := deltaMs / 1000

	if t.graph.Segment(t.pos.Segment) == nil {
		// The track under the train was edited away.
		t.hardStop()
		return
	}

	t.accel = t.throttle.Acceleration()
	if t.speed > 0 && t.accel > hardBrakeThreshold {
		t.accel -= rollingResistance
	}
	t.speed += t.accel * dt
	if t.speed < 0 {
		t.speed = 0
	}

	dist := t.speed * dt
	if dist < 0.01 {
		return
	}

	res, ok := advance(t.graph, t.resolver, t.pos, dist, nil)
	if !ok {
		t.log.Error("train walk hit missing graph element",
			zap.Uint32("segment", uint32(t.pos.Segment)))
		t.hardStop()
		return
	}
	t.pos = res.pos
	if res.stopped {
		t.hardStop()
	}

	// Record newly passed elements from the tail's perspective: reversed
	// order, flipped senses.
	for i := len(res.joints) - 1; i >= 0; i-- {
		pj := res.joints[i]
		pj.Sense = pj.Sense.Opposite()
		t.occ.Joints = append([]PassedJoint{pj}, t.occ.Joints...)
	}
	for i := len(res.segments) - 1; i >= 0; i-- {
		t.occ.Segments = append([]track.SegmentID{res.segments[i]}, t.occ.Segments...)
	}

	if _, ok := t.placeBogies(); !ok {
		t.log.Error("bogie placement failed after advance",
			zap.Uint32("segment", uint32(t.pos.Segment)))
		t.hardStop()
	}
}

// SwitchDirection swaps the train's front and back without moving it: the
// anchor moves to the current trailing bogie, bogie offsets reverse, and
// the occupancy history is reversed with flipped senses so junction
// commitments survive the turnaround.
func (t *Train) SwitchDirection() bool {
	if !t.placed {
		return false
	}
	positions, ok := t.bogieWalks(false)
	if !ok || len(positions) == 0 {
		return false
	}

	t.pos = positions[len(positions)-1]

	for i, j := 0, len(t.offsets)-1; i < j; i, j = i+1, j-1 {
		t.offsets[i], t.offsets[j] = t.offsets[j], t.offsets[i]
	}

	jn := t.occ.Joints
	for i, j := 0, len(jn)-1; i < j; i, j = i+1, j-1 {
		jn[i], jn[j] = jn[j], jn[i]
	}
	for i := range jn {
		jn[i].Sense = jn[i].Sense.Opposite()
	}
	sg := t.occ.Segments
	for i, j := 0, len(sg)-1; i < j; i, j = i+1, j-1 {
		sg[i], sg[j] = sg[j], sg[i]
	}
	return true
}
