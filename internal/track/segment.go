package track

import "github.com/trackforge/engine/internal/geom"

// DefaultGauge is the track width used when nothing else is configured.
const DefaultGauge = 1.067

// Slice is one internally subdivided piece of a segment's curve. Slices are
// cut where the segment crosses other segments so draw order can flip per
// crossing; their t intervals partition [0,1] contiguously.
type Slice struct {
	Curve    geom.Curve
	T0, T1   float64 // interval within the parent segment
	ElevFrom float64 // interpolated elevation at T0
	ElevTo   float64 // interpolated elevation at T1
}

// Segment is a single curve between two joints. The parameter t runs 0..1
// from Joint0 to Joint1.
type Segment struct {
	Curve     geom.Curve
	Joint0    JointID
	Joint1    JointID
	ElevFrom  int
	ElevTo    int
	Gauge     float64
	Slices    []Slice
	RailLeft  []geom.Point // offset polyline at +gauge/2
	RailRight []geom.Point // offset polyline at -gauge/2
}

// Sloped reports whether the segment is a ramp (differing end elevations).
func (s *Segment) Sloped() bool {
	return s.ElevFrom != s.ElevTo
}

// ElevationAt returns the linearly interpolated elevation at parameter t.
func (s *Segment) ElevationAt(t float64) float64 {
	return float64(s.ElevFrom) + (float64(s.ElevTo)-float64(s.ElevFrom))*t
}

// MinElevation returns the lower end elevation.
func (s *Segment) MinElevation() float64 {
	if s.ElevFrom < s.ElevTo {
		return float64(s.ElevFrom)
	}
	return float64(s.ElevTo)
}

// MaxElevation returns the higher end elevation.
func (s *Segment) MaxElevation() float64 {
	if s.ElevFrom > s.ElevTo {
		return float64(s.ElevFrom)
	}
	return float64(s.ElevTo)
}

// OtherJoint returns the joint at the far end from id.
func (s *Segment) OtherJoint(id JointID) (JointID, bool) {
	switch id {
	case s.Joint0:
		return s.Joint1, true
	case s.Joint1:
		return s.Joint0, true
	}
	return 0, false
}

// SharesJoint reports whether the two segments touch at a common joint.
func (s *Segment) SharesJoint(o *Segment) bool {
	return s.Joint0 == o.Joint0 || s.Joint0 == o.Joint1 ||
		s.Joint1 == o.Joint0 || s.Joint1 == o.Joint1
}
