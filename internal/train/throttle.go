// Package train simulates a multi-bogie train advancing along the track
// graph with throttle/brake dynamics and joint/segment occupancy tracking.
package train

// Throttle is a discretized controller setting, emergency brake through
// full power.
type Throttle int

const (
	ThrottleEB Throttle = iota // emergency brake
	ThrottleB7
	ThrottleB6
	ThrottleB5
	ThrottleB4
	ThrottleB3
	ThrottleB2
	ThrottleB1
	ThrottleN // coasting
	ThrottleP1
	ThrottleP2
	ThrottleP3
	ThrottleP4
	ThrottleP5
)

var throttleNames = [...]string{
	"EB", "B7", "B6", "B5", "B4", "B3", "B2", "B1",
	"N", "P1", "P2", "P3", "P4", "P5",
}

func (t Throttle) String() string {
	if t < ThrottleEB || t > ThrottleP5 {
		return "?"
	}
	return throttleNames[t]
}

// Valid reports whether t is a defined step.
func (t Throttle) Valid() bool {
	return t >= ThrottleEB && t <= ThrottleP5
}

// ParseThrottle maps a step name back to its value.
func ParseThrottle(s string) (Throttle, bool) {
	for i, n := range throttleNames {
		if n == s {
			return Throttle(i), true
		}
	}
	return ThrottleN, false
}

// throttleAccel maps each step to a signed acceleration in world units per
// second squared. Braking is negative, power positive, N zero.
var throttleAccel = [...]float64{
	ThrottleEB: -2.5,
	ThrottleB7: -1.75,
	ThrottleB6: -1.5,
	ThrottleB5: -1.25,
	ThrottleB4: -1.0,
	ThrottleB3: -0.75,
	ThrottleB2: -0.5,
	ThrottleB1: -0.25,
	ThrottleN:  0,
	ThrottleP1: 0.3,
	ThrottleP2: 0.6,
	ThrottleP3: 0.9,
	ThrottleP4: 1.2,
	ThrottleP5: 1.5,
}

// Acceleration returns the step's acceleration constant.
func (t Throttle) Acceleration() float64 {
	if !t.Valid() {
		return 0
	}
	return throttleAccel[t]
}

const (
	// rollingResistance is subtracted from acceleration while the train is
	// moving and not hard-braking.
	rollingResistance = 0.1
	// hardBrakeThreshold separates brake steps that already dominate
	// rolling resistance.
	hardBrakeThreshold = -0.5
)
