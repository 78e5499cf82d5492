package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput  Phase = iota // 0: apply queued editor commands
	PhaseUpdate              // 1: advance simulation (train kinematics)
	PhaseOutput              // 2: publish snapshots to viewers
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
