package trajectory

import (
	"iter"
	"math"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/foothold"
)

// no trajectory uses this phase id.
const noPhase = math.MinInt

// Phase is the first sample of a run of samples sharing one phase id.
type Phase struct {
	ID    int
	Start int
	Time  float64

	Contacts    foothold.Sequence
	SwingLeg    endeffector.ID
	HasSwingLeg bool
}

// Phases yields one Phase per phase-id change, in order. The sequence is computed lazily from the
// trajectory each time it is ranged over.
func (traj Trajectory) Phases() iter.Seq[Phase] {
	return func(yield func(Phase) bool) {
		prev := noPhase
		for i, state := range traj {
			if state.Phase == prev {
				continue
			}
			prev = state.Phase

			swing, ok := state.SwingLeg()
			phase := Phase{
				ID:          state.Phase,
				Start:       i,
				Time:        state.Time,
				Contacts:    state.Contacts(),
				SwingLeg:    swing,
				HasSwingLeg: ok,
			}
			if !yield(phase) {
				return
			}
		}
	}
}
