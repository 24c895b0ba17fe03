package trajectory

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/foothold"
)

// bodyHeight is the base height used by generated trajectories.
const bodyHeight = 0.5

// A Step describes one phase of a generated trajectory.
type Step struct {
	Duration float64
	// Swing lists the legs in the air during the phase.
	Swing []endeffector.ID
	// Land lists footholds upserted at the start of the phase.
	Land []foothold.Foothold
}

// FromSteps samples a sequence of steps every dt seconds. Every leg in legs that is not swinging
// is in contact. The base hovers over the mean of the current footholds.
func FromSteps(legs []endeffector.ID, dt float64, steps ...Step) Trajectory {
	var (
		traj      Trajectory
		footholds foothold.Sequence
		t         float64
	)
	for phase, step := range steps {
		for _, f := range step.Land {
			footholds.Upsert(f)
		}
		contact := endeffector.ContactState{}
		for _, leg := range legs {
			contact[leg] = true
		}
		for _, leg := range step.Swing {
			contact[leg] = false
		}

		base := r3.Vector{Z: bodyHeight}
		if len(footholds) > 0 {
			var sum r3.Vector
			for _, f := range footholds {
				sum = sum.Add(f.Position)
			}
			mean := sum.Mul(1 / float64(len(footholds)))
			base.X, base.Y = mean.X, mean.Y
		}

		n := int(math.Max(1, math.Round(step.Duration/dt)))
		for k := 0; k < n; k++ {
			state := State{
				Time:      t + float64(k)*dt,
				Contact:   contact,
				Phase:     phase,
				Footholds: footholds.Clone(),
			}
			state.Base.Position = base
			traj = append(traj, state)
		}
		t += float64(n) * dt
	}
	return traj
}

// Walk generates a quadruped crawl: a four legged stance followed by strides, each moving one leg
// at a time (LH, LF, RH, RF) forward by stride meters.
func Walk(strides int, stride, stepDuration, dt float64) Trajectory {
	legs := []endeffector.ID{endeffector.LF, endeffector.RF, endeffector.LH, endeffector.RH}
	feet := map[endeffector.ID]r3.Vector{
		endeffector.LF: {X: 0.35, Y: 0.3},
		endeffector.RF: {X: 0.35, Y: -0.3},
		endeffector.LH: {X: -0.35, Y: 0.3},
		endeffector.RH: {X: -0.35, Y: -0.3},
	}

	stance := Step{Duration: stepDuration}
	for _, leg := range legs {
		stance.Land = append(stance.Land, foothold.New(feet[leg], leg))
	}
	steps := []Step{stance}

	order := []endeffector.ID{endeffector.LH, endeffector.LF, endeffector.RH, endeffector.RF}
	id := 0
	for i := 0; i < strides; i++ {
		for j, leg := range order {
			feet[leg] = feet[leg].Add(r3.Vector{X: stride})
			steps = append(steps, Step{Duration: stepDuration, Swing: []endeffector.ID{leg}})

			// the leg lands at the start of the next phase
			landed := foothold.New(feet[leg], leg)
			landed.ID = id
			id++
			next := Step{Duration: stepDuration / 2, Land: []foothold.Foothold{landed}}
			if j == len(order)-1 && i == strides-1 {
				next.Duration = stepDuration
			}
			steps = append(steps, next)
		}
	}
	return FromSteps(legs, dt, steps...)
}
