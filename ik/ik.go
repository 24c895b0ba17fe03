// Package ik computes robot joint angles from endeffector positions.
package ik

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/trajviz/endeffector"
)

var (
	// ErrUnreachable is returned when a leg cannot reach the requested position.
	ErrUnreachable = errors.New("endeffector position is out of reach")
	// ErrMissingEndeffector is returned when a required endeffector has no position.
	ErrMissingEndeffector = errors.New("missing endeffector position")
)

// InverseKinematics calculates the joint angles that place every endeffector at a position
// expressed in the base frame. Implementations are deterministic and side effect free.
type InverseKinematics interface {
	SolveJoints(pos endeffector.Positions) (Joints, error)
}

// Joints holds one joint vector per leg, ordered by the implementation's fixed leg order.
type Joints [][]float64

// NumLegs returns the number of legs.
func (j Joints) NumLegs() int {
	return len(j)
}

// Leg returns the joint angles of the i-th leg.
func (j Joints) Leg(i int) []float64 {
	return j[i]
}

// Flatten concatenates the joint vectors of all legs.
func (j Joints) Flatten() []float64 {
	var out []float64
	for _, q := range j {
		out = append(out, q...)
	}
	return out
}

// AlmostEqual reports whether both joint sets have the same shape and all angles are within tol.
func (j Joints) AlmostEqual(other Joints, tol float64) bool {
	if len(j) != len(other) {
		return false
	}
	for i := range j {
		if len(j[i]) != len(other[i]) || !floats.EqualApprox(j[i], other[i], tol) {
			return false
		}
	}
	return true
}
