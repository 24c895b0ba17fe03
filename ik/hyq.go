package ik

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/trajviz/endeffector"
)

// HyQ1 is a single HyQ leg mounted under a base. Its only endeffector is E0.
type HyQ1 struct {
	Leg       HyQLeg
	BaseToHip r3.Vector
}

// NewHyQ1 returns the single legged HyQ. Base frame positions are shifted by 15cm in z to reach
// the hip frame.
func NewHyQ1() *HyQ1 {
	return &HyQ1{
		Leg:       NewHyQLeg(),
		BaseToHip: r3.Vector{Z: 0.15},
	}
}

// SolveJoints returns the three joint angles of the leg.
func (h *HyQ1) SolveJoints(pos endeffector.Positions) (Joints, error) {
	p, ok := pos[endeffector.E0]
	if !ok {
		return nil, errors.Wrapf(ErrMissingEndeffector, "%v", endeffector.E0)
	}
	q, err := h.Leg.Solve(p.Add(h.BaseToHip), Forward)
	if err != nil {
		return nil, err
	}
	return Joints{q}, nil
}

// HyQ4 is the HyQ quadruped. Joint vectors are ordered LF, RF, LH, RH. The right legs are
// mirrored in y and the hind legs in x, with hind knees bending backwards.
type HyQ4 struct {
	Leg HyQLeg
	// BaseToHipLF is the position of the LF hip in the base frame; the other hips are mirrors.
	BaseToHipLF r3.Vector
}

// NewHyQ4 returns the HyQ quadruped.
func NewHyQ4() *HyQ4 {
	return &HyQ4{
		Leg:         NewHyQLeg(),
		BaseToHipLF: r3.Vector{X: 0.3735, Y: 0.207},
	}
}

// SolveJoints returns the joint angles of all four legs.
func (h *HyQ4) SolveJoints(pos endeffector.Positions) (Joints, error) {
	joints := make(Joints, 0, 4)
	for _, ee := range []endeffector.ID{endeffector.LF, endeffector.RF, endeffector.LH, endeffector.RH} {
		p, ok := pos[ee]
		if !ok {
			return nil, errors.Wrapf(ErrMissingEndeffector, "%v", ee)
		}
		bend := Forward
		if ee == endeffector.RF || ee == endeffector.RH {
			p.Y = -p.Y
		}
		if ee == endeffector.LH || ee == endeffector.RH {
			p.X = -p.X
			bend = Backward
		}
		q, err := h.Leg.Solve(p.Sub(h.BaseToHipLF), bend)
		if err != nil {
			return nil, errors.Wrapf(err, "%v", ee)
		}
		joints = append(joints, q)
	}
	return joints, nil
}

// Robot names accepted by ForRobot.
const (
	RobotHyQ1 = "hyq1"
	RobotHyQ4 = "hyq4"
)

// ForRobot returns the inverse kinematics of the named robot.
func ForRobot(name string) (InverseKinematics, error) {
	switch name {
	case RobotHyQ1:
		return NewHyQ1(), nil
	case RobotHyQ4:
		return NewHyQ4(), nil
	default:
		return nil, errors.Errorf("unknown robot %q", name)
	}
}
