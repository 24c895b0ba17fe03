package ik

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// KneeBend selects which of the two closed form solutions a leg takes.
type KneeBend int

const (
	// Forward bends the knee towards the front of the robot.
	Forward KneeBend = iota
	// Backward bends the knee towards the back of the robot.
	Backward
)

// reachTolerance absorbs rounding when the foot is exactly at full extension.
const reachTolerance = 1e-9

// HyQLeg is a three joint leg: hip abduction/adduction (HAA) about x, then hip and knee
// flexion/extension (HFE, KFE) about y. Positions are expressed in the HAA frame.
type HyQLeg struct {
	// HFEToHAA is the offset from the HFE joint to the HAA joint.
	HFEToHAA r3.Vector
	Thigh    float64
	Shank    float64
}

// NewHyQLeg returns the leg dimensions of the HyQ quadruped in meters.
func NewHyQLeg() HyQLeg {
	return HyQLeg{
		HFEToHAA: r3.Vector{Z: 0.08},
		Thigh:    0.35,
		Shank:    0.33,
	}
}

// Solve returns (HAA, HFE, KFE) in radians for a foot at pos.
func (leg HyQLeg) Solve(pos r3.Vector, bend KneeBend) ([]float64, error) {
	haa := -math.Atan2(pos.Y, -pos.Z)

	// rotate into the HFE plane and move to the HFE joint
	xr := rotateX(pos, haa).Add(leg.HFEToHAA)
	distSq := xr.X*xr.X + xr.Z*xr.Z
	dist := math.Sqrt(distSq)

	lu, ll := leg.Thigh, leg.Shank
	if dist > lu+ll+reachTolerance || dist < math.Abs(lu-ll)-reachTolerance {
		return nil, errors.Wrapf(ErrUnreachable, "foot at %v is %.3fm from the hip, leg reaches %.3fm to %.3fm",
			pos, dist, math.Abs(lu-ll), lu+ll)
	}

	alpha := math.Atan2(-xr.Z, xr.X) - 0.5*math.Pi
	beta := math.Acos(clamp((lu*lu + distSq - ll*ll) / (2 * lu * dist)))
	gamma := math.Acos(clamp((ll*ll + lu*lu - distSq) / (2 * ll * lu)))

	hfe := alpha + beta
	kfe := gamma - math.Pi
	if bend == Backward {
		return []float64{haa, -hfe, -kfe}, nil
	}
	return []float64{haa, hfe, kfe}, nil
}

// Forward returns the foot position for forward-bent joint angles (HAA, HFE, KFE).
func (leg HyQLeg) Forward(q []float64) r3.Vector {
	haa, hfe, kfe := q[0], q[1], q[2]
	foot := r3.Vector{
		X: -leg.Thigh*math.Sin(hfe) - leg.Shank*math.Sin(hfe+kfe),
		Z: -leg.Thigh*math.Cos(hfe) - leg.Shank*math.Cos(hfe+kfe),
	}
	return rotateX(foot.Sub(leg.HFEToHAA), -haa)
}

// rotateX rotates v by angle about the x axis.
func rotateX(v r3.Vector, angle float64) r3.Vector {
	c, s := math.Cos(angle), math.Sin(angle)
	return r3.Vector{
		X: v.X,
		Y: c*v.Y - s*v.Z,
		Z: s*v.Y + c*v.Z,
	}
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
