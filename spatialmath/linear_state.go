package spatialmath

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Gravity is the standard gravitational acceleration in m/s^2.
const Gravity = 9.80665

// LinearState is the position, velocity and acceleration of a point, e.g. the center of a robot base.
type LinearState struct {
	Position     r3.Vector `json:"p"`
	Velocity     r3.Vector `json:"v"`
	Acceleration r3.Vector `json:"a"`
}

// XY returns the ground-plane position.
func (s LinearState) XY() r2.Point {
	return XY(s.Position)
}

// ZeroMomentPoint returns the ground-plane point about which gravity and the horizontal
// acceleration of a point mass at the given height produce no moment.
func (s LinearState) ZeroMomentPoint(height float64) r2.Point {
	p := XY(s.Position)
	a := XY(s.Acceleration)
	return p.Sub(a.Mul(height / Gravity))
}
