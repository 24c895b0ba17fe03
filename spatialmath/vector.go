// Package spatialmath defines the small amount of geometry the trajectory visualizer needs:
// conversions between ground-plane and 3D vectors and the linear state of a rigid base.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// XY projects v onto the ground plane.
func XY(v r3.Vector) r2.Point {
	return r2.Point{X: v.X, Y: v.Y}
}

// WithXY returns v with its horizontal components replaced by xy. Z is untouched.
func WithXY(v r3.Vector, xy r2.Point) r3.Vector {
	return r3.Vector{X: xy.X, Y: xy.Y, Z: v.Z}
}

// Lift places a ground-plane point at the given height.
func Lift(xy r2.Point, z float64) r3.Vector {
	return r3.Vector{X: xy.X, Y: xy.Y, Z: z}
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
