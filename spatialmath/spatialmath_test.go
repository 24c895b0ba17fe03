package spatialmath

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestXYRoundTrip(t *testing.T) {
	v := r3.Vector{X: 1, Y: -2, Z: 0.4}
	test.That(t, XY(v), test.ShouldResemble, r2.Point{X: 1, Y: -2})

	moved := WithXY(v, r2.Point{X: 3, Y: 5})
	test.That(t, moved, test.ShouldResemble, r3.Vector{X: 3, Y: 5, Z: 0.4})
	test.That(t, Lift(r2.Point{X: 3, Y: 5}, 0.4), test.ShouldResemble, moved)
}

func TestZeroMomentPoint(t *testing.T) {
	// no horizontal acceleration: the zmp sits right under the base
	still := LinearState{Position: r3.Vector{X: 0.2, Y: 0.1, Z: 0.5}}
	test.That(t, still.ZeroMomentPoint(0.5), test.ShouldResemble, r2.Point{X: 0.2, Y: 0.1})

	accelerating := LinearState{
		Position:     r3.Vector{X: 0, Y: 0, Z: Gravity},
		Acceleration: r3.Vector{X: 1, Y: -2, Z: 0},
	}
	zmp := accelerating.ZeroMomentPoint(accelerating.Position.Z)
	test.That(t, zmp.X, test.ShouldAlmostEqual, -1)
	test.That(t, zmp.Y, test.ShouldAlmostEqual, 2)
}

func TestR3VectorAlmostEqual(t *testing.T) {
	a := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, R3VectorAlmostEqual(a, a.Add(r3.Vector{X: 1e-9}), 1e-6), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(a, a.Add(r3.Vector{Z: 1e-3}), 1e-6), test.ShouldBeFalse)
}
