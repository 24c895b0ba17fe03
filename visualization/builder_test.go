package visualization

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/foothold"
	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/trajectory"
)

var quadruped = []endeffector.ID{endeffector.LF, endeffector.RF, endeffector.LH, endeffector.RH}

func stance() []foothold.Foothold {
	return []foothold.Foothold{
		foothold.New(r3.Vector{X: 0.3, Y: 0.2}, endeffector.LF),
		foothold.New(r3.Vector{X: 0.3, Y: -0.2}, endeffector.RF),
		foothold.New(r3.Vector{X: -0.3, Y: 0.2}, endeffector.LH),
		foothold.New(r3.Vector{X: -0.3, Y: -0.2}, endeffector.RH),
	}
}

// threePhases has contact sets of sizes 3, 2 and 3.
func threePhases() trajectory.Trajectory {
	return trajectory.FromSteps(quadruped, 0.1,
		trajectory.Step{Duration: 0.5, Land: stance(), Swing: []endeffector.ID{endeffector.RH}},
		trajectory.Step{Duration: 0.3, Swing: []endeffector.ID{endeffector.LF, endeffector.RH}},
		trajectory.Step{Duration: 0.2, Swing: []endeffector.ID{endeffector.RF}},
	)
}

// lasting returns a one phase trajectory whose samples span exactly duration seconds.
func lasting(duration float64, samples int) trajectory.Trajectory {
	traj := make(trajectory.Trajectory, samples+1)
	for k := range traj {
		traj[k] = trajectory.State{
			Time:      duration * float64(k) / float64(samples),
			Contact:   endeffector.ContactState{endeffector.LF: true, endeffector.RF: false},
			Footholds: stance()[:2],
		}
		traj[k].Base.Position = r3.Vector{X: float64(k), Z: 0.5}
	}
	return traj
}

func newTestBuilder(t *testing.T, traj trajectory.Trajectory, cfg Config) *Builder {
	t.Helper()
	b, err := NewBuilder(traj, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return b
}

func countActions(markers []Marker) (modified, deleted int) {
	for _, m := range markers {
		if m.Action == Delete {
			deleted++
		} else {
			modified++
		}
	}
	return modified, deleted
}

func TestNewBuilder(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewBuilder(nil, DefaultConfig(), logger)
	test.That(t, errors.Is(err, trajectory.ErrEmptyTrajectory), test.ShouldBeTrue)

	cfg := DefaultConfig()
	cfg.Horizon = 0
	_, err = NewBuilder(threePhases(), cfg, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "horizon")
}

func TestAddSupportPolygons(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBuilder(t, threePhases(), cfg)

	var arr MarkerArray
	test.That(t, b.AddSupportPolygons(&arr), test.ShouldBeNil)

	capacity := cfg.Capacity(NamespaceSupportPolygons)
	test.That(t, arr.Len(), test.ShouldEqual, capacity)

	types := []Type{TriangleList, LineStrip, TriangleList}
	swing := []endeffector.ID{endeffector.RH, endeffector.RH, endeffector.RF}
	for i, m := range arr.Markers[:3] {
		test.That(t, m.ID, test.ShouldEqual, i)
		test.That(t, m.Action, test.ShouldEqual, Modify)
		test.That(t, m.Type, test.ShouldEqual, types[i])
		test.That(t, m.Color, test.ShouldResemble, LegColor(swing[i]).WithAlpha(supportPolygonAlpha))
		test.That(t, m.FrameID, test.ShouldEqual, DefaultFrameID)
	}
	test.That(t, arr.Markers[0].Points, test.ShouldHaveLength, 3)
	test.That(t, arr.Markers[1].Points, test.ShouldHaveLength, 2)
	test.That(t, arr.Markers[1].Scale.X, test.ShouldEqual, supportLineWidth)

	for i, m := range arr.Markers[3:] {
		test.That(t, m.ID, test.ShouldEqual, i+3)
		test.That(t, m.Action, test.ShouldEqual, Delete)
		test.That(t, m.Namespace, test.ShouldEqual, NamespaceSupportPolygons)
	}
}

func TestSupportPolygonsSkipDegenerateStances(t *testing.T) {
	traj := trajectory.FromSteps(quadruped, 0.1,
		trajectory.Step{Duration: 0.2, Land: stance()},
		trajectory.Step{Duration: 0.2, Swing: []endeffector.ID{endeffector.LF}},
		trajectory.Step{Duration: 0.2, Swing: []endeffector.ID{endeffector.LF, endeffector.RF, endeffector.LH}},
	)
	b := newTestBuilder(t, traj, DefaultConfig())

	var arr MarkerArray
	test.That(t, b.AddSupportPolygons(&arr), test.ShouldBeNil)
	modified, deleted := countActions(arr.Markers)
	test.That(t, modified, test.ShouldEqual, 1)
	test.That(t, deleted, test.ShouldEqual, 29)
}

func TestDiscreteCapacityIsConstant(t *testing.T) {
	cfg := DefaultConfig()
	for _, strides := range []int{0, 1, 2} {
		b := newTestBuilder(t, trajectory.Walk(strides, 0.1, 0.2, 0.05), cfg)
		for _, ns := range []string{NamespaceSupportPolygons, NamespaceFootholds, NamespaceStartStance} {
			var arr MarkerArray
			switch ns {
			case NamespaceSupportPolygons:
				test.That(t, b.AddSupportPolygons(&arr), test.ShouldBeNil)
			case NamespaceFootholds:
				test.That(t, b.AddFootholds(&arr), test.ShouldBeNil)
			case NamespaceStartStance:
				test.That(t, b.AddStartStance(&arr), test.ShouldBeNil)
			}
			test.That(t, arr.Len(), test.ShouldEqual, cfg.Capacity(ns))
			for id, m := range arr.Markers {
				test.That(t, m.ID, test.ShouldEqual, id)
			}
		}
	}
}

func TestCapacityExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacities[NamespaceSupportPolygons] = 2
	b := newTestBuilder(t, threePhases(), cfg)

	arr := MarkerArray{}
	err := b.AddSupportPolygons(&arr)
	test.That(t, errors.Is(err, ErrCapacityExceeded), test.ShouldBeTrue)
	test.That(t, arr.Len(), test.ShouldEqual, 0)
}

func TestCheck(t *testing.T) {
	test.That(t, newTestBuilder(t, threePhases(), DefaultConfig()).Check(), test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.Capacities[NamespaceSupportPolygons] = 2
	cfg.Capacities[NamespaceFootholds] = 7
	cfg.Horizon = 0.5
	err := newTestBuilder(t, threePhases(), cfg).Check()
	test.That(t, errors.Is(err, ErrCapacityExceeded), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "support_polygons needs 3 markers, capacity is 2")
	test.That(t, err.Error(), test.ShouldContainSubstring, "footholds needs 8 markers, capacity is 7")
	test.That(t, err.Error(), test.ShouldContainSubstring, "body: duration")
	test.That(t, err.Error(), test.ShouldContainSubstring, "zmp: duration")
	test.That(t, err.Error(), test.ShouldContainSubstring, "exceeds horizon 0.5")
	test.That(t, err.Error(), test.ShouldNotContainSubstring, NamespaceStartStance)
}

func TestCheckAgreesWithBuild(t *testing.T) {
	for strides, fits := range []bool{true, true, true, false} {
		b := newTestBuilder(t, trajectory.Walk(strides, 0.15, 0.4, 0.02), DefaultConfig())
		_, buildErr := b.Build(context.Background())
		checkErr := b.Check()
		test.That(t, checkErr == nil, test.ShouldEqual, fits)
		test.That(t, buildErr == nil, test.ShouldEqual, fits)
	}
}

func TestAddFootholds(t *testing.T) {
	b := newTestBuilder(t, threePhases(), DefaultConfig())

	var arr MarkerArray
	test.That(t, b.AddFootholds(&arr), test.ShouldBeNil)
	modified, deleted := countActions(arr.Markers)
	test.That(t, modified, test.ShouldEqual, 3+2+3)
	test.That(t, deleted, test.ShouldEqual, 80-8)

	first := arr.Markers[0]
	test.That(t, first.Type, test.ShouldEqual, Sphere)
	test.That(t, first.Position, test.ShouldResemble, r3.Vector{X: 0.3, Y: 0.2})
	test.That(t, first.Color, test.ShouldResemble, LegColor(endeffector.LF))

	var stanceArr MarkerArray
	test.That(t, b.AddStartStance(&stanceArr), test.ShouldBeNil)
	modified, _ = countActions(stanceArr.Markers)
	test.That(t, modified, test.ShouldEqual, 3)
	test.That(t, stanceArr.Markers[0].Type, test.ShouldEqual, Cube)
	test.That(t, stanceArr.Markers[0].Namespace, test.ShouldEqual, NamespaceStartStance)
}

func TestAddStart(t *testing.T) {
	traj := lasting(1, 10)
	b := newTestBuilder(t, traj, DefaultConfig())

	var arr MarkerArray
	b.AddStart(&arr)
	test.That(t, arr.Len(), test.ShouldEqual, 1)
	m := arr.Markers[0]
	test.That(t, m.ID, test.ShouldEqual, 0)
	test.That(t, m.Namespace, test.ShouldEqual, NamespaceStart)
	test.That(t, m.Type, test.ShouldEqual, Cylinder)
	test.That(t, m.Position, test.ShouldResemble, r3.Vector{})
	test.That(t, m.Color, test.ShouldResemble, Black())
}

func TestAddTrajectory(t *testing.T) {
	cfg := DefaultConfig()
	b := newTestBuilder(t, lasting(1.0, 20), cfg)

	var arr MarkerArray
	test.That(t, b.AddTrajectory(&arr, NamespaceBody, 0.1, pathMarkerSize, BasePosition{}), test.ShouldBeNil)
	test.That(t, arr.Len(), test.ShouldEqual, 100)

	for id, m := range arr.Markers {
		test.That(t, m.ID, test.ShouldEqual, id)
		if id < 10 {
			test.That(t, m.Action, test.ShouldEqual, Modify)
			test.That(t, m.Type, test.ShouldEqual, Sphere)
			// RF swings for the whole trajectory
			test.That(t, m.Color, test.ShouldResemble, LegColor(endeffector.RF))
		} else {
			test.That(t, m.Action, test.ShouldEqual, Delete)
		}
	}
	// 21 samples over 1s: spacing 1/21, t=0.5 picks sample 10
	test.That(t, arr.Markers[5].Position.X, test.ShouldEqual, 10.0)
}

func TestAddTrajectoryTotalIndependentOfDuration(t *testing.T) {
	cfg := DefaultConfig()
	for _, duration := range []float64{0.05, 0.7, 1.0, 3.33, 9.99} {
		b := newTestBuilder(t, lasting(duration, 50), cfg)
		var arr MarkerArray
		test.That(t, b.AddZmpTrajectory(&arr), test.ShouldBeNil)
		test.That(t, arr.Len(), test.ShouldEqual, 100)
		modified, _ := countActions(arr.Markers)
		test.That(t, modified, test.ShouldEqual, countSteps(duration, cfg.ZmpInterval))
	}
}

func TestAddTrajectoryErrors(t *testing.T) {
	b := newTestBuilder(t, lasting(12, 10), DefaultConfig())
	var arr MarkerArray
	err := b.AddBodyTrajectory(&arr)
	test.That(t, errors.Is(err, ErrCapacityExceeded), test.ShouldBeTrue)
	test.That(t, arr.Len(), test.ShouldEqual, 0)

	err = b.AddTrajectory(&arr, "custom", 0, 0.1, BasePosition{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAddTrajectoryNeutralColor(t *testing.T) {
	traj := trajectory.FromSteps(quadruped, 0.01, trajectory.Step{Duration: 1, Land: stance()})
	b := newTestBuilder(t, traj, DefaultConfig())

	var arr MarkerArray
	extractor := ExtractorFunc(func(s trajectory.State) r2.Point { return r2.Point{X: s.Time} })
	test.That(t, b.AddTrajectory(&arr, "time", 0.1, 0.01, extractor), test.ShouldBeNil)
	test.That(t, arr.Markers[0].Color, test.ShouldResemble, Gray())
	test.That(t, arr.Markers[0].Namespace, test.ShouldEqual, "time")
}

func TestLineStripAndEllipse(t *testing.T) {
	b := newTestBuilder(t, threePhases(), DefaultConfig())
	var arr MarkerArray
	b.AddLineStrip(&arr, 1.5, 0.3, "gap")
	b.AddEllipse(&arr, 2, 0.1, 0.4, 0.2, "obstacles")
	b.AddEllipse(&arr, 3, -0.1, 0.4, 0.2, "obstacles")

	test.That(t, arr.Namespace("gap"), test.ShouldHaveLength, 1)
	obstacles := arr.Namespace("obstacles")
	test.That(t, obstacles[0].ID, test.ShouldEqual, 0)
	test.That(t, obstacles[1].ID, test.ShouldEqual, 1)
	test.That(t, obstacles[1].Scale, test.ShouldResemble, r3.Vector{X: 0.4, Y: 0.2, Z: 0.01})
	test.That(t, arr.NextID("gap"), test.ShouldEqual, 1)
	test.That(t, arr.NextID("unused"), test.ShouldEqual, 0)
}

func TestBuild(t *testing.T) {
	b := newTestBuilder(t, threePhases(), DefaultConfig())
	arr, err := b.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, arr.Len(), test.ShouldEqual, 30+80+80+1+1000+100)
	test.That(t, arr.Markers[0].Namespace, test.ShouldEqual, NamespaceSupportPolygons)
	test.That(t, arr.Markers[arr.Len()-1].Namespace, test.ShouldEqual, NamespaceZmp)

	again, err := b.Build(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, arr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Build(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
