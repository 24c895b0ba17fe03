// Package visualization turns trajectories into markers for a scene sink that retains every
// marker until it is explicitly deleted.
//
// Every channel writes a fixed number of identities per call: the real markers, followed by
// Delete markers up to the namespace capacity. A shorter trajectory therefore always overwrites
// everything a longer one left behind.
package visualization

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/trajviz/foothold"
	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/spatialmath"
	"go.viam.com/trajviz/trajectory"
)

// ErrCapacityExceeded is returned when a trajectory needs more ids than a namespace provides.
var ErrCapacityExceeded = errors.New("marker capacity exceeded")

const (
	supportPolygonAlpha = 0.15
	supportLineWidth    = 0.02
	footholdSize        = 0.04
	startSize           = 0.02
	pathMarkerSize      = 0.011

	// tolerance when counting resampling steps, so 1.0/0.1 is 10 steps and not 11.
	stepEpsilon = 1e-9
)

// A Builder converts one trajectory into markers. It never modifies the trajectory and keeps no
// state between calls, so its methods may run concurrently on distinct arrays.
type Builder struct {
	traj    trajectory.Trajectory
	cfg     Config
	palette Palette
	logger  logging.Logger
}

// NewBuilder returns a Builder for traj. It fails on an empty trajectory or an invalid config.
func NewBuilder(traj trajectory.Trajectory, cfg Config, logger logging.Logger) (*Builder, error) {
	if len(traj) == 0 {
		return nil, trajectory.ErrEmptyTrajectory
	}
	if err := cfg.Validate("visualization"); err != nil {
		return nil, err
	}
	palette, err := cfg.BuildPalette()
	if err != nil {
		return nil, err
	}
	if cfg.FrameID == "" {
		cfg.FrameID = DefaultFrameID
	}
	return &Builder{traj: traj, cfg: cfg, palette: palette, logger: logger}, nil
}

// AddSupportPolygons adds one marker per phase: a triangle for three contacts, a line for two,
// nothing otherwise. Each marker takes the color of the phase's swing leg.
func (b *Builder) AddSupportPolygons(arr *MarkerArray) error {
	var markers []Marker
	for phase := range b.traj.Phases() {
		m, ok := b.supportPolygon(phase.Contacts, b.palette.Color(phase.SwingLeg))
		if !ok {
			continue
		}
		m.ID = len(markers)
		markers = append(markers, m)
	}
	return b.pad(arr, NamespaceSupportPolygons, markers)
}

func (b *Builder) supportPolygon(stance foothold.Sequence, color RGBA) (Marker, bool) {
	m := Marker{
		Namespace: NamespaceSupportPolygons,
		Action:    Modify,
		FrameID:   b.cfg.FrameID,
		Scale:     r3.Vector{X: 1, Y: 1, Z: 1},
		Color:     color.WithAlpha(supportPolygonAlpha),
	}
	switch len(stance) {
	case 3:
		m.Type = TriangleList
	case 2:
		m.Type = LineStrip
		m.Scale.X = supportLineWidth
	default:
		return Marker{}, false
	}
	for _, f := range stance {
		m.Points = append(m.Points, f.Position)
	}
	return m, true
}

// AddFootholds adds a sphere for every contact at the start of every phase, in the color of its
// leg.
func (b *Builder) AddFootholds(arr *MarkerArray) error {
	var contacts foothold.Sequence
	for phase := range b.traj.Phases() {
		contacts = append(contacts, phase.Contacts...)
	}
	return b.addFootholds(arr, NamespaceFootholds, Sphere, contacts)
}

// AddStartStance adds a cube for every contact of the first sample.
func (b *Builder) AddStartStance(arr *MarkerArray) error {
	return b.addFootholds(arr, NamespaceStartStance, Cube, b.traj[0].Contacts())
}

func (b *Builder) addFootholds(arr *MarkerArray, namespace string, typ Type, contacts foothold.Sequence) error {
	markers := make([]Marker, 0, len(contacts))
	for i, f := range contacts {
		markers = append(markers, Marker{
			Namespace: namespace,
			ID:        i,
			Type:      typ,
			Action:    Modify,
			FrameID:   b.cfg.FrameID,
			Position:  f.Position,
			Scale:     r3.Vector{X: footholdSize, Y: footholdSize, Z: footholdSize},
			Color:     b.palette.Color(f.Leg),
		})
	}
	return b.pad(arr, namespace, markers)
}

// pad appends markers followed by Delete markers for the remaining ids of the namespace.
func (b *Builder) pad(arr *MarkerArray, namespace string, markers []Marker) error {
	capacity := b.cfg.Capacity(namespace)
	if len(markers) > capacity {
		return errors.Wrapf(ErrCapacityExceeded, "%s needs %d markers, capacity is %d", namespace, len(markers), capacity)
	}
	for id := len(markers); id < capacity; id++ {
		markers = append(markers, deleteMarker(namespace, id))
	}
	b.logger.Debugw("built markers", "namespace", namespace, "capacity", capacity)
	arr.Append(markers...)
	return nil
}

// AddStart adds a cylinder under the initial base position.
func (b *Builder) AddStart(arr *MarkerArray) {
	m := b.point(b.traj[0].Base.XY(), Cylinder, startSize)
	m.Namespace = NamespaceStart
	m.Scale.Z = 2 * startSize
	m.Color = Black()
	arr.Append(m)
}

func (b *Builder) point(xy r2.Point, typ Type, size float64) Marker {
	return Marker{
		Type:     typ,
		Action:   Modify,
		FrameID:  b.cfg.FrameID,
		Position: spatialmath.Lift(xy, 0),
		Scale:    r3.Vector{X: size, Y: size, Z: size},
		Color:    Gray(),
	}
}

// AddBodyTrajectory adds the path of the base.
func (b *Builder) AddBodyTrajectory(arr *MarkerArray) error {
	return b.AddTrajectory(arr, NamespaceBody, b.cfg.BodyInterval, pathMarkerSize, BasePosition{})
}

// AddZmpTrajectory adds the path of the zero moment point.
func (b *Builder) AddZmpTrajectory(arr *MarkerArray) error {
	return b.AddTrajectory(arr, NamespaceZmp, b.cfg.ZmpInterval, pathMarkerSize, ZeroMomentPoint{})
}

// AddTrajectory resamples the trajectory every dt seconds and adds a sphere at the point picked
// by extractor, colored by the swing leg of the sample or gray if all legs are in contact. The
// remaining ids up to the configured horizon are deleted, so the namespace always receives
// ceil(horizon/dt) markers.
func (b *Builder) AddTrajectory(arr *MarkerArray, namespace string, dt, size float64, extractor Extractor) error {
	if dt <= 0 {
		return errors.Errorf("%s: sampling interval must be positive, got %v", namespace, dt)
	}
	T := b.traj.Duration()
	steps := countSteps(T, dt)
	total := countSteps(b.cfg.Horizon, dt)
	if steps > total {
		return errors.Wrapf(ErrCapacityExceeded, "%s: duration %v exceeds horizon %v", namespace, T, b.cfg.Horizon)
	}

	markers := make([]Marker, 0, total)
	for k := 0; k < steps; k++ {
		state, err := b.traj.At(float64(k) * dt)
		if err != nil {
			return err
		}
		m := b.point(extractor.Extract(state), Sphere, size)
		m.Namespace = namespace
		m.ID = k
		if leg, ok := state.SwingLeg(); ok {
			m.Color = b.palette.Color(leg)
		}
		markers = append(markers, m)
	}
	for k := steps; k < total; k++ {
		markers = append(markers, deleteMarker(namespace, k))
	}
	b.logger.Debugw("built markers", "namespace", namespace, "samples", steps, "total", total)
	arr.Append(markers...)
	return nil
}

func countSteps(duration, dt float64) int {
	if duration <= 0 {
		return 0
	}
	return int(math.Ceil(duration/dt - stepEpsilon))
}

// AddLineStrip adds a vertical band at centerX, e.g. a gap in the terrain, depthX wide.
func (b *Builder) AddLineStrip(arr *MarkerArray, centerX, depthX float64, namespace string) {
	arr.Append(Marker{
		Namespace: namespace,
		ID:        arr.NextID(namespace),
		Type:      LineStrip,
		Action:    Modify,
		FrameID:   b.cfg.FrameID,
		Points:    []r3.Vector{{X: centerX, Y: -0.5}, {X: centerX, Y: 0.5}},
		Scale:     r3.Vector{X: depthX},
		Color:     RGBA{B: 1, A: 0.2},
	})
}

// AddEllipse adds a flat elliptic cylinder centered at (centerX, centerY), e.g. an obstacle.
func (b *Builder) AddEllipse(arr *MarkerArray, centerX, centerY, widthX, widthY float64, namespace string) {
	arr.Append(Marker{
		Namespace: namespace,
		ID:        arr.NextID(namespace),
		Type:      Cylinder,
		Action:    Modify,
		FrameID:   b.cfg.FrameID,
		Position:  r3.Vector{X: centerX, Y: centerY},
		Scale:     r3.Vector{X: widthX, Y: widthY, Z: 0.01},
		Color:     RGBA{B: 1, A: 0.2},
	})
}

// Check reports every channel whose markers would not fit the configured capacities or horizon,
// without building any of them.
func (b *Builder) Check() error {
	var polygons, footholds int
	for phase := range b.traj.Phases() {
		if n := len(phase.Contacts); n == 2 || n == 3 {
			polygons++
		}
		footholds += len(phase.Contacts)
	}

	var errs error
	for _, need := range []struct {
		namespace string
		markers   int
	}{
		{NamespaceSupportPolygons, polygons},
		{NamespaceFootholds, footholds},
		{NamespaceStartStance, len(b.traj[0].Contacts())},
	} {
		if capacity := b.cfg.Capacity(need.namespace); need.markers > capacity {
			errs = multierr.Append(errs, errors.Wrapf(ErrCapacityExceeded,
				"%s needs %d markers, capacity is %d", need.namespace, need.markers, capacity))
		}
	}
	T := b.traj.Duration()
	for _, need := range []struct {
		namespace string
		dt        float64
	}{
		{NamespaceBody, b.cfg.BodyInterval},
		{NamespaceZmp, b.cfg.ZmpInterval},
	} {
		if countSteps(T, need.dt) > countSteps(b.cfg.Horizon, need.dt) {
			errs = multierr.Append(errs, errors.Wrapf(ErrCapacityExceeded,
				"%s: duration %v exceeds horizon %v", need.namespace, T, b.cfg.Horizon))
		}
	}
	return errs
}

// Build runs every channel and concatenates their markers in a fixed order: support polygons,
// footholds, start stance, start, body, zmp. The channels are built concurrently.
func (b *Builder) Build(ctx context.Context) (MarkerArray, error) {
	channels := []func(*MarkerArray) error{
		b.AddSupportPolygons,
		b.AddFootholds,
		b.AddStartStance,
		func(arr *MarkerArray) error {
			b.AddStart(arr)
			return nil
		},
		b.AddBodyTrajectory,
		b.AddZmpTrajectory,
	}

	results := make([]MarkerArray, len(channels))
	g, ctx := errgroup.WithContext(ctx)
	for i, channel := range channels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return channel(&results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return MarkerArray{}, err
	}

	var out MarkerArray
	for _, res := range results {
		out.Append(res.Markers...)
	}
	b.logger.Infof("built %d markers from %d samples", out.Len(), len(b.traj))
	return out, nil
}
