package visualization

import (
	"github.com/golang/geo/r2"

	"go.viam.com/trajviz/trajectory"
)

// An Extractor picks the ground-plane point drawn for a sample of a continuous channel.
type Extractor interface {
	Extract(state trajectory.State) r2.Point
}

// ExtractorFunc adapts a function to an Extractor.
type ExtractorFunc func(state trajectory.State) r2.Point

// Extract calls f.
func (f ExtractorFunc) Extract(state trajectory.State) r2.Point {
	return f(state)
}

// BasePosition extracts the horizontal base position.
type BasePosition struct{}

// Extract returns the base position projected onto the ground.
func (BasePosition) Extract(state trajectory.State) r2.Point {
	return state.Base.XY()
}

// ZeroMomentPoint extracts the zero moment point of the base, treating the base as a point mass
// at its current height.
type ZeroMomentPoint struct{}

// Extract returns the zero moment point of the base.
func (ZeroMomentPoint) Extract(state trajectory.State) r2.Point {
	return state.Base.ZeroMomentPoint(state.Base.Position.Z)
}
