// Package foothold keeps track of where each leg of a robot touches the ground over the course of
// a motion.
package foothold

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/spatialmath"
)

// FixedByStart is the ID of a foothold that is given by the initial stance rather than chosen
// by the optimizer.
const FixedByStart = -1

// ErrNotFound is returned when a leg has no foothold in a sequence.
var ErrNotFound = errors.New("leg has no foothold")

// A Foothold is a ground contact position of one leg.
type Foothold struct {
	Position r3.Vector      `json:"p"`
	Leg      endeffector.ID `json:"leg"`
	ID       int            `json:"id"`
}

// New returns a foothold for leg at position that is fixed by the start stance.
func New(position r3.Vector, leg endeffector.ID) Foothold {
	return Foothold{Position: position, Leg: leg, ID: FixedByStart}
}

// XY returns the horizontal components of the foothold position.
func (f Foothold) XY() r2.Point {
	return spatialmath.XY(f.Position)
}

// SetXY overwrites the horizontal components of the position. The height is kept.
func (f *Foothold) SetXY(xy r2.Point) {
	f.Position = spatialmath.WithXY(f.Position, xy)
}

// Equal compares position and leg. The ID is not part of a foothold's identity.
func (f Foothold) Equal(other Foothold) bool {
	return f.Position == other.Position && f.Leg == other.Leg
}

// Sequence is an ordered list of footholds. Insertion order is the order in which legs first
// touched down; a leg may appear multiple times but only its last entry is current.
type Sequence []Foothold

// Exists reports whether leg has any foothold in the sequence.
func (s Sequence) Exists(leg endeffector.ID) bool {
	for _, f := range s {
		if f.Leg == leg {
			return true
		}
	}
	return false
}

// LastIndex returns the index of the most recent foothold of leg. Callers are expected to check
// Exists first; a missing leg is a programming error reported as ErrNotFound.
func (s Sequence) LastIndex(leg endeffector.ID) (int, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Leg == leg {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrNotFound, "leg %v", leg)
}

// Last returns the most recent foothold of leg.
func (s Sequence) Last(leg endeffector.ID) (Foothold, error) {
	idx, err := s.LastIndex(leg)
	if err != nil {
		return Foothold{}, err
	}
	return s[idx], nil
}

// Upsert replaces the most recent foothold of f's leg with f, or appends f if the leg has none.
func (s *Sequence) Upsert(f Foothold) {
	if idx, err := s.LastIndex(f.Leg); err == nil {
		(*s)[idx] = f
		return
	}
	*s = append(*s, f)
}

// SetXY moves every foothold horizontally to the matching entry of xy, e.g. after an optimizer
// refined the step locations.
func (s Sequence) SetXY(xy []r2.Point) error {
	if len(xy) != len(s) {
		return errors.Errorf("got %d positions for %d footholds", len(xy), len(s))
	}
	for i := range s {
		s[i].SetXY(xy[i])
	}
	return nil
}

// Clone returns a copy of the sequence that shares no storage with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}
