// Package trajectory holds the read-only motion plans produced by the optimizer: a time series of
// base states, contact flags, phase ids and footholds.
package trajectory

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/foothold"
	"go.viam.com/trajviz/spatialmath"
)

// ErrEmptyTrajectory is returned by operations that need at least one sample.
var ErrEmptyTrajectory = errors.New("trajectory has no samples")

// State is one sample of a trajectory.
type State struct {
	Time      float64                  `json:"t"`
	Base      spatialmath.LinearState  `json:"base"`
	Contact   endeffector.ContactState `json:"contact"`
	Phase     int                      `json:"phase"`
	Footholds foothold.Sequence        `json:"footholds"`
}

// Contacts returns the current foothold of every leg in contact, ordered by leg. A leg that is
// in contact but has no foothold yet is skipped.
func (s State) Contacts() foothold.Sequence {
	var contacts foothold.Sequence
	for _, leg := range s.Contact.IDs() {
		if !s.Contact.InContact(leg) {
			continue
		}
		f, err := s.Footholds.Last(leg)
		if err != nil {
			continue
		}
		contacts = append(contacts, f)
	}
	return contacts
}

// SwingLeg returns the leg that is in the air. If several legs swing, the one with the highest
// id wins. If every leg is in contact the second return value is false and the leg is E0.
func (s State) SwingLeg() (endeffector.ID, bool) {
	swinging := s.Contact.Swinging()
	if len(swinging) == 0 {
		return endeffector.E0, false
	}
	return swinging[len(swinging)-1], true
}

// Trajectory is a time ordered list of states.
type Trajectory []State

// Duration returns the time between the first and last sample.
func (traj Trajectory) Duration() float64 {
	if len(traj) == 0 {
		return 0
	}
	return traj[len(traj)-1].Time - traj[0].Time
}

// At returns the sample closest to t seconds after the start by dividing t by the average
// sample spacing. Times past the end return the last sample.
func (traj Trajectory) At(t float64) (State, error) {
	if len(traj) == 0 {
		return State{}, ErrEmptyTrajectory
	}
	T := traj.Duration()
	if T <= 0 || t <= 0 {
		return traj[0], nil
	}
	spacing := T / float64(len(traj))
	idx := int(math.Floor(t / spacing))
	if idx >= len(traj) {
		idx = len(traj) - 1
	}
	return traj[idx], nil
}

// Validate checks that the trajectory is not empty and that time and phase never decrease.
func (traj Trajectory) Validate() error {
	if len(traj) == 0 {
		return ErrEmptyTrajectory
	}
	for i := 1; i < len(traj); i++ {
		if traj[i].Time < traj[i-1].Time {
			return errors.Errorf("sample %d: time %v is before previous sample time %v", i, traj[i].Time, traj[i-1].Time)
		}
		if traj[i].Phase < traj[i-1].Phase {
			return errors.Errorf("sample %d: phase %d is before previous phase %d", i, traj[i].Phase, traj[i-1].Phase)
		}
	}
	return nil
}

// Read decodes a JSON array of states and validates it.
func Read(r io.Reader) (Trajectory, error) {
	var traj Trajectory
	if err := json.NewDecoder(r).Decode(&traj); err != nil {
		return nil, errors.Wrap(err, "decoding trajectory")
	}
	if err := traj.Validate(); err != nil {
		return nil, err
	}
	return traj, nil
}

// ReadFile reads a trajectory from a JSON file.
func ReadFile(path string) (Trajectory, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traj, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return traj, nil
}
