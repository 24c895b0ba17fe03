// Package endeffector identifies the feet (or hands) of a legged robot and the per-foot
// quantities that travel with a trajectory: contact flags and positions.
package endeffector

import (
	"fmt"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// ID identifies one endeffector. IDs are small, dense and ordered.
type ID int

// The first four endeffectors of a robot. A quadruped uses all four, a biped E0 and E1 and a
// monoped only E0.
const (
	E0 ID = iota
	E1
	E2
	E3
)

// Names of the HyQ quadruped legs.
const (
	LF = E0 // left front
	RF = E1 // right front
	LH = E2 // left hind
	RH = E3 // right hind
)

func (id ID) String() string {
	return fmt.Sprintf("E%d", int(id))
}

// ContactState records whether each endeffector touches the ground.
type ContactState map[ID]bool

// InContact reports whether id is in contact. Unknown endeffectors are not in contact.
func (c ContactState) InContact(id ID) bool {
	return c[id]
}

// IDs returns the endeffectors of the state in ascending order.
func (c ContactState) IDs() []ID {
	ids := lo.Keys(map[ID]bool(c))
	slices.Sort(ids)
	return ids
}

// Swinging returns the endeffectors that are not in contact, in ascending order.
func (c ContactState) Swinging() []ID {
	return lo.Filter(c.IDs(), func(id ID, _ int) bool { return !c[id] })
}

// Positions maps endeffectors to 3D points, typically expressed in the base frame.
type Positions map[ID]r3.Vector

// IDs returns the endeffectors of the positions in ascending order.
func (p Positions) IDs() []ID {
	ids := lo.Keys(map[ID]r3.Vector(p))
	slices.Sort(ids)
	return ids
}
