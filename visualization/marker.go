package visualization

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Type is the kind of primitive a marker draws.
type Type int

// Marker types understood by the scene sink.
const (
	Point Type = iota
	Sphere
	Cube
	Cylinder
	TriangleList
	LineStrip
)

var typeNames = [...]string{"POINT", "SPHERE", "CUBE", "CYLINDER", "TRIANGLE_LIST", "LINE_STRIP"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// MarshalText encodes the type by name.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *Type) UnmarshalText(text []byte) error {
	for i, name := range typeNames {
		if strings.EqualFold(name, string(text)) {
			*t = Type(i)
			return nil
		}
	}
	return errors.Errorf("unknown marker type %q", text)
}

// Action tells the sink what to do with the marker identity.
type Action int

const (
	// Modify creates the identity or replaces what the sink holds for it.
	Modify Action = iota
	// Delete removes the identity from the sink.
	Delete
)

func (a Action) String() string {
	switch a {
	case Modify:
		return "MODIFY"
	case Delete:
		return "DELETE"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "MODIFY":
		*a = Modify
	case "DELETE":
		*a = Delete
	default:
		return errors.Errorf("unknown marker action %q", text)
	}
	return nil
}

// A Marker is one renderable primitive. The sink addresses it by (Namespace, ID) and keeps the
// last marker it received for an identity until it receives a Delete for it.
type Marker struct {
	Namespace string      `json:"ns"`
	ID        int         `json:"id"`
	Type      Type        `json:"type"`
	Action    Action      `json:"action"`
	FrameID   string      `json:"frame_id,omitempty"`
	Position  r3.Vector   `json:"position"`
	Points    []r3.Vector `json:"points,omitempty"`
	Scale     r3.Vector   `json:"scale"`
	Color     RGBA        `json:"color"`
}

// Key returns the identity of the marker in the sink.
func (m Marker) Key() string {
	return fmt.Sprintf("%s/%d", m.Namespace, m.ID)
}

func deleteMarker(namespace string, id int) Marker {
	return Marker{Namespace: namespace, ID: id, Action: Delete}
}

// MarkerArray is an ordered list of markers handed to the sink in one refresh.
type MarkerArray struct {
	Markers []Marker `json:"markers"`
}

// Append adds markers to the end of the array.
func (arr *MarkerArray) Append(markers ...Marker) {
	arr.Markers = append(arr.Markers, markers...)
}

// Len returns the number of markers.
func (arr *MarkerArray) Len() int {
	return len(arr.Markers)
}

// NextID returns one past the highest id used in namespace, or 0 if the namespace is unused.
func (arr *MarkerArray) NextID(namespace string) int {
	next := 0
	for _, m := range arr.Markers {
		if m.Namespace == namespace && m.ID >= next {
			next = m.ID + 1
		}
	}
	return next
}

// Namespace returns the markers of one namespace in order.
func (arr *MarkerArray) Namespace(namespace string) []Marker {
	var out []Marker
	for _, m := range arr.Markers {
		if m.Namespace == namespace {
			out = append(out, m)
		}
	}
	return out
}
