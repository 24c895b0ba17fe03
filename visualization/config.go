package visualization

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/trajviz/endeffector"
)

// Namespaces written by the Builder.
const (
	NamespaceSupportPolygons = "support_polygons"
	NamespaceFootholds       = "footholds"
	NamespaceStartStance     = "start_stance"
	NamespaceStart           = "start"
	NamespaceBody            = "body"
	NamespaceZmp             = "zmp"
)

// DefaultFrameID is the frame every marker is expressed in.
const DefaultFrameID = "world"

// Config holds the fixed bounds of the marker namespaces. Everything a Builder emits is sized by
// this config and never by the trajectory, so a sink that retains markers is always fully
// overwritten by the next refresh.
type Config struct {
	FrameID string `json:"frame_id"`
	// Capacities is the number of ids addressed in each discrete namespace.
	Capacities map[string]int `json:"capacities"`
	// BodyInterval and ZmpInterval are the resampling intervals of the continuous channels.
	BodyInterval float64 `json:"body_interval"`
	ZmpInterval  float64 `json:"zmp_interval"`
	// Horizon is the longest trajectory duration the continuous channels cover.
	Horizon float64 `json:"horizon"`
	// Palette overrides leg colors with "#rrggbb" strings.
	Palette map[endeffector.ID]string `json:"palette,omitempty"`
}

// DefaultConfig returns the bounds used by the walking planners.
func DefaultConfig() Config {
	return Config{
		FrameID: DefaultFrameID,
		Capacities: map[string]int{
			NamespaceSupportPolygons: 30,
			NamespaceFootholds:       80,
			NamespaceStartStance:     80,
		},
		BodyInterval: 0.01,
		ZmpInterval:  0.1,
		Horizon:      10.0,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	for _, ns := range []string{NamespaceSupportPolygons, NamespaceFootholds, NamespaceStartStance} {
		capacity, ok := cfg.Capacities[ns]
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("%s: capacities.%s is required", path, ns))
			continue
		}
		if capacity <= 0 {
			errs = multierr.Append(errs, errors.Errorf("%s: capacities.%s must be positive, got %d", path, ns, capacity))
		}
	}
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"body_interval", cfg.BodyInterval},
		{"zmp_interval", cfg.ZmpInterval},
		{"horizon", cfg.Horizon},
	} {
		if field.value <= 0 {
			errs = multierr.Append(errs, errors.Errorf("%s: %s must be positive, got %v", path, field.name, field.value))
		}
	}
	for leg, hex := range cfg.Palette {
		if _, err := ParseHex(hex); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, fmt.Sprintf("%s: palette.%d", path, int(leg))))
		}
	}
	return errs
}

// Capacity returns the capacity of a discrete namespace.
func (cfg *Config) Capacity(namespace string) int {
	return cfg.Capacities[namespace]
}

// BuildPalette returns the default palette with the configured overrides applied.
func (cfg *Config) BuildPalette() (Palette, error) {
	palette := DefaultPalette()
	for leg, hex := range cfg.Palette {
		c, err := ParseHex(hex)
		if err != nil {
			return nil, err
		}
		palette[leg] = c
	}
	return palette, nil
}
