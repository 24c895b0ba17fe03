package visualization

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"go.viam.com/trajviz/endeffector"
)

// RGBA is a color with components in [0, 1].
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// WithAlpha returns the color with a different opacity.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = a
	return c
}

// Hex returns the "#rrggbb" form of the color, ignoring alpha.
func (c RGBA) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// ParseHex parses a "#rrggbb" color. The result is opaque.
func ParseHex(s string) (RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return RGBA{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

var (
	blue   = colorful.Color{R: 0, G: 102. / 255, B: 204. / 255}
	purple = colorful.Color{R: 72. / 255, G: 61. / 255, B: 139. / 255}
	brown  = colorful.Color{R: 122. / 255, G: 61. / 255, B: 0}
	green  = colorful.Color{R: 0, G: 150. / 255, B: 76. / 255}
)

func opaque(c colorful.Color) RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: 1}
}

// Gray is used when no leg is swinging.
func Gray() RGBA {
	return RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}
}

// Black is the color of single point markers.
func Black() RGBA {
	return RGBA{A: 1}
}

// LegColor returns the default color of a leg. Legs beyond E3 are gray.
func LegColor(leg endeffector.ID) RGBA {
	switch leg {
	case endeffector.E0:
		return opaque(blue)
	case endeffector.E1:
		return opaque(purple)
	case endeffector.E2:
		return opaque(brown)
	case endeffector.E3:
		return opaque(green)
	default:
		return Gray()
	}
}

// Palette maps legs to colors. A Palette is built once and only read afterwards.
type Palette map[endeffector.ID]RGBA

// DefaultPalette returns the colors of LegColor for the first four legs.
func DefaultPalette() Palette {
	return Palette{
		endeffector.E0: LegColor(endeffector.E0),
		endeffector.E1: LegColor(endeffector.E1),
		endeffector.E2: LegColor(endeffector.E2),
		endeffector.E3: LegColor(endeffector.E3),
	}
}

// Color returns the color of leg, or gray when the palette has none.
func (p Palette) Color(leg endeffector.ID) RGBA {
	if c, ok := p[leg]; ok {
		return c
	}
	return Gray()
}
