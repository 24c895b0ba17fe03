// Package preview draws a top down view of a marker array to an image file, for inspecting
// trajectories without a visualization client.
package preview

import (
	"image/color"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"go.viam.com/trajviz/visualization"
)

// DefaultSize is the width and height of a saved preview.
const DefaultSize = 16 * vg.Centimeter

// Plot returns the xy projection of the Modify markers of arr. Triangle lists are drawn as filled
// polygons, line strips as lines and every other marker as a glyph at its position.
func Plot(arr visualization.MarkerArray, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x [m]"
	p.Y.Label.Text = "y [m]"
	p.Add(plotter.NewGrid())

	glyphs := map[string]*glyphSet{}
	var order []string
	for _, m := range arr.Markers {
		if m.Action != visualization.Modify {
			continue
		}
		switch m.Type {
		case visualization.TriangleList:
			for i := 0; i+2 < len(m.Points); i += 3 {
				poly, err := plotter.NewPolygon(xys(m.Points[i : i+3]))
				if err != nil {
					return nil, errors.Wrapf(err, "marker %s", m.Key())
				}
				poly.Color = toColor(m.Color)
				poly.LineStyle.Width = 0
				p.Add(poly)
			}
		case visualization.LineStrip:
			line, err := plotter.NewLine(xys(m.Points))
			if err != nil {
				return nil, errors.Wrapf(err, "marker %s", m.Key())
			}
			line.LineStyle.Color = toColor(m.Color)
			line.LineStyle.Width = vg.Points(1)
			p.Add(line)
		default:
			set, ok := glyphs[m.Namespace]
			if !ok {
				set = &glyphSet{shape: shapeOf(m.Type)}
				glyphs[m.Namespace] = set
				order = append(order, m.Namespace)
			}
			set.points = append(set.points, plotter.XY{X: m.Position.X, Y: m.Position.Y})
			set.colors = append(set.colors, toColor(m.Color))
		}
	}

	slices.Sort(order)
	for _, ns := range order {
		set := glyphs[ns]
		scatter, err := plotter.NewScatter(set.points)
		if err != nil {
			return nil, errors.Wrapf(err, "namespace %s", ns)
		}
		scatter.GlyphStyleFunc = set.style
		p.Add(scatter)
		p.Legend.Add(ns, scatter)
	}
	return p, nil
}

// Save writes the preview of arr to path. The format follows the extension, e.g. png or svg.
func Save(arr visualization.MarkerArray, title, path string) error {
	p, err := Plot(arr, title)
	if err != nil {
		return err
	}
	return p.Save(DefaultSize, DefaultSize, path)
}

type glyphSet struct {
	shape  draw.GlyphDrawer
	points plotter.XYs
	colors []color.Color
}

func (s *glyphSet) style(i int) draw.GlyphStyle {
	return draw.GlyphStyle{Color: s.colors[i], Radius: vg.Points(2), Shape: s.shape}
}

func shapeOf(t visualization.Type) draw.GlyphDrawer {
	switch t {
	case visualization.Cube:
		return draw.BoxGlyph{}
	case visualization.Cylinder:
		return draw.TriangleGlyph{}
	case visualization.Point, visualization.Sphere, visualization.TriangleList, visualization.LineStrip:
		return draw.CircleGlyph{}
	}
	return draw.CircleGlyph{}
}

func xys(points []r3.Vector) plotter.XYs {
	out := make(plotter.XYs, len(points))
	for i, pt := range points {
		out[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return out
}

func toColor(c visualization.RGBA) color.Color {
	return color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(c.A)}
}

func channel(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
