package cli

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/ik"
)

// IKAction is the corresponding action for 'ik'.
func (s *appState) IKAction(c *cli.Context) error {
	robot := s.cfg.Robot
	if r := c.String(flagRobot); r != "" {
		robot = r
	}
	solver, err := ik.ForRobot(robot)
	if err != nil {
		return err
	}

	pos := endeffector.Positions{}
	for _, arg := range c.StringSlice(flagPos) {
		leg, p, err := parsePosition(arg)
		if err != nil {
			return err
		}
		pos[leg] = p
	}

	joints, err := solver.SolveJoints(pos)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Leg", "Joints [rad]"})
	for i := 0; i < joints.NumLegs(); i++ {
		values := make([]string, 0, len(joints.Leg(i)))
		for _, q := range joints.Leg(i) {
			values = append(values, fmt.Sprintf("%.4f", q))
		}
		t.AppendRow(table.Row{i, strings.Join(values, " ")})
	}
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

// parsePosition parses "LEG=X:Y:Z". LEG is a number or a name such as E2 or LH.
func parsePosition(arg string) (endeffector.ID, r3.Vector, error) {
	legStr, coords, ok := strings.Cut(arg, "=")
	if !ok {
		return 0, r3.Vector{}, errors.Errorf("position %q is not of the form LEG=X:Y:Z", arg)
	}
	leg, err := parseLeg(legStr)
	if err != nil {
		return 0, r3.Vector{}, err
	}

	parts := strings.Split(coords, ":")
	if len(parts) != 3 {
		return 0, r3.Vector{}, errors.Errorf("position %q needs three coordinates", arg)
	}
	var xyz [3]float64
	for i, part := range parts {
		v, err := cast.ToFloat64E(strings.TrimSpace(part))
		if err != nil {
			return 0, r3.Vector{}, errors.Wrapf(err, "position %q", arg)
		}
		xyz[i] = v
	}
	return leg, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func parseLeg(s string) (endeffector.ID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LF":
		return endeffector.LF, nil
	case "RF":
		return endeffector.RF, nil
	case "LH":
		return endeffector.LH, nil
	case "RH":
		return endeffector.RH, nil
	}
	id, err := cast.ToIntE(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "E"))
	if err != nil || id < 0 {
		return 0, errors.Errorf("unknown leg %q", s)
	}
	return endeffector.ID(id), nil
}
