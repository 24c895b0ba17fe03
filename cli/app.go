// Package cli contains the trajviz command line application.
package cli

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/trajviz/config"
	"go.viam.com/trajviz/logging"
)

const (
	// Global flags.
	flagConfig  = "config"
	flagDebug   = "debug"
	flagLogFile = "log-file"
	flagSet     = "set"

	// render flags.
	flagDemo    = "demo"
	flagPreview = "preview"
	flagJSON    = "json"
	flagServe   = "serve"
	flagWatch   = "watch"

	// walk flags.
	flagStrides      = "strides"
	flagStride       = "stride"
	flagStepDuration = "step-duration"
	flagDt           = "dt"
	flagOut          = "out"

	// ik flags.
	flagPos   = "pos"
	flagRobot = "robot"
)

// appState is what the Before hook loads for every command.
type appState struct {
	cfg     *config.Config
	logger  logging.Logger
	logFile io.Closer
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	state := &appState{}
	return &cli.App{
		Name:            "trajviz",
		Usage:           "visualize and inspect legged robot motion plans",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to `FILE`, overrides log_file",
			},
			&cli.StringSliceFlag{
				Name:  flagSet,
				Usage: "override a configuration field as `KEY=VALUE`, e.g. visualization.horizon=20, repeatable",
			},
		},
		Before: state.before,
		After:  state.after,
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "build the markers of a trajectory and publish them to the world state store",
				ArgsUsage: "[trajectory.json]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagDemo,
						Usage: "render a generated crawl with `N` strides instead of a file",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  flagPreview,
						Usage: "save a top down preview to `FILE` (png, svg, pdf)",
					},
					&cli.StringFlag{
						Name:  flagJSON,
						Usage: "write the marker array to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagServe,
						Usage: "serve the world state store on the configured address until interrupted",
					},
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "re-render whenever the trajectory file changes",
					},
				},
				Action: state.RenderAction,
			},
			{
				Name:  "walk",
				Usage: "write a generated quadruped crawl trajectory",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagStrides, Value: 2, Usage: "number of strides"},
					&cli.Float64Flag{Name: flagStride, Value: 0.15, Usage: "stride length in meters"},
					&cli.Float64Flag{Name: flagStepDuration, Value: 0.4, Usage: "duration of a swing phase in seconds"},
					&cli.Float64Flag{Name: flagDt, Value: 0.02, Usage: "sampling interval in seconds"},
					&cli.StringFlag{Name: flagOut, Usage: "write to `FILE` instead of stdout"},
				},
				Action: state.WalkAction,
			},
			{
				Name:  "ik",
				Usage: "solve the joint angles of the configured robot",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     flagPos,
						Usage:    "endeffector position as `LEG=X:Y:Z` in the base frame, repeatable",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagRobot,
						Usage: "override the configured robot (hyq1, hyq4)",
					},
				},
				Action: state.IKAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration file",
				Action: SchemaAction,
			},
		},
	}
}

func (s *appState) before(c *cli.Context) error {
	logger := logging.NewLogger("trajviz")
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}

	s.cfg = config.Default()
	if path := c.String(flagConfig); path != "" {
		cfg, err := config.Read(path, logger)
		if err != nil {
			return err
		}
		s.cfg = cfg
	}
	if settings := c.StringSlice(flagSet); len(settings) > 0 {
		attrs, err := parseSettings(settings)
		if err != nil {
			return err
		}
		if err := s.cfg.Apply(attrs); err != nil {
			return err
		}
	}

	level := s.cfg.LogLevel
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	logFile := c.String(flagLogFile)
	if logFile == "" {
		logFile = s.cfg.LogFile
	}
	if logFile == "" {
		logger.SetLevel(level)
		s.logger = logger
		return nil
	}
	fileLogger, closer, err := logging.NewFileLogger("trajviz", level, logFile)
	if err != nil {
		return err
	}
	s.logger, s.logFile = fileLogger, closer
	return nil
}

// parseSettings turns KEY=VALUE pairs with dotted keys into nested attributes.
func parseSettings(pairs []string) (map[string]any, error) {
	attrs := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("setting %q must be KEY=VALUE", pair)
		}
		parts := strings.Split(key, ".")
		node := attrs
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return attrs, nil
}

func (s *appState) after(c *cli.Context) error {
	if s.logger == nil {
		return nil
	}
	// syncing stdout fails on some terminals, only the file matters.
	//nolint:errcheck
	s.logger.Sync()
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}
