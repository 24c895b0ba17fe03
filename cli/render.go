package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/trajviz/config"
	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/services/worldstatestore"
	"go.viam.com/trajviz/trajectory"
	"go.viam.com/trajviz/visualization"
	"go.viam.com/trajviz/visualization/preview"
)

// demo crawl parameters.
const (
	demoStride       = 0.15
	demoStepDuration = 0.4
	demoDt           = 0.02
)

// RenderAction is the corresponding action for 'render'.
func (s *appState) RenderAction(c *cli.Context) error {
	path := c.Args().First()
	demo := c.Int(flagDemo)
	switch {
	case demo >= 0 && path != "":
		return errors.New("pass either a trajectory file or --demo, not both")
	case demo < 0 && path == "":
		return errors.New("a trajectory file or --demo is required")
	case demo >= 0 && c.Bool(flagWatch):
		return errors.New("--watch needs a trajectory file")
	}
	if demo >= 0 {
		if err := s.checkDemo(demo); err != nil {
			return err
		}
	}

	logger := s.logger.Sublogger("render")
	store := worldstatestore.NewStore(logger.Sublogger("store"))
	//nolint:errcheck
	defer store.Close(context.Background())

	r := &renderer{
		cfg:         s.cfg,
		logger:      logger,
		store:       store,
		out:         c.App.Writer,
		previewPath: c.String(flagPreview),
		jsonPath:    c.String(flagJSON),
	}
	load := func() (trajectory.Trajectory, string, error) {
		if demo >= 0 {
			return demoWalk(demo), fmt.Sprintf("crawl, %d strides", demo), nil
		}
		traj, err := trajectory.ReadFile(path)
		return traj, filepath.Base(path), err
	}

	traj, title, err := load()
	if err != nil {
		return err
	}
	if err := r.render(c.Context, traj, title); err != nil {
		return err
	}

	if !c.Bool(flagServe) && !c.Bool(flagWatch) {
		return nil
	}

	g, ctx := errgroup.WithContext(c.Context)
	if c.Bool(flagServe) {
		if s.cfg.Store.Address == "" {
			return errors.New("store.address must be configured to serve")
		}
		lis, err := net.Listen("tcp", s.cfg.Store.Address)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return worldstatestore.Serve(ctx, lis, s.cfg.Store.Name, store, logger.Sublogger("server"))
		})
	}
	if c.Bool(flagWatch) {
		watcher, err := newFileWatcher(path, logger.Sublogger("watch"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watcher.Run(ctx, func() {
				traj, title, err := load()
				if err == nil {
					err = r.render(ctx, traj, title)
				}
				if err != nil {
					logger.Warnw("failed to re-render", "path", path, "error", err)
				}
			})
		})
	}
	return g.Wait()
}

func demoWalk(strides int) trajectory.Trajectory {
	return trajectory.Walk(strides, demoStride, demoStepDuration, demoDt)
}

// checkDemo rejects a crawl whose markers the configured visualization cannot hold, naming the
// longest crawl that fits.
func (s *appState) checkDemo(strides int) error {
	check := func(n int) error {
		b, err := visualization.NewBuilder(demoWalk(n), s.cfg.Visualization, logging.NewBlankLogger("demo"))
		if err != nil {
			return err
		}
		return b.Check()
	}
	err := check(strides)
	if err == nil || !errors.Is(err, visualization.ErrCapacityExceeded) {
		return err
	}
	longest := -1
	for n := 0; n < strides && check(n) == nil; n++ {
		longest = n
	}
	if longest < 0 {
		return errors.Wrap(err, "no crawl fits the configured visualization")
	}
	return errors.Wrapf(err, "--demo %d does not fit the configured visualization, the longest crawl that fits has %d strides",
		strides, longest)
}

// renderer builds, publishes and exports the markers of one trajectory at a time.
type renderer struct {
	cfg    *config.Config
	logger logging.Logger
	store  *worldstatestore.Store
	out    io.Writer

	previewPath string
	jsonPath    string
}

func (r *renderer) render(ctx context.Context, traj trajectory.Trajectory, title string) error {
	b, err := visualization.NewBuilder(traj, r.cfg.Visualization, r.logger.Sublogger("builder"))
	if err != nil {
		return err
	}
	arr, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if err := r.store.Publish(ctx, arr); err != nil {
		return err
	}
	r.logger.Infow("published trajectory",
		"title", title, "duration", traj.Duration(), "markers", arr.Len(), "transforms", r.store.Len())

	if r.previewPath != "" {
		if err := preview.Save(arr, title, r.previewPath); err != nil {
			return errors.Wrap(err, "saving preview")
		}
	}
	if r.jsonPath != "" {
		if err := writeJSON(r.jsonPath, arr); err != nil {
			return errors.Wrap(err, "writing marker array")
		}
	}
	printSummary(r.out, arr)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// printSummary prints a table of the number of Modify and Delete markers in each namespace.
func printSummary(w io.Writer, arr visualization.MarkerArray) {
	type counts struct{ modify, del int }
	var order []string
	byNamespace := map[string]*counts{}
	for _, m := range arr.Markers {
		cnt, ok := byNamespace[m.Namespace]
		if !ok {
			cnt = &counts{}
			byNamespace[m.Namespace] = cnt
			order = append(order, m.Namespace)
		}
		if m.Action == visualization.Delete {
			cnt.del++
		} else {
			cnt.modify++
		}
	}

	var total counts
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Namespace", "Modify", "Delete"})
	for _, ns := range order {
		cnt := byNamespace[ns]
		t.AppendRow(table.Row{ns, cnt.modify, cnt.del})
		total.modify += cnt.modify
		total.del += cnt.del
	}
	t.AppendFooter(table.Row{"Total", total.modify, total.del})
	fmt.Fprintln(w, t.Render())
}

// WalkAction is the corresponding action for 'walk'.
func (s *appState) WalkAction(c *cli.Context) error {
	if c.Int(flagStrides) < 0 {
		return errors.New("--strides must not be negative")
	}
	if c.Float64(flagDt) <= 0 || c.Float64(flagStepDuration) <= 0 {
		return errors.New("--dt and --step-duration must be positive")
	}
	traj := trajectory.Walk(c.Int(flagStrides), c.Float64(flagStride), c.Float64(flagStepDuration), c.Float64(flagDt))
	if out := c.String(flagOut); out != "" {
		s.logger.Infow("writing trajectory", "path", out, "samples", len(traj), "duration", traj.Duration())
		return writeJSON(out, traj)
	}
	enc := json.NewEncoder(c.App.Writer)
	return enc.Encode(traj)
}
