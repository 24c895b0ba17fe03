package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/trajviz/endeffector"
	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/visualization"
)

func TestDefaultIsValid(t *testing.T) {
	test.That(t, Default().Validate("config"), test.ShouldBeNil)
}

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := FromReader("inline", strings.NewReader(`{
			"log_level": "debug",
			"robot": "hyq1",
			"visualization": {"capacities": {"footholds": 120}, "palette": {"0": "#ff0000"}}
		}`), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline")
		test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)
		test.That(t, cfg.Robot, test.ShouldEqual, "hyq1")
		test.That(t, cfg.Visualization.Capacity(visualization.NamespaceFootholds), test.ShouldEqual, 120)
		test.That(t, cfg.Visualization.Capacity(visualization.NamespaceSupportPolygons), test.ShouldEqual, 30)
		test.That(t, cfg.Visualization.Horizon, test.ShouldEqual, 10.0)
		test.That(t, cfg.Visualization.Palette[endeffector.E0], test.ShouldEqual, "#ff0000")
		test.That(t, cfg.Store.Name, test.ShouldEqual, DefaultStoreName)
	})

	t.Run("invalid values are all reported", func(t *testing.T) {
		_, err := FromReader("inline", strings.NewReader(`{
			"robot": "anymal",
			"visualization": {"horizon": -1},
			"store": {"name": ""}
		}`), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "config.robot")
		test.That(t, err.Error(), test.ShouldContainSubstring, "config.visualization: horizon must be positive")
		test.That(t, err.Error(), test.ShouldContainSubstring, "config.store: name is required")
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := FromReader("inline", strings.NewReader(`{"robot":`), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")
	})
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("TRAJVIZ_TEST_ADDRESS", "localhost:8090")
	path := filepath.Join(t.TempDir(), "trajviz.json")
	err := os.WriteFile(path, []byte(`{"store": {"name": "scene", "address": "${TRAJVIZ_TEST_ADDRESS}"}}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Store.Name, test.ShouldEqual, "scene")
	test.That(t, cfg.Store.Address, test.ShouldEqual, "localhost:8090")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestApply(t *testing.T) {
	cfg := Default()
	cfg.Store.Address = "localhost:8090"
	err := cfg.Apply(map[string]any{
		"log_level": "warn",
		"log_file":  "trajviz.log",
		"robot":     "hyq1",
		"visualization": map[string]any{
			"horizon":    "20",
			"capacities": map[string]any{"support_polygons": "40"},
			"palette":    map[string]any{"3": "#00ff00"},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.WARN)
	test.That(t, cfg.LogFile, test.ShouldEqual, "trajviz.log")
	test.That(t, cfg.Robot, test.ShouldEqual, "hyq1")
	test.That(t, cfg.Visualization.Horizon, test.ShouldEqual, 20.0)
	test.That(t, cfg.Visualization.Capacity(visualization.NamespaceSupportPolygons), test.ShouldEqual, 40)
	test.That(t, cfg.Visualization.Capacity(visualization.NamespaceFootholds), test.ShouldEqual, 80)
	test.That(t, cfg.Visualization.Palette[endeffector.E3], test.ShouldEqual, "#00ff00")
	test.That(t, cfg.Store.Address, test.ShouldEqual, "localhost:8090")

	err = Default().Apply(map[string]any{"log_level": "loud"})
	test.That(t, err, test.ShouldNotBeNil)

	err = Default().Apply(map[string]any{"visualization": map[string]any{"horizn": "20"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "horizn")

	err = Default().Apply(map[string]any{"visualization": map[string]any{"horizon": "0"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "config.visualization: horizon must be positive")
}
