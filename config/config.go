// Package config defines the trajviz configuration file.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/trajviz/ik"
	"go.viam.com/trajviz/logging"
	"go.viam.com/trajviz/visualization"
)

// DefaultStoreName is the name the world state store is served under.
const DefaultStoreName = "trajviz"

// Config is the root of a trajviz configuration file.
type Config struct {
	ConfigFilePath string `json:"-"`

	LogLevel logging.Level `json:"log_level"`
	// LogFile, when set, also writes JSON logs to a rotated file.
	LogFile string `json:"log_file,omitempty"`
	// Robot selects the inverse kinematics used by the ik command.
	Robot         string               `json:"robot"`
	Visualization visualization.Config `json:"visualization"`
	Store         StoreConfig          `json:"store"`
}

// StoreConfig describes the world state store markers are published to.
type StoreConfig struct {
	Name string `json:"name"`
	// Address is where the store is served over gRPC. Empty means the store is not served.
	Address string `json:"address,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:      logging.INFO,
		Robot:         ik.RobotHyQ4,
		Visualization: visualization.DefaultConfig(),
		Store:         StoreConfig{Name: DefaultStoreName},
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	var errs error
	if _, err := ik.ForRobot(c.Robot); err != nil {
		errs = multierr.Append(errs, errors.Wrapf(err, "%s.robot", path))
	}
	errs = multierr.Append(errs, c.Visualization.Validate(path+".visualization"))
	errs = multierr.Append(errs, c.Store.Validate(path+".store"))
	return errs
}

// Validate ensures all parts of the config are valid.
func (c *StoreConfig) Validate(path string) error {
	if c.Name == "" {
		return errors.Errorf("%s: name is required", path)
	}
	return nil
}
