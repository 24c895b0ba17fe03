package config

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/trajviz/logging"
)

// Read reads a config from the given file. Environment variables in the file are expanded and
// fields the file omits keep their defaults.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	cfg.ConfigFilePath = originalPath
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	logger.Debugw("read config", "path", originalPath, "robot", cfg.Robot, "store", cfg.Store.Name)
	return cfg, nil
}

// Apply decodes a loosely typed attribute map, such as settings gathered from the command line,
// over cfg and validates the result. Keys follow the JSON field names and unknown keys are an error.
func (cfg *Config) Apply(attrs map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.DecodeHookFuncType(stringToLevelHook),
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(attrs); err != nil {
		return errors.Wrap(err, "failed to decode Config from attributes")
	}
	return cfg.Validate("config")
}

func stringToLevelHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(logging.Level(0)) {
		return data, nil
	}
	return logging.LevelFromString(data.(string))
}
