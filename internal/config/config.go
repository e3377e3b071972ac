// Package config handles configuration loading.
package config

import (
	"fmt"
	"os"

	"github.com/tingold/geobson"
	"github.com/tingold/geobson/geom"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Precision          Precision  `yaml:"precision"`
	EnvelopePrecision  *Precision `yaml:"envelope_precision,omitempty"`
	SRID               int        `yaml:"srid,omitempty"`
	GeometryAttributes bool       `yaml:"geometry_attributes,omitempty"`
}

// Precision describes a precision model. Fixed models take either a
// scale or a number of decimal places.
type Precision struct {
	Model    string  `yaml:"model"` // floating, floating_single or fixed
	Scale    float64 `yaml:"scale,omitempty"`
	Decimals *int    `yaml:"decimals,omitempty"`
}

// Default returns the configuration used without a config file:
// floating precision and EPSG:4326.
func Default() *Config {
	return &Config{SRID: 4326}
}

// Load reads and parses the YAML configuration file at path. An empty
// path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if _, err := cfg.CodecOptions(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// PrecisionModel converts the description to a geom.PrecisionModel.
func (p Precision) PrecisionModel() (geom.PrecisionModel, error) {
	var pm geom.PrecisionModel

	switch p.Model {
	case "", "floating":
		pm.Type = geom.Floating
	case "floating_single":
		pm.Type = geom.FloatingSingle
	case "fixed":
		switch {
		case p.Decimals != nil && p.Scale != 0:
			return pm, fmt.Errorf("precision: set scale or decimals, not both")
		case p.Decimals != nil:
			pm = geom.FixedDecimals(*p.Decimals)
		default:
			pm = geom.PrecisionModel{Type: geom.Fixed, Scale: p.Scale}
		}
	default:
		return pm, fmt.Errorf("precision: unknown model %q", p.Model)
	}

	if err := pm.Validate(); err != nil {
		return pm, fmt.Errorf("precision: %w", err)
	}
	return pm, nil
}

// CodecOptions builds codec options. The logger is left for the caller.
func (c *Config) CodecOptions() (*geobson.Options, error) {
	pm, err := c.Precision.PrecisionModel()
	if err != nil {
		return nil, err
	}

	opts := geobson.DefaultOptions()
	opts.Factory = &geom.Factory{Precision: pm, SRID: c.SRID}
	opts.GeometryAttributes = c.GeometryAttributes

	if c.EnvelopePrecision != nil {
		epm, err := c.EnvelopePrecision.PrecisionModel()
		if err != nil {
			return nil, fmt.Errorf("envelope_%w", err)
		}
		opts.EnvelopePrecision = &epm
	}

	return opts, nil
}
