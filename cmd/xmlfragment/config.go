package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/takotakot/xml_echo/common"
	"github.com/takotakot/xml_echo/transform"
)

// loadConfigFile reads a transform.Config from YAML. Keys missing from the
// file keep their defaults.
func loadConfigFile(path string) (transform.Config, error) {
	cfg := transform.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RootTag == common.DetectRootTag {
		cfg.RootTag = ""
	}
	return cfg, nil
}

// configFromContext applies explicitly set flags on top of the config file,
// if any.
func configFromContext(c *cli.Context) (transform.Config, error) {
	cfg := transform.DefaultConfig()
	if c.IsSet("config") {
		var err error
		if cfg, err = loadConfigFile(c.String("config")); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("root") {
		cfg.RootTag = c.String("root")
		if cfg.RootTag == common.DetectRootTag {
			cfg.RootTag = ""
		}
	}
	if c.IsSet("fragment") {
		cfg.FragmentTag = c.String("fragment")
	}
	if c.IsSet("empty-tag") {
		cfg.Options.EmptyTag = c.String("empty-tag")
	}

	boolFlags := map[string]*bool{
		"trim":         &cfg.Options.Trim,
		"normalize":    &cfg.Options.Normalize,
		"ignore-attrs": &cfg.Options.IgnoreAttrs,
		"merge-attrs":  &cfg.Options.MergeAttrs,
	}
	for name, valuePtr := range boolFlags {
		if c.IsSet(name) {
			*valuePtr = c.Bool(name)
		}
	}

	return cfg, nil
}
