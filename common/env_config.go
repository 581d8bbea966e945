package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/takotakot/xml_echo/transform"
)

// DetectRootTag as XML_ROOT_TAG accepts any root element.
const DetectRootTag = "*"

// LoadRequiredEnv fills every pointer from its environment variable and fails
// on the first one that is unset or empty.
func LoadRequiredEnv(requiredEnv map[string]*string) error {
	for envVar, valuePtr := range requiredEnv {
		value := os.Getenv(envVar)
		if value == "" {
			return fmt.Errorf("%s environment variable is not set", envVar)
		}
		*valuePtr = value
	}
	return nil
}

// LoadTransformConfig reads the optional XML_* variables on top of
// transform.DefaultConfig.
func LoadTransformConfig() (transform.Config, error) {
	cfg := transform.DefaultConfig()

	switch rootTag := os.Getenv("XML_ROOT_TAG"); rootTag {
	case "":
	case DetectRootTag:
		cfg.RootTag = ""
	default:
		cfg.RootTag = rootTag
	}
	cfg.FragmentTag = os.Getenv("XML_FRAGMENT_TAG")
	cfg.Options.EmptyTag = os.Getenv("XML_EMPTY_TAG")

	boolEnv := map[string]*bool{
		"XML_TRIM":         &cfg.Options.Trim,
		"XML_NORMALIZE":    &cfg.Options.Normalize,
		"XML_IGNORE_ATTRS": &cfg.Options.IgnoreAttrs,
		"XML_MERGE_ATTRS":  &cfg.Options.MergeAttrs,
	}
	for envVar, valuePtr := range boolEnv {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return transform.Config{}, fmt.Errorf("%s: %w", envVar, err)
		}
		*valuePtr = b
	}

	return cfg, nil
}

// NewTransformerFromEnv builds a transformer from LoadTransformConfig.
func NewTransformerFromEnv() (*transform.Transformer, error) {
	cfg, err := LoadTransformConfig()
	if err != nil {
		return nil, err
	}
	return transform.New(cfg)
}
