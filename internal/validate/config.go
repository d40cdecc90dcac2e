package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the workspace-relative path of the optional config file.
const ConfigFile = "graphcheck.yaml"

// ErrConfig reports an unreadable or invalid config file.
var ErrConfig = errors.New("validate: invalid config")

// Config holds rule thresholds and run switches. Fields tagged json:"-" do not
// change rule output and are left out of the cache fingerprint.
type Config struct {
	// LongWireUsageMax is the largest number of 事件源实体 uses tolerated in
	// one event method before the long-wire lint applies.
	LongWireUsageMax int `yaml:"long_wire_usage_max" json:"long_wire_usage_max" validate:"gte=0"`
	// LongWireLineSpanMin is the smallest line span the long-wire lint reports.
	LongWireLineSpanMin int `yaml:"long_wire_line_span_min" json:"long_wire_line_span_min" validate:"gte=1"`
	// GraphVarPreview caps how many declared names an undeclared-variable
	// message lists.
	GraphVarPreview int `yaml:"graph_var_preview" json:"graph_var_preview" validate:"gte=1"`
	// DisabledRules lists rule ids to skip.
	DisabledRules []string `yaml:"disabled_rules,omitempty" json:"disabled_rules,omitempty" validate:"dive,required"`

	Cache   bool `yaml:"cache" json:"-"`
	Workers int  `yaml:"workers" json:"-" validate:"gte=0"`
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		LongWireUsageMax:    2,
		LongWireLineSpanMin: 50,
		GraphVarPreview:     8,
		Cache:               true,
	}
}

// Enabled reports whether the rule with the given id should run.
func (c Config) Enabled(ruleID string) bool {
	return !slices.Contains(c.DisabledRules, ruleID)
}

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads <workspace>/graphcheck.yaml over the defaults. A missing
// file yields DefaultConfig.
func LoadConfig(workspace string) (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(workspace, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %w", ErrConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}
	return cfg, nil
}

// Validate checks the config's struct constraints.
func (c Config) Validate() error {
	return configValidate.Struct(c)
}

// Encode renders the config as YAML.
func (c Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
