// Package config loads the run configuration of the armsim command: the
// emulator switches, the timing model, the data cache and logging.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
	"github.com/sarchlab/armsim/timing/cache"
	"github.com/sarchlab/armsim/timing/latency"
)

// Offset encodings accepted in EmulatorConfig.OffsetEncoding.
const (
	OffsetDefault      = "default"
	OffsetConventional = "conventional"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete run configuration.
type Config struct {
	Emulator EmulatorConfig       `json:"emulator" yaml:"emulator"`
	Timing   latency.TimingConfig `json:"timing" yaml:"timing"`
	Cache    CacheConfig          `json:"cache" yaml:"cache"`
	Log      LogConfig            `json:"log" yaml:"log"`
}

// EmulatorConfig holds the functional emulator switches.
type EmulatorConfig struct {
	// MaxInstructions stops the run with an error after this many
	// instructions. 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions" yaml:"max_instructions"`

	// OffsetEncoding is "default" (bit 25 set selects the 12-bit immediate
	// offset of LDR/STR) or "conventional" (bit 25 clear does).
	OffsetEncoding string `json:"offset_encoding" yaml:"offset_encoding"`

	// StrictWriteBack updates the base of a pre-indexed transfer only when
	// the W bit is set.
	StrictWriteBack bool `json:"strict_write_back" yaml:"strict_write_back"`
}

// CacheConfig enables and shapes the data cache model.
type CacheConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	cache.Config `yaml:",inline"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Verbosity is the logr V-level; 1 logs every instruction.
	Verbosity int `json:"verbosity" yaml:"verbosity"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Emulator: EmulatorConfig{
			OffsetEncoding: OffsetDefault,
		},
		Timing: *latency.DefaultTimingConfig(),
		Cache: CacheConfig{
			Config: cache.DefaultConfig(),
		},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads a configuration file over the defaults. Files ending in .yaml
// or .yml are YAML; anything else is JSON. The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save writes the configuration in the format chosen by the extension.
func (c *Config) Save(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.Emulator.Encoding(); err != nil {
		return err
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Cache.Enabled {
		if err := c.Cache.Config.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("%w: log verbosity must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Encoding maps OffsetEncoding to the decoder setting. An empty value is
// the default encoding.
func (e EmulatorConfig) Encoding() (insts.OffsetEncoding, error) {
	switch strings.ToLower(e.OffsetEncoding) {
	case "", OffsetDefault:
		return insts.OffsetImmediateWhenSet, nil
	case OffsetConventional:
		return insts.OffsetImmediateWhenClear, nil
	default:
		return 0, fmt.Errorf("%w: unknown offset_encoding %q", ErrInvalidConfig, e.OffsetEncoding)
	}
}

// Options returns the emulator options for this configuration.
func (e EmulatorConfig) Options() ([]emu.EmulatorOption, error) {
	enc, err := e.Encoding()
	if err != nil {
		return nil, err
	}
	return []emu.EmulatorOption{
		emu.WithMaxInstructions(e.MaxInstructions),
		emu.WithOffsetEncoding(enc),
		emu.WithStrictWriteBack(e.StrictWriteBack),
	}, nil
}
