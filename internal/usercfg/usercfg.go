// Package usercfg reads the optional driver-level user configuration
// file at $HOME/.bendu/config.yaml: colour mode, cache size limits,
// and registry endpoints (spec's ambient stack §10 calls for this as
// "a secondary, optional user config file"; spec itself is silent on
// driver configuration since the CLI is an external collaborator).
//
// Grounded on the teacher's own use of gopkg.in/yaml.v3 in
// internal/ext for parsing funxy.yaml — the same library, repurposed
// here for a different schema.
package usercfg

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bendu-lang/bendu/internal/config"
)

// ColorMode selects when diagnostic output is coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto" // colour iff stdout/stderr is a terminal (default)
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config is the parsed shape of config.yaml. Every field is optional;
// zero values fall back to the driver's built-in defaults.
type Config struct {
	Color             ColorMode `yaml:"color"`
	CacheSizeLimitMB  int       `yaml:"cacheSizeLimitMB"`
	RegistryEndpoints []string  `yaml:"registryEndpoints"`
}

// Default returns the built-in defaults used when no config file is
// present or a field is left unset.
func Default() Config {
	return Config{Color: ColorAuto, CacheSizeLimitMB: 512}
}

// Load reads $HOME/.bendu/config.yaml, returning Default() unmodified
// if the file does not exist (not an error — the config file is
// optional).
func Load() (Config, error) {
	return LoadFrom(config.CacheRoot() + "/config.yaml")
}

// LoadFrom reads and parses the config file at path, for tests and for
// driver flags that override the default location.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Color == "" {
		cfg.Color = ColorAuto
	}
	if cfg.CacheSizeLimitMB == 0 {
		cfg.CacheSizeLimitMB = 512
	}
	return cfg, nil
}
