package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultOutputDir is the output root used when neither the flag nor the
// config file sets one.
const DefaultOutputDir = "multi_platform_builds"

// appName names the per-user config directory under $XDG_CONFIG_HOME.
const appName = "multibuild"

// projectFiles are tried, in order, in the working directory.
var projectFiles = []string{".multibuild.yml", ".multibuild.yaml", ".multibuild.toml"}

// userFiles are tried, in order, under $XDG_CONFIG_HOME/multibuild.
var userFiles = []string{"config.yml", "config.yaml", "config.toml"}

// Config is the top-level multibuild configuration.
type Config struct {
	OutputDir string           `yaml:"output_dir" toml:"output_dir"`
	Runtime   RuntimeConfig    `yaml:"runtime" toml:"runtime"`
	Toolchain ToolchainConfig  `yaml:"toolchain" toml:"toolchain"`
	Platforms []PlatformConfig `yaml:"platforms" toml:"platforms"`

	// Source is the file the config was read from, empty when defaults are used.
	Source string `yaml:"-" toml:"-"`
}

// Load reads configuration from a YAML or TOML file.
// If path is empty, the project files and then the user config directory are
// searched. Returns defaults if no file exists. An explicit path that does
// not exist is an error.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}

	for _, candidate := range searchPaths() {
		cfg, err := loadFile(candidate)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return Defaults(), nil
}

// searchPaths lists implicit config locations in priority order.
func searchPaths() []string {
	paths := append([]string(nil), projectFiles...)
	for _, name := range userFiles {
		paths = append(paths, filepath.Join(xdg.ConfigHome, appName, name))
	}
	return paths
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Source = path
	cfg.applyDefaults()
	return cfg, nil
}

// decode picks the format from the file extension. Anything that is not
// .toml is treated as YAML.
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Runtime:   DefaultRuntimeConfig(),
		Toolchain: DefaultToolchainConfig(),
	}
}

// applyDefaults fills fields a partial file left empty.
func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	c.Runtime.applyDefaults()
	c.Toolchain.applyDefaults()
}
