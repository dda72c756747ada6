package config

// PlatformConfig declares a build recipe in the config file. An entry whose
// ID matches a built-in platform replaces it; any other ID adds a platform.
type PlatformConfig struct {
	ID         string   `yaml:"id" toml:"id"`
	Image      string   `yaml:"image" toml:"image"`
	SystemName string   `yaml:"system_name" toml:"system_name"` // defaults to ID
	Setup      []string `yaml:"setup" toml:"setup"`

	// Images overrides Image per host architecture (amd64, arm64, arm).
	Images map[string]string `yaml:"images,omitempty" toml:"images,omitempty"`
}
