package config

import "os"

// Mode is a tri-state switch used by tty and sudo.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

// Valid reports whether m is one of the recognized modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAuto, ModeAlways, ModeNever:
		return true
	}
	return false
}

// Container engines.
const (
	EngineDocker = "docker"
	EngineDagger = "dagger"
)

// DefaultForwardEnv lists the proxy variables passed into build containers
// when they are set on the host.
var DefaultForwardEnv = []string{
	"http_proxy",
	"https_proxy",
	"ftp_proxy",
	"HTTP_PROXY",
	"HTTPS_PROXY",
	"FTP_PROXY",
	"no_proxy",
	"NO_PROXY",
}

// RuntimeConfig controls how the container runtime is invoked.
type RuntimeConfig struct {
	// Engine selects the backend: "docker" drives the runtime CLI, "dagger"
	// runs containers in a Dagger engine session. Default: "docker".
	Engine string `yaml:"engine" toml:"engine"`

	// Binary is the runtime CLI. Default: "docker".
	Binary string `yaml:"binary" toml:"binary"`

	// MinVersion is an optional semver constraint floor, e.g. "20.10".
	MinVersion string `yaml:"min_version" toml:"min_version"`

	// Privileged adds --privileged to every container. Default: true.
	Privileged bool `yaml:"privileged" toml:"privileged"`

	// TTY controls -t. auto allocates a TTY only when stdin is a terminal.
	TTY Mode `yaml:"tty" toml:"tty"`

	// Sudo controls the "sudo -E" prefix. auto applies it for non-root users.
	Sudo Mode `yaml:"sudo" toml:"sudo"`

	// ForwardEnv names host variables copied into the container when set.
	ForwardEnv []string `yaml:"forward_env" toml:"forward_env"`

	// Platform is passed as --platform. Default: $DOCKER_DEFAULT_PLATFORM.
	Platform string `yaml:"platform" toml:"platform"`
}

// DefaultRuntimeConfig returns the runtime settings of a stock docker install.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Engine:     EngineDocker,
		Binary:     "docker",
		Privileged: true,
		TTY:        ModeAuto,
		Sudo:       ModeNever,
		ForwardEnv: append([]string(nil), DefaultForwardEnv...),
		Platform:   os.Getenv("DOCKER_DEFAULT_PLATFORM"),
	}
}

func (r *RuntimeConfig) applyDefaults() {
	if r.Engine == "" {
		r.Engine = EngineDocker
	}
	if r.Binary == "" {
		r.Binary = "docker"
	}
	if r.TTY == "" {
		r.TTY = ModeAuto
	}
	if r.Sudo == "" {
		r.Sudo = ModeNever
	}
}
