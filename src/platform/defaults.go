package platform

import "github.com/sofmeright/multibuild/src/config"

var aptSetup = []string{
	"apt-get update",
	"apt-get install -y python3 python3-pip sudo wget curl git build-essential",
	"ln -fs /usr/share/zoneinfo/UTC /etc/localtime",
	"DEBIAN_FRONTEND=noninteractive apt-get install -y tzdata",
}

var yumSetup = []string{
	"yum update -y",
	"yum install -y python3 python3-pip sudo wget curl git",
	"yum groupinstall -y 'Development Tools'",
}

// builtins mirrors the platforms built in CI.
func builtins() []Recipe {
	return []Recipe{
		{
			ID:         "ubuntu20.04",
			Image:      "ubuntu:20.04",
			SystemName: "ubuntu20.04",
			Setup:      aptSetup,
		},
		{
			ID:         "ubuntu22.04",
			Image:      "ubuntu:22.04",
			SystemName: "ubuntu22.04",
			Setup:      aptSetup,
		},
		{
			ID:         "manylinux_2014",
			Image:      "quay.io/pypa/manylinux_2014_x86_64",
			SystemName: "manylinux_2014",
			Setup: append(append([]string(nil), yumSetup...),
				"if ! command -v python3 &> /dev/null; then ln -s /usr/bin/python /usr/bin/python3; fi",
			),
		},
		{
			ID:         "manylinux_2_24",
			Image:      "quay.io/pypa/manylinux_2_24_x86_64",
			SystemName: "manylinux_2_24",
			Setup:      yumSetup,
		},
	}
}

// Default returns the registry of built-in platforms.
func Default() *Registry {
	reg, err := New(builtins()...)
	if err != nil {
		panic(err) // builtins are static
	}
	return reg
}

// FromConfig returns the built-in registry merged with the platforms
// declared in cfg.
func FromConfig(cfg *config.Config) (*Registry, error) {
	overrides := make([]Recipe, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		overrides = append(overrides, Recipe{
			ID:         p.ID,
			Image:      p.Image,
			SystemName: p.SystemName,
			Setup:      p.Setup,
			Images:     p.Images,
		})
	}
	return Default().Merge(overrides...)
}
