package config

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-containerregistry/pkg/name"
	"mvdan.cc/sh/v3/syntax"
)

// ReservedPlatformID selects every registered platform on the command line,
// so it cannot name a platform itself. platform.All is defined from it.
const ReservedPlatformID = "all"

// identifierRe matches valid platform ids: letter-first, alphanumeric + _ . -
var identifierRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*$`)

// envNameRe matches portable environment variable names.
var envNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// knownArches are the architecture keys accepted in platform image maps.
var knownArches = map[string]bool{
	"amd64": true,
	"arm64": true,
	"arm":   true,
}

// Validate checks structural invariants of a loaded Config.
// Returns warnings (soft issues) and a hard error if the config is invalid.
func Validate(cfg *Config) (warnings []string, err error) {
	var errs []string

	// ── Runtime ───────────────────────────────────────────────────────────

	switch cfg.Runtime.Engine {
	case EngineDocker, EngineDagger:
	default:
		errs = append(errs, fmt.Sprintf("runtime.engine: unknown engine %q (supported: docker, dagger)", cfg.Runtime.Engine))
	}
	if strings.TrimSpace(cfg.Runtime.Binary) == "" {
		errs = append(errs, "runtime.binary: must not be empty")
	}
	if !cfg.Runtime.TTY.Valid() {
		errs = append(errs, fmt.Sprintf("runtime.tty: unknown mode %q (supported: auto, always, never)", cfg.Runtime.TTY))
	}
	if !cfg.Runtime.Sudo.Valid() {
		errs = append(errs, fmt.Sprintf("runtime.sudo: unknown mode %q (supported: auto, always, never)", cfg.Runtime.Sudo))
	}
	if cfg.Runtime.MinVersion != "" {
		if _, err := semver.NewVersion(cfg.Runtime.MinVersion); err != nil {
			errs = append(errs, fmt.Sprintf("runtime.min_version: %q is not a version: %v", cfg.Runtime.MinVersion, err))
		}
	}
	for i, v := range cfg.Runtime.ForwardEnv {
		if !envNameRe.MatchString(v) {
			errs = append(errs, fmt.Sprintf("runtime.forward_env[%d]: %q is not a variable name", i, v))
		}
	}

	// ── Toolchain ─────────────────────────────────────────────────────────

	tc := cfg.Toolchain
	if err := CheckShell(tc.Command); err != nil {
		errs = append(errs, fmt.Sprintf("toolchain.command: %v", err))
	}
	for field, pattern := range map[string]string{"artifacts": tc.Artifacts, "collect": tc.Collect} {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Sprintf("toolchain.%s: bad glob %q", field, pattern))
		}
	}
	for field, mount := range map[string]string{"workspace_mount": tc.WorkspaceMount, "output_mount": tc.OutputMount} {
		if !path.IsAbs(mount) {
			errs = append(errs, fmt.Sprintf("toolchain.%s: %q must be an absolute container path", field, mount))
		}
	}
	if tc.WorkspaceMount == tc.OutputMount {
		errs = append(errs, fmt.Sprintf("toolchain: workspace_mount and output_mount must differ (both %q)", tc.WorkspaceMount))
	}
	if !envNameRe.MatchString(tc.SystemEnv) {
		errs = append(errs, fmt.Sprintf("toolchain.system_env: %q is not a variable name", tc.SystemEnv))
	}
	for k := range tc.Env {
		if !envNameRe.MatchString(k) {
			errs = append(errs, fmt.Sprintf("toolchain.env: %q is not a variable name", k))
		}
	}
	if strings.Contains(tc.LogsDir, "..") || filepath.IsAbs(tc.LogsDir) {
		errs = append(errs, fmt.Sprintf("toolchain.logs_dir: %q must be relative to the workspace", tc.LogsDir))
	}

	// ── Platforms ─────────────────────────────────────────────────────────

	seen := make(map[string]bool)
	for i, p := range cfg.Platforms {
		ppath := fmt.Sprintf("platforms[%d]", i)

		switch {
		case p.ID == "":
			errs = append(errs, fmt.Sprintf("%s: id is required", ppath))
		case p.ID == ReservedPlatformID:
			errs = append(errs, fmt.Sprintf("%s: id %q is reserved", ppath, p.ID))
		case !isIdentifier(p.ID):
			errs = append(errs, fmt.Sprintf("%s: id %q is not a valid identifier (must match [a-zA-Z][a-zA-Z0-9_.\\-]*)", ppath, p.ID))
		case seen[p.ID]:
			errs = append(errs, fmt.Sprintf("%s: duplicate platform id %q", ppath, p.ID))
		default:
			seen[p.ID] = true
		}

		if p.Image == "" {
			errs = append(errs, fmt.Sprintf("%s: image is required", ppath))
		} else if err := CheckImage(p.Image); err != nil {
			errs = append(errs, fmt.Sprintf("%s.image: %v", ppath, err))
		}

		for arch, img := range p.Images {
			if !knownArches[arch] {
				errs = append(errs, fmt.Sprintf("%s.images: unknown architecture %q (supported: amd64, arm64, arm)", ppath, arch))
			}
			if err := CheckImage(img); err != nil {
				errs = append(errs, fmt.Sprintf("%s.images.%s: %v", ppath, arch, err))
			}
		}

		if len(p.Setup) == 0 {
			warnings = append(warnings, fmt.Sprintf("%s: no setup commands; the base image must already provide the build toolchain", ppath))
		}
		for j, c := range p.Setup {
			if err := CheckShell(c); err != nil {
				errs = append(errs, fmt.Sprintf("%s.setup[%d]: %v", ppath, j, err))
			}
		}
	}

	if len(errs) > 0 {
		return warnings, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return warnings, nil
}

// CheckImage reports whether ref is a well-formed image reference.
func CheckImage(ref string) error {
	if _, err := name.ParseReference(ref); err != nil {
		return fmt.Errorf("invalid image reference %q: %w", ref, err)
	}
	return nil
}

// CheckShell reports whether cmd is a non-empty, parseable bash command.
func CheckShell(cmd string) error {
	if strings.TrimSpace(cmd) == "" {
		return fmt.Errorf("command must not be empty")
	}
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(strings.NewReader(cmd), ""); err != nil {
		return fmt.Errorf("invalid shell command %q: %w", cmd, err)
	}
	return nil
}

func isIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}
