package config

// ToolchainConfig describes the contract with the external package build
// tool run inside each container.
type ToolchainConfig struct {
	// Command runs the package build from the workspace root.
	Command string `yaml:"command" toml:"command"`

	// Artifacts is the glob, relative to the workspace, of archives the build
	// leaves behind. They are copied into the output mount.
	Artifacts string `yaml:"artifacts" toml:"artifacts"`

	// Collect is the glob used on the host to find artifacts in each
	// platform output directory.
	Collect string `yaml:"collect" toml:"collect"`

	// LogsDir is the workspace directory holding build logs, copied
	// recursively when present.
	LogsDir string `yaml:"logs_dir" toml:"logs_dir"`

	// WorkspaceMount is where the workspace is mounted in the container.
	WorkspaceMount string `yaml:"workspace_mount" toml:"workspace_mount"`

	// OutputMount is where the platform output directory is mounted.
	OutputMount string `yaml:"output_mount" toml:"output_mount"`

	// SystemEnv names the variable carrying the platform system name.
	SystemEnv string `yaml:"system_env" toml:"system_env"`

	// Env holds extra static variables for every container.
	Env map[string]string `yaml:"env" toml:"env"`
}

// DefaultToolchainConfig returns the pack.py contract.
func DefaultToolchainConfig() ToolchainConfig {
	return ToolchainConfig{
		Command:        "python3 pack.py build",
		Artifacts:      "output_*.tar.gz",
		Collect:        "*.tar.gz",
		LogsDir:        "output_logs",
		WorkspaceMount: "/workspace",
		OutputMount:    "/output_host",
		SystemEnv:      "SYSTEM_NAME",
	}
}

func (t *ToolchainConfig) applyDefaults() {
	d := DefaultToolchainConfig()
	if t.Command == "" {
		t.Command = d.Command
	}
	if t.Artifacts == "" {
		t.Artifacts = d.Artifacts
	}
	if t.Collect == "" {
		t.Collect = d.Collect
	}
	if t.LogsDir == "" {
		t.LogsDir = d.LogsDir
	}
	if t.WorkspaceMount == "" {
		t.WorkspaceMount = d.WorkspaceMount
	}
	if t.OutputMount == "" {
		t.OutputMount = d.OutputMount
	}
	if t.SystemEnv == "" {
		t.SystemEnv = d.SystemEnv
	}
}
