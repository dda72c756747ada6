package runtime

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExit int

func (e fakeExit) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e fakeExit) ExitCode() int { return int(e) }

func recordingExec(calls *[][]string, output string, err error) Executor {
	return func(cmd *exec.Cmd) error {
		*calls = append(*calls, cmd.Args)
		if output != "" && cmd.Stdout != nil {
			fmt.Fprint(cmd.Stdout, output)
		}
		return err
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		execErr    error
		minVersion string
		wantErr    bool
		wantVer    string
	}{
		{name: "docker", output: "Docker version 24.0.7, build afdd53b\n", wantVer: "24.0.7"},
		{name: "podman", output: "podman version 4.9.3\n", wantVer: "4.9.3"},
		{name: "two part version", output: "Docker version 20.10, build x", wantVer: "20.10.0"},
		{name: "missing binary", execErr: exec.ErrNotFound, wantErr: true},
		{name: "non-zero exit", execErr: fakeExit(1), wantErr: true},
		{name: "min version satisfied", output: "Docker version 24.0.7", minVersion: "20.10", wantVer: "24.0.7"},
		{name: "min version not met", output: "Docker version 19.03.1", minVersion: "20.10", wantErr: true},
		{name: "min version without parseable output", output: "docker dev build", minVersion: "20.10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls [][]string
			d := &Docker{Binary: "docker", MinVersion: tt.minVersion, Exec: recordingExec(&calls, tt.output, tt.execErr)}

			info, err := d.Probe(context.Background())
			require.Len(t, calls, 1)
			assert.Equal(t, []string{"docker", "--version"}, calls[0])

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, info.Version)
			assert.Equal(t, tt.wantVer, info.Version.String())
		})
	}
}

func TestProbeWithSudo(t *testing.T) {
	var calls [][]string
	d := &Docker{Binary: "podman", Sudo: true, Exec: recordingExec(&calls, "podman version 5.0.0", nil)}

	_, err := d.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo", "-E", "podman", "--version"}, calls[0])
}

func TestRunExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		execErr  error
		wantCode int
		wantErr  bool
	}{
		{name: "success", wantCode: 0},
		{name: "container failed", execErr: fakeExit(2), wantCode: 2},
		{name: "runtime crashed", execErr: errors.New("fork/exec: resource temporarily unavailable"), wantCode: -1, wantErr: true},
		{name: "killed by signal", execErr: fakeExit(-1), wantCode: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls [][]string
			d := &Docker{Exec: recordingExec(&calls, "", tt.execErr)}

			code, err := d.Run(context.Background(), RunSpec{Image: "ubuntu:22.04", Command: []string{"true"}})
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.Len(t, calls, 1)
			assert.Equal(t, "docker", calls[0][0])
		})
	}
}

func TestRunArgs(t *testing.T) {
	spec := RunSpec{
		Name:       "multibuild-ubuntu20.04-abcd1234",
		Labels:     []string{"multibuild.run=abcd"},
		Image:      "ubuntu:20.04",
		Platform:   "linux/amd64",
		Privileged: true,
		TTY:        true,
		Mounts: []Mount{
			{Source: "/src", Target: "/workspace"},
			{Source: "/out/ubuntu20.04", Target: "/output_host", Export: true},
		},
		Workdir: "/workspace",
		Env:     []string{"SYSTEM_NAME=ubuntu20.04", "http_proxy=http://proxy:3128"},
		Command: []string{"bash", "-c", "echo hi"},
	}

	want := []string{
		"run", "--rm", "-it", "--privileged",
		"--name=multibuild-ubuntu20.04-abcd1234",
		"--label=multibuild.run=abcd",
		"--platform=linux/amd64",
		"--volume=/src:/workspace",
		"--volume=/out/ubuntu20.04:/output_host",
		"--workdir=/workspace",
		"--env=SYSTEM_NAME=ubuntu20.04",
		"--env=http_proxy=http://proxy:3128",
		"ubuntu:20.04",
		"bash", "-c", "echo hi",
	}
	assert.Equal(t, want, RunArgs(spec))
}

func TestRunArgsWithoutTTY(t *testing.T) {
	args := RunArgs(RunSpec{Image: "alpine"})
	assert.Equal(t, []string{"run", "--rm", "-i", "alpine"}, args)
}

func TestModes(t *testing.T) {
	assert.True(t, UseSudo("always", 0))
	assert.True(t, UseSudo("auto", 1000))
	assert.False(t, UseSudo("auto", 0))
	assert.False(t, UseSudo("never", 1000))

	assert.True(t, UseTTY("always", false))
	assert.False(t, UseTTY("never", true))
	assert.True(t, UseTTY("auto", true))
	assert.False(t, UseTTY("auto", false))
}

func TestForwardedEnv(t *testing.T) {
	env := map[string]string{"https_proxy": "http://p:1", "NO_PROXY": "localhost"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	got := ForwardedEnv([]string{"http_proxy", "https_proxy", "NO_PROXY"}, lookup)
	assert.Equal(t, []string{"https_proxy=http://p:1", "NO_PROXY=localhost"}, got)
}
