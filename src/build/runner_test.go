package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/runtime"
)

// fakeRuntime records container runs. Each run can drop files into the
// output mount before returning the configured outcome.
type fakeRuntime struct {
	specs   []runtime.RunSpec
	codes   map[string]int   // by image
	errs    map[string]error // by image
	produce []string         // file names written to the output mount
}

func (f *fakeRuntime) Run(ctx context.Context, spec runtime.RunSpec) (int, error) {
	f.specs = append(f.specs, spec)
	if err := f.errs[spec.Image]; err != nil {
		return -1, err
	}
	for _, m := range spec.Mounts {
		if !m.Export {
			continue
		}
		for _, name := range f.produce {
			if err := os.WriteFile(filepath.Join(m.Source, name), []byte("x"), 0o644); err != nil {
				return -1, err
			}
		}
	}
	if spec.Stdout != nil {
		spec.Stdout.Write([]byte("container says hi\n"))
	}
	return f.codes[spec.Image], nil
}

func newTestRunner(rt ContainerRuntime, out *bytes.Buffer) *Runner {
	clock := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return &Runner{
		Runtime:    rt,
		Toolchain:  config.DefaultToolchainConfig(),
		Privileged: true,
		Arch:       "amd64",
		RunID:      "0f8fad5b-d9cb-469f-a165-70867728950e",
		Env:        []string{"BUILD_COMMIT=abc"},
		Out:        out,
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
}

func TestBuildForPlatformSuccess(t *testing.T) {
	ws, root := t.TempDir(), t.TempDir()
	rt := &fakeRuntime{produce: []string{"output_pkg.tar.gz", "notes.txt"}}
	var out bytes.Buffer

	res := newTestRunner(rt, &out).BuildForPlatform(context.Background(), testRecipe(), ws, root)

	assert.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"output_pkg.tar.gz"}, res.Artifacts)
	assert.Equal(t, filepath.Join(root, "ubuntu22.04"), res.OutputDir)
	assert.Positive(t, res.Duration)

	assert.Contains(t, out.String(), "=== Building for ubuntu22.04 ===")
	assert.Contains(t, out.String(), "Build successful for ubuntu22.04")
	assert.Contains(t, out.String(), "output_pkg.tar.gz")

	logData, err := os.ReadFile(filepath.Join(res.OutputDir, BuildLog))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "container says hi")

	summary, err := os.ReadFile(filepath.Join(res.OutputDir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Status: SUCCESS")
	assert.Contains(t, string(summary), "Build report not found")
	assert.Contains(t, string(summary), "- output_pkg.tar.gz")
}

func TestBuildForPlatformRunSpec(t *testing.T) {
	ws, root := t.TempDir(), t.TempDir()
	rt := &fakeRuntime{}
	r := newTestRunner(rt, &bytes.Buffer{})
	r.Toolchain.Env = map[string]string{"Z_VAR": "z", "A_VAR": "a"}
	r.Platform = "linux/amd64"

	r.BuildForPlatform(context.Background(), testRecipe(), ws, root)
	require.Len(t, rt.specs, 1)
	spec := rt.specs[0]

	assert.Equal(t, "ubuntu:22.04", spec.Image)
	assert.Equal(t, "multibuild-ubuntu22.04-0f8fad5b", spec.Name)
	assert.Equal(t, []string{
		"multibuild.run=0f8fad5b-d9cb-469f-a165-70867728950e",
		"multibuild.platform=ubuntu22.04",
	}, spec.Labels)
	assert.Equal(t, "linux/amd64", spec.Platform)
	assert.True(t, spec.Privileged)
	assert.Equal(t, "/workspace", spec.Workdir)
	assert.Equal(t, []string{
		"SYSTEM_NAME=ubuntu22.04",
		"BUILD_COMMIT=abc",
		"A_VAR=a",
		"Z_VAR=z",
	}, spec.Env)

	require.Len(t, spec.Mounts, 2)
	assert.Equal(t, runtime.Mount{Source: ws, Target: "/workspace"}, spec.Mounts[0])
	assert.Equal(t, "/output_host", spec.Mounts[1].Target)
	assert.True(t, filepath.IsAbs(spec.Mounts[1].Source))
	assert.True(t, spec.Mounts[1].Export)

	require.Len(t, spec.Command, 3)
	assert.Equal(t, []string{"bash", "-c"}, spec.Command[:2])
	assert.Equal(t, NewScript(testRecipe(), r.Toolchain).Render(), spec.Command[2])
}

func TestBuildForPlatformPerArchImage(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestRunner(rt, &bytes.Buffer{})
	r.Arch = "aarch64"

	recipe := testRecipe()
	recipe.Images = map[string]string{"arm64": "arm64v8/ubuntu:22.04"}

	r.BuildForPlatform(context.Background(), recipe, t.TempDir(), t.TempDir())
	require.Len(t, rt.specs, 1)
	assert.Equal(t, "arm64v8/ubuntu:22.04", rt.specs[0].Image)
}

func TestBuildForPlatformNonZeroExit(t *testing.T) {
	rt := &fakeRuntime{codes: map[string]int{"ubuntu:22.04": 2}, produce: []string{"output_pkg.tar.gz"}}
	var out bytes.Buffer

	res := newTestRunner(rt, &out).BuildForPlatform(context.Background(), testRecipe(), t.TempDir(), t.TempDir())

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.ExitCode)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Artifacts, "artifacts are only inspected on success")
	assert.Contains(t, out.String(), "Build failed for ubuntu22.04 (exit status 2)")

	summary, err := os.ReadFile(filepath.Join(res.OutputDir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Status: FAILED")
	assert.Contains(t, string(summary), "Exit Code: 2")
}

func TestBuildForPlatformInvocationError(t *testing.T) {
	crash := errors.New("runtime crashed")
	rt := &fakeRuntime{errs: map[string]error{"ubuntu:22.04": crash}}
	var out bytes.Buffer

	res := newTestRunner(rt, &out).BuildForPlatform(context.Background(), testRecipe(), t.TempDir(), t.TempDir())

	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, crash)
	assert.Contains(t, out.String(), "Error building for ubuntu22.04: runtime crashed")
	assert.DirExists(t, res.OutputDir)
}

func TestBuildForPlatformNoArtifacts(t *testing.T) {
	var out bytes.Buffer
	res := newTestRunner(&fakeRuntime{}, &out).BuildForPlatform(context.Background(), testRecipe(), t.TempDir(), t.TempDir())

	assert.True(t, res.Success, "missing artifacts never change success")
	assert.Empty(t, res.Artifacts)
	assert.Contains(t, out.String(), "No artifacts generated")
}

func TestBuildForPlatformMissingWorkspace(t *testing.T) {
	rt := &fakeRuntime{}
	res := newTestRunner(rt, &bytes.Buffer{}).BuildForPlatform(context.Background(), testRecipe(),
		filepath.Join(t.TempDir(), "missing"), t.TempDir())

	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Empty(t, rt.specs)
	assert.DirExists(t, res.OutputDir)
}

func TestBuildForPlatformOutputDirUnwritable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("not a dir"), 0o644))

	rt := &fakeRuntime{}
	res := newTestRunner(rt, &bytes.Buffer{}).BuildForPlatform(context.Background(), testRecipe(), t.TempDir(), root)

	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Empty(t, rt.specs)
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "multibuild-a-12345678", containerName("a", "1234-5678-9abc"))
	assert.Equal(t, "multibuild-a", containerName("a", ""))
}
