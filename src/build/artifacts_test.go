package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFindArtifacts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "output_b.tar.gz"))
	touch(t, filepath.Join(dir, "output_a.tar.gz"))
	touch(t, filepath.Join(dir, "build.log"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.tar.gz"), 0o755))

	names, err := FindArtifacts(dir, "*.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, []string{"output_a.tar.gz", "output_b.tar.gz"}, names)
}

func TestFindArtifactsMissingDir(t *testing.T) {
	names, err := FindArtifacts(filepath.Join(t.TempDir(), "nope"), "*.tar.gz")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFindArtifactsBadGlob(t *testing.T) {
	_, err := FindArtifacts(t.TempDir(), "[")
	assert.Error(t, err)
}

func TestListOutputs(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ubuntu22.04", "output_x.tar.gz"))
	touch(t, filepath.Join(root, "ubuntu20.04", "output_y.tar.gz"))
	touch(t, filepath.Join(root, "manylinux_2014", "build.log"))
	touch(t, filepath.Join(root, "stray.tar.gz"))

	listings, err := ListOutputs(root, "*.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, []Listing{
		{Platform: "ubuntu20.04", Artifacts: []string{"output_y.tar.gz"}},
		{Platform: "ubuntu22.04", Artifacts: []string{"output_x.tar.gz"}},
	}, listings)
}

func TestListOutputsMissingRoot(t *testing.T) {
	listings, err := ListOutputs(filepath.Join(t.TempDir(), "nope"), "*.tar.gz")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tar.gz")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	sum, err := Digest(path)
	require.NoError(t, err)
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", sum)

	_, err = Digest(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
