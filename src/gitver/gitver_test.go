package gitver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack.py"), []byte("print('build')\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("pack.py")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return dir, repo, hash.String()
}

func TestDetect(t *testing.T) {
	dir, _, sha := initRepo(t)

	rev, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, sha, rev.SHA)
	assert.Equal(t, sha[:7], rev.Short)
	assert.NotEmpty(t, rev.Branch)
	assert.Empty(t, rev.Tag)
	assert.Contains(t, rev.Env(), "BUILD_COMMIT="+sha)
}

func TestDetectFromSubdirectory(t *testing.T) {
	dir, _, sha := initRepo(t)
	sub := filepath.Join(dir, "nested", "deeper")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	rev, err := Detect(sub)
	require.NoError(t, err)
	assert.Equal(t, sha, rev.SHA)
}

func TestDetectTags(t *testing.T) {
	dir, repo, sha := initRepo(t)
	head, err := repo.Head()
	require.NoError(t, err)

	_, err = repo.CreateTag("nightly", head.Hash(), nil)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.2.3", head.Hash(), nil)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.10.0", head.Hash(), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1700000100, 0)},
		Message: "release",
	})
	require.NoError(t, err)

	rev, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, "v1.10.0", rev.Tag)
	assert.Equal(t, "1.10.0", rev.Version)

	env := rev.Env()
	assert.Contains(t, env, "BUILD_COMMIT="+sha)
	assert.Contains(t, env, "BUILD_TAG=v1.10.0")
	assert.Contains(t, env, "BUILD_VERSION=1.10.0")
}

func TestDetectNotRepository(t *testing.T) {
	_, err := Detect(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestNilRevision(t *testing.T) {
	var rev *Revision
	assert.Nil(t, rev.Env())
	assert.Equal(t, "(not a git repository)", rev.String())
}
