// Package gitver resolves git metadata of the build workspace. The result is
// shown in the run context and exported into each build container so the
// package build can stamp what it was built from.
package gitver

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when the workspace is not inside a git
// repository.
var ErrNotRepository = errors.New("workspace is not a git repository")

// Revision holds resolved revision metadata.
type Revision struct {
	SHA     string // full commit hash
	Short   string // first 7 characters of SHA
	Branch  string // empty on detached HEAD
	Tag     string // tag pointing at HEAD, if any
	Version string // semver of Tag without "v", empty if Tag is not semver
}

// Detect reads the revision of the repository containing dir.
func Detect(dir string) (*Revision, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	rev := &Revision{SHA: head.Hash().String()}
	rev.Short = rev.SHA
	if len(rev.Short) > 7 {
		rev.Short = rev.Short[:7]
	}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	tag, err := tagAt(repo, head.Hash())
	if err != nil {
		return nil, err
	}
	rev.Tag = tag
	if tag != "" {
		if v, err := semver.NewVersion(tag); err == nil {
			rev.Version = v.String()
		}
	}
	return rev, nil
}

// tagAt returns the name of a tag (lightweight or annotated) that points at
// hash, preferring the highest semver when several do.
func tagAt(repo *git.Repository, hash plumbing.Hash) (string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("listing tags: %w", err)
	}

	var (
		best    string
		bestVer *semver.Version
	)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if obj, err := repo.TagObject(target); err == nil {
			target = obj.Target
		}
		if target != hash {
			return nil
		}

		name := ref.Name().Short()
		v, verr := semver.NewVersion(name)
		switch {
		case best == "":
			best, bestVer = name, v
		case verr == nil && (bestVer == nil || v.GreaterThan(bestVer)):
			best, bestVer = name, v
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading tags: %w", err)
	}
	return best, nil
}

// Env returns the variables exported into build containers.
func (r *Revision) Env() []string {
	if r == nil {
		return nil
	}
	env := []string{"BUILD_COMMIT=" + r.SHA}
	if r.Branch != "" {
		env = append(env, "BUILD_BRANCH="+r.Branch)
	}
	if r.Tag != "" {
		env = append(env, "BUILD_TAG="+r.Tag)
	}
	if r.Version != "" {
		env = append(env, "BUILD_VERSION="+r.Version)
	}
	return env
}

// String renders "abc1234 · main" style identity for the context block.
func (r *Revision) String() string {
	if r == nil {
		return "(not a git repository)"
	}
	s := r.Short
	if r.Branch != "" {
		s += " · " + r.Branch
	}
	if r.Tag != "" {
		s += " · " + r.Tag
	}
	return s
}
