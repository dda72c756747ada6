package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// FindArtifacts returns the sorted base names of regular files in dir that
// match glob. A missing dir yields no artifacts and no error.
func FindArtifacts(dir, glob string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("matching %s: %w", glob, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

// Listing names the artifacts found in one platform directory.
type Listing struct {
	Platform  string
	Artifacts []string
}

// ListOutputs scans the immediate subdirectories of root in name order and
// returns those that hold at least one artifact. Directories left behind by
// earlier runs are included.
func ListOutputs(root, glob string) ([]Listing, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	var listings []Listing
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		names, err := FindArtifacts(filepath.Join(root, e.Name()), glob)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			listings = append(listings, Listing{Platform: e.Name(), Artifacts: names})
		}
	}
	return listings, nil
}

// Digest returns the hex blake3 hash of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", filepath.Base(path), err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
