// Package repofile links a directory tree to a default project through a
// small marker file.
package repofile

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

const FileName = ".errand-project"

// Find looks for a link file in startDir and then in each ancestor, returning
// the linked project id and the directory holding the file. Both are empty
// when no ancestor is linked.
func Find(startDir string) (projectID, dir string, err error) {
	for d := range ancestors(filepath.Clean(startDir)) {
		linked, err := Read(d)
		if err != nil {
			return "", "", err
		}
		if linked != "" {
			return linked, d, nil
		}
	}
	return "", "", nil
}

func ancestors(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			if !yield(dir) {
				return
			}
			up := filepath.Dir(dir)
			if up == dir {
				return
			}
			dir = up
		}
	}
}

func Write(dir, projectID string) error {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}
	return os.WriteFile(filepath.Join(dir, FileName), []byte(projectID+"\n"), 0644)
}

// Read returns the trimmed project id linked in dir, or "" without an error
// when dir has no link file.
func Read(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("reading project link: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Remove deletes the link file in dir. It reports whether a file existed.
func Remove(dir string) (bool, error) {
	err := os.Remove(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("removing project link: %w", err)
	}
	return true, nil
}
