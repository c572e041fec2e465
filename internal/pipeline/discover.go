package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiscoverSamples lists the immediate sub-directories of the input root in
// lexicographic order, so that re-running a batch visits samples in the same
// order and partial-failure reports are reproducible.
func DiscoverSamples(inputRoot string) ([]string, error) {
	entries, err := os.ReadDir(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("reading input root %s: %w", inputRoot, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(inputRoot, e.Name()))
		}
	}
	return dirs, nil
}
