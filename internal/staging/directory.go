package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileResult is the per-file outcome of a stage pass over a staging directory.
type FileResult struct {
	Path    string
	Output  string
	Skipped bool
	Err     string
}

// DirStats aggregates FileResults.
type DirStats struct {
	Scanned   uint32
	Succeeded uint32
	Skipped   uint32
	Failed    uint32
}

// Add counts r into the stats.
func (s *DirStats) Add(r FileResult) {
	s.Scanned++
	switch {
	case r.Err != "":
		s.Failed++
	case r.Skipped:
		s.Skipped++
	default:
		s.Succeeded++
	}
}

// ListFiles returns the regular, non-hidden files directly inside root in
// natural order: numeric stems ascending first, then the rest by name.
// A missing root is an error.
func ListFiles(root string) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("staging directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		// flat layout: never descend
		if d.IsDir() {
			return filepath.SkipDir
		}
		if IsHidden(path) || !d.Type().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	SortNatural(files)
	return files, nil
}

// SortNatural orders paths so that "2.txt" sorts before "10.txt".
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := filepath.Base(paths[i]), filepath.Base(paths[j])
		na, aok := numericStem(a)
		nb, bok := numericStem(b)
		switch {
		case aok && bok:
			if na != nb {
				return na < nb
			}
			return a < b
		case aok != bok:
			return aok
		default:
			return a < b
		}
	})
}

func numericStem(name string) (int64, bool) {
	n, err := strconv.ParseInt(Stem(name), 10, 64)
	return n, err == nil
}

// Stem returns the file name up to its first dot: "12.tar.gz" -> "12".
func Stem(path string) string {
	stem, _, _ := strings.Cut(filepath.Base(path), ".")
	return stem
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
