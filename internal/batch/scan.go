package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/labreport-signatures/constants"
)

// DirStats counts what a directory scan saw.
type DirStats struct {
	Scanned int
	Matched int
	Failed  int
}

// Scan walks root and returns the lab report files under it in lexical order.
// With no exts only PDFs match. Hidden files and directories are skipped when skipHidden is set.
func Scan(root string, exts []string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root directory is required")
	}

	allowed := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			allowed[e] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		allowed["pdf"] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if _, ok := allowed[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
