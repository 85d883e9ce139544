package audio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupOldFiles removes converter-owned files in the temp directory that
// are older than maxAge and returns how many were removed.
func (c *Converter) CleanupOldFiles(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.cfg.TempDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(c.cfg.TempDir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
