package audio

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// filePrefix marks files the converter owns; the janitor only touches these.
const filePrefix = "stt-"

// scratch tracks the temp paths created by one call.
//
//	s := newScratch(dir)
//	defer s.release()
type scratch struct {
	dir   string
	paths []string
}

func newScratch(dir string) *scratch {
	return &scratch{dir: dir}
}

// path reserves a unique path with the given extension.
func (s *scratch) path(ext string) string {
	p := filepath.Join(s.dir, filePrefix+uuid.NewString()+"."+ext)
	s.paths = append(s.paths, p)
	return p
}

// write stages data under a fresh path.
func (s *scratch) write(data []byte, ext string) (string, error) {
	p := s.path(ext)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", err
	}
	return p, nil
}

// release removes every reserved path. Missing files are ignored.
func (s *scratch) release() {
	for _, p := range s.paths {
		_ = os.Remove(p)
	}
	s.paths = nil
}
