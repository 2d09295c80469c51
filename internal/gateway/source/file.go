package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"consolenav/internal/util/jsonutil"
)

// FileSource reads a local JSON menu document on every load.
type FileSource struct {
	path string
}

func NewFileSource(path string) (*FileSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("menu file path is required")
	}
	return &FileSource{path: path}, nil
}

func (s *FileSource) Load(_ context.Context) (any, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, err
	}
	v, err := jsonutil.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return v, nil
}
