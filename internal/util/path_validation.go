package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ValidateOutputDir checks that dir can serve as a subscription's output
// root and returns its cleaned form. The path must be absolute and free of
// ".." components. An existing path must be a writable directory; a missing
// one must sit below a directory that exists.
func ValidateOutputDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.New("directory cannot be empty")
	}
	for _, part := range strings.FieldsFunc(dir, isSeparator) {
		if part == ".." {
			return "", errors.New("directory contains invalid directory traversal")
		}
	}
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("directory must be an absolute path: %s", dir)
	}
	clean := filepath.Clean(dir)

	info, err := os.Stat(clean)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("path exists but is not a directory: %s", clean)
		}
		if err := checkWritePermission(clean); err != nil {
			return "", fmt.Errorf("no write permission for directory: %w", err)
		}
		return clean, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := checkAncestor(clean); err != nil {
			return "", err
		}
		return clean, nil
	default:
		return "", fmt.Errorf("cannot access path: %w", err)
	}
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// checkWritePermission checks if we have write permission to a directory
func checkWritePermission(dirPath string) error {
	f, err := os.CreateTemp(dirPath, ".xtreamsync_write_check")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// checkAncestor walks up to the nearest existing ancestor, which must be a
// directory. The missing part is created by the first sync.
func checkAncestor(path string) error {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("parent path exists but is not a directory: %s", dir)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
		if parent := filepath.Dir(dir); parent == dir {
			return nil
		}
	}
}
