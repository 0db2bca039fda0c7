package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"imagedupes/logging"
	"imagedupes/types"
)

// ErrInvalidFolder is returned when the root is missing or not a directory
var ErrInvalidFolder = errors.New("invalid folder")

// EnumerateFiles walks root recursively and returns every regular file in
// lexical walk order. Symlinks are followed when they point at regular
// files. When accept is non-nil, files it rejects are skipped. Entries that
// cannot be read are logged and skipped.
func EnumerateFiles(root string, accept func(path string) bool) ([]types.FileHandle, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot access %s: %w", ErrInvalidFolder, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidFolder, root)
	}

	var files []types.FileHandle
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.LogWarning("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegularFile(path, d) {
			return nil
		}
		if accept != nil && !accept(path) {
			return nil
		}

		files = append(files, types.FileHandle(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}

	return files, nil
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	return err == nil && target.Mode().IsRegular()
}
