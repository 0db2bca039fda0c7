// Package imageprocessor decodes image files into grayscale grids and
// computes their average hash fingerprints.
package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"os"
)

// ErrDecodeFailure matches every error a loader returns when a file cannot be
// turned into pixels
var ErrDecodeFailure = errors.New("decode failure")

// ImageLoader turns a file into a size×size grayscale grid
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadGray decodes the file, resizes it to size×size and reduces it to
	// a single intensity channel
	LoadGray(path string, size int) (*image.Gray, error)
}

// DecodeError reports a file that could not be decoded
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecodeFailure) hold for every DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecodeFailure }

// NewDecodeError wraps err as a decode failure for path
func NewDecodeError(path string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Path: path, Err: err}
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}
	return false
}

// checkReadable rejects missing and zero-byte files before a decoder sees them
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return NewDecodeError(path, err)
	}
	if !info.Mode().IsRegular() {
		return NewDecodeError(path, errors.New("not a regular file"))
	}
	if info.Size() == 0 {
		return NewDecodeError(path, errors.New("file is empty"))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
