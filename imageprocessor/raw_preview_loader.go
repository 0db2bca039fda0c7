package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	"imagedupes/logging"

	"github.com/barasher/go-exiftool"
)

// Embedded previews tried in order, largest first
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

const base64Prefix = "base64:"

// RawPreviewLoader fingerprints camera RAW files through the JPEG preview
// the camera embedded in them, read with a long-lived exiftool process.
type RawPreviewLoader struct {
	BaseImageLoader
	fallback ImageLoader

	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewRawPreviewLoader starts exiftool. Files without a usable preview are
// handed to fallback.
func NewRawPreviewLoader(fallback ImageLoader) (*RawPreviewLoader, error) {
	et, err := exiftool.NewExiftool(exiftool.ExtractAllBinaryMetadata())
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}

	return &RawPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatRAW,
				FormatCR2,
				FormatCR3,
				FormatNEF,
				FormatARW,
				FormatDNG,
			},
		},
		fallback: fallback,
		et:       et,
	}, nil
}

// LoadGray decodes the embedded preview and reduces it to a size×size grid
func (l *RawPreviewLoader) LoadGray(path string, size int) (*image.Gray, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	preview, err := l.extractPreview(path)
	if err != nil {
		logging.LogInfo("No RAW preview for %s (%v), using fallback loader", path, err)
		if l.fallback == nil {
			return nil, NewDecodeError(path, err)
		}
		return l.fallback.LoadGray(path, size)
	}

	img, err := DecodeImage(bytes.NewReader(preview))
	if err != nil {
		return nil, NewDecodeError(path, fmt.Errorf("embedded preview: %w", err))
	}

	logging.DebugLog("Loaded RAW preview for %s", path)
	return ResizeGray(img, size), nil
}

// extractPreview returns the bytes of the first embedded preview found
func (l *RawPreviewLoader) extractPreview(path string) ([]byte, error) {
	l.mu.Lock()
	fileInfos := l.et.ExtractMetadata(path)
	l.mu.Unlock()

	if len(fileInfos) == 0 {
		return nil, errors.New("no metadata extracted")
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fileInfo.Err
	}

	for _, tag := range previewTags {
		value, err := fileInfo.GetString(tag)
		if err != nil || !strings.HasPrefix(value, base64Prefix) {
			continue
		}

		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, base64Prefix))
		if err != nil || len(data) == 0 {
			continue
		}
		return data, nil
	}

	return nil, errors.New("no embedded preview image")
}

// Close stops the exiftool process
func (l *RawPreviewLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.et.Close()
}

// checkExiftoolCommandAvailable checks if the exiftool binary is on PATH
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
