package processor

import (
	"fmt"
	"runtime/debug"

	"imagedupes/imageprocessor"
	"imagedupes/logging"
	"imagedupes/types"
)

// ImageProcessor is an adapter that simplifies interactions between the scanner
// and the imageprocessor package
type ImageProcessor struct {
	DebugMode bool
	hasher    *imageprocessor.Hasher
}

// NewImageProcessor creates a new ImageProcessor; a nil loader selects the
// pure Go loader
func NewImageProcessor(loader imageprocessor.ImageLoader, debugMode bool) *ImageProcessor {
	if loader == nil {
		loader = imageprocessor.NewStandardImageLoader()
	}
	return &ImageProcessor{
		DebugMode: debugMode,
		hasher:    imageprocessor.NewHasher(loader),
	}
}

// ProcessImage fingerprints one file. A panic inside a decoder is turned
// into a decode failure for that file so the rest of the chunk continues.
func (p *ImageProcessor) ProcessImage(path types.FileHandle) (fp types.Fingerprint, err error) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := debug.Stack()
			logging.LogError("Panic during image loading: %v, file: %s", r, path)
			logging.DebugLog("Stack trace for %s: %s", path, stackTrace)
			fp = ""
			err = imageprocessor.NewDecodeError(string(path), fmt.Errorf("panic during image loading: %v", r))
		}
	}()

	fp, err = p.hasher.Fingerprint(path)
	if err != nil {
		return "", err
	}

	if p.DebugMode {
		format := "standard"
		if imageprocessor.IsRawFormat(string(path)) {
			format = "RAW"
		}
		logging.DebugLog("Fingerprinted %s image: %s", format, path)
	}

	return fp, nil
}
