// Package opencv provides an ImageLoader backed by OpenCV. It decodes with
// imread, shrinks with area interpolation and converts BGR to gray, so its
// grids match what OpenCV-based average hash tools produce.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"runtime/debug"

	"imagedupes/imageprocessor"
	"imagedupes/logging"

	"gocv.io/x/gocv"
)

// Loader implements imageprocessor.ImageLoader with gocv
type Loader struct {
	DebugMode bool
}

// NewLoader creates an OpenCV-backed loader
func NewLoader(debugMode bool) *Loader {
	return &Loader{DebugMode: debugMode}
}

// CanLoad checks the extension against the formats OpenCV reads
func (l *Loader) CanLoad(path string) bool {
	if imageprocessor.IsRawFormat(path) {
		return false
	}
	return imageprocessor.IsImageFile(path)
}

// LoadGray reads the file in color, resizes it to size×size with
// INTER_AREA and converts it to an 8-bit gray grid
func (l *Loader) LoadGray(path string, size int) (gray *image.Gray, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogError("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, debug.Stack())
			gray, err = nil, imageprocessor.NewDecodeError(path, fmt.Errorf("panic during image loading: %v", r))
		}
	}()

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, imageprocessor.NewDecodeError(path, statErr)
	}
	if info.Size() == 0 {
		return nil, imageprocessor.NewDecodeError(path, errors.New("file is empty"))
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, imageprocessor.NewDecodeError(path, errors.New("opencv could not decode file"))
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: size, Y: size}, 0, 0, gocv.InterpolationArea)

	grayMat := gocv.NewMat()
	defer grayMat.Close()
	if resized.Channels() != 1 {
		gocv.CvtColor(resized, &grayMat, gocv.ColorBGRToGray)
	} else {
		resized.CopyTo(&grayMat)
	}

	if grayMat.Rows() != size || grayMat.Cols() != size {
		return nil, imageprocessor.NewDecodeError(path,
			fmt.Errorf("resize produced %dx%d grid", grayMat.Cols(), grayMat.Rows()))
	}

	gray = image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			gray.SetGray(x, y, color.Gray{Y: grayMat.GetUCharAt(y, x)})
		}
	}

	if l.DebugMode {
		logging.DebugLog("Loaded %s with OpenCV (%dx%d)", path, img.Cols(), img.Rows())
	}

	return gray, nil
}
