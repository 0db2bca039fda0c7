package imageprocessor

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	// Decoders registered with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// StandardImageLoader decodes common formats in pure Go. It sniffs the
// content rather than trusting the extension, so it also serves as the
// registry's fallback for files with unknown extensions.
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadGray decodes the file and reduces it to a size×size grayscale grid
func (l *StandardImageLoader) LoadGray(path string, size int) (*image.Gray, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewDecodeError(path, err)
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, NewDecodeError(path, err)
	}

	return ResizeGray(img, size), nil
}

// maxDecodePixels caps the size a file header may claim before any pixel
// buffer is allocated
const maxDecodePixels = 1 << 28

// DecodeImage decodes any registered format from r. The header is checked
// first so a file claiming an enormous size fails instead of exhausting
// memory.
func DecodeImage(r io.ReadSeeker) (img image.Image, err error) {
	// Some decoders panic on truncated input instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return nil, fmt.Errorf("image size %dx%d exceeds limit of %d pixels", cfg.Width, cfg.Height, maxDecodePixels)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	img, _, err = image.Decode(r)
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	return img, nil
}

// ResizeGray scales src to size×size with bilinear filtering and converts
// the result to luma using the ITU-R 601 weights of color.GrayModel.
func ResizeGray(src image.Image, size int) *image.Gray {
	rect := image.Rect(0, 0, size, size)

	rgba := image.NewRGBA(rect)
	xdraw.BiLinear.Scale(rgba, rect, src, src.Bounds(), xdraw.Src, nil)

	gray := image.NewGray(rect)
	draw.Draw(gray, rect, rgba, image.Point{}, draw.Src)
	return gray
}
