package imageprocessor

import (
	"fmt"
	"image"
	"strings"

	"imagedupes/types"
)

// ComputeFingerprint computes the average hash of a GridSize×GridSize
// grayscale grid. Cells are read in row-major order; a cell whose intensity
// is greater than or equal to the mean becomes '1', every other cell '0'.
// A uniform image therefore hashes to all ones.
func ComputeFingerprint(gray *image.Gray) (types.Fingerprint, error) {
	if gray == nil {
		return "", fmt.Errorf("cannot compute fingerprint for nil image")
	}

	bounds := gray.Bounds()
	if bounds.Dx() != types.GridSize || bounds.Dy() != types.GridSize {
		return "", fmt.Errorf("cannot compute fingerprint for %dx%d grid, want %dx%d",
			bounds.Dx(), bounds.Dy(), types.GridSize, types.GridSize)
	}

	var sum uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += uint64(gray.GrayAt(x, y).Y)
		}
	}
	mean := float64(sum) / float64(types.FingerprintLength)

	var sb strings.Builder
	sb.Grow(types.FingerprintLength)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if float64(gray.GrayAt(x, y).Y) >= mean {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}

	return types.Fingerprint(sb.String()), nil
}

// HammingDistance counts the positions at which a and b differ. Fingerprints
// of different lengths come from different algorithms and cannot be
// compared; passing them is a programming error and panics.
func HammingDistance(a, b types.Fingerprint) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("imageprocessor: hamming distance of fingerprints with lengths %d and %d", len(a), len(b)))
	}

	count := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			count++
		}
	}
	return count
}

// IsValidFingerprint reports whether fp has the expected length and alphabet
func IsValidFingerprint(fp types.Fingerprint) bool {
	if len(fp) != types.FingerprintLength {
		return false
	}
	for i := 0; i < len(fp); i++ {
		if fp[i] != '0' && fp[i] != '1' {
			return false
		}
	}
	return true
}

// Hasher fingerprints files through an ImageLoader
type Hasher struct {
	Loader ImageLoader
}

// NewHasher creates a Hasher; a nil loader selects the pure Go loader
func NewHasher(loader ImageLoader) *Hasher {
	if loader == nil {
		loader = NewStandardImageLoader()
	}
	return &Hasher{Loader: loader}
}

// Fingerprint loads the file and computes its fingerprint. Errors from the
// loader satisfy errors.Is(err, ErrDecodeFailure).
func (h *Hasher) Fingerprint(path types.FileHandle) (types.Fingerprint, error) {
	gray, err := h.Loader.LoadGray(string(path), types.GridSize)
	if err != nil {
		return "", NewDecodeError(string(path), err)
	}

	fp, err := ComputeFingerprint(gray)
	if err != nil {
		return "", fmt.Errorf("cannot compute fingerprint for %s: %w", path, err)
	}
	return fp, nil
}
