package imageprocessor

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imagedupes/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGrid(v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, types.GridSize, types.GridSize))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// gradientImage is brighter towards the right; phase shifts the pattern so
// different phases produce different fingerprints.
func gradientImage(w, h, phase int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*255/w + y*phase) % 256)
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))
	return path
}

func TestComputeFingerprintUniformIsAllOnes(t *testing.T) {
	for _, v := range []uint8{0, 1, 128, 255} {
		fp, err := ComputeFingerprint(uniformGrid(v))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("1", types.FingerprintLength), string(fp), "intensity %d", v)
	}
}

func TestComputeFingerprintHalves(t *testing.T) {
	g := uniformGrid(10)
	for y := types.GridSize / 2; y < types.GridSize; y++ {
		for x := 0; x < types.GridSize; x++ {
			g.SetGray(x, y, color.Gray{Y: 200})
		}
	}

	fp, err := ComputeFingerprint(g)
	require.NoError(t, err)

	half := types.FingerprintLength / 2
	assert.Equal(t, strings.Repeat("0", half), string(fp[:half]))
	assert.Equal(t, strings.Repeat("1", half), string(fp[half:]))
}

func TestComputeFingerprintRowMajor(t *testing.T) {
	g := uniformGrid(0)
	g.SetGray(5, 0, color.Gray{Y: 255}) // row 0, column 5
	g.SetGray(0, 1, color.Gray{Y: 255}) // row 1, column 0

	fp, err := ComputeFingerprint(g)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(fp), "1"))
	assert.Equal(t, byte('1'), fp[5])
	assert.Equal(t, byte('1'), fp[types.GridSize])
}

func TestComputeFingerprintMeanBoundary(t *testing.T) {
	// Mean is exactly 100: cells equal to it count as foreground.
	g := uniformGrid(100)
	g.SetGray(0, 0, color.Gray{Y: 50})
	g.SetGray(1, 0, color.Gray{Y: 150})

	fp, err := ComputeFingerprint(g)
	require.NoError(t, err)

	assert.Equal(t, byte('0'), fp[0])
	assert.Equal(t, byte('1'), fp[1])
	assert.Equal(t, types.FingerprintLength-1, strings.Count(string(fp), "1"))
}

func TestComputeFingerprintRejectsWrongSize(t *testing.T) {
	_, err := ComputeFingerprint(image.NewGray(image.Rect(0, 0, 8, 8)))
	assert.Error(t, err)

	_, err = ComputeFingerprint(nil)
	assert.Error(t, err)
}

func TestHammingDistance(t *testing.T) {
	zeros := types.Fingerprint(strings.Repeat("0", types.FingerprintLength))
	ones := types.Fingerprint(strings.Repeat("1", types.FingerprintLength))
	mixed := types.Fingerprint(strings.Repeat("01", types.FingerprintLength/2))

	tests := []struct {
		name     string
		a, b     types.Fingerprint
		expected int
	}{
		{"Identical", mixed, mixed, 0},
		{"Opposite", zeros, ones, types.FingerprintLength},
		{"Half", zeros, mixed, types.FingerprintLength / 2},
		{"Short", "1010", "1001", 2},
		{"Empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HammingDistance(tt.a, tt.b))
			assert.Equal(t, tt.expected, HammingDistance(tt.b, tt.a))
		})
	}
}

func TestHammingDistanceProperties(t *testing.T) {
	dir := t.TempDir()
	h := NewHasher(nil)

	var fps []types.Fingerprint
	for phase := 0; phase < 5; phase++ {
		path := writePNG(t, filepath.Join(dir, "img"+string(rune('a'+phase))+".png"), gradientImage(90, 70, phase*7))
		fp, err := h.Fingerprint(types.FileHandle(path))
		require.NoError(t, err)
		fps = append(fps, fp)
	}

	for _, a := range fps {
		assert.Equal(t, 0, HammingDistance(a, a))
		for _, b := range fps {
			d := HammingDistance(a, b)
			assert.Equal(t, d, HammingDistance(b, a))
			assert.GreaterOrEqual(t, d, 0)
			assert.LessOrEqual(t, d, types.FingerprintLength)
		}
	}
}

func TestHammingDistancePanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { HammingDistance("0101", "010") })
}

func TestIsValidFingerprint(t *testing.T) {
	assert.True(t, IsValidFingerprint(types.Fingerprint(strings.Repeat("10", types.FingerprintLength/2))))
	assert.False(t, IsValidFingerprint("0101"))
	assert.False(t, IsValidFingerprint(types.Fingerprint(strings.Repeat("2", types.FingerprintLength))))
}

func TestHasherFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, filepath.Join(dir, "photo.png"), gradientImage(200, 150, 3))

	h := NewHasher(nil)
	first, err := h.Fingerprint(types.FileHandle(path))
	require.NoError(t, err)
	second, err := h.Fingerprint(types.FileHandle(path))
	require.NoError(t, err)

	assert.True(t, IsValidFingerprint(first))
	assert.Equal(t, first, second)
}

func TestHasherIdenticalCopies(t *testing.T) {
	dir := t.TempDir()
	original := writePNG(t, filepath.Join(dir, "a.png"), gradientImage(120, 80, 2))

	data, err := os.ReadFile(original)
	require.NoError(t, err)
	copyPath := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(copyPath, data, 0644))

	h := NewHasher(nil)
	a, err := h.Fingerprint(types.FileHandle(original))
	require.NoError(t, err)
	b, err := h.Fingerprint(types.FileHandle(copyPath))
	require.NoError(t, err)

	assert.Equal(t, 0, HammingDistance(a, b))
}

func TestHasherDecodeFailures(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.jpg")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	corrupt := filepath.Join(dir, "corrupt.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not an image at all"), 0644))

	truncated := filepath.Join(dir, "truncated.png")
	full := writePNG(t, filepath.Join(dir, "full.png"), gradientImage(64, 64, 1))
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(truncated, data[:len(data)/3], 0644))

	missing := filepath.Join(dir, "missing.png")

	h := NewHasher(nil)
	for _, path := range []string{empty, corrupt, truncated, missing} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			fp, err := h.Fingerprint(types.FileHandle(path))
			require.Error(t, err)
			assert.Empty(t, fp)
			assert.True(t, errors.Is(err, ErrDecodeFailure))

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, path, de.Path)
		})
	}
}
