package imageprocessor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"imagedupes/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestResizeGray(t *testing.T) {
	gray := ResizeGray(gradientImage(300, 200, 0), types.GridSize)
	assert.Equal(t, image.Rect(0, 0, types.GridSize, types.GridSize), gray.Bounds())

	// Left edge is dark, right edge is bright.
	assert.Less(t, gray.GrayAt(0, 10).Y, gray.GrayAt(types.GridSize-1, 10).Y)
}

func TestResizeGrayUsesLuma(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 0, 255, 0, 255
	}

	gray := ResizeGray(src, 2)
	want := color.GrayModel.Convert(color.RGBA{G: 255, A: 255}).(color.Gray)
	assert.Equal(t, want, gray.GrayAt(0, 0))
}

func TestStandardImageLoaderFormats(t *testing.T) {
	dir := t.TempDir()
	src := gradientImage(96, 96, 4)

	pngPath := writePNG(t, filepath.Join(dir, "a.png"), src)

	bmpPath := filepath.Join(dir, "a.bmp")
	f, err := os.Create(bmpPath)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, src))
	require.NoError(t, f.Close())

	tiffPath := filepath.Join(dir, "a.tiff")
	f, err = os.Create(tiffPath)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, src, nil))
	require.NoError(t, f.Close())

	// Content is sniffed, so the extension does not matter.
	noExtPath := filepath.Join(dir, "a-copy")
	data, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(noExtPath, data, 0644))

	loader := NewStandardImageLoader()
	h := NewHasher(loader)
	reference, err := h.Fingerprint(types.FileHandle(pngPath))
	require.NoError(t, err)

	for _, path := range []string{bmpPath, tiffPath, noExtPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			gray, err := loader.LoadGray(path, types.GridSize)
			require.NoError(t, err)
			assert.Equal(t, types.GridSize, gray.Bounds().Dy())

			// Lossless formats carry the same pixels as the PNG.
			fp, err := h.Fingerprint(types.FileHandle(path))
			require.NoError(t, err)
			assert.Equal(t, reference, fp)
		})
	}
}

func TestStandardImageLoaderCanLoad(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, filepath.Join(dir, "a.png"), gradientImage(8, 8, 0))

	loader := NewStandardImageLoader()
	assert.True(t, loader.CanLoad(path))
	assert.False(t, loader.CanLoad(filepath.Join(dir, "missing.png")))
	assert.False(t, loader.CanLoad(filepath.Join(dir, "notes.txt")))
}

func TestStandardImageLoaderRejectsDirectory(t *testing.T) {
	_, err := NewStandardImageLoader().LoadGray(t.TempDir(), types.GridSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecodeFailure))
}

// pngChunk encodes one PNG chunk with its CRC
func pngChunk(chunkType string, data []byte) []byte {
	out := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], chunkType)
	out = append(out, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

// oversizedPNG returns a small file whose header claims width×height RGBA
func oversizedPNG(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	buf.Write(pngChunk("IHDR", ihdr))
	buf.Write(pngChunk("IDAT", make([]byte, 1000)))
	buf.Write(pngChunk("IEND", nil))
	return buf.Bytes()
}

func TestDecodeImageRejectsOversizedHeader(t *testing.T) {
	data := oversizedPNG(200000, 200000)

	_, err := DecodeImage(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")

	path := filepath.Join(t.TempDir(), "bomb.png")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = NewHasher(nil).Fingerprint(types.FileHandle(path))
	assert.ErrorIs(t, err, ErrDecodeFailure)
}

func TestDecodeImageRewindsAfterHeaderCheck(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradientImage(30, 20, 1)))

	img, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
}
