package imageprocessor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	"imagedupes/logging"
)

var (
	jpegStart = []byte{0xFF, 0xD8, 0xFF}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// maxPreviewSize bounds a single embedded JPEG
const maxPreviewSize = 20 * 1024 * 1024

// CR3PreviewLoader reads the JPEG previews embedded in Canon CR3 files
// without external tools. CR3 is an ISO base media file; the previews live
// in uuid boxes (PRVW, THMB) and the largest one that decodes is used.
type CR3PreviewLoader struct {
	BaseImageLoader
}

// NewCR3PreviewLoader creates a pure Go CR3 preview loader
func NewCR3PreviewLoader() *CR3PreviewLoader {
	return &CR3PreviewLoader{
		BaseImageLoader: BaseImageLoader{SupportedFormats: []FormatType{FormatCR3}},
	}
}

// LoadGray decodes the largest embedded preview into a size×size grid
func (l *CR3PreviewLoader) LoadGray(path string, size int) (*image.Gray, error) {
	if err := checkReadable(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDecodeError(path, err)
	}

	img, err := decodeCR3Preview(data)
	if err != nil {
		return nil, NewDecodeError(path, err)
	}

	logging.DebugLog("Decoded %dx%d CR3 preview from %s", img.Bounds().Dx(), img.Bounds().Dy(), path)
	return ResizeGray(img, size), nil
}

// isoBox is one ISO base media file format box within a byte slice
type isoBox struct {
	Type  string
	Start int // first payload byte
	End   int // one past the last payload byte
}

// readISOBox parses the box header at offset
func readISOBox(data []byte, offset int) (isoBox, error) {
	if offset+8 > len(data) {
		return isoBox{}, errors.New("truncated box header")
	}

	size := uint64(binary.BigEndian.Uint32(data[offset:]))
	box := isoBox{Type: string(data[offset+4 : offset+8]), Start: offset + 8}

	switch size {
	case 0:
		// extends to the end of the file
		size = uint64(len(data) - offset)
	case 1:
		if offset+16 > len(data) {
			return isoBox{}, errors.New("truncated extended box header")
		}
		size = binary.BigEndian.Uint64(data[offset+8:])
		box.Start = offset + 16
	}

	if size < uint64(box.Start-offset) || size > uint64(len(data)-offset) {
		return isoBox{}, fmt.Errorf("box %q has invalid size %d", box.Type, size)
	}
	box.End = offset + int(size)
	return box, nil
}

// decodeCR3Preview finds the embedded previews and decodes the largest
func decodeCR3Preview(data []byte) (image.Image, error) {
	first, err := readISOBox(data, 0)
	if err != nil {
		return nil, err
	}
	if first.Type != "ftyp" {
		return nil, errors.New("not a CR3 file (first box is not ftyp)")
	}

	var candidates [][]byte
	for offset := first.End; offset < len(data); {
		box, err := readISOBox(data, offset)
		if err != nil {
			logging.DebugLog("Stopping CR3 box walk at offset %d: %v", offset, err)
			break
		}
		if box.Type == "uuid" || box.Type == "moov" {
			candidates = append(candidates, findJPEGs(data[box.Start:box.End])...)
		}
		offset = box.End
	}

	// Fall back to scanning the whole file when the box layout is unfamiliar.
	if len(candidates) == 0 {
		candidates = findJPEGs(data)
	}

	var best image.Image
	bestArea := 0
	for _, candidate := range candidates {
		img, err := DecodeImage(bytes.NewReader(candidate))
		if err != nil {
			continue
		}
		if area := img.Bounds().Dx() * img.Bounds().Dy(); area > bestArea {
			best, bestArea = img, area
		}
	}

	if best == nil {
		return nil, errors.New("no decodable JPEG preview found in CR3 file")
	}
	return best, nil
}

// findJPEGs returns every SOI..EOI span in data
func findJPEGs(data []byte) [][]byte {
	var out [][]byte
	for pos := 0; pos < len(data); {
		start := bytes.Index(data[pos:], jpegStart)
		if start < 0 {
			break
		}
		start += pos

		end := bytes.Index(data[start+len(jpegStart):], jpegEnd)
		if end < 0 {
			break
		}
		end += start + len(jpegStart) + len(jpegEnd)

		if end-start <= maxPreviewSize {
			out = append(out, data[start:end])
		}
		pos = end
	}
	return out
}
