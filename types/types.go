package types

const (
	// GridSize is the edge length of the sample grid every image is reduced to
	GridSize = 48

	// FingerprintLength is the number of bits in a fingerprint
	FingerprintLength = GridSize * GridSize
)

// FileHandle identifies one candidate image by its path
type FileHandle string

// Fingerprint is a FingerprintLength string over the alphabet {'0','1'}
type Fingerprint string

// FingerprintedImage pairs a file with the fingerprint computed from its pixels
type FingerprintedImage struct {
	Path        FileHandle  `json:"path"`
	Fingerprint Fingerprint `json:"fingerprint"`
}

// IndexPair addresses two registry entries, always with I < J
type IndexPair struct {
	I int
	J int
}

// SimilarityResult is emitted for every pair whose distance is below the threshold
type SimilarityResult struct {
	A        FileHandle
	B        FileHandle
	Distance int
}
