package scanner

import (
	"fmt"
	"sync"
	"sync/atomic"

	"imagedupes/types"
)

// Registry is the ordered, append-only collection of fingerprinted images.
// Producers append concurrently under one mutex; after Freeze the contents
// never change and an index addresses the same image for the rest of the run.
type Registry struct {
	mu     sync.Mutex
	images []types.FingerprintedImage
	frozen atomic.Bool
}

// NewRegistry creates an empty registry with room for capacity images
func NewRegistry(capacity int) *Registry {
	return &Registry{images: make([]types.FingerprintedImage, 0, max(capacity, 0))}
}

// Append adds an image and returns its index. Appending to a frozen
// registry panics.
func (r *Registry) Append(img types.FingerprintedImage) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		panic(fmt.Sprintf("scanner: append %s to frozen registry", img.Path))
	}
	r.images = append(r.images, img)
	return len(r.images) - 1
}

// Freeze makes the registry read-only. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of images
func (r *Registry) Len() int {
	if r.frozen.Load() {
		return len(r.images)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.images)
}

// At returns the image at index i. It takes no lock and may only be called
// on a frozen registry.
func (r *Registry) At(i int) types.FingerprintedImage {
	if !r.frozen.Load() {
		panic("scanner: indexed read of registry before freeze")
	}
	return r.images[i]
}

// Images returns a copy of the registry contents in index order
func (r *Registry) Images() []types.FingerprintedImage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.FingerprintedImage, len(r.images))
	copy(out, r.images)
	return out
}
