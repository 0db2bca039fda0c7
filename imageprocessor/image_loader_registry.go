package imageprocessor

import (
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"imagedupes/logging"
)

// ImageLoaderRegistry picks a loader per file extension
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	closers       []io.Closer
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a registry whose fallback is defaultLoader.
// A nil defaultLoader selects the pure Go StandardImageLoader. RAW formats
// are routed through exiftool previews when exiftool is installed; without
// it CR3 previews are still read natively.
func NewImageLoaderRegistry(defaultLoader ImageLoader) *ImageLoaderRegistry {
	if defaultLoader == nil {
		defaultLoader = NewStandardImageLoader()
	}

	registry := &ImageLoaderRegistry{
		loaders:       make(map[string]ImageLoader),
		defaultLoader: defaultLoader,
	}

	registry.registerSpecializedLoaders()

	return registry
}

// registerSpecializedLoaders registers loaders for specialized formats
func (r *ImageLoaderRegistry) registerSpecializedLoaders() {
	if !checkExiftoolCommandAvailable() {
		logging.LogInfo("exiftool not found, using the built-in CR3 preview reader")
		r.RegisterLoader(".cr3", NewCR3PreviewLoader())
		return
	}

	rawLoader, err := NewRawPreviewLoader(r.defaultLoader)
	if err != nil {
		logging.LogWarning("RAW preview loader unavailable: %v", err)
		return
	}

	for _, ext := range RawExtensions() {
		r.RegisterLoader(ext, rawLoader)
	}
	r.closers = append(r.closers, rawLoader)
	logging.LogInfo("Registered exiftool RAW preview loader")
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// CanLoad reports whether the file has an extension any loader claims
func (r *ImageLoaderRegistry) CanLoad(path string) bool {
	if IsImageFile(path) {
		return true
	}
	return r.GetLoader(path).CanLoad(path)
}

// LoadGray loads the file with the loader registered for its extension
func (r *ImageLoaderRegistry) LoadGray(path string, size int) (*image.Gray, error) {
	gray, err := r.GetLoader(path).LoadGray(path, size)
	if err != nil {
		return nil, NewDecodeError(path, err)
	}
	return gray, nil
}

// Close releases helper processes started by specialized loaders
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
