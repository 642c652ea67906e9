package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/charmbracelet/log"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// ErrUnsupportedFormat is returned for files whose extension no backend handles.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// ReloadFunc receives the outcome of a hot reload. m is nil when err is set or when the
// file was removed.
type ReloadFunc func(key string, m model.Model, err error)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]model.Model

	// sources maps an absolute file path to the cache key it was loaded under.
	sources map[string]string

	backend loaderBackend
	logger  *log.Logger
}

// Loader defines the public-facing interface for loading and caching skinned models.
// It abstracts the file format (glTF, GLB) behind a backend and manages a cache of
// previously loaded models.
type Loader interface {
	// Load imports a model file and caches the result under its cleaned path.
	// If the model is already cached, the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (model.Model, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Evict drops a model from the cache. Animators already built from it keep working.
	//
	// Parameters:
	//   - name: the cache key to drop
	//
	// Returns:
	//   - bool: true if the model was cached
	Evict(name string) bool

	// Watch reloads file-loaded models when they change inside dir, until ctx is done.
	// A write or create re-imports the file and reports the new model; a remove evicts it.
	// Watch returns once the watcher is running.
	//
	// Parameters:
	//   - ctx: stops the watcher when cancelled
	//   - dir: the directory to watch
	//   - onReload: called from the watcher goroutine for every reload, may be nil
	//
	// Returns:
	//   - error: error if the watcher cannot be started
	Watch(ctx context.Context, dir string, onReload ReloadFunc) error
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		modelCache: make(map[string]model.Model),
		sources:    make(map[string]string),
	}

	for _, option := range options {
		option(l)
	}
	if l.logger == nil {
		l.logger = core.Logger()
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.logger)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	key := filepath.Clean(path)

	l.mu.RLock()
	if cached, ok := l.modelCache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	m, err := l.importFile(key)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(key)
	if err != nil {
		abs = key
	}

	l.mu.Lock()
	l.modelCache[key] = m
	l.sources[abs] = key
	l.mu.Unlock()

	l.logger.Info("model loaded", "path", key, "bones", m.Registry().Len(), "animations", m.AnimationCount())
	return m, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	imported, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	if imported.Name == "unnamed_model" {
		imported.Name = name
	}
	m := model.NewModelFromImported(imported)

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()

	return m, nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.modelCache[name]; !ok {
		return false
	}
	delete(l.modelCache, name)
	for abs, key := range l.sources {
		if key == name {
			delete(l.sources, abs)
		}
	}
	return true
}

// importFile runs the backend for path and wraps the result as a Model.
func (l *loader) importFile(path string) (model.Model, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	imported, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return model.NewModelFromImported(imported), nil
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
