// Package config loads the engine settings that size and tune the animation core.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultMaxBones is the length of every animator's final bone matrix array.
	// It must match the uniform array size declared by the skinning shader.
	DefaultMaxBones = 100

	// MaxBoneInfluences is the number of (bone, weight) pairs stored per vertex.
	MaxBoneInfluences = 4

	// DefaultTicksPerSecond is used for clips whose source does not declare a tick rate.
	DefaultTicksPerSecond = 25.0

	// DefaultQueueSize is the animator pool task queue depth.
	DefaultQueueSize = 256
)

var (
	ErrInvalidMaxBones       = errors.New("max_bones must be positive")
	ErrInvalidInfluences     = errors.New("max_bone_influences must equal 4")
	ErrInvalidTicksPerSecond = errors.New("default_ticks_per_second must be positive")
	ErrInvalidWorkers        = errors.New("workers must be positive")
	ErrInvalidQueueSize      = errors.New("queue_size must be positive")
)

// Config holds the engine-wide animation settings.
type Config struct {
	// MaxBones is the fixed capacity of the final bone matrix array.
	MaxBones int `toml:"max_bones"`

	// MaxBoneInfluences is the per-vertex influence count. Only 4 is supported.
	MaxBoneInfluences int `toml:"max_bone_influences"`

	// DefaultTicksPerSecond replaces a zero tick rate on imported clips.
	DefaultTicksPerSecond float32 `toml:"default_ticks_per_second"`

	// Workers is the number of goroutines the animator pool runs.
	Workers int `toml:"workers"`

	// QueueSize is the animator pool task queue depth.
	QueueSize int `toml:"queue_size"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// AssetDir is the directory models are loaded from and watched when HotReload is set.
	AssetDir string `toml:"asset_dir"`

	// HotReload enables re-importing cached models when their files change.
	HotReload bool `toml:"hot_reload"`
}

// Default returns the built-in settings.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		MaxBones:              DefaultMaxBones,
		MaxBoneInfluences:     MaxBoneInfluences,
		DefaultTicksPerSecond: DefaultTicksPerSecond,
		Workers:               max(runtime.NumCPU()-1, 1),
		QueueSize:             DefaultQueueSize,
		LogLevel:              "info",
		AssetDir:              "assets",
	}
}

// Load reads a TOML config file. Fields absent from the file keep their default values.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded and validated configuration
//   - error: error if the file cannot be read, decoded or fails validation
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML settings from r on top of the defaults. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML source
//
// Returns:
//   - Config: the decoded and validated configuration
//   - error: error if decoding or validation fails
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	def := Default()
	cfg.LogLevel = common.Coalesce(cfg.LogLevel, def.LogLevel)
	cfg.AssetDir = common.Coalesce(cfg.AssetDir, def.AssetDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
//
// Returns:
//   - error: the first invalid setting, or nil
func (c Config) Validate() error {
	switch {
	case c.MaxBones <= 0:
		return ErrInvalidMaxBones
	case c.MaxBoneInfluences != MaxBoneInfluences:
		return ErrInvalidInfluences
	case c.DefaultTicksPerSecond <= 0 || !common.IsFinite(c.DefaultTicksPerSecond):
		return ErrInvalidTicksPerSecond
	case c.Workers <= 0:
		return ErrInvalidWorkers
	case c.QueueSize <= 0:
		return ErrInvalidQueueSize
	}
	return nil
}
