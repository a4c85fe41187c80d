// Package config loads codag configuration from TOML files.
//
// Every field has a working default, so a missing file or an empty file is
// valid configuration. The CLI looks for codag.toml in the working
// directory unless --config points elsewhere; flags override file values.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/michaelzixizhou/codag/pkg/errors"
	"github.com/michaelzixizhou/codag/pkg/pipeline"
)

// DefaultFilename is the config file the CLI looks for when --config is
// unset.
const DefaultFilename = "codag.toml"

// Config is the full configuration tree.
type Config struct {
	Detect  DetectConfig  `toml:"detect"`
	Measure MeasureConfig `toml:"measure"`
	Layout  LayoutConfig  `toml:"layout"`
	Pack    PackConfig    `toml:"pack"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
}

// DetectConfig tunes workflow detection.
type DetectConfig struct {
	// PivotType seeds the fallback walk when a snapshot carries no
	// workflow annotations.
	PivotType string `toml:"pivot_type"`

	// MergeThreshold is the minimum number of cross-workflow edges that
	// merges two annotated workflows into one rendered group.
	MergeThreshold int `toml:"merge_threshold"`
}

// MeasureConfig tunes node text measurement.
type MeasureConfig struct {
	FontSize float64 `toml:"font_size"`
	MaxWidth float64 `toml:"max_width"`
}

// LayoutConfig tunes the solver.
type LayoutConfig struct {
	NodeSep float64 `toml:"node_sep"`
	RankSep float64 `toml:"rank_sep"`
}

// PackConfig tunes canvas packing.
type PackConfig struct {
	Margin float64 `toml:"margin"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none". Empty means "file".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means the user cache dir.
	Dir string `toml:"dir"`

	// RedisURL is the redis backend's connection URL.
	RedisURL string `toml:"redis_url"`

	// Scope prefixes all cache keys, isolating projects that share a
	// backend.
	Scope string `toml:"scope"`
}

// StoreConfig selects the layout store used by serve mode.
type StoreConfig struct {
	// MongoURL enables the Mongo layout store when set.
	MongoURL string `toml:"mongo_url"`

	// Database defaults to "codag".
	Database string `toml:"database"`
}

// ServerConfig tunes serve mode.
type ServerConfig struct {
	// Addr is the listen address, default ":8972".
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: "file"},
		Store:  StoreConfig{Database: "codag"},
		Server: ServerConfig{Addr: ":8972"},
	}
}

// Load reads path over the defaults. A missing file is not an error when
// path is empty or names the default file.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires redis_url")
	}
	if c.Detect.MergeThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "detect.merge_threshold must be >= 0")
	}
	return nil
}

// PipelineOptions converts the config into pipeline options. Zero values
// stay zero; the pipeline applies its own defaults.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		PivotType:      c.Detect.PivotType,
		MergeThreshold: c.Detect.MergeThreshold,
		FontSize:       c.Measure.FontSize,
		MaxWidth:       c.Measure.MaxWidth,
		NodeSep:        c.Layout.NodeSep,
		RankSep:        c.Layout.RankSep,
		Margin:         c.Pack.Margin,
	}
}
