// Package config loads and saves the tilespace project config file: a
// JSONC document holding the enumeration engine's default parameters so
// repeated runs against the same puzzle size don't require repeating every
// flag.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/dcoats/tilespace/internal/enumerate"
	"github.com/dcoats/tilespace/pkg/fs"
)

// ErrInvalid indicates a config file could not be read (including a
// missing explicitly named file) or failed to parse. Field values are not
// range-checked here.
var ErrInvalid = errors.New("config: invalid configuration")

// FileName is the default project config file name.
const FileName = "tilespace.jsonc"

// Config holds the enumeration engine's default parameters, persisted to
// and loaded from a project config file.
type Config struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Shards          int     `json:"shards"`
	CachePerShard   int     `json:"cache_per_shard"` //nolint:tagliatelle // snake_case for config file
	UseBloom        bool    `json:"bloom,omitempty"`
	BloomFPRate     float64 `json:"bloom_fp_rate,omitempty"`  //nolint:tagliatelle
	ExpectedItems   int     `json:"expected_items,omitempty"` //nolint:tagliatelle
	WorkerBatch     int     `json:"batch"`
	PrimeCacheSizes bool    `json:"prime_cache"` //nolint:tagliatelle
}

// Default returns the built-in defaults, used as the base of the
// precedence chain before any file or CLI override is applied.
func Default() Config {
	return Config{
		Width:           3,
		Height:          3,
		Shards:          4,
		CachePerShard:   1 << 16,
		WorkerBatch:     64,
		PrimeCacheSizes: true,
	}
}

// Load reads the project config file at workDir/FileName (or at
// explicitPath if non-empty) through fsys, merging it over [Default]. A
// missing default file is not an error; a missing explicit file is.
//
// Possible errors: wraps [ErrInvalid] if the file exists but fails to
// parse as JSONC.
func Load(fsys fs.FS, workDir, explicitPath string) (Config, error) {
	cfg := Default()

	path := explicitPath
	mustExist := explicitPath != ""

	if path == "" {
		path = filepath.Join(workDir, FileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("read config %s: %w: %w", path, err, ErrInvalid)
	}

	overlay, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w: %w", path, err, ErrInvalid)
	}

	return merge(cfg, overlay), nil
}

// fileOverlay mirrors [Config] but gives the two boolean fields pointer
// type, so the merge step can tell "absent from the file" (nil, falls back
// to the default) apart from "explicitly set to false" (non-nil, always
// wins) — a plain bool can't distinguish those, so it could only ever turn
// a default on, never back off.
type fileOverlay struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Shards          int     `json:"shards"`
	CachePerShard   int     `json:"cache_per_shard"` //nolint:tagliatelle
	UseBloom        *bool   `json:"bloom,omitempty"`
	BloomFPRate     float64 `json:"bloom_fp_rate,omitempty"`  //nolint:tagliatelle
	ExpectedItems   int     `json:"expected_items,omitempty"` //nolint:tagliatelle
	WorkerBatch     int     `json:"batch"`
	PrimeCacheSizes *bool   `json:"prime_cache,omitempty"` //nolint:tagliatelle
}

func parse(data []byte) (fileOverlay, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileOverlay{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var overlay fileOverlay

	if err := json.Unmarshal(standardized, &overlay); err != nil {
		return fileOverlay{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return overlay, nil
}

// merge overlays the fields set in overlay onto base, left to right in
// field order, matching the teacher's field-by-field merge style. Unset
// fields (zero for numbers, nil for the two booleans) leave base alone.
func merge(base Config, overlay fileOverlay) Config {
	if overlay.Width != 0 {
		base.Width = overlay.Width
	}

	if overlay.Height != 0 {
		base.Height = overlay.Height
	}

	if overlay.Shards != 0 {
		base.Shards = overlay.Shards
	}

	if overlay.CachePerShard != 0 {
		base.CachePerShard = overlay.CachePerShard
	}

	if overlay.UseBloom != nil {
		base.UseBloom = *overlay.UseBloom
	}

	if overlay.BloomFPRate != 0 {
		base.BloomFPRate = overlay.BloomFPRate
	}

	if overlay.ExpectedItems != 0 {
		base.ExpectedItems = overlay.ExpectedItems
	}

	if overlay.WorkerBatch != 0 {
		base.WorkerBatch = overlay.WorkerBatch
	}

	if overlay.PrimeCacheSizes != nil {
		base.PrimeCacheSizes = *overlay.PrimeCacheSizes
	}

	return base
}

// EnumerateConfig translates the persisted config into the engine's
// [enumerate.Config].
func (c Config) EnumerateConfig() enumerate.Config {
	return enumerate.Config{
		FrontierCapacity: c.CachePerShard, // frontiers and caches share a memory budget by default
		SetShardCount:    c.Shards,
		SetCachePerShard: c.CachePerShard,
		UseBloom:         c.UseBloom,
		BloomFPRate:      c.BloomFPRate,
		ExpectedItems:    c.ExpectedItems,
		WorkerBatch:      c.WorkerBatch,
		PrimeCacheSizes:  c.PrimeCacheSizes,
	}
}

// Save writes cfg as indented JSON to workDir/FileName, atomically, through
// fsys.
//
// Possible errors: wraps [ErrInvalid] if cfg fails to marshal (never
// expected for this type); propagates the underlying atomic-rename error
// otherwise.
func Save(fsys fs.FS, workDir string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w: %w", err, ErrInvalid)
	}

	path := filepath.Join(workDir, FileName)

	writer := fs.NewAtomicWriter(fsys)
	if err := writer.Write(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}

	return nil
}
