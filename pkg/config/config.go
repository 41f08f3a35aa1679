// Package config loads the optional repository-level settings file. A
// malformed file or a wrong-shaped entry never fails the run; it degrades to
// defaults with a warning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// Filename is the settings file looked up at the repository root.
const Filename = "promptpack.toml"

// Config holds the recognized repository-level settings.
type Config struct {
	// IgnorePaths lists glob patterns excluded from change-detection
	// results, from the [ignore] table's paths key.
	IgnorePaths []string
}

// Load reads Filename from root. Every failure mode short of a successful
// parse yields a usable zero Config.
func Load(root string, logger *zap.Logger) Config {
	path := filepath.Join(root, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to read repository config", zap.String("file", path), zap.Error(err))
		}
		return Config{}
	}

	var table map[string]toml.Primitive
	md, err := toml.Decode(string(data), &table)
	if err != nil {
		logger.Warn("Failed to parse repository config", zap.String("file", path), zap.Error(err))
		return Config{}
	}

	ignorePrim, ok := table["ignore"]
	if !ok {
		return Config{}
	}
	var ignore map[string]toml.Primitive
	if err := md.PrimitiveDecode(ignorePrim, &ignore); err != nil {
		logger.Warn("Config section must be a table", zap.String("file", path), zap.String("section", "ignore"))
		return Config{}
	}
	pathsPrim, ok := ignore["paths"]
	if !ok {
		return Config{}
	}
	return Config{IgnorePaths: stringList(md, pathsPrim, "ignore.paths", logger)}
}

// stringList coerces a value into a list of strings: a single string becomes
// a one-element list, and non-string entries inside a list are dropped with
// a warning.
func stringList(md toml.MetaData, prim toml.Primitive, key string, logger *zap.Logger) []string {
	var list []string
	if err := md.PrimitiveDecode(prim, &list); err == nil {
		return list
	}
	var single string
	if err := md.PrimitiveDecode(prim, &single); err == nil {
		return []string{single}
	}
	var items []toml.Primitive
	if err := md.PrimitiveDecode(prim, &items); err == nil {
		var out []string
		for i, item := range items {
			var s string
			if err := md.PrimitiveDecode(item, &s); err != nil {
				logger.Warn("Ignoring non-string config entry",
					zap.String("key", fmt.Sprintf("%s[%d]", key, i)))
				continue
			}
			out = append(out, s)
		}
		return out
	}
	logger.Warn("Config value must be a string or list of strings", zap.String("key", key))
	return nil
}
