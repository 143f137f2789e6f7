// Package config loads the ambient runtime configuration (data
// directory, page size, buffer-pool frame count, optional MySQL DSN for
// bulk-load) from a TOML file, falling back to in-code defaults.
package config

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Config is the root configuration document.
type Config struct {
	Storage     StorageConfig     `toml:"storage"`
	BufferPool  BufferPoolConfig  `toml:"buffer_pool"`
	MySQL       MySQLConfig       `toml:"mysql"`
}

type StorageConfig struct {
	DataDir  string `toml:"data_dir"`
	PageSize uint32 `toml:"page_size"`
}

type BufferPoolConfig struct {
	Frames int `toml:"frames"`
}

type MySQLConfig struct {
	DSN string `toml:"dsn"`
}

// Default returns the configuration used when no TOML file is given.
func Default() *Config {
	return &Config{
		Storage:    StorageConfig{DataDir: "./data", PageSize: 4096},
		BufferPool: BufferPoolConfig{Frames: 256},
		MySQL:      MySQLConfig{DSN: ""},
	}
}

// Load reads and parses a TOML config file at path, filling in any
// field the file omits with the Default() value.
func Load(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: load %s", path)
	}
	cfg := Default()
	if err := tree.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "config: unmarshal %s", path)
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.PageSize == 0 {
		cfg.Storage.PageSize = 4096
	}
	if cfg.BufferPool.Frames == 0 {
		cfg.BufferPool.Frames = 256
	}
	return cfg, nil
}
