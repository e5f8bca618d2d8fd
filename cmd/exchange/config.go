package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/entanglab/bb92/bb92"
)

// fileConfig maps exchange.toml keys onto run settings.
type fileConfig struct {
	Pairs     int     `toml:"pairs"`
	KeyLength int     `toml:"key_length"`
	TestBits  int     `toml:"test_bits"`
	ErrProb   float64 `toml:"err_prob"`
	Seed      int64   `toml:"seed"`
}

// runConfig is the resolved configuration for one exchange run.
type runConfig struct {
	Pairs     int
	KeyLength int
	TestBits  int
	ErrProb   float64
	Seed      int64
}

func defaultConfig() runConfig {
	return runConfig{
		Pairs:     bb92.DefaultNumPairs,
		KeyLength: bb92.DefaultKeyLength,
		Seed:      42,
	}
}

// loadConfig overlays the TOML file at path onto base, touching only keys
// the file defines, then validates the result.
func loadConfig(path string, base runConfig) (runConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, errors.Wrapf(err, "loading config %s", path)
	}
	if meta.IsDefined("pairs") {
		base.Pairs = raw.Pairs
	}
	if meta.IsDefined("key_length") {
		base.KeyLength = raw.KeyLength
	}
	if meta.IsDefined("test_bits") {
		base.TestBits = raw.TestBits
	}
	if meta.IsDefined("err_prob") {
		base.ErrProb = raw.ErrProb
	}
	if meta.IsDefined("seed") {
		base.Seed = raw.Seed
	}
	if err := validateConfig(base); err != nil {
		return runConfig{}, err
	}
	return base, nil
}

func validateConfig(cfg runConfig) error {
	if cfg.Pairs <= 0 {
		return errors.Errorf("pairs must be positive, got %d", cfg.Pairs)
	}
	if cfg.KeyLength <= 0 {
		return errors.Errorf("key_length must be positive, got %d", cfg.KeyLength)
	}
	if cfg.TestBits < 0 {
		return errors.Errorf("test_bits must not be negative, got %d", cfg.TestBits)
	}
	if cfg.ErrProb < 0 || cfg.ErrProb > 1 {
		return errors.Errorf("err_prob must be in [0, 1], got %g", cfg.ErrProb)
	}
	return nil
}
