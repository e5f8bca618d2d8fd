package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entanglab/bb92/bb92"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exchange.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigOverlaysDefinedKeysOnly(t *testing.T) {
	path := writeConfig(t, "pairs = 64\nerr_prob = 0.25\n")
	cfg, err := loadConfig(path, defaultConfig())
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Pairs)
	require.Equal(t, 0.25, cfg.ErrProb)
	require.Equal(t, bb92.DefaultKeyLength, cfg.KeyLength)
	require.Equal(t, int64(42), cfg.Seed)
}

func TestLoadConfigFullFile(t *testing.T) {
	path := writeConfig(t, `
pairs = 200
key_length = 32
test_bits = 50
err_prob = 0.05
seed = 7
`)
	cfg, err := loadConfig(path, defaultConfig())
	require.NoError(t, err)
	require.Equal(t, runConfig{Pairs: 200, KeyLength: 32, TestBits: 50, ErrProb: 0.05, Seed: 7}, cfg)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	for _, body := range []string{
		"pairs = -1\n",
		"key_length = 0\n",
		"test_bits = -5\n",
		"err_prob = 1.5\n",
	} {
		path := writeConfig(t, body)
		_, err := loadConfig(path, defaultConfig())
		require.Error(t, err, "config %q", body)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), defaultConfig())
	require.Error(t, err)
}
