package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 10.0, cfg.Width)
	assert.Empty(t, cfg.Crops.Source)
	assert.False(t, cfg.Crops.Watch)
	assert.Equal(t, uint64(1), cfg.Crops.Random.Seed)
	assert.Equal(t, 0.15, cfg.Crops.Random.Density)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
width: 24
crops:
  source: /data/fields
  watch: true
  random:
    seed: 42
    density: 0.4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 24.0, cfg.Width)
	assert.Equal(t, "/data/fields", cfg.Crops.Source)
	assert.True(t, cfg.Crops.Watch)
	assert.Equal(t, uint64(42), cfg.Crops.Random.Seed)
	assert.Equal(t, 0.4, cfg.Crops.Random.Density)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "width: 6\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Width)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 0.15, cfg.Crops.Random.Density)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero width", "width: 0\n"},
		{"negative width", "width: -3\n"},
		{"empty listen", `listen: ""` + "\n"},
		{"density above one", "crops:\n  random:\n    density: 1.5\n"},
		{"negative density", "crops:\n  random:\n    density: -0.1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
