package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drift.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1500, cfg.Scene.InstanceCount)
	assert.Equal(t, float32(0.01), cfg.Scene.TimeStep)
	assert.Equal(t, 1366, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
}

func TestLoadOverridesAndFillsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[scene]
instance_count = 32
seed = 7

[window]
title = "bench"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Scene.InstanceCount)
	assert.Equal(t, int64(7), cfg.Scene.Seed)
	assert.Equal(t, "bench", cfg.Window.Title)
	// unset fields fall back to the demo defaults
	assert.Equal(t, float32(0.01), cfg.Scene.TimeStep)
	assert.Equal(t, float32(-1.0), cfg.Scene.VelocityMin)
	assert.Equal(t, 1366, cfg.Window.Width)
	assert.Equal(t, "positions.bin", cfg.Verify.OutputPath)
}

func TestLoadVelocityRangeKeptWhenSet(t *testing.T) {
	path := writeConfigFile(t, `
[scene]
velocity_min = -0.5
velocity_max = 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(-0.5), cfg.Scene.VelocityMin)
	assert.Equal(t, float32(0.5), cfg.Scene.VelocityMax)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, `
[scene]
velocity_min = 2.0
velocity_max = 1.0
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfigFile(t, `[scene`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
