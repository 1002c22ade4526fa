package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 90, cfg.TrailingWindowDays)
	assert.Equal(t, 60, cfg.MinRequiredDataDays)
	assert.Equal(t, 60.0, cfg.DangerThresholdPct)
	assert.Equal(t, 85, cfg.CompoundingCorrelationPct)
	assert.Equal(t, 10*time.Second, cfg.PerCallTimeout)
	assert.Equal(t, 60*time.Second, cfg.OverallDeadline)
	assert.Equal(t, BackendGraph, cfg.Backend)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Engine)
	}{
		{"window too short", func(e *Engine) { e.TrailingWindowDays = 1 }},
		{"min days above window", func(e *Engine) { e.MinRequiredDataDays = 120 }},
		{"excluded ratio above one", func(e *Engine) { e.MaxExcludedValueRatio = 1.5 }},
		{"danger threshold zero", func(e *Engine) { e.DangerThresholdPct = 0 }},
		{"moderate above danger", func(e *Engine) { e.ModerateThresholdPct = 70 }},
		{"negative compounding pct", func(e *Engine) { e.CompoundingCorrelationPct = -1 }},
		{"zero per-call timeout", func(e *Engine) { e.PerCallTimeout = 0 }},
		{"deadline below per-call timeout", func(e *Engine) { e.OverallDeadline = time.Second }},
		{"unknown backend", func(e *Engine) { e.Backend = "metta" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trailing_window_days: 30\nknowledge_backend: table\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.TrailingWindowDays)
	assert.Equal(t, BackendTable, cfg.Backend)
	assert.Equal(t, 60.0, cfg.DangerThresholdPct)
	assert.Equal(t, 10*time.Second, cfg.PerCallTimeout)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("per_call_timeout: 90s\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAppValidateGuardsWriteTimeout(t *testing.T) {
	cfg := DefaultApp()
	require.NoError(t, cfg.Validate())

	cfg.HTTP.WriteTimeout = 30 * time.Second
	assert.Error(t, cfg.Validate())
}
