package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QFACTOR_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 8, cfg.MaxAttempts)
	assert.Equal(t, 5, cfg.OrderRetries)
	assert.Equal(t, 26, cfg.MaxQubits)
	assert.Zero(t, cfg.Seed)
	assert.Equal(t, 90, cfg.RetentionDays)
	assert.False(t, cfg.Backup.Enabled)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("QFACTOR_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("QFACTOR_MAX_ATTEMPTS", "3")
	t.Setenv("QFACTOR_ORDER_RETRIES", "10")
	t.Setenv("QFACTOR_MAX_QUBITS", "20")
	t.Setenv("QFACTOR_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10, cfg.OrderRetries)
	assert.Equal(t, 20, cfg.MaxQubits)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port too high", "PORT", "70000"},
		{"zero attempts", "QFACTOR_MAX_ATTEMPTS", "0"},
		{"zero retries", "QFACTOR_ORDER_RETRIES", "0"},
		{"qubits too low", "QFACTOR_MAX_QUBITS", "4"},
		{"qubits too high", "QFACTOR_MAX_QUBITS", "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QFACTOR_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestBackupRequiresBucket(t *testing.T) {
	t.Setenv("QFACTOR_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_ENABLED", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "BACKUP_BUCKET")
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QFACTOR_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.DataDir, "runs.db"), cfg.DatabasePath())
}

func TestMalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("QFACTOR_DATA_DIR", t.TempDir())
	t.Setenv("QFACTOR_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("QFACTOR_SEED", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxAttempts)
	assert.Zero(t, cfg.Seed)
}
