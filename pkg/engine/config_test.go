package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niik/frequency-counters/pkg/engine"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  engine.Config
		wantErr bool
	}{
		{"default", engine.DefaultConfig(), false},
		{"minimal", engine.Config{DurationSeconds: 1, PrecisionSeconds: 1, MaxKeys: 1}, false},
		{"zero_duration", engine.Config{DurationSeconds: 0, PrecisionSeconds: 1, MaxKeys: 1}, true},
		{"zero_precision", engine.Config{DurationSeconds: 1, PrecisionSeconds: 0, MaxKeys: 1}, true},
		{"zero_max_keys", engine.Config{DurationSeconds: 1, PrecisionSeconds: 1, MaxKeys: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
duration_seconds: 300
precision_seconds: 5
max_keys: 50000
`)

	cfg, err := engine.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(300), cfg.DurationSeconds)
	assert.Equal(t, int64(5), cfg.PrecisionSeconds)
	assert.Equal(t, 50_000, cfg.MaxKeys)
}

func TestLoadConfig_PartialFileFallsBackToDefaults(t *testing.T) {
	path := writeConfigFile(t, "duration_seconds: 120\n")

	cfg, err := engine.LoadConfig(path)
	require.NoError(t, err)

	def := engine.DefaultConfig()
	assert.Equal(t, int64(120), cfg.DurationSeconds)
	assert.Equal(t, def.PrecisionSeconds, cfg.PrecisionSeconds)
	assert.Equal(t, def.MaxKeys, cfg.MaxKeys)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := engine.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "duration_seconds: [not a number\n")

	_, err := engine.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, "duration_seconds: -1\n")

	_, err := engine.LoadConfig(path)
	assert.Error(t, err)
}
