package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"input": "mesh.obj",
		"output": "out/fixed.obj",
		"marker": "#IND",
		"workers": 4,
		"max_cycles": 100,
		"task_timeout": "30s",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "mesh.obj", cfg.Input)
	assert.Equal(t, "out/fixed.obj", cfg.Output)
	assert.Equal(t, "#IND", cfg.Marker)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 100, cfg.MaxCycles)
	assert.Equal(t, Duration(30*time.Second), cfg.TaskTimeout)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
input: mesh.obj
report: report.json
initial_threshold: 0.3
threshold_step: 0.1
max_threshold: 2.5
task_timeout: 1m
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "mesh.obj", cfg.Input)
	assert.Equal(t, "report.json", cfg.Report)
	assert.Equal(t, 0.3, cfg.InitialThreshold)
	assert.Equal(t, 0.1, cfg.ThresholdStep)
	assert.Equal(t, 2.5, cfg.MaxThreshold)
	assert.Equal(t, Duration(time.Minute), cfg.TaskTimeout)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("task_timeout: soon\n"), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	input := filepath.Join(t.TempDir(), "mesh.obj")
	require.NoError(t, os.WriteFile(input, []byte("v 0 0 0\n"), 0644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config", cfg: Config{}},
		{name: "valid", cfg: Config{Input: input, Output: "out.obj", Workers: 2, MaxCycles: 10}},
		{name: "negative workers", cfg: Config{Workers: -1}, wantErr: "'Workers' failed 'gte'"},
		{name: "negative step", cfg: Config{ThresholdStep: -0.05}, wantErr: "'ThresholdStep'"},
		{name: "negative cycles", cfg: Config{MaxCycles: -3}, wantErr: "'MaxCycles'"},
		{name: "bad database url", cfg: Config{DatabaseURL: "not a url"}, wantErr: "'DatabaseURL'"},
		{name: "negative timeout", cfg: Config{TaskTimeout: Duration(-time.Second)}, wantErr: "task_timeout"},
		{name: "cap below start", cfg: Config{InitialThreshold: 0.5, MaxThreshold: 0.3}, wantErr: "max_threshold"},
		{name: "output equals input", cfg: Config{Input: input, Output: input}, wantErr: "must differ"},
		{name: "missing input", cfg: Config{Input: "/nonexistent/mesh.obj"}, wantErr: "input file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Input: "flag.obj", Workers: 8}
	defaults := Config{
		Input:       "file.obj",
		Output:      "file-out.obj",
		Marker:      "#IND",
		Workers:     2,
		MaxCycles:   50,
		TaskTimeout: Duration(time.Second),
	}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "flag.obj", merged.Input, "explicit value wins")
	assert.Equal(t, 8, merged.Workers, "explicit value wins")
	assert.Equal(t, "file-out.obj", merged.Output)
	assert.Equal(t, "#IND", merged.Marker)
	assert.Equal(t, 50, merged.MaxCycles)
	assert.Equal(t, Duration(time.Second), merged.TaskTimeout)
}

func TestWithBuiltinDefaults(t *testing.T) {
	cfg := Config{Marker: "#IND"}
	merged := cfg.WithBuiltinDefaults()

	assert.Equal(t, "#IND", merged.Marker)
	assert.Equal(t, DefaultOutput, merged.Output)
	assert.Equal(t, DefaultInitialThreshold, merged.InitialThreshold)
	assert.Equal(t, DefaultThresholdStep, merged.ThresholdStep)
	assert.Zero(t, merged.MaxCycles, "relaxation stays unbounded by default")
	assert.Zero(t, merged.MaxThreshold)
}

func TestWithBuiltinDefaults_OutputNextToInput(t *testing.T) {
	cfg := Config{Input: filepath.Join("scans", "mesh.obj")}
	merged := cfg.WithBuiltinDefaults()
	assert.Equal(t, filepath.Join("scans", DefaultOutput), merged.Output)

	cfg = Config{Input: filepath.Join("scans", "mesh.obj"), Output: "elsewhere.obj"}
	merged = cfg.WithBuiltinDefaults()
	assert.Equal(t, "elsewhere.obj", merged.Output, "explicit output wins")
}
