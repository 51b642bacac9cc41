package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	config := NewConfig()

	assert.Equal(t, DefaultParallelThreshold, config.ParallelThreshold)
	assert.Equal(t, 0, config.WorkerPoolSize)
	assert.Equal(t, 0, config.ChunkSize)
	assert.Equal(t, DefaultMaxParallelism, config.MaxParallelism)
	assert.False(t, config.VerboseLogging)
	assert.False(t, config.MetricsCollection)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero parallel threshold", func(c *Config) { c.ParallelThreshold = 0 }, true},
		{"negative worker pool", func(c *Config) { c.WorkerPoolSize = -1 }, true},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }, true},
		{"zero max parallelism", func(c *Config) { c.MaxParallelism = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig()
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	config := Config{VerboseLogging: true}
	filled := config.WithDefaults()

	assert.Equal(t, DefaultParallelThreshold, filled.ParallelThreshold)
	assert.Equal(t, DefaultMaxParallelism, filled.MaxParallelism)
	assert.True(t, filled.VerboseLogging)
	assert.Equal(t, 0, filled.WorkerPoolSize)
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)

	custom := NewConfig()
	custom.ParallelThreshold = 99
	SetGlobalConfig(custom)

	assert.Equal(t, 99, GetGlobalConfig().ParallelThreshold)
}

func TestLoadFromJSON(t *testing.T) {
	data := []byte(`{"parallel_threshold": 8, "worker_pool_size": 4, "verbose_logging": true}`)

	config, err := LoadFromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 8, config.ParallelThreshold)
	assert.Equal(t, 4, config.WorkerPoolSize)
	assert.True(t, config.VerboseLogging)
	assert.Equal(t, DefaultMaxParallelism, config.MaxParallelism)
}

func TestLoadFromJSONInvalid(t *testing.T) {
	_, err := LoadFromJSON([]byte(`{broken`))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		content := "parallel_threshold: 32\nchunk_size: 8\nmetrics_collection: true\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 32, config.ParallelThreshold)
		assert.Equal(t, 8, config.ChunkSize)
		assert.True(t, config.MetricsCollection)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"max_parallelism": 2}`), 0o600))

		config, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, config.MaxParallelism)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATAMASK_PARALLEL_THRESHOLD", "5")
	t.Setenv("DATAMASK_WORKER_POOL_SIZE", "3")
	t.Setenv("DATAMASK_VERBOSE_LOGGING", "true")
	t.Setenv("DATAMASK_METRICS_COLLECTION", "1")

	config := LoadFromEnv()

	assert.Equal(t, 5, config.ParallelThreshold)
	assert.Equal(t, 3, config.WorkerPoolSize)
	assert.True(t, config.VerboseLogging)
	assert.True(t, config.MetricsCollection)
}

func TestLoadFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("DATAMASK_PARALLEL_THRESHOLD", "not-a-number")

	config := LoadFromEnv()
	assert.Equal(t, DefaultParallelThreshold, config.ParallelThreshold)
}

func TestValidatorAutoDetectsWorkers(t *testing.T) {
	v := NewValidator()

	validated, warnings, err := v.Validate(NewConfig())
	require.NoError(t, err)

	assert.Positive(t, validated.WorkerPoolSize)
	assert.NotEmpty(t, warnings)
}

func TestTunerOptimizeForWorkload(t *testing.T) {
	base := NewConfig()
	tuner := NewTuner(&base)

	t.Run("few partitions disable parallel", func(t *testing.T) {
		tuned := tuner.OptimizeForWorkload(2, 1000)
		assert.Greater(t, tuned.ParallelThreshold, 2)
	})

	t.Run("large data lowers threshold", func(t *testing.T) {
		tuned := tuner.OptimizeForWorkload(100, 2000000)
		assert.Equal(t, 4, tuned.ParallelThreshold)
	})

	t.Run("small partitions get large chunks", func(t *testing.T) {
		tuned := tuner.OptimizeForWorkload(1000, 10000)
		assert.Equal(t, 64, tuned.ChunkSize)
	})
}
