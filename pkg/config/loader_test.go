package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/config"
)

type backendConfig struct {
	URL     string        `env:"LOADER_TEST_URL,required"`
	Timeout time.Duration `env:"LOADER_TEST_TIMEOUT" envDefault:"5s"`
	Tags    []string      `env:"LOADER_TEST_TAGS" envSeparator:","`
}

type prefixedConfig struct {
	URL string `env:"URL"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("LOADER_TEST_URL", "redis://localhost:6379/0")
	t.Setenv("LOADER_TEST_TIMEOUT", "250ms")
	t.Setenv("LOADER_TEST_TAGS", "a,b")

	var cfg backendConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "redis://localhost:6379/0", cfg.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("LOADER_TEST_URL", "x")

	var cfg backendConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Tags)
}

func TestLoad_ReflectsEnvironmentChanges(t *testing.T) {
	t.Setenv("LOADER_TEST_URL", "first")
	var first backendConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("LOADER_TEST_URL", "second")
	var second backendConfig
	require.NoError(t, config.Load(&second))

	assert.Equal(t, "first", first.URL)
	assert.Equal(t, "second", second.URL)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("LOADER_TEST_URL", "")
	require.NoError(t, os.Unsetenv("LOADER_TEST_URL"))

	var cfg backendConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[backendConfig](nil), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	t.Setenv("LOADER_TEST_URL", "")
	require.NoError(t, os.Unsetenv("LOADER_TEST_URL"))

	assert.Panics(t, func() {
		var cfg backendConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadPrefixed(t *testing.T) {
	t.Setenv("CACHE_URL", "redis://cache")
	t.Setenv("DURABLE_URL", "redis://durable")

	var cache, durable prefixedConfig
	require.NoError(t, config.LoadPrefixed(&cache, "CACHE_"))
	require.NoError(t, config.LoadPrefixed(&durable, "DURABLE_"))

	assert.Equal(t, "redis://cache", cache.URL)
	assert.Equal(t, "redis://durable", durable.URL)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("LOADER_TEST_FILE_ONLY=from-file\nLOADER_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("LOADER_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("LOADER_TEST_FILE_ONLY") })

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "from-file", os.Getenv("LOADER_TEST_FILE_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("LOADER_TEST_PRESET"))
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}
