package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Setenv(EnvSource, "")
	assert.Equal(t, "0", String(EnvSource, "0"))

	t.Setenv(EnvSource, "/dev/video2")
	assert.Equal(t, "/dev/video2", String(EnvSource, "0"))
}

func TestInt(t *testing.T) {
	t.Setenv(EnvWebPort, "")
	assert.Equal(t, 8080, Int(EnvWebPort, 8080))

	t.Setenv(EnvWebPort, "9090")
	assert.Equal(t, 9090, Int(EnvWebPort, 8080))

	t.Setenv(EnvWebPort, "nope")
	assert.Equal(t, 8080, Int(EnvWebPort, 8080))
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	})

	t.Run("loads without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("SPOTTER_LOG_LEVEL=debug\nSPOTTER_OUTPUT_DIR=/tmp/from-file\n"), 0o644))

		t.Setenv(EnvOutputDir, "/tmp/from-env")
		t.Setenv(EnvLogLevel, "")
		os.Unsetenv(EnvLogLevel)

		require.NoError(t, LoadDotEnv(path))
		t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

		assert.Equal(t, "debug", os.Getenv(EnvLogLevel))
		assert.Equal(t, "/tmp/from-env", os.Getenv(EnvOutputDir))
	})
}
