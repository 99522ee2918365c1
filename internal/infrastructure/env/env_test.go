package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvService_LoadsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PILOT_TEST_A=base\nPILOT_TEST_B=base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("PILOT_TEST_B=override\n"), 0o600))

	t.Setenv("APP_ENV", "test")
	t.Setenv("PILOT_TEST_A", "")
	t.Setenv("PILOT_TEST_B", "")
	os.Unsetenv("PILOT_TEST_A")
	os.Unsetenv("PILOT_TEST_B")

	e := newEnvService(dir)

	assert.Equal(t, "test", e.AppEnv())
	assert.Len(t, e.Loaded(), 2)
	assert.Equal(t, "base", e.Get("PILOT_TEST_A"))
	assert.Equal(t, "override", e.Get("PILOT_TEST_B"))
}

func TestNewEnvService_MissingFiles(t *testing.T) {
	t.Setenv("APP_ENV", "")
	e := newEnvService(t.TempDir())
	assert.Equal(t, "dev", e.AppEnv())
	assert.Empty(t, e.Loaded())
}

func TestEnvService_GetWithDefault(t *testing.T) {
	e := &EnvService{}
	t.Setenv("PILOT_TEST_SET", "value")

	assert.Equal(t, "value", e.GetWithDefault("PILOT_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", e.GetWithDefault("PILOT_TEST_MISSING", "fallback"))
}
