package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeLoadsDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	require.NoError(t, Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "user.toml"))))

	assert.Equal(t, 50, GetInt(KeyFocusMaxLookback))
	assert.Equal(t, 10, GetInt(KeyFocusMaxLayoutJump))
	assert.Equal(t, 3, GetInt(KeyViewMinFragment))
	assert.Equal(t, "collapsed", GetString(KeyViewMode))
	assert.Equal(t, DefaultServerAddr, GetString(KeyServerAddr))
	assert.Equal(t, 30*time.Minute, GetDuration(KeyServerSessionTTL))
	assert.False(t, GetBool(KeyCacheDisabled))
	assert.Empty(t, ConfigFiles())
}

func TestProjectConfigOverridesUser(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectDir := filepath.Join(tmp, "repo")
	nested := filepath.Join(projectDir, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, filepath.Join(projectDir, projectConfigName), `
[focus]
max-lookback = 5

[view]
mode = "filter"
`)

	userCfg := filepath.Join(tmp, "user.toml")
	writeFile(t, userCfg, `
[focus]
max-lookback = 20
max-layout-jump = 4

[cache]
dir = "/user/cache"
`)

	require.NoError(t, Initialize(WithWorkingDir(nested), WithUserConfig(userCfg)))

	assert.Equal(t, 5, GetInt(KeyFocusMaxLookback), "project config wins")
	assert.Equal(t, 4, GetInt(KeyFocusMaxLayoutJump), "user config fills the rest")
	assert.Equal(t, "filter", GetString(KeyViewMode))
	assert.Equal(t, "/user/cache", GetString(KeyCacheDir))
	assert.Equal(t, []string{userCfg, filepath.Join(projectDir, projectConfigName)}, ConfigFiles())
}

func TestEnvironmentAndOverridesPrecedence(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	projectCfg := filepath.Join(tmp, "project.toml")
	writeFile(t, projectCfg, `
[server]
addr = ":9000"

[git]
max-count = 100
`)
	t.Setenv("LOGTOWER_SERVER_ADDR", ":9100")
	t.Setenv("LOGTOWER_CACHE_REDIS_ADDR", "redis:6379")

	require.NoError(t, Initialize(
		WithWorkingDir(tmp),
		WithProjectConfig(projectCfg),
		WithUserConfig(filepath.Join(tmp, "none.toml")),
	))

	assert.Equal(t, ":9100", GetString(KeyServerAddr), "env beats project config")
	assert.Equal(t, "redis:6379", GetString(KeyRedisAddr))
	assert.Equal(t, 100, GetInt(KeyGitMaxCount))

	require.NoError(t, ApplyOverrides(map[string]any{KeyServerAddr: ":9200"}))
	assert.Equal(t, ":9200", GetString(KeyServerAddr), "overrides beat env")

	require.NoError(t, Set(KeyGitMaxCount, 7))
	assert.Equal(t, 7, GetInt(KeyGitMaxCount))
}

func TestInvalidConfig(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.toml")
	writeFile(t, userCfg, "[focus\nmax-lookback = ")

	err := Initialize(WithWorkingDir(tmp), WithUserConfig(userCfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load user config")
	assert.Empty(t, GetString(KeyServerAddr))
}

func TestConfigPathIsDirectory(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(tmp, projectConfigName), 0o755))

	err := Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "none.toml")))
	assert.ErrorContains(t, err, "is a directory")
}

func TestResetForTesting(t *testing.T) {
	cleanup := ResetForTesting(t)
	defer cleanup()

	assert.Equal(t, 50, GetInt(KeyFocusMaxLookback))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
