// Package config loads logtower settings with layered precedence:
// defaults < user config < project config < LOGTOWER_* environment < CLI flags.
//
// The user config lives at $XDG_CONFIG_HOME/logtower/config.toml (or the
// platform equivalent); the project config is the nearest .logtower.toml
// found walking up from the working directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyCacheDir       = "cache.dir"
	KeyCacheTTL       = "cache.ttl"
	KeyCacheDisabled  = "cache.disabled"
	KeyCacheNamespace = "cache.namespace"
	KeyRedisAddr      = "cache.redis.addr"
	KeyRedisPassword  = "cache.redis.password"
	KeyRedisDB        = "cache.redis.db"

	KeyFocusMaxLookback   = "focus.max-lookback"
	KeyFocusMaxLayoutJump = "focus.max-layout-jump"

	KeyViewMode        = "view.mode"
	KeyViewMinFragment = "view.min-fragment"

	KeyServerAddr       = "server.addr"
	KeyServerSessionTTL = "server.session-ttl"

	KeyGitBinary   = "git.binary"
	KeyGitMaxCount = "git.max-count"
)

const (
	// DefaultServerAddr is where `logtower serve` listens by default.
	DefaultServerAddr = "127.0.0.1:8080"

	envPrefix         = "LOGTOWER"
	projectConfigName = ".logtower.toml"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst  *viper.Viper
	loadedFiles []string
	initErr     error
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
// Only the first call has an effect.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt fetches an integer configuration value, initializing on demand.
func GetInt(key string) int {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set updates a configuration key at runtime, initializing on demand.
func Set(key string, value any) error {
	return ApplyOverrides(map[string]any{key: value})
}

// ConfigFiles returns the config files that were merged, user first.
func ConfigFiles() []string {
	if _, err := getViper(); err != nil {
		return nil
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return loadedFiles
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var loaded []string
	for _, f := range []struct{ kind, path string }{
		{"user", userConfigPath},
		{"project", projectConfigPath},
	} {
		ok, err := mergeConfigFile(v, f.path)
		if err != nil {
			return fmt.Errorf("load %s config: %w", f.kind, err)
		}
		if ok {
			loaded = append(loaded, f.path)
		}
	}
	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	loadedFiles = loaded
	return nil
}

// mergeConfigFile merges path into v and reports whether it had content.
// A missing file is not an error.
func mergeConfigFile(v *viper.Viper, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}
	return filepath.Join(dir, "logtower", "config.toml"), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, projectConfigName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyCacheTTL, 7*24*time.Hour)
	v.SetDefault(KeyCacheDisabled, false)
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyCacheNamespace, "")
	v.SetDefault(KeyFocusMaxLookback, 50)
	v.SetDefault(KeyFocusMaxLayoutJump, 10)
	v.SetDefault(KeyViewMode, "collapsed")
	v.SetDefault(KeyViewMinFragment, 3)
	v.SetDefault(KeyServerAddr, DefaultServerAddr)
	v.SetDefault(KeyServerSessionTTL, 30*time.Minute)
	v.SetDefault(KeyGitBinary, "git")
	v.SetDefault(KeyGitMaxCount, 0)
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	loadedFiles = nil
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting clears package state for tests in other packages and
// initializes from an empty temporary directory. Returns a cleanup function
// that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithWorkingDir(tmp), WithUserConfig(filepath.Join(tmp, "none.toml")))
	return reset
}
