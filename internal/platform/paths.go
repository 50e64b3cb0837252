package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Paths locates the config file, board database and snapshot exports for one app name.
type Paths struct {
	ConfigPath  string
	DataDir     string
	DBPath      string
	SnapshotDir string
}

// Options selects the app name and dev-mode suffix.
type Options struct {
	AppName string
	DevMode bool
}

// defaultAppName names the app when no override is given.
const defaultAppName = "labgantt"

// DefaultPaths returns the labgantt paths for the current user.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: defaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running OS. Dev mode appends "-dev"
// to the app name so development boards never touch the real database.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataDir := configDir
	switch runtime.GOOS {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("user home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}

	env := make(map[string]string, len(baseDirEnv))
	for _, key := range baseDirEnv {
		env[key] = os.Getenv(key)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// baseDirEnv lists the environment keys PathsFor consults.
var baseDirEnv = []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"}

// PathsFor resolves paths for goos against the given environment.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := baseDirs(goos, env, userConfigDir, userDataDir)
	appDataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath:  filepath.Join(configBase, appName, "config.toml"),
		DataDir:     appDataDir,
		DBPath:      filepath.Join(appDataDir, appName+".db"),
		SnapshotDir: filepath.Join(appDataDir, "snapshots"),
	}, nil
}

// baseDirs picks the config and data roots. Only linux (XDG) and windows
// honour environment overrides; macOS and others keep the OS defaults.
func baseDirs(goos string, env map[string]string, configBase, dataBase string) (string, string) {
	var configKey, dataKey string
	switch goos {
	case "linux":
		configKey, dataKey = "XDG_CONFIG_HOME", "XDG_DATA_HOME"
	case "windows":
		configKey, dataKey = "APPDATA", "LOCALAPPDATA"
	default:
		return configBase, dataBase
	}
	if v := strings.TrimSpace(env[configKey]); v != "" {
		configBase = v
	}
	if v := strings.TrimSpace(env[dataKey]); v != "" {
		dataBase = v
	}
	return configBase, dataBase
}

// SnapshotFile returns the dated export path for a snapshot taken at now.
func (p Paths) SnapshotFile(now time.Time) string {
	return filepath.Join(p.SnapshotDir, "board-"+now.UTC().Format("20060102-150405")+".json")
}

// Environment variables that override resolved paths.
const (
	EnvConfigPath = "LABGANTT_CONFIG"
	EnvDBPath     = "LABGANTT_DB_PATH"
	EnvDevMode    = "LABGANTT_DEV_MODE"
	EnvAppName    = "LABGANTT_APP_NAME"
)

// Override applies explicit flag values, then environment values, over p.
// dbOverridden reports whether the database path came from a flag or the
// environment, so config files cannot move it.
func (p Paths) Override(configFlag, dbFlag string, getenv func(string) string) (out Paths, dbOverridden bool) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	out = p
	switch {
	case strings.TrimSpace(configFlag) != "":
		out.ConfigPath = strings.TrimSpace(configFlag)
	case strings.TrimSpace(getenv(EnvConfigPath)) != "":
		out.ConfigPath = strings.TrimSpace(getenv(EnvConfigPath))
	}
	switch {
	case strings.TrimSpace(dbFlag) != "":
		out.DBPath = strings.TrimSpace(dbFlag)
		dbOverridden = true
	case strings.TrimSpace(getenv(EnvDBPath)) != "":
		out.DBPath = strings.TrimSpace(getenv(EnvDBPath))
		dbOverridden = true
	}
	return out, dbOverridden
}
