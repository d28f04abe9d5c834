package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for gistsync
	EnvConfigDir = "GISTSYNC_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for gistsync
	EnvStateDir = "GISTSYNC_STATE_DIR"

	// EnvDataDir overrides the XDG data directory for gistsync
	EnvDataDir = "GISTSYNC_DATA_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files. These define gistsync's internal layout
// and are not user-configurable; user-facing locations live in pkg/config.
const (
	// AppDirName is the directory name used under each XDG base directory
	AppDirName = "gistsync"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// WatermarkFileName holds the last reconciled remote revision
	WatermarkFileName = "watermark.toml"

	// LockFileName guards against overlapping invocations
	LockFileName = "gistsync.lock"

	// BackupsDir is the data subdirectory for conflict and symlink backups
	BackupsDir = "backups"
)

// Paths provides centralized path management for gistsync
type Paths struct {
	configDir string
	stateDir  string
	dataDir   string
}

// New creates a Paths instance, honouring the GISTSYNC_* overrides first and
// the XDG base directories second.
func New() *Paths {
	p := &Paths{}

	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.configDir = ExpandHome(dir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if dir := os.Getenv(EnvDataDir); dir != "" {
		p.dataDir = ExpandHome(dir)
	} else {
		p.dataDir = filepath.Join(xdg.DataHome, AppDirName)
	}

	// XDG_STATE_HOME is read directly so tests can redirect it per case
	if dir := os.Getenv(EnvStateDir); dir != "" {
		p.stateDir = ExpandHome(dir)
	} else if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		p.stateDir = filepath.Join(stateHome, AppDirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.stateDir = filepath.Join(homeDir, ".local", "state", AppDirName)
	}

	return p
}

// ConfigDir returns the gistsync config directory
func (p *Paths) ConfigDir() string { return p.configDir }

// StateDir returns the gistsync state directory
func (p *Paths) StateDir() string { return p.stateDir }

// DataDir returns the gistsync data directory
func (p *Paths) DataDir() string { return p.dataDir }

// ConfigFile returns the default user configuration file path
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.configDir, ConfigFileName)
}

// WatermarkFile returns the path of the persisted watermark
func (p *Paths) WatermarkFile() string {
	return filepath.Join(p.stateDir, WatermarkFileName)
}

// LockFile returns the path of the invocation lock
func (p *Paths) LockFile() string {
	return filepath.Join(p.stateDir, LockFileName)
}

// BackupDir returns the default backup directory
func (p *Paths) BackupDir() string {
	return filepath.Join(p.dataDir, BackupsDir)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	// Only ~/ is expanded; ~user forms are left alone
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
