// Package config loads the JSON configuration layers (user, project and
// override), merges them, and locates named entries within them.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the JSON layer file name in the config and project directories
	ConfigFileName = "opencode.json"
	// AppDirName is the project-level directory holding Markdown records
	AppDirName = ".opencode"
	// BackupSuffix is appended to a file name to form its single backup copy
	BackupSuffix = ".openchamber.backup"
	// OverrideEnvVar names the environment variable the CLI binds to the
	// override_config setting
	OverrideEnvVar = "OPENCODE_CONFIG"
)

// Scope is where a Markdown record lives
type Scope string

const (
	ScopeNone    Scope = ""
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// ParseScope converts user input into a Scope. Empty input is ScopeNone.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeNone, ScopeUser, ScopeProject:
		return Scope(s), nil
	default:
		return ScopeNone, errors.Errorf("invalid scope '%s', must be one of: user, project", s)
	}
}

// Paths holds the resolved root locations every operation works against.
// It is built once at the edge of the program and passed explicitly.
type Paths struct {
	// ConfigDir is the user-level configuration directory, e.g. ~/.config/opencode
	ConfigDir string
	// WorkDir is the project directory. Empty when no project is known.
	WorkDir string
	// OverrideFile is the override JSON layer. Empty when not configured.
	OverrideFile string
}

// DefaultPaths resolves the user config directory from the home directory.
// No override layer is configured; callers inject one through Paths or
// PathsFromViper.
func DefaultPaths(workDir string) (Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, errors.Wrap(err, "failed to get user home directory")
	}
	return Paths{
		ConfigDir: filepath.Join(homeDir, ".config", "opencode"),
		WorkDir:   workDir,
	}, nil
}

// PathsFromViper builds Paths from the config_dir, workdir and
// override_config settings, falling back to DefaultPaths.
func PathsFromViper() (Paths, error) {
	paths, err := DefaultPaths(viper.GetString("workdir"))
	if err != nil {
		return Paths{}, err
	}
	if dir := viper.GetString("config_dir"); dir != "" {
		paths.ConfigDir = dir
	}
	if override := viper.GetString("override_config"); override != "" {
		paths.OverrideFile = override
	}
	return paths.Abs()
}

// Abs returns a copy with every configured path made absolute
func (p Paths) Abs() (Paths, error) {
	abs := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		resolved, err := filepath.Abs(path)
		if err != nil {
			return "", errors.Wrapf(err, "failed to resolve path '%s'", path)
		}
		return resolved, nil
	}

	var err error
	out := p
	if out.ConfigDir, err = abs(p.ConfigDir); err != nil {
		return Paths{}, err
	}
	if out.WorkDir, err = abs(p.WorkDir); err != nil {
		return Paths{}, err
	}
	if out.OverrideFile, err = abs(p.OverrideFile); err != nil {
		return Paths{}, err
	}
	return out, nil
}

// HasWorkDir reports whether a project directory is known
func (p Paths) HasWorkDir() bool {
	return p.WorkDir != ""
}

// UserConfigFile is the user-level JSON layer
func (p Paths) UserConfigFile() string {
	return filepath.Join(p.ConfigDir, ConfigFileName)
}

// ProjectConfigFile is the project-level JSON layer, or "" without a project
func (p Paths) ProjectConfigFile() string {
	if !p.HasWorkDir() {
		return ""
	}
	return filepath.Join(p.WorkDir, ConfigFileName)
}

// UserDir is the user-level directory for Markdown records of the given
// directory name, e.g. ~/.config/opencode/agent
func (p Paths) UserDir(name string) string {
	return filepath.Join(p.ConfigDir, name)
}

// ProjectDir is the project-level directory for Markdown records, or ""
// without a project
func (p Paths) ProjectDir(name string) string {
	if !p.HasWorkDir() {
		return ""
	}
	return filepath.Join(p.WorkDir, AppDirName, name)
}

// ResolveFileReference turns the target of a {file:...} reference into an
// absolute path. Relative targets, with or without a leading "./", are rooted
// at the config directory.
func (p Paths) ResolveFileReference(target string) string {
	if rest, ok := strings.CutPrefix(target, "./"); ok {
		return filepath.Join(p.ConfigDir, rest)
	}
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(p.ConfigDir, target)
}

// BackupPath is the backup location for path
func BackupPath(path string) string {
	return filepath.Join(filepath.Dir(path), filepath.Base(path)+BackupSuffix)
}
