// Package defaults provides the embedded default configuration and the
// platform directories pageverify keeps its files in.
//
// Platform paths follow the XDG base directory spec:
//
//	config: $XDG_CONFIG_HOME/pageverify/  (~/.config/pageverify on Linux)
//	data:   $XDG_DATA_HOME/pageverify/    (~/.local/share/pageverify on Linux)
//
// Override with PAGEVERIFY_CONFIG_DIR and PAGEVERIFY_DATA_DIR.
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// AppName names the per-user directories.
const AppName = "pageverify"

// ConfigFile is the user config file name inside ConfigDir.
const ConfigFile = "config.yaml"

//go:embed dotpageverify/*
var defaultFiles embed.FS

// ConfigDir returns the directory holding the user config file.
func ConfigDir() string {
	if dir := os.Getenv("PAGEVERIFY_CONFIG_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the directory holding the run history database.
func DataDir() string {
	if dir := os.Getenv("PAGEVERIFY_DATA_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, AppName)
}

// UserConfigPath returns the path of the user config file, which may not exist.
func UserConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFile)
}

// EnsureConfigDir creates the config directory if it doesn't exist
// and copies default files if they're missing.
func EnsureConfigDir() (string, error) {
	dir := ConfigDir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := copyDefaults(dir, false); err != nil {
		return "", err
	}

	return dir, nil
}

// Reset replaces the config files in dir with the embedded defaults.
func Reset(dir string) error {
	return copyDefaults(dir, true)
}

// copyDefaults copies embedded default files to dir.
// If overwrite is true, existing files are replaced.
func copyDefaults(dir string, overwrite bool) error {
	return fs.WalkDir(defaultFiles, "dotpageverify", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "dotpageverify" {
			return nil
		}

		// embed.FS always uses forward slashes
		relPath := strings.TrimPrefix(path, "dotpageverify/")
		destPath := filepath.Join(dir, relPath)

		if d.IsDir() {
			return os.MkdirAll(destPath, 0755)
		}

		if !overwrite {
			if _, err := os.Stat(destPath); err == nil {
				return nil
			}
		}

		data, err := defaultFiles.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", path, err)
		}

		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destPath, err)
		}

		return nil
	})
}

// GetDefault returns the content of a default file by name.
// Example: GetDefault("config.yaml")
func GetDefault(name string) ([]byte, error) {
	return defaultFiles.ReadFile("dotpageverify/" + name)
}

// DefaultConfig returns the embedded default config.yaml.
func DefaultConfig() []byte {
	data, err := GetDefault(ConfigFile)
	if err != nil {
		// The file is embedded at build time
		panic(fmt.Sprintf("embedded %s missing: %v", ConfigFile, err))
	}
	return data
}

// ListDefaults returns the names of all default files.
func ListDefaults() ([]string, error) {
	var files []string
	err := fs.WalkDir(defaultFiles, "dotpageverify", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && path != "dotpageverify" {
			files = append(files, strings.TrimPrefix(path, "dotpageverify/"))
		}
		return nil
	})
	return files, err
}
