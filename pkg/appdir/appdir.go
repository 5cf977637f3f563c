// Package appdir locates the per-user directory holding the run and log
// databases.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvOverride, when set, replaces the default ~/.forkcheck location.
const EnvOverride = "FORKCHECK_HOME"

// AppDir returns the application directory without creating it.
func AppDir() (string, error) {
	if dir := os.Getenv(EnvOverride); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("appdir: %w", err)
	}
	return filepath.Join(home, ".forkcheck"), nil
}

// Path returns name inside the application directory, creating the
// directory if needed. Absolute names are returned unchanged.
func Path(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("appdir: %w", err)
	}
	return filepath.Join(dir, name), nil
}
