// Package config resolves the echopost configuration directory and loads
// config.yaml and env files from it.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "echopost"

// Dir returns the echopost configuration directory.
//
// Resolution:
//   - $ECHOPOST_CONFIG_HOME if set
//   - $XDG_CONFIG_HOME/echopost if set, on any platform
//   - %AppData%/echopost on Windows
//   - ~/.config/echopost otherwise
func Dir() string {
	if dir := os.Getenv("ECHOPOST_CONFIG_HOME"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// Path returns the default config.yaml location.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
