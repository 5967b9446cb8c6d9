//go:build windows

package store

import (
	"os"
	"path/filepath"
)

// defaultDataDir returns the default data directory for Windows.
// Returns %APPDATA%\<appName>\
func defaultDataDir(appName string) (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appData, appName), nil
}
