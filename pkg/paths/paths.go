package paths

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user's config directory for agentops.
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".agentops-config"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".config", "agentops"))
}

// GetConfigFile returns the default location of the YAML config file.
func GetConfigFile() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetDataDir returns the user's data directory for agentops (collector
// databases, logs).
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".agentops"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".agentops"))
}
