package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigDir  = ".quill"
	defaultConfigName = "config.yaml"
	localConfigName   = "quill.yaml"
	configPathEnv     = "QUILL_CONFIG_PATH"
)

// EnvLookup resolves environment variables. Tests pass a map-backed lookup.
type EnvLookup func(string) (string, bool)

// DefaultEnvLookup reads the process environment.
var DefaultEnvLookup EnvLookup = os.LookupEnv

// ResolveConfigPath returns the configuration file path and its source label.
// Priority order:
//  1. Explicit QUILL_CONFIG_PATH.
//  2. ./quill.yaml when it exists.
//  3. $HOME/.quill/config.yaml.
//
// An empty path means no file is configured.
func ResolveConfigPath(envLookup EnvLookup, homeDir func() (string, error)) (string, string) {
	if envLookup == nil {
		envLookup = DefaultEnvLookup
	}
	if value, ok := envLookup(configPathEnv); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, configPathEnv
		}
	}
	if _, err := os.Stat(localConfigName); err == nil {
		return localConfigName, "local"
	}
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	if home, err := homeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, defaultConfigDir, defaultConfigName), "default"
	}
	return "", "none"
}
