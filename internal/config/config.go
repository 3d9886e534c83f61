// Package config wraps the viper singleton that merges config.yaml,
// INSHALLAH_* environment variables and built-in defaults.
//
// Precedence: Set() > env > config file > default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Recognized keys.
const (
	KeyJSON             = "json"
	KeyActor            = "actor"
	KeyBackendCLI       = "backend.cli"
	KeyBackendModel     = "backend.model"
	KeyBackendReasoning = "backend.reasoning"
	KeyRunMaxSteps      = "run.max-steps"
	KeyRunReview        = "run.review"
	KeyTelemetry        = "telemetry.enabled"
)

// Initialize loads <stateDir>/config.yaml when present and binds the
// INSHALLAH_ environment prefix. Safe to call when the file is missing.
func Initialize(stateDir string) error {
	nv := viper.New()
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")
	if stateDir != "" {
		nv.AddConfigPath(stateDir)
	}
	nv.SetEnvPrefix("INSHALLAH")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.AutomaticEnv()

	nv.SetDefault(KeyActor, "orchestrator")
	nv.SetDefault(KeyRunMaxSteps, 50)
	nv.SetDefault(KeyRunReview, false)
	nv.SetDefault(KeyTelemetry, false)

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("config: %w", err)
		}
	}
	v = nv
	return nil
}

// GetString returns a string value, "" when uninitialized.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a bool value, false when uninitialized.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt returns an int value, 0 when uninitialized.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// Set writes an in-memory override, the highest precedence tier.
func Set(key string, value any) {
	if v == nil {
		v = viper.New()
	}
	v.Set(key, value)
}

// Reset clears the singleton. Tests use this for isolation.
func Reset() {
	v = nil
}

// ConfigFilePath returns the path Initialize would read for a state dir.
func ConfigFilePath(stateDir string) string {
	return filepath.Join(stateDir, "config.yaml")
}

