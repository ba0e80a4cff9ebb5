// Package config provides runtime configuration values for the machine.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the knobs of a machine session.
type Config struct {
	MachineName string
	Verbose     bool
	CatalogFile string
	LogLevel    string
	MetricsFile string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		MachineName: getenv("MACHINE_NAME", "Default"),
		Verbose:     boolenv("MACHINE_VERBOSE", false),
		CatalogFile: getenv("CATALOG_FILE", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		MetricsFile: getenv("METRICS_FILE", ""),
	}
}

// LoadWithDotEnv seeds the environment from dotenv files before Load.
// Variables already set win over the files; missing files are skipped.
func LoadWithDotEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return Load(), nil
}
