// Package config reads service configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/error-T-T/mathmistake/internal/ollama"
)

// Config holds everything the process needs to start.
type Config struct {
	Port          int
	DataPath      string
	OllamaBaseURL string
	OllamaModel   string
}

// Load builds a Config from environment variables, falling back to
// defaults for unset values.
func Load() Config {
	return Config{
		Port:          envInt("MATHMISTAKE_PORT", 8000),
		DataPath:      envStr("MATHMISTAKE_DATA", "data/mistakes.csv"),
		OllamaBaseURL: envStr("OLLAMA_BASE_URL", ollama.DefaultBaseURL),
		OllamaModel:   envStr("OLLAMA_MODEL", ollama.DefaultModel),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
