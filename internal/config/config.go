package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the process-level settings read from the environment.
type Config struct {
	Addr          string
	DBPath        string
	MigrationsDir string
	ReportDir     string
	LogFormat     string
}

// Load reads a .env file if one exists, then resolves all settings with
// their defaults. Missing files are not an error; explicit environment
// variables always win over .env contents.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:          env("GRADEBOARD_ADDR", ":8080"),
		DBPath:        env("GRADEBOARD_DB", "gradeboard.db"),
		MigrationsDir: env("GRADEBOARD_MIGRATIONS_DIR", ""),
		ReportDir:     env("GRADEBOARD_REPORT_DIR", os.TempDir()),
		LogFormat:     env("GRADEBOARD_LOG_FORMAT", "text"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
