package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads dotenv files into the process environment and returns the
// files that were actually loaded. Files that do not exist are skipped.
// Variables already present in the environment are not overridden.
func LoadEnv(files ...string) ([]string, error) {
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return loaded, fmt.Errorf("config: load env file %s: %w", file, err)
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}
