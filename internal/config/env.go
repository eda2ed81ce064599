package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFiles returns the env files read at startup, highest priority first.
func EnvFiles(dir string) []string {
	files := []string{".env.local", ".env"}
	if dir != "" {
		files = append(files, filepath.Join(dir, "env"))
	}
	return files
}

// LoadEnv loads each file that exists. Variables already in the
// environment, or set by an earlier file, are kept.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", f, err)
		}
	}
	return nil
}
