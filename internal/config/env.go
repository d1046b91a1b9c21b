package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; every file found is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local into the process environment.
// Existing process environment variables are not overwritten.
func loadEnvFiles(dir string) error {
	for _, name := range envFiles {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
	}
	return nil
}
