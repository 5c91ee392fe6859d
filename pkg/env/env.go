package env

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads the given .env files (".env" when none are named) into the
// process environment without overriding variables that are already set.
// It reports whether any file was loaded.
func LoadEnv(files ...string) bool {
	if len(files) == 0 {
		files = []string{".env"}
	}

	loaded := false
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			loaded = true
		}
	}
	return loaded
}

func GetEnv(key string, fallback string) string {
	if value, exist := os.LookupEnv(key); exist {
		return value
	}
	return fallback
}
