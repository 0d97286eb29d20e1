package env

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default returns fallback when name is unset or empty, so `KEY=` lines in a
// dotenv file keep the default.
func Default(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != `` {
		return v
	}
	return fallback
}

// Int returns fallback when name is unset or not an integer.
func Int(name string, fallback int) int {
	v := Default(name, ``)
	if v == `` {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf(`env: %s=%q is not an integer, using %d`, name, v, fallback)
		return fallback
	}
	return i
}

// Duration parses values like `30s`; bad values fall back.
func Duration(name string, fallback time.Duration) time.Duration {
	v := Default(name, ``)
	if v == `` {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf(`env: %s=%q is not a duration, using %s`, name, v, fallback)
		return fallback
	}
	return d
}

// Load seeds the process environment from dotenv files. Variables that are
// already set win. Missing files are ignored.
func Load(files ...string) error {
	if len(files) == 0 {
		files = []string{`.env`}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(`godotenv %s: %w`, file, err)
		}
	}
	return nil
}
